package dialog

import "github.com/Kerhoff/WishlistBot/internal/session"

// Button is an inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Reply is one outbound message. Markdown replies are MarkdownV2 with all
// user-supplied text already escaped.
type Reply struct {
	Text     string
	Markdown bool
	Buttons  [][]Button
}

// Response is everything the engine wants sent back for one event. Notice
// is a short toast shown on the pressed button, if any.
type Response struct {
	Notice  string
	Replies []Reply
}

func (r *Response) add(replies ...Reply) {
	r.Replies = append(r.Replies, replies...)
}

func textReply(text string, rows ...[]Button) Reply {
	return Reply{Text: text, Buttons: rows}
}

func row(buttons ...Button) []Button {
	return buttons
}

func action(text, data string) Button {
	return Button{Text: text, Data: data}
}

var (
	menuButton = action("📲 Menu", "menu")
	addButton  = action("➕ Add Item", "add")
)

func mainMenu() Reply {
	return textReply("What would you like to do?",
		row(addButton),
		row(action("📜 View My Wishlist", "view")),
		row(action("🔍 View Others", "view_others")),
	)
}

func fieldMenu(itemID int64) [][]Button {
	return [][]Button{
		row(action("Name", editFieldData(session.FieldName, itemID))),
		row(action("Price", editFieldData(session.FieldPrice, itemID))),
		row(action("URL", editFieldData(session.FieldURL, itemID))),
		row(action("Save Changes", saveData(itemID))),
	}
}

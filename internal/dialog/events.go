package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Kerhoff/WishlistBot/internal/session"
)

// Kind identifies what an inbound event asks for
type Kind string

const (
	KindText          Kind = "text"
	KindStart         Kind = "start"
	KindHelp          Kind = "help"
	KindMenu          Kind = "menu"
	KindAdd           Kind = "add"
	KindView          Kind = "view"
	KindViewOthers    Kind = "view_others"
	KindViewItem      Kind = "view_item"
	KindEditItem      Kind = "edit_item"
	KindEditField     Kind = "edit_field"
	KindSave          Kind = "save"
	KindDelete        Kind = "delete"
	KindConfirmDelete Kind = "confirm_delete"
	KindCancelDelete  Kind = "cancel_delete"
	KindViewOther     Kind = "view_other"
	KindReserve       Kind = "reserve"
	KindUnreserve     Kind = "unreserve"
	KindSkipPrice     Kind = "skip_price"
	KindSkipLink      Kind = "skip_link"
)

// Sender is the chat platform identity behind an event
type Sender struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Event is one decoded inbound message or button press
type Event struct {
	From   Sender
	Kind   Kind
	ItemID int64
	Field  session.Field
	Text   string
}

var exactActions = map[string]Kind{
	"menu":          KindMenu,
	"cancel":        KindMenu,
	"add":           KindAdd,
	"view":          KindView,
	"view_others":   KindViewOthers,
	"cancel_delete": KindCancelDelete,
	"skip_price":    KindSkipPrice,
	"skip_link":     KindSkipLink,
}

var (
	itemActionPattern  = regexp.MustCompile(`^(view|edit|save|delete|confirm_delete|view_other|reserve|unreserve)_(\d+)$`)
	fieldActionPattern = regexp.MustCompile(`^edit_(name|price|url)_(\d+)$`)
)

var itemActions = map[string]Kind{
	"view":           KindViewItem,
	"edit":           KindEditItem,
	"save":           KindSave,
	"delete":         KindDelete,
	"confirm_delete": KindConfirmDelete,
	"view_other":     KindViewOther,
	"reserve":        KindReserve,
	"unreserve":      KindUnreserve,
}

// ParseAction decodes inline button callback data into an event for from.
func ParseAction(from Sender, data string) (Event, error) {
	ev := Event{From: from}

	if kind, ok := exactActions[data]; ok {
		ev.Kind = kind
		return ev, nil
	}

	if m := fieldActionPattern.FindStringSubmatch(data); m != nil {
		id, err := parseID(m[2])
		if err != nil {
			return ev, err
		}
		ev.Kind = KindEditField
		ev.Field = session.Field(m[1])
		ev.ItemID = id
		return ev, nil
	}

	if m := itemActionPattern.FindStringSubmatch(data); m != nil {
		id, err := parseID(m[2])
		if err != nil {
			return ev, err
		}
		ev.Kind = itemActions[m[1]]
		ev.ItemID = id
		return ev, nil
	}

	return ev, fmt.Errorf("unknown action %q", data)
}

// ParseCommand maps a slash command (without the slash) to an event.
func ParseCommand(from Sender, command string) (Event, bool) {
	ev := Event{From: from}
	switch strings.ToLower(command) {
	case "start":
		ev.Kind = KindStart
	case "help":
		ev.Kind = KindHelp
	case "menu", "cancel":
		ev.Kind = KindMenu
	case "add":
		ev.Kind = KindAdd
	case "view", "wishlist":
		ev.Kind = KindView
	case "view_others", "others", "lookup":
		ev.Kind = KindViewOthers
	default:
		return ev, false
	}
	return ev, true
}

// TextEvent wraps a free-text message
func TextEvent(from Sender, text string) Event {
	return Event{From: from, Kind: KindText, Text: text}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}

// Callback data builders; the inverse of ParseAction.

func actionData(kind string, id int64) string {
	return kind + "_" + strconv.FormatInt(id, 10)
}

func viewItemData(id int64) string      { return actionData("view", id) }
func editItemData(id int64) string      { return actionData("edit", id) }
func saveData(id int64) string          { return actionData("save", id) }
func deleteData(id int64) string        { return actionData("delete", id) }
func confirmDeleteData(id int64) string { return actionData("confirm_delete", id) }
func viewOtherData(id int64) string     { return actionData("view_other", id) }
func reserveData(id int64) string       { return actionData("reserve", id) }
func unreserveData(id int64) string     { return actionData("unreserve", id) }

func editFieldData(field session.Field, id int64) string {
	return actionData("edit_"+string(field), id)
}

package dialog

import (
	"fmt"
	"strings"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/session"
)

var (
	skipPriceButton = action("Skip", "skip_price")
	skipLinkButton  = action("Skip", "skip_link")
)

const (
	askName  = "Please send the name of the item you want to add:"
	askPrice = `Please send the price of the item or click "Skip".`
	askLink  = `Please send the link to the item or click "Skip".`
)

func (e *Engine) beginAdd(t *turn) (session.State, Response) {
	return session.AwaitingItemName{}, Response{Replies: []Reply{textReply(askName)}}
}

func (e *Engine) enterName(t *turn) (session.State, Response) {
	name := strings.TrimSpace(t.event.Text)
	if name == "" {
		return t.stay(Response{Replies: []Reply{textReply("The name cannot be empty. " + askName)}})
	}
	next := session.AwaitingItemPrice{Draft: session.Draft{Name: name}}
	return next, Response{Replies: []Reply{textReply(askPrice, row(skipPriceButton))}}
}

func (e *Engine) enterPrice(t *turn, st session.AwaitingItemPrice) (session.State, Response) {
	price, err := ParsePrice(t.event.Text)
	if err != nil {
		t.log.WithError(err).Debug("Rejected price")
		return t.stay(Response{Replies: []Reply{
			textReply(`Invalid price. Please enter a number or click "Skip".`, row(skipPriceButton)),
		}})
	}
	draft := st.Draft
	draft.Price = price
	return session.AwaitingItemURL{Draft: draft}, Response{Replies: []Reply{textReply(askLink, row(skipLinkButton))}}
}

func (e *Engine) skipPrice(t *turn) (session.State, Response) {
	st, ok := t.state.(session.AwaitingItemPrice)
	if !ok {
		return t.stay(nothingToSkip())
	}
	draft := st.Draft
	draft.Price = 0
	return session.AwaitingItemURL{Draft: draft}, Response{Replies: []Reply{
		textReply("Price skipped. "+askLink, row(skipLinkButton)),
	}}
}

func (e *Engine) enterURL(t *turn, st session.AwaitingItemURL) (session.State, Response) {
	draft := st.Draft
	draft.URL = strings.TrimSpace(t.event.Text)
	return e.persistDraft(t, st, draft)
}

func (e *Engine) skipLink(t *turn) (session.State, Response) {
	st, ok := t.state.(session.AwaitingItemURL)
	if !ok {
		return t.stay(nothingToSkip())
	}
	draft := st.Draft
	draft.URL = ""
	return e.persistDraft(t, st, draft)
}

// persistDraft ends the add flow. On failure the previous state is kept so
// the user only has to resend the link.
func (e *Engine) persistDraft(t *turn, st session.AwaitingItemURL, draft session.Draft) (session.State, Response) {
	item, err := e.wishlist.AddItem(t.ctx, t.user.ID, models.ItemChanges{
		Name:  draft.Name,
		Price: draft.Price,
		URL:   draft.URL,
	})
	if err != nil {
		t.log.WithError(err).Error("Failed to add wishlist item")
		return st, Response{Replies: []Reply{
			textReply(`Failed to save the item. Please send the link again or click "Skip".`, row(skipLinkButton)),
		}}
	}

	t.log.WithField("item_id", item.ID).Info("Item added via dialog")
	return session.Idle{}, Response{Replies: []Reply{
		textReply(fmt.Sprintf("Item %q has been added to your wishlist.", item.Name), row(menuButton)),
	}}
}

func nothingToSkip() Response {
	return Response{Replies: []Reply{textReply("Nothing to skip right now.", row(menuButton))}}
}

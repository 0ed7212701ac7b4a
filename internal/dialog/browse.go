package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/session"
)

const (
	itemGone      = "This wishlist item no longer exists."
	invalidHandle = "Invalid username format. Accepted characters: A-z (case-insensitive), 0-9, and underscores. Length: 5-32 characters."
)

func (e *Engine) listOwn(t *turn) (session.State, Response) {
	items, err := e.wishlist.ListItems(t.ctx, t.user.ID)
	if err != nil {
		t.log.WithError(err).Error("Failed to list wishlist")
		return t.stay(Response{Replies: []Reply{
			textReply("An error occurred while fetching your wishlist. Please try again.", row(menuButton)),
		}})
	}

	if len(items) == 0 {
		return t.stay(Response{Replies: []Reply{
			textReply("Your wishlist is empty. Use the button below to add items!", row(addButton), row(menuButton)),
		}})
	}

	rows := make([][]Button, 0, len(items)+1)
	for _, item := range items {
		rows = append(rows, row(action(item.Name, viewItemData(item.ID))))
	}
	rows = append(rows, row(menuButton))
	return t.stay(Response{Replies: []Reply{textReply("Your wishlist:", rows...)}})
}

func (e *Engine) viewOwn(t *turn) (session.State, Response) {
	item, err := e.wishlist.GetOwnedItem(t.ctx, t.event.ItemID, t.user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return t.stay(Response{Replies: []Reply{textReply(itemGone, row(menuButton))}})
	}
	if err != nil {
		return t.stay(e.internalError(t, err, "Failed to fetch wishlist item"))
	}

	return t.stay(Response{Replies: []Reply{{
		Text:     ownItemDetails(item, e.currency),
		Markdown: true,
		Buttons: [][]Button{
			row(action("📝 Edit", editItemData(item.ID)), action("🗑 Delete", deleteData(item.ID))),
			row(menuButton),
		},
	}}})
}

func (e *Engine) beginLookup(t *turn) (session.State, Response) {
	return session.AwaitingUsernameLookup{}, Response{Replies: []Reply{
		textReply("Please enter the username of the person whose wishlist you want to view:"),
	}}
}

// lookup resolves the handle and ends the flow whatever the outcome, except
// for a malformed handle which is asked for again.
func (e *Engine) lookup(t *turn) (session.State, Response) {
	username, err := ParseUsername(t.event.Text)
	if err != nil {
		return t.stay(Response{Replies: []Reply{textReply(invalidHandle)}})
	}

	_, items, err := e.wishlist.ItemsByUsername(t.ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return session.Idle{}, Response{Replies: []Reply{
			textReply(fmt.Sprintf("The user %q does not exist.", username), row(menuButton)),
		}}
	case err != nil:
		t.log.WithError(err).WithField("username", username).Error("Failed to fetch wishlist by username")
		return session.Idle{}, Response{Replies: []Reply{
			textReply(fmt.Sprintf("Failed to fetch wishlist for user %q. Please try again.", username), row(menuButton)),
		}}
	case len(items) == 0:
		return session.Idle{}, Response{Replies: []Reply{
			textReply(fmt.Sprintf("The user %q does not have any wishlist items.", username), row(menuButton)),
		}}
	}

	rows := make([][]Button, 0, len(items)+1)
	for _, item := range items {
		rows = append(rows, row(action(item.Name, viewOtherData(item.ID))))
	}
	rows = append(rows, row(menuButton))
	return session.Idle{}, Response{Replies: []Reply{
		textReply(fmt.Sprintf("Wishlist for \"@%s\":", username), rows...),
	}}
}

func (e *Engine) viewOther(t *turn) (session.State, Response) {
	item, err := e.wishlist.GetItem(t.ctx, t.event.ItemID)
	if errors.Is(err, repository.ErrNotFound) {
		return t.stay(Response{Replies: []Reply{textReply("This item no longer exists.", row(menuButton))}})
	}
	if err != nil {
		t.log.WithError(err).Error("Failed to fetch item details")
		return t.stay(Response{Replies: []Reply{
			textReply("Failed to fetch item details. Please try again.", row(menuButton)),
		}})
	}

	// An owner reaching their own item through someone's link still must not
	// learn whether it is reserved.
	if item.OwnerID == t.user.ID {
		return t.stay(Response{Replies: []Reply{{
			Text:     ownItemDetails(item, e.currency),
			Markdown: true,
			Buttons:  [][]Button{row(menuButton)},
		}}})
	}

	var rows [][]Button
	if isWebLink(item.URL) {
		rows = append(rows, row(Button{Text: "🔗 Open link", URL: item.URL}))
	}
	switch {
	case item.IsReservedBy(t.user.ID):
		rows = append(rows, row(action("Cancel reservation", unreserveData(item.ID))))
	case !item.IsReserved():
		rows = append(rows, row(action("Reserve", reserveData(item.ID))))
	}
	rows = append(rows, row(menuButton))

	return t.stay(Response{Replies: []Reply{{
		Text:     otherItemDetails(item, t.user.ID, e.currency),
		Markdown: true,
		Buttons:  rows,
	}}})
}

func (e *Engine) reserve(t *turn) (session.State, Response) {
	err := e.reservations.Reserve(t.ctx, t.event.ItemID, t.user.ID)
	switch {
	case err == nil:
		return t.stay(Response{
			Notice:  "Reserved",
			Replies: []Reply{textReply("You have successfully reserved this wishlist item.", row(menuButton))},
		})
	case errors.Is(err, repository.ErrNotFound):
		return t.stay(Response{Replies: []Reply{textReply("This item no longer exists.", row(menuButton))}})
	case errors.Is(err, repository.ErrAlreadyReserved):
		return t.stay(Response{Replies: []Reply{
			textReply("Failed to reserve the wishlist item. Reason: it is already reserved by someone else.", row(menuButton)),
		}})
	}
	t.log.WithError(err).Error("Failed to reserve wishlist item")
	return t.stay(Response{Replies: []Reply{
		textReply("Failed to reserve the wishlist item. Please try again.", row(menuButton)),
	}})
}

func (e *Engine) unreserve(t *turn) (session.State, Response) {
	err := e.reservations.Release(t.ctx, t.event.ItemID, t.user.ID)
	switch {
	case err == nil:
		return t.stay(Response{
			Notice:  "Reservation canceled",
			Replies: []Reply{textReply("Your reservation has been canceled.", row(menuButton))},
		})
	case errors.Is(err, repository.ErrNotFound):
		return t.stay(Response{Replies: []Reply{textReply("This item no longer exists.", row(menuButton))}})
	case errors.Is(err, repository.ErrNotHolder):
		return t.stay(Response{Replies: []Reply{
			textReply("Failed to cancel the reservation. Reason: you do not hold it.", row(menuButton)),
		}})
	}
	t.log.WithError(err).Error("Failed to release reservation")
	return t.stay(Response{Replies: []Reply{
		textReply("Failed to cancel the reservation. Please try again.", row(menuButton)),
	}})
}

// isWebLink reports whether url can back a link button; Telegram rejects
// buttons with anything else.
func isWebLink(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

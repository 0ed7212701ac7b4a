package dialog

import (
	"errors"
	"strings"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/session"
)

const (
	notEditing   = "Error: No item is being edited."
	pickField    = "What would you like to edit?"
	pickOrSave   = "Pick another field to change or save your changes."
	wrongItem    = "This item is not the one being edited. Please open it again."
	saveFailed   = "Failed to save changes. Please try again."
	deleteFailed = "Failed to delete the item. Please try again."
)

func (e *Engine) beginEdit(t *turn) (session.State, Response) {
	if _, err := e.wishlist.GetOwnedItem(t.ctx, t.event.ItemID, t.user.ID); err != nil {
		return t.stay(e.itemFailure(t, err))
	}
	return session.EditingItem{ItemID: t.event.ItemID}, Response{Replies: []Reply{
		textReply(pickField, fieldMenu(t.event.ItemID)...),
	}}
}

// editTarget returns the item being edited and its snapshot, if any
func editTarget(state session.State) (id int64, snapshot models.ItemChanges, loaded, ok bool) {
	switch st := state.(type) {
	case session.EditingItem:
		return st.ItemID, st.Snapshot, st.Loaded, true
	case session.EditingField:
		return st.ItemID, st.Snapshot, true, true
	}
	return 0, models.ItemChanges{}, false, false
}

func (e *Engine) chooseField(t *turn) (session.State, Response) {
	id, snapshot, loaded, ok := editTarget(t.state)
	if !ok {
		return t.stay(Response{Replies: []Reply{textReply(notEditing, row(menuButton))}})
	}
	if id != t.event.ItemID {
		t.log.WithField("item_id", t.event.ItemID).Warn("Field choice for an item not being edited")
		return t.stay(Response{Replies: []Reply{textReply(wrongItem, row(menuButton))}})
	}

	if !loaded {
		item, err := e.wishlist.GetOwnedItem(t.ctx, id, t.user.ID)
		if err != nil {
			return e.dropEditOnMissing(t, err)
		}
		snapshot = models.ItemChanges{Name: item.Name, Price: item.Price, URL: item.URL}
	}

	next := session.EditingField{ItemID: id, Field: t.event.Field, Snapshot: snapshot}
	return next, Response{Replies: []Reply{textReply(e.fieldPrompt(t.event.Field))}}
}

func (e *Engine) fieldPrompt(field session.Field) string {
	switch field {
	case session.FieldPrice:
		return "Please enter the new price for the item (in " + e.currency + "):"
	case session.FieldURL:
		return "Please enter the new URL for the item:"
	}
	return "Please enter the new name for the item:"
}

func (e *Engine) enterFieldValue(t *turn, st session.EditingField) (session.State, Response) {
	snapshot := st.Snapshot
	value := strings.TrimSpace(t.event.Text)

	switch st.Field {
	case session.FieldName:
		if value == "" {
			return t.stay(Response{Replies: []Reply{textReply("The name cannot be empty. " + e.fieldPrompt(st.Field))}})
		}
		snapshot.Name = value
	case session.FieldPrice:
		price, err := ParsePrice(value)
		if err != nil {
			t.log.WithError(err).Debug("Rejected price")
			return t.stay(Response{Replies: []Reply{textReply("Invalid price. Please enter a valid number.")}})
		}
		snapshot.Price = price
	case session.FieldURL:
		snapshot.URL = value
	}

	next := session.EditingItem{ItemID: st.ItemID, Snapshot: snapshot, Loaded: true}
	return next, Response{Replies: []Reply{textReply(pickOrSave, fieldMenu(st.ItemID)...)}}
}

func (e *Engine) save(t *turn) (session.State, Response) {
	id, snapshot, loaded, ok := editTarget(t.state)
	if !ok {
		return t.stay(Response{Replies: []Reply{textReply(notEditing, row(menuButton))}})
	}
	if id != t.event.ItemID {
		t.log.WithField("item_id", t.event.ItemID).Warn("Save for an item not being edited")
		return t.stay(Response{Replies: []Reply{textReply(wrongItem, row(menuButton))}})
	}

	viewRow := row(action("View wish", viewItemData(id)), menuButton)
	if !loaded {
		return session.Idle{}, Response{Replies: []Reply{textReply("Nothing was changed.", viewRow)}}
	}

	if _, err := e.wishlist.UpdateItem(t.ctx, id, snapshot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return session.Idle{}, Response{Replies: []Reply{textReply(itemGone, row(menuButton))}}
		}
		t.log.WithError(err).WithField("item_id", id).Error("Failed to save item")
		return t.stay(Response{Replies: []Reply{textReply(saveFailed)}})
	}

	return session.Idle{}, Response{
		Notice:  "Saved",
		Replies: []Reply{textReply("Changes saved successfully.", viewRow)},
	}
}

func confirmDeletePrompt(itemID int64) Reply {
	return textReply("Are you sure you want to delete this item?",
		row(action("Yes", confirmDeleteData(itemID)), action("No", "cancel_delete")),
	)
}

func (e *Engine) beginDelete(t *turn) (session.State, Response) {
	if _, err := e.wishlist.GetOwnedItem(t.ctx, t.event.ItemID, t.user.ID); err != nil {
		return t.stay(e.itemFailure(t, err))
	}
	return session.ConfirmingDelete{ItemID: t.event.ItemID}, Response{Replies: []Reply{confirmDeletePrompt(t.event.ItemID)}}
}

func (e *Engine) confirmDelete(t *turn) (session.State, Response) {
	st, ok := t.state.(session.ConfirmingDelete)
	if !ok || st.ItemID != t.event.ItemID {
		return t.stay(Response{Replies: []Reply{textReply("No deletion is pending for this item.", row(menuButton))}})
	}

	if err := e.wishlist.DeleteItem(t.ctx, st.ItemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return session.Idle{}, Response{Replies: []Reply{textReply(itemGone, row(menuButton))}}
		}
		t.log.WithError(err).WithField("item_id", st.ItemID).Error("Failed to delete item")
		return t.stay(Response{Replies: []Reply{textReply(deleteFailed, confirmDeletePrompt(st.ItemID).Buttons...)}})
	}

	return session.Idle{}, Response{
		Notice:  "Item deleted successfully",
		Replies: []Reply{textReply("The item has been deleted from your wishlist.", row(menuButton))},
	}
}

func (e *Engine) cancelDelete(t *turn) (session.State, Response) {
	if _, ok := t.state.(session.ConfirmingDelete); !ok {
		return t.stay(Response{Replies: []Reply{textReply("No deletion is pending.", row(menuButton))}})
	}
	var resp Response
	resp.Notice = "Deletion canceled"
	resp.add(textReply("Item deletion has been canceled."), mainMenu())
	return session.Idle{}, resp
}

// itemFailure replies to a failed lookup of an owned item
func (e *Engine) itemFailure(t *turn, err error) Response {
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Replies: []Reply{textReply(itemGone, row(menuButton))}}
	}
	return e.internalError(t, err, "Failed to fetch wishlist item")
}

// dropEditOnMissing ends the edit flow when the item disappeared and keeps
// it on any other failure.
func (e *Engine) dropEditOnMissing(t *turn, err error) (session.State, Response) {
	if errors.Is(err, repository.ErrNotFound) {
		return session.Idle{}, Response{Replies: []Reply{textReply(itemGone, row(menuButton))}}
	}
	return t.stay(e.internalError(t, err, "Failed to load item for editing"))
}

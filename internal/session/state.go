package session

import (
	"fmt"

	"github.com/Kerhoff/WishlistBot/internal/models"
)

// State is the dialogue step a user is in. The set of states is closed:
// only the types declared in this file implement it, and each carries
// exactly the data that is meaningful in that step.
type State interface {
	// Name is a stable identifier used in logs and metrics
	Name() string
	isState()
}

// Draft accumulates the fields of an item during the add flow
type Draft struct {
	Name  string
	Price float64
	URL   string
}

// Field is an editable wishlist item field
type Field string

const (
	FieldName  Field = "name"
	FieldPrice Field = "price"
	FieldURL   Field = "url"
)

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldName, FieldPrice, FieldURL:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Idle means no dialogue is in progress
type Idle struct{}

// AwaitingItemName waits for the name of a new item
type AwaitingItemName struct{}

// AwaitingItemPrice waits for the price of a new item
type AwaitingItemPrice struct {
	Draft Draft
}

// AwaitingItemURL waits for the link of a new item; it ends the add flow
type AwaitingItemURL struct {
	Draft Draft
}

// AwaitingUsernameLookup waits for the handle of another user
type AwaitingUsernameLookup struct{}

// EditingItem waits for a field choice or a save. Snapshot holds the values
// to be written and is filled from storage on the first field choice.
type EditingItem struct {
	ItemID   int64
	Snapshot models.ItemChanges
	Loaded   bool
}

// EditingField waits for the new value of one field
type EditingField struct {
	ItemID   int64
	Field    Field
	Snapshot models.ItemChanges
}

// ConfirmingDelete waits for the user to confirm or cancel a deletion
type ConfirmingDelete struct {
	ItemID int64
}

func (Idle) Name() string                   { return "idle" }
func (AwaitingItemName) Name() string       { return "awaiting_item_name" }
func (AwaitingItemPrice) Name() string      { return "awaiting_item_price" }
func (AwaitingItemURL) Name() string        { return "awaiting_item_url" }
func (AwaitingUsernameLookup) Name() string { return "awaiting_username_lookup" }
func (EditingItem) Name() string            { return "editing_item" }
func (EditingField) Name() string           { return "editing_field" }
func (ConfirmingDelete) Name() string       { return "confirming_delete" }

func (Idle) isState()                   {}
func (AwaitingItemName) isState()       {}
func (AwaitingItemPrice) isState()      {}
func (AwaitingItemURL) isState()        {}
func (AwaitingUsernameLookup) isState() {}
func (EditingItem) isState()            {}
func (EditingField) isState()           {}
func (ConfirmingDelete) isState()       {}

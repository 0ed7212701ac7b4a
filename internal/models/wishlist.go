package models

import "time"

// WishlistItem is a single wish owned by a user. A zero Price and an empty
// URL mean the value was not specified.
type WishlistItem struct {
	ID            int64     `json:"id" db:"id"`
	OwnerID       int64     `json:"owner_id" db:"owner_id"`
	Name          string    `json:"name" db:"name"`
	Price         float64   `json:"price" db:"price"`
	URL           string    `json:"url" db:"url"`
	OrderedUserID *int64    `json:"ordered_user_id,omitempty" db:"ordered_user_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsReserved returns true if someone has claimed the item
func (i *WishlistItem) IsReserved() bool {
	return i.OrderedUserID != nil && *i.OrderedUserID != 0
}

// IsReservedBy returns true if the item is held by the given user
func (i *WishlistItem) IsReservedBy(userID int64) bool {
	return i.IsReserved() && *i.OrderedUserID == userID
}

// ItemChanges carries the editable fields of a wishlist item. The
// reservation holder is not part of it.
type ItemChanges struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

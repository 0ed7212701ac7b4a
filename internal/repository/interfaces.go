package repository

import (
	"context"
	"errors"

	"github.com/Kerhoff/WishlistBot/internal/models"
)

var (
	// ErrNotFound is returned when a user or wishlist item does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyReserved is returned when an item is held by another user
	ErrAlreadyReserved = errors.New("item is already reserved by another user")
	// ErrNotHolder is returned when a reservation is released by someone
	// who is neither the holder nor the item owner
	ErrNotHolder = errors.New("only the holder or the owner can release a reservation")
	// ErrUsernameTaken is returned when a handle is already recorded for another user
	ErrUsernameTaken = errors.New("username is already taken")
)

// UserRepository defines the interface for user data operations.
// Lookups return (nil, nil) when the user does not exist.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// WishlistRepository defines the interface for wishlist item operations.
// GetItem returns (nil, nil) when the item does not exist; mutations return
// ErrNotFound instead.
type WishlistRepository interface {
	AddItem(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	GetItem(ctx context.Context, id int64) (*models.WishlistItem, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.WishlistItem, error)
	UpdateItem(ctx context.Context, id int64, changes models.ItemChanges) (*models.WishlistItem, error)
	DeleteItem(ctx context.Context, id int64) error

	// Reserve sets the holder of an item if it is unset or already equal to
	// userID, as a single conditional write. It returns ErrNotFound or
	// ErrAlreadyReserved when the write does not apply.
	Reserve(ctx context.Context, itemID, userID int64) error

	// Unreserve clears the holder when userID is the holder or the owner.
	Unreserve(ctx context.Context, itemID, userID int64) error
}

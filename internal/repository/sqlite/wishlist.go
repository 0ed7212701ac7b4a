package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
)

const itemColumns = `id, owner_id, name, price, url, ordered_user_id, created_at, updated_at`

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *sql.DB) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) AddItem(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	query := `
		INSERT INTO wishlist_items (owner_id, name, price, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		item.OwnerID,
		item.Name,
		item.Price,
		item.URL,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist item ID: %w", err)
	}

	item.ID = id
	item.OrderedUserID = nil
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (r *wishlistRepository) GetItem(ctx context.Context, id int64) (*models.WishlistItem, error) {
	query := `SELECT ` + itemColumns + ` FROM wishlist_items WHERE id = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist item: %w", err)
	}
	return item, nil
}

func (r *wishlistRepository) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.WishlistItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM wishlist_items
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist items: %w", err)
	}
	defer rows.Close()

	var items []*models.WishlistItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *wishlistRepository) UpdateItem(ctx context.Context, id int64, changes models.ItemChanges) (*models.WishlistItem, error) {
	query := `
		UPDATE wishlist_items
		SET name = ?, price = ?, url = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		changes.Name,
		changes.Price,
		changes.URL,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	item, err := r.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

func (r *wishlistRepository) DeleteItem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *wishlistRepository) Reserve(ctx context.Context, itemID, userID int64) error {
	query := `
		UPDATE wishlist_items
		SET ordered_user_id = ?, updated_at = ?
		WHERE id = ? AND (ordered_user_id IS NULL OR ordered_user_id = ?)`

	result, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC(), itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to reserve wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.missOrConflict(ctx, itemID, repository.ErrAlreadyReserved)
	}

	return nil
}

func (r *wishlistRepository) Unreserve(ctx context.Context, itemID, userID int64) error {
	query := `
		UPDATE wishlist_items
		SET ordered_user_id = NULL, updated_at = ?
		WHERE id = ? AND (ordered_user_id = ? OR owner_id = ?)`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), itemID, userID, userID)
	if err != nil {
		return fmt.Errorf("failed to unreserve wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.missOrConflict(ctx, itemID, repository.ErrNotHolder)
	}

	return nil
}

func (r *wishlistRepository) missOrConflict(ctx context.Context, itemID int64, conflict error) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE id = ?)`, itemID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check wishlist item: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return conflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.WishlistItem, error) {
	item := &models.WishlistItem{}
	var orderedUserID sql.NullInt64
	if err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Price,
		&item.URL,
		&orderedUserID,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if orderedUserID.Valid {
		id := orderedUserID.Int64
		item.OrderedUserID = &id
	}
	return item, nil
}

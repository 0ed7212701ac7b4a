// Package reservation lets a user claim an item on someone else's wishlist.
//
// At most one distinct user can hold an item. The guarantee lives in the
// repository: Reserve is a single conditional write, so two concurrent
// claimants can never both succeed.
package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/metrics"
	"github.com/Kerhoff/WishlistBot/internal/repository"
)

const (
	resultReserved        = "reserved"
	resultAlreadyReserved = "already_reserved"
	resultNotFound        = "not_found"
	resultReleased        = "released"
	resultNotHolder       = "not_holder"
	resultError           = "error"
)

// Manager claims and releases wishlist items
type Manager struct {
	wishlist repository.WishlistRepository
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewManager creates a reservation manager. m may be nil.
func NewManager(wishlist repository.WishlistRepository, logger *logrus.Logger, m *metrics.Metrics) *Manager {
	return &Manager{wishlist: wishlist, logger: logger, metrics: m}
}

// Reserve claims itemID for userID. Reserving an item already held by the
// same user succeeds without changes. It returns repository.ErrNotFound or
// repository.ErrAlreadyReserved when the claim is rejected.
func (m *Manager) Reserve(ctx context.Context, itemID, userID int64) error {
	err := m.wishlist.Reserve(ctx, itemID, userID)
	m.metrics.ObserveReservation(classify(err, resultReserved))

	fields := logrus.Fields{"item_id": itemID, "user_id": userID}
	switch {
	case err == nil:
		m.logger.WithFields(fields).Info("Wishlist item reserved")
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrAlreadyReserved):
		m.logger.WithFields(fields).WithError(err).Info("Reservation rejected")
		return err
	default:
		return fmt.Errorf("failed to reserve item %d: %w", itemID, err)
	}
}

// Release clears the reservation of itemID. Only the holder or the item
// owner may do so; anyone else gets repository.ErrNotHolder.
func (m *Manager) Release(ctx context.Context, itemID, userID int64) error {
	err := m.wishlist.Unreserve(ctx, itemID, userID)
	m.metrics.ObserveReservation(classify(err, resultReleased))

	fields := logrus.Fields{"item_id": itemID, "user_id": userID}
	switch {
	case err == nil:
		m.logger.WithFields(fields).Info("Wishlist reservation released")
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrNotHolder):
		m.logger.WithFields(fields).WithError(err).Info("Release rejected")
		return err
	default:
		return fmt.Errorf("failed to release item %d: %w", itemID, err)
	}
}

func classify(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, repository.ErrNotFound):
		return resultNotFound
	case errors.Is(err, repository.ErrAlreadyReserved):
		return resultAlreadyReserved
	case errors.Is(err, repository.ErrNotHolder):
		return resultNotHolder
	default:
		return resultError
	}
}

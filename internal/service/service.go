package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/sirupsen/logrus"
)

// ErrInvalidInput marks values rejected before they reach storage
var ErrInvalidInput = errors.New("invalid input")

// Service is the business logic layer over the user and wishlist
// repositories, shared by the dialog engine and the HTTP API.
type Service struct {
	logger   *logrus.Logger
	Users    repository.UserRepository
	Wishlist repository.WishlistRepository
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, users repository.UserRepository, wishlist repository.WishlistRepository) *Service {
	return &Service{logger: logger, Users: users, Wishlist: wishlist}
}

// EnsureUser retrieves an existing user by Telegram ID, or creates a new one
// if not found. If the user already exists but their profile information has
// changed (username, first name, last name), it updates the record. A handle
// still recorded for another Telegram account is released first, since
// Telegram lets handles move between accounts.
func (s *Service) EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}

	if username != "" && (user == nil || !strings.EqualFold(user.Username, username)) {
		if err := s.releaseUsername(ctx, username, telegramID); err != nil {
			return nil, err
		}
	}

	if user == nil {
		user = &models.User{
			TelegramID: telegramID,
			Username:   username,
			FirstName:  firstName,
			LastName:   lastName,
		}
		user, err = s.Users.Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w", telegramID, err)
		}
		s.logger.Infof("Created new user: %s (telegram_id=%d)", user.DisplayName(), telegramID)
		return user, nil
	}

	if user.Username == username && user.FirstName == firstName && user.LastName == lastName {
		return user, nil
	}

	user.Username = username
	user.FirstName = firstName
	user.LastName = lastName

	user, err = s.Users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user (telegram_id=%d): %w", telegramID, err)
	}
	s.logger.Infof("Updated user profile: %s (telegram_id=%d)", user.DisplayName(), telegramID)

	return user, nil
}

func (s *Service) releaseUsername(ctx context.Context, username string, telegramID int64) error {
	holder, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to lookup username %q: %w", username, err)
	}
	if holder == nil || holder.TelegramID == telegramID {
		return nil
	}

	holder.Username = ""
	if _, err := s.Users.Update(ctx, holder); err != nil {
		return fmt.Errorf("failed to release username %q from user %d: %w", username, holder.ID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"username":    username,
		"previous_id": holder.TelegramID,
		"telegram_id": telegramID,
	}).Info("Username moved to another account")
	return nil
}

// UserByTelegramID returns the registered user or repository.ErrNotFound.
func (s *Service) UserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}
	if user == nil {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

// LookupUser resolves a handle (with or without the leading @).
func (s *Service) LookupUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	user, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup username %q: %w", username, err)
	}
	if user == nil {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

// ItemsByUsername resolves a handle and returns its owner's wishlist.
func (s *Service) ItemsByUsername(ctx context.Context, username string) (*models.User, []*models.WishlistItem, error) {
	user, err := s.LookupUser(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.ListItems(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, items, nil
}

// AddItem validates and stores a new wishlist item for ownerID.
func (s *Service) AddItem(ctx context.Context, ownerID int64, changes models.ItemChanges) (*models.WishlistItem, error) {
	changes, err := normalize(changes)
	if err != nil {
		return nil, err
	}

	item, err := s.Wishlist.AddItem(ctx, &models.WishlistItem{
		OwnerID: ownerID,
		Name:    changes.Name,
		Price:   changes.Price,
		URL:     changes.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item for user %d: %w", ownerID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"item_id":  item.ID,
	}).Info("Wishlist item added")

	return item, nil
}

// ListItems returns the items owned by ownerID, oldest first.
func (s *Service) ListItems(ctx context.Context, ownerID int64) ([]*models.WishlistItem, error) {
	items, err := s.Wishlist.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for user %d: %w", ownerID, err)
	}
	return items, nil
}

// GetItem returns the item or repository.ErrNotFound.
func (s *Service) GetItem(ctx context.Context, id int64) (*models.WishlistItem, error) {
	item, err := s.Wishlist.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	if item == nil {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

// GetOwnedItem returns the item only when ownerID owns it; items owned by
// someone else are reported as repository.ErrNotFound.
func (s *Service) GetOwnedItem(ctx context.Context, id, ownerID int64) (*models.WishlistItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

// UpdateItem replaces the editable fields of an item.
func (s *Service) UpdateItem(ctx context.Context, id int64, changes models.ItemChanges) (*models.WishlistItem, error) {
	changes, err := normalize(changes)
	if err != nil {
		return nil, err
	}
	item, err := s.Wishlist.UpdateItem(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %d: %w", id, err)
	}
	s.logger.WithField("item_id", id).Info("Wishlist item updated")
	return item, nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.Wishlist.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	s.logger.WithField("item_id", id).Info("Wishlist item deleted")
	return nil
}

func normalize(changes models.ItemChanges) (models.ItemChanges, error) {
	changes.Name = strings.TrimSpace(changes.Name)
	changes.URL = strings.TrimSpace(changes.URL)
	if changes.Name == "" {
		return changes, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if changes.Price < 0 || math.IsNaN(changes.Price) || math.IsInf(changes.Price, 0) {
		return changes, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}
	return changes, nil
}

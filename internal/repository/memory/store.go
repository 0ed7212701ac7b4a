// Package memory keeps users and wishlist items in process memory. It backs
// STORAGE_DRIVER=memory and doubles as the repository in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
)

// Store implements repository.UserRepository and
// repository.WishlistRepository; thread-safe.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	items      map[int64]*models.WishlistItem
	nextUserID int64
	nextItemID int64
}

var (
	_ repository.UserRepository     = (*Store)(nil)
	_ repository.WishlistRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users: make(map[int64]*models.User),
		items: make(map[int64]*models.WishlistItem),
	}
}

func (s *Store) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username != "" && s.usernameHolder(user.Username, 0) != nil {
		return nil, repository.ErrUsernameTaken
	}

	s.nextUserID++
	now := time.Now()
	stored := *user
	stored.ID = s.nextUserID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *Store) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.usernameHolder(username, 0); u != nil {
		out := *u
		return &out, nil
	}
	return nil, nil
}

func (s *Store) Update(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if user.Username != "" && s.usernameHolder(user.Username, user.ID) != nil {
		return nil, repository.ErrUsernameTaken
	}

	existing.Username = user.Username
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.UpdatedAt = time.Now()

	out := *existing
	return &out, nil
}

// usernameHolder finds the user owning a handle, ignoring exceptID; callers
// hold the lock.
func (s *Store) usernameHolder(username string, exceptID int64) *models.User {
	if username == "" {
		return nil
	}
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

func (s *Store) AddItem(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	now := time.Now()
	stored := *item
	stored.ID = s.nextItemID
	stored.OrderedUserID = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.items[stored.ID] = &stored

	return cloneItem(&stored), nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*models.WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

func (s *Store) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*models.WishlistItem
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			items = append(items, cloneItem(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, id int64, changes models.ItemChanges) (*models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	item.Name = changes.Name
	item.Price = changes.Price
	item.URL = changes.URL
	item.UpdatedAt = time.Now()
	return cloneItem(item), nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Reserve(ctx context.Context, itemID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	if item.IsReserved() && *item.OrderedUserID != userID {
		return repository.ErrAlreadyReserved
	}
	holder := userID
	item.OrderedUserID = &holder
	item.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Unreserve(ctx context.Context, itemID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	if item.OwnerID != userID && !item.IsReservedBy(userID) {
		return repository.ErrNotHolder
	}
	item.OrderedUserID = nil
	item.UpdatedAt = time.Now()
	return nil
}

func cloneItem(item *models.WishlistItem) *models.WishlistItem {
	out := *item
	if item.OrderedUserID != nil {
		holder := *item.OrderedUserID
		out.OrderedUserID = &holder
	}
	return &out
}

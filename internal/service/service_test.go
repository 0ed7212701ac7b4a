package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/repository/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	return New(logger, store, store)
}

func TestEnsureUserCreatesThenUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureUser(ctx, 10, "@Alice_W ", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice_W", created.Username)

	again, err := svc.EnsureUser(ctx, 10, "Alice_W", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	renamed, err := svc.EnsureUser(ctx, 10, "alice_new", "Alice", "Smith")
	require.NoError(t, err)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, "alice_new", renamed.Username)
	assert.Equal(t, "Smith", renamed.LastName)

	_, err = svc.LookupUser(ctx, "Alice_W")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEnsureUserReassignsHandle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, 1, "shared_name", "", "")
	require.NoError(t, err)

	// the handle now belongs to another Telegram account
	second, err := svc.EnsureUser(ctx, 2, "shared_name", "", "")
	require.NoError(t, err)

	holder, err := svc.LookupUser(ctx, "@shared_name")
	require.NoError(t, err)
	assert.Equal(t, second.ID, holder.ID)

	stale, err := svc.UserByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stale.ID)
	assert.Empty(t, stale.Username)
}

func TestItemsByUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner, err := svc.EnsureUser(ctx, 1, "gift_owner", "", "")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner.ID, models.ItemChanges{Name: "Scarf"})
	require.NoError(t, err)

	user, items, err := svc.ItemsByUsername(ctx, "GIFT_OWNER")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "Scarf", items[0].Name)

	_, _, err = svc.ItemsByUsername(ctx, "nobody_here")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAddItemValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, models.ItemChanges{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, 1, models.ItemChanges{Name: "Hat", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	item, err := svc.AddItem(ctx, 1, models.ItemChanges{Name: "  Hat ", URL: " https://example.com "})
	require.NoError(t, err)
	assert.Equal(t, "Hat", item.Name)
	assert.Equal(t, "https://example.com", item.URL)
}

func TestGetOwnedItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, 1, models.ItemChanges{Name: "Hat"})
	require.NoError(t, err)

	got, err := svc.GetOwnedItem(ctx, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = svc.GetOwnedItem(ctx, item.ID, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetItem(ctx, 777)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateAndDeleteMissingItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, 5, models.ItemChanges{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteItem(ctx, 5), repository.ErrNotFound)
}

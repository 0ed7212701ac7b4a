package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/WishlistBot/internal/config"
	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
)

type testDB struct {
	users    repository.UserRepository
	wishlist repository.WishlistRepository
}

func openTestDB(t *testing.T) *testDB {
	t.Helper()
	logger, _ := test.NewNullLogger()
	db, err := config.NewSQLite(filepath.Join(t.TempDir(), "wishlist.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testDB{
		users:    NewUserRepository(db.DB),
		wishlist: NewWishlistRepository(db.DB),
	}
}

func (d *testDB) user(t *testing.T, tgID int64, username string) *models.User {
	t.Helper()
	u, err := d.users.Create(context.Background(), &models.User{TelegramID: tgID, Username: username, FirstName: "Test"})
	require.NoError(t, err)
	return u
}

func TestUserRoundTrip(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	created := d.user(t, 555, "Mixed_Case")
	assert.NotZero(t, created.ID)

	byTg, err := d.users.GetByTelegramID(ctx, 555)
	require.NoError(t, err)
	require.NotNil(t, byTg)
	assert.Equal(t, created.ID, byTg.ID)

	byName, err := d.users.GetByUsername(ctx, "mixed_case")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := d.users.GetByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byTg.LastName = "Updated"
	updated, err := d.users.Update(ctx, byTg)
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.LastName)
}

func TestUsernameIsUnique(t *testing.T) {
	d := openTestDB(t)

	d.user(t, 1, "taken_name")
	_, err := d.users.Create(context.Background(), &models.User{TelegramID: 2, Username: "TAKEN_NAME"})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	// users without a handle never collide
	d.user(t, 3, "")
	d.user(t, 4, "")
}

func TestItemLifecycle(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	owner := d.user(t, 1, "owner_one")

	item, err := d.wishlist.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Tent", Price: 120.5, URL: "https://example.com/tent"})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)

	second, err := d.wishlist.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Stove"})
	require.NoError(t, err)

	items, err := d.wishlist.GetItemsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)

	updated, err := d.wishlist.UpdateItem(ctx, item.ID, models.ItemChanges{Name: "Big tent", Price: 99, URL: ""})
	require.NoError(t, err)
	assert.Equal(t, "Big tent", updated.Name)
	assert.InDelta(t, 99, updated.Price, 1e-9)
	assert.Empty(t, updated.URL)

	_, err = d.wishlist.UpdateItem(ctx, 9999, models.ItemChanges{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, d.wishlist.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, d.wishlist.DeleteItem(ctx, item.ID), repository.ErrNotFound)

	gone, err := d.wishlist.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateDoesNotTouchReservation(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	owner := d.user(t, 1, "owner_one")
	friend := d.user(t, 2, "friend_two")

	item, err := d.wishlist.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Tent"})
	require.NoError(t, err)
	require.NoError(t, d.wishlist.Reserve(ctx, item.ID, friend.ID))

	updated, err := d.wishlist.UpdateItem(ctx, item.ID, models.ItemChanges{Name: "Tent 2"})
	require.NoError(t, err)
	require.NotNil(t, updated.OrderedUserID)
	assert.Equal(t, friend.ID, *updated.OrderedUserID)
}

func TestConcurrentReserve(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	owner := d.user(t, 1, "owner_one")

	const claimants = 8
	users := make([]*models.User, claimants)
	for i := range users {
		users[i] = d.user(t, int64(100+i), "")
	}

	item, err := d.wishlist.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Tent"})
	require.NoError(t, err)

	errs := make([]error, claimants)
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.wishlist.Reserve(ctx, item.ID, users[i].ID)
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one reservation succeeded")
			winner = i
			continue
		}
		require.True(t, errors.Is(err, repository.ErrAlreadyReserved), "unexpected error: %v", err)
	}
	require.NotEqual(t, -1, winner)

	got, err := d.wishlist.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OrderedUserID)
	assert.Equal(t, users[winner].ID, *got.OrderedUserID)

	// idempotent for the holder
	assert.NoError(t, d.wishlist.Reserve(ctx, item.ID, users[winner].ID))
}

func TestReserveAndReleaseErrors(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	owner := d.user(t, 1, "owner_one")
	friend := d.user(t, 2, "friend_two")
	stranger := d.user(t, 3, "stranger_3")

	assert.ErrorIs(t, d.wishlist.Reserve(ctx, 4242, friend.ID), repository.ErrNotFound)
	assert.ErrorIs(t, d.wishlist.Unreserve(ctx, 4242, friend.ID), repository.ErrNotFound)

	item, err := d.wishlist.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Tent"})
	require.NoError(t, err)
	require.NoError(t, d.wishlist.Reserve(ctx, item.ID, friend.ID))

	assert.ErrorIs(t, d.wishlist.Unreserve(ctx, item.ID, stranger.ID), repository.ErrNotHolder)
	assert.NoError(t, d.wishlist.Unreserve(ctx, item.ID, owner.ID))
}

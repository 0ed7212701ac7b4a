package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/WishlistBot/internal/metrics"
	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	manager *Manager
	metrics *metrics.Metrics
	owner   *models.User
	userA   *models.User
	userB   *models.User
	item    *models.WishlistItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	m := metrics.New(prometheus.NewRegistry())

	create := func(tgID int64, name string) *models.User {
		u, err := store.Create(ctx, &models.User{TelegramID: tgID, Username: name})
		require.NoError(t, err)
		return u
	}
	owner := create(100, "owner_user")
	item, err := store.AddItem(ctx, &models.WishlistItem{OwnerID: owner.ID, Name: "Camera"})
	require.NoError(t, err)

	return &fixture{
		store:   store,
		manager: NewManager(store, logger, m),
		metrics: m,
		owner:   owner,
		userA:   create(200, "user_a"),
		userB:   create(300, "user_b"),
		item:    item,
	}
}

func (f *fixture) holder(t *testing.T) *int64 {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	return item.OrderedUserID
}

func TestConcurrentReserveHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := []int64{f.userA.ID, f.userB.ID}

	const rounds = 100
	for round := 0; round < rounds; round++ {
		item, err := f.store.AddItem(ctx, &models.WishlistItem{OwnerID: f.owner.ID, Name: "Lens"})
		require.NoError(t, err)

		results := make([]error, len(users))
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := range users {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i] = f.manager.Reserve(ctx, item.ID, users[i])
			}(i)
		}
		close(start)
		wg.Wait()

		var winners, conflicts int
		var winner int64
		for i, err := range results {
			switch {
			case err == nil:
				winners++
				winner = users[i]
			case errors.Is(err, repository.ErrAlreadyReserved):
				conflicts++
			default:
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
		}
		require.Equal(t, 1, winners, "round %d", round)
		require.Equal(t, 1, conflicts, "round %d", round)

		stored, err := f.store.GetItem(ctx, item.ID)
		require.NoError(t, err)
		require.True(t, stored.IsReservedBy(winner), "round %d", round)

		// the winner can reserve again without effect
		require.NoError(t, f.manager.Reserve(ctx, item.ID, winner))
		stored, err = f.store.GetItem(ctx, item.ID)
		require.NoError(t, err)
		require.True(t, stored.IsReservedBy(winner), "round %d", round)
	}

	assert.Equal(t, float64(2*rounds), testutil.ToFloat64(f.metrics.Reservations.WithLabelValues("reserved")))
	assert.Equal(t, float64(rounds), testutil.ToFloat64(f.metrics.Reservations.WithLabelValues("already_reserved")))
}

func TestReserveMissingItem(t *testing.T) {
	f := newFixture(t)

	err := f.manager.Reserve(context.Background(), 9999, f.userA.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReleaseRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Reserve(ctx, f.item.ID, f.userA.ID))

	// a bystander cannot release
	assert.ErrorIs(t, f.manager.Release(ctx, f.item.ID, f.userB.ID), repository.ErrNotHolder)
	require.NotNil(t, f.holder(t))

	// the holder can
	require.NoError(t, f.manager.Release(ctx, f.item.ID, f.userA.ID))
	assert.Nil(t, f.holder(t))

	// and after that someone else may claim it
	require.NoError(t, f.manager.Reserve(ctx, f.item.ID, f.userB.ID))

	// the owner can always release
	require.NoError(t, f.manager.Release(ctx, f.item.ID, f.owner.ID))
	assert.Nil(t, f.holder(t))

	assert.ErrorIs(t, f.manager.Release(ctx, 9999, f.owner.ID), repository.ErrNotFound)
}

type brokenRepo struct {
	repository.WishlistRepository
}

func (brokenRepo) Reserve(context.Context, int64, int64) error {
	return errors.New("connection reset")
}

func TestReserveWrapsStorageErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m := NewManager(brokenRepo{}, logger, nil)

	err := m.Reserve(context.Background(), 1, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrAlreadyReserved)
	assert.Contains(t, err.Error(), "failed to reserve item 1")
}

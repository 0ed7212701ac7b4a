package telegram

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(logger)

	const perKey = 200
	var mu sync.Mutex
	got := map[int64][]int{}

	for i := 0; i < perKey; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			require.True(t, d.Submit(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			}))
		}
	}
	d.Close()

	for _, key := range []int64{1, 2, 3} {
		require.Len(t, got[key], perKey)
		for i, v := range got[key] {
			require.Equal(t, i, v, "key %d out of order", key)
		}
	}
	assert.Equal(t, int64(3*perKey), d.Processed())
	assert.Zero(t, d.Pending())
}

func TestDispatcherRunsKeysConcurrently(t *testing.T) {
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(logger)

	blocked := make(chan struct{})
	d.Submit(1, func() { <-blocked })

	done := make(chan struct{})
	d.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key 2 waited for key 1")
	}
	close(blocked)
	d.Close()
}

func TestDispatcherSurvivesPanics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(logger)

	ran := make(chan struct{})
	d.Submit(1, func() { panic("boom") })
	d.Submit(1, func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job after panic did not run")
	}
	d.Close()

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Panic in update handler" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(logger)
	d.Close()

	assert.False(t, d.Submit(1, func() {}))
}

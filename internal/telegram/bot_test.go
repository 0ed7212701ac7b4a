package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/WishlistBot/internal/dialog"
)

// ctxEngine fails like a database call would when its context is done
type ctxEngine struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	errs    []error
}

func (e *ctxEngine) Handle(ctx context.Context, ev dialog.Event) dialog.Response {
	e.mu.Lock()
	first := len(e.errs) == 0
	e.errs = append(e.errs, nil)
	n := len(e.errs) - 1
	e.mu.Unlock()

	if first {
		close(e.started)
		<-e.release
	}

	e.mu.Lock()
	e.errs[n] = ctx.Err()
	e.mu.Unlock()
	if ctx.Err() != nil {
		return dialog.Response{Replies: []dialog.Reply{{Text: "failed"}}}
	}
	return dialog.Response{Replies: []dialog.Reply{{Text: "done"}}}
}

func TestStopHandlesQueuedUpdatesAfterCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	engine := &ctxEngine{started: make(chan struct{}), release: make(chan struct{})}
	sender := &fakeSender{}
	b := &Bot{
		sender:     sender,
		logger:     logger,
		router:     NewRouter(engine, logger),
		dispatcher: NewDispatcher(logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.dispatch(ctx, textUpdate("first"))
	<-engine.started
	b.dispatch(ctx, textUpdate("second"))

	cancel()
	close(engine.release)
	b.Stop()

	require.Len(t, engine.errs, 2)
	for _, err := range engine.errs {
		assert.NoError(t, err)
	}
	require.Len(t, sender.messages, 2)
	for _, msg := range sender.messages {
		assert.Equal(t, "done", msg.Text)
	}
}

func TestWebhookPathDependsOnToken(t *testing.T) {
	const token = "123456:secret-token"
	path := WebhookPath(token)

	assert.Equal(t, path, WebhookPath(token))
	assert.NotEqual(t, path, WebhookPath("654321:other-token"))
	assert.True(t, strings.HasPrefix(path, "/telegram/webhook/"))
	assert.NotContains(t, path, "secret-token")
}

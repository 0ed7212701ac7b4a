// Package dialog implements the conversational state machine of the bot.
//
// The engine receives decoded events, advances the caller's session and
// returns reply intents. It knows nothing about the chat transport.
package dialog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/metrics"
	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/session"
)

// Wishlist is the storage facade the engine works against
type Wishlist interface {
	EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error)
	AddItem(ctx context.Context, ownerID int64, changes models.ItemChanges) (*models.WishlistItem, error)
	ListItems(ctx context.Context, ownerID int64) ([]*models.WishlistItem, error)
	GetItem(ctx context.Context, id int64) (*models.WishlistItem, error)
	GetOwnedItem(ctx context.Context, id, ownerID int64) (*models.WishlistItem, error)
	UpdateItem(ctx context.Context, id int64, changes models.ItemChanges) (*models.WishlistItem, error)
	DeleteItem(ctx context.Context, id int64) error
	ItemsByUsername(ctx context.Context, username string) (*models.User, []*models.WishlistItem, error)
}

// Reservations claims and releases items
type Reservations interface {
	Reserve(ctx context.Context, itemID, userID int64) error
	Release(ctx context.Context, itemID, userID int64) error
}

const genericFailure = "Something went wrong. Please try again."

// Engine drives every user's dialogue. It is safe for concurrent use;
// events of the same user are serialized by the session store.
type Engine struct {
	wishlist     Wishlist
	reservations Reservations
	sessions     *session.Store
	logger       *logrus.Logger
	metrics      *metrics.Metrics
	currency     string
}

// NewEngine wires the dialog engine. m may be nil.
func NewEngine(wishlist Wishlist, reservations Reservations, sessions *session.Store, logger *logrus.Logger, m *metrics.Metrics, currency string) *Engine {
	return &Engine{
		wishlist:     wishlist,
		reservations: reservations,
		sessions:     sessions,
		logger:       logger,
		metrics:      m,
		currency:     currency,
	}
}

// turn is the context of handling one event
type turn struct {
	ctx   context.Context
	user  *models.User
	event Event
	state session.State
	log   *logrus.Entry
}

// stay keeps the current state
func (t *turn) stay(resp Response) (session.State, Response) {
	return t.state, resp
}

// Handle processes one event for its sender and returns what to send back.
// It never fails: errors are turned into replies and the session is left
// in a consistent state.
func (e *Engine) Handle(ctx context.Context, ev Event) Response {
	e.metrics.ObserveEvent(string(ev.Kind))

	var resp Response
	err := e.sessions.Do(ev.From.TelegramID, func(sess *session.Session) error {
		t := &turn{
			ctx:   ctx,
			event: ev,
			state: sess.State,
			log: e.logger.WithFields(logrus.Fields{
				"user_id": ev.From.TelegramID,
				"action":  ev.Kind,
				"state":   sess.State.Name(),
			}),
		}

		user, err := e.wishlist.EnsureUser(ctx, ev.From.TelegramID, ev.From.Username, ev.From.FirstName, ev.From.LastName)
		if err != nil {
			resp = Response{Replies: []Reply{textReply(genericFailure)}}
			return fmt.Errorf("failed to sync user: %w", err)
		}
		t.user = user

		next, r := e.step(t)
		resp = r
		if next.Name() != sess.State.Name() {
			t.log.WithField("next_state", next.Name()).Debug("Session transition")
		}
		e.metrics.ObserveTransition(sess.State.Name(), next.Name())
		sess.State = next
		return nil
	})
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"user_id": ev.From.TelegramID,
			"action":  ev.Kind,
		}).WithError(err).Error("Failed to handle event")
	}
	return resp
}

func (e *Engine) step(t *turn) (session.State, Response) {
	switch t.event.Kind {
	case KindStart:
		return e.start(t)
	case KindHelp:
		return t.stay(Response{Replies: []Reply{textReply(helpText, row(menuButton))}})
	case KindMenu:
		return session.Idle{}, Response{Replies: []Reply{mainMenu()}}
	case KindText:
		return e.text(t)

	case KindAdd:
		return e.beginAdd(t)
	case KindSkipPrice:
		return e.skipPrice(t)
	case KindSkipLink:
		return e.skipLink(t)

	case KindView:
		return e.listOwn(t)
	case KindViewItem:
		return e.viewOwn(t)
	case KindViewOthers:
		return e.beginLookup(t)
	case KindViewOther:
		return e.viewOther(t)
	case KindReserve:
		return e.reserve(t)
	case KindUnreserve:
		return e.unreserve(t)

	case KindEditItem:
		return e.beginEdit(t)
	case KindEditField:
		return e.chooseField(t)
	case KindSave:
		return e.save(t)
	case KindDelete:
		return e.beginDelete(t)
	case KindConfirmDelete:
		return e.confirmDelete(t)
	case KindCancelDelete:
		return e.cancelDelete(t)
	}

	t.log.Warn("Unhandled event kind")
	return t.stay(Response{})
}

// text routes free text by the current state
func (e *Engine) text(t *turn) (session.State, Response) {
	switch st := t.state.(type) {
	case session.AwaitingItemName:
		return e.enterName(t)
	case session.AwaitingItemPrice:
		return e.enterPrice(t, st)
	case session.AwaitingItemURL:
		return e.enterURL(t, st)
	case session.AwaitingUsernameLookup:
		return e.lookup(t)
	case session.EditingField:
		return e.enterFieldValue(t, st)
	case session.EditingItem:
		return t.stay(Response{Replies: []Reply{
			textReply("Error: No field selected for editing. Please use the available options.", fieldMenu(st.ItemID)...),
		}})
	case session.ConfirmingDelete:
		return t.stay(Response{Replies: []Reply{confirmDeletePrompt(st.ItemID)}})
	}
	return t.stay(Response{})
}

func (e *Engine) start(t *turn) (session.State, Response) {
	name := t.event.From.FirstName
	if name == "" {
		name = t.event.From.Username
	}
	if name == "" {
		name = "User"
	}

	var resp Response
	resp.add(textReply(fmt.Sprintf("Welcome %s!", name)), mainMenu())
	return session.Idle{}, resp
}

const helpText = `Keep a wishlist and see what your friends wish for.

/start - register and show the main menu
/menu - cancel whatever you are doing and show the main menu
/add - add an item to your wishlist
/view - show your wishlist
/others - look up someone else's wishlist by username
/help - show this message

Items on other people's wishlists can be reserved so nobody buys the same gift twice. Owners never see who reserved what.`

func (e *Engine) internalError(t *turn, err error, msg string) Response {
	t.log.WithError(err).Error(msg)
	return Response{Replies: []Reply{textReply(genericFailure, row(menuButton))}}
}

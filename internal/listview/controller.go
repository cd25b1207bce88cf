// Package listview derives the displayed memo list from the cached list and
// the user's view options.
package listview

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/domain"
)

// ErrNotLoggedIn is returned instead of fetching while nobody is logged in.
var ErrNotLoggedIn = errors.New("not logged in")

// MemoService is the part of the memo service the list needs.
type MemoService interface {
	List(ctx context.Context) ([]domain.Memo, error)
	ToggleStar(ctx context.Context, id string) (domain.Memo, error)
	Delete(ctx context.Context, id string) error
	SubscribeList() *cache.Subscription
}

// LoginState reports whether a user is logged in and signals when that
// changes.
type LoginState interface {
	IsLoggedIn() bool
	Subscribe() (<-chan struct{}, func())
}

// View is one derivation of the list.
type View struct {
	Memos   []domain.Memo
	Options Options
	// Total is the number of memos before filtering.
	Total int
}

// Controller serves the memo list screen.
type Controller struct {
	memos     MemoService
	store     *Store
	session   LoginState
	projector *Projector
	logger    *zap.Logger
}

// NewController creates a list controller.
func NewController(memos MemoService, store *Store, session LoginState, projector *Projector, logger *zap.Logger) *Controller {
	if projector == nil {
		projector = defaultProjector
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		memos:     memos,
		store:     store,
		session:   session,
		projector: projector,
		logger:    logger,
	}
}

// Store returns the view options store the controller projects with.
func (c *Controller) Store() *Store {
	return c.store
}

// View reads the memo list through the cache and projects it with the
// current options. If the fetch fails but an earlier list is cached, the
// view is built from that list and the error is returned with it.
func (c *Controller) View(ctx context.Context) (View, error) {
	opts := c.store.Options()
	if !c.session.IsLoggedIn() {
		return View{Options: opts}, ErrNotLoggedIn
	}

	memos, err := c.memos.List(ctx)
	return View{
		Memos:   c.projector.Project(memos, opts),
		Options: opts,
		Total:   len(memos),
	}, err
}

// ToggleStar flips the favourite flag of a memo. The list refreshes from the
// server; the current view is not edited.
func (c *Controller) ToggleStar(ctx context.Context, id string) error {
	_, err := c.memos.ToggleStar(ctx, id)
	if err != nil {
		c.logger.Debug("Toggle star failed", zap.String("memo_id", id), zap.Error(err))
	}
	return err
}

// Delete removes a memo. Like ToggleStar it leaves the view to the next
// refresh.
func (c *Controller) Delete(ctx context.Context, id string) error {
	return c.memos.Delete(ctx, id)
}

// Watch calls fn with a fresh view now and whenever the cached list, the
// view options or the login state change, until ctx is done.
func (c *Controller) Watch(ctx context.Context, fn func(View, error)) error {
	sub := c.memos.SubscribeList()
	defer sub.Close()
	optsChanged, unsubscribe := c.store.Subscribe()
	defer unsubscribe()
	loginChanged, unsubscribeLogin := c.session.Subscribe()
	defer unsubscribeLogin()

	for {
		view, err := c.View(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(view, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Changes():
		case <-optsChanged:
		case <-loginChanged:
		}
	}
}

// Package editsession drives the create and edit memo forms: field edits,
// dirty tracking, validation, saving and the unsaved-changes guard.
package editsession

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"mymemo-client/internal/domain"
	apperrors "mymemo-client/internal/errors"
	"mymemo-client/internal/validation"
)

var (
	// ErrClosed is returned by a session that was cancelled or closed.
	ErrClosed = errors.New("edit session is closed")
	// ErrSaving is returned while a submit is still in flight.
	ErrSaving = errors.New("a save is already in progress")

	errNoConfirmer = errors.New("unsaved changes and no way to confirm discarding them")
)

// DiscardPrompt is the question put to the Confirmer before unsaved changes
// are dropped.
const DiscardPrompt = "You have unsaved changes. Discard them?"

// MemoService is the part of the memo service the form needs.
type MemoService interface {
	Get(ctx context.Context, id string) (domain.Memo, error)
	Create(ctx context.Context, draft domain.Draft) (domain.Memo, error)
	Update(ctx context.Context, draft domain.Draft) (domain.Memo, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Navigator moves the user between screens.
type Navigator interface {
	BackToList(ctx context.Context)
}

// Result describes a successful submit.
type Result struct {
	Outcome Outcome
	Memo    domain.Memo
}

// Snapshot is a copy of a session's observable state.
type Snapshot struct {
	Mode        Mode
	State       State
	Form        domain.Draft
	Baseline    domain.Draft
	Dirty       bool
	Validated   bool
	Submitted   bool
	FieldErrors map[string]string
	// Error is the message of the last failed save.
	Error string
}

// Controller opens edit sessions.
type Controller struct {
	memos     MemoService
	confirmer Confirmer
	navigator Navigator
	validator *validation.Validator
	logger    *zap.Logger
}

// NewController creates an edit session controller.
func NewController(memos MemoService, confirmer Confirmer, navigator Navigator, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		memos:     memos,
		confirmer: confirmer,
		navigator: navigator,
		validator: validation.Default(),
		logger:    logger,
	}
}

// OpenCreate starts a session for a new memo with an empty form.
func (c *Controller) OpenCreate() *Session {
	return c.open(createMode{})
}

// OpenUpdate fetches memo id and starts a session editing it.
func (c *Controller) OpenUpdate(ctx context.Context, id string) (*Session, error) {
	memo, err := c.memos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.open(updateMode{original: memo}), nil
}

func (c *Controller) open(mode saver) *Session {
	base := mode.baseline()
	return &Session{
		ctrl:     c,
		mode:     mode,
		state:    Pristine,
		form:     base,
		baseline: base,
		logger:   c.logger.With(zap.String("mode", string(mode.mode()))),
	}
}

// Session is one open memo form.
type Session struct {
	ctrl   *Controller
	logger *zap.Logger

	mu          sync.Mutex
	mode        saver
	state       State
	form        domain.Draft
	baseline    domain.Draft
	validated   bool
	submitted   bool
	fieldErrors map[string]string
	lastErr     error
	closed      bool
}

// Snapshot returns the current state of the form.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:      s.mode.mode(),
		State:     s.state,
		Form:      s.form,
		Baseline:  s.baseline,
		Dirty:     s.dirtyLocked(),
		Validated: s.validated,
		Submitted: s.submitted,
	}
	if len(s.fieldErrors) > 0 {
		snap.FieldErrors = make(map[string]string, len(s.fieldErrors))
		for k, v := range s.fieldErrors {
			snap.FieldErrors[k] = v
		}
	}
	if s.lastErr != nil {
		snap.Error = apperrors.UserMessage(s.lastErr)
	}
	return snap
}

// IsDirty reports whether the form differs from its baseline.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	return !s.form.Equal(s.baseline)
}

// SetField changes one field of the form.
func (s *Session) SetField(field domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return err
	}
	form, err := s.form.With(field, value)
	if err != nil {
		return err
	}
	s.form = form
	s.state = Editing
	return nil
}

// Submit validates the form and saves it. A form that fails validation
// stays in Editing with field errors set and nothing is sent. An update
// with no changes succeeds with NoOpSkip without a request. On success the
// navigator is sent back to the list.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	s.state = Validating
	s.validated = true
	if err := s.ctrl.validator.Struct(s.form); err != nil {
		s.state = Editing
		s.fieldErrors = nil
		if appErr := apperrors.GetAppError(err); appErr != nil {
			s.fieldErrors = appErr.Fields
		}
		s.mu.Unlock()
		return Result{}, err
	}

	s.state = Saving
	s.validated = false
	s.submitted = true
	s.fieldErrors = nil
	s.lastErr = nil
	mode, form, dirty := s.mode, s.form, s.dirtyLocked()
	s.mu.Unlock()

	res, err := mode.save(ctx, s.ctrl.memos, form, dirty)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropped save result for closed session", zap.Error(err))
		return Result{}, ErrClosed
	}
	if err != nil {
		s.state = Failed
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Info("Memo save failed", zap.String("memo_id", form.ID), zap.Error(err))
		return Result{}, err
	}

	s.mode = mode.next(res)
	s.baseline = s.mode.baseline()
	s.form = s.baseline
	s.state = Saved
	s.mu.Unlock()

	s.logger.Debug("Memo saved",
		zap.String("memo_id", res.Memo.ID),
		zap.Stringer("outcome", res.Outcome),
	)
	if s.ctrl.navigator != nil {
		s.ctrl.navigator.BackToList(ctx)
	}
	return res, nil
}

// Cancel discards the session. Unsaved changes are only dropped after the
// Confirmer agrees; it reports whether the session was cancelled.
func (s *Session) Cancel(ctx context.Context) (bool, error) {
	return s.leave(ctx)
}

// GuardNavigation is called before the user leaves the form by any route
// other than Cancel. It reports whether leaving may proceed; with unsaved
// changes that requires confirmation, after which the session is cancelled.
func (s *Session) GuardNavigation(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed || s.state == Saved || !s.dirtyLocked() {
		s.mu.Unlock()
		return true, nil
	}
	s.mu.Unlock()
	return s.leave(ctx)
}

func (s *Session) leave(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	dirty := s.dirtyLocked()
	s.mu.Unlock()

	if dirty {
		if s.ctrl.confirmer == nil {
			return false, errNoConfirmer
		}
		ok, err := s.ctrl.confirmer.Confirm(ctx, DiscardPrompt)
		if err != nil || !ok {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if s.state == Saving {
		return false, ErrSaving
	}
	s.state = Cancelled
	s.closed = true
	return true, nil
}

// Close tears the session down. A save still in flight completes on the
// server but its result is not applied.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.state == Saving {
		return ErrSaving
	}
	return nil
}

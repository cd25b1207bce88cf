package editsession

import (
	"context"

	"mymemo-client/internal/domain"
)

// saver is the mode-specific half of a session.
type saver interface {
	mode() Mode
	// baseline is the form the session starts from.
	baseline() domain.Draft
	// save persists form. dirty reports whether form differs from baseline.
	save(ctx context.Context, memos MemoService, form domain.Draft, dirty bool) (Result, error)
	// next returns the mode to continue with after a successful save.
	next(res Result) saver
}

type createMode struct{}

func (createMode) mode() Mode { return ModeCreate }

func (createMode) baseline() domain.Draft { return domain.Draft{} }

func (createMode) save(ctx context.Context, memos MemoService, form domain.Draft, _ bool) (Result, error) {
	memo, err := memos.Create(ctx, domain.Draft{Title: form.Title, Memo: form.Memo})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Persisted, Memo: memo}, nil
}

// A created memo leaves an empty form behind for the next one.
func (c createMode) next(Result) saver { return c }

type updateMode struct {
	original domain.Memo
}

func (m updateMode) mode() Mode { return ModeUpdate }

func (m updateMode) baseline() domain.Draft { return domain.DraftOf(m.original) }

func (m updateMode) save(ctx context.Context, memos MemoService, form domain.Draft, dirty bool) (Result, error) {
	if !dirty {
		return Result{Outcome: NoOpSkip, Memo: m.original}, nil
	}
	form.ID = m.original.ID
	memo, err := memos.Update(ctx, form)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Persisted, Memo: memo}, nil
}

func (m updateMode) next(res Result) saver {
	return updateMode{original: res.Memo}
}

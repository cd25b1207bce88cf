package gateway

import (
	"context"
	"net/http"
	"net/url"

	"mymemo-client/internal/domain"
	"mymemo-client/pkg/api"
)

const (
	routeMemos      = "/mymemos/"
	routeMemo       = "/mymemos/{id}/"
	routeMemoFavour = "/mymemos/{id}/favourite/"
)

func memoPath(id string) string {
	return "mymemos/" + url.PathEscape(id) + "/"
}

// ListMemos fetches the logged-in user's memos.
func (g *Gateway) ListMemos(ctx context.Context) ([]domain.Memo, error) {
	var memos []domain.Memo
	err := g.do(ctx, request{method: http.MethodGet, route: routeMemos, path: "mymemos/", auth: true}, &memos)
	if err != nil {
		return nil, err
	}
	if memos == nil {
		memos = []domain.Memo{}
	}
	return memos, nil
}

// GetMemo fetches one memo.
func (g *Gateway) GetMemo(ctx context.Context, id string) (domain.Memo, error) {
	var memo domain.Memo
	err := g.do(ctx, request{method: http.MethodGet, route: routeMemo, path: memoPath(id), auth: true}, &memo)
	return memo, err
}

// CreateMemo creates a memo; the server assigns its id and creation time.
func (g *Gateway) CreateMemo(ctx context.Context, draft domain.Draft) (domain.Memo, error) {
	var memo domain.Memo
	err := g.do(ctx, request{
		method: http.MethodPost,
		route:  routeMemos,
		path:   "mymemos/",
		body:   api.MemoRequest{Title: draft.Title, Memo: draft.Memo},
		auth:   true,
	}, &memo)
	return memo, err
}

// UpdateMemo replaces the title and body of the memo draft.ID.
func (g *Gateway) UpdateMemo(ctx context.Context, draft domain.Draft) (domain.Memo, error) {
	var memo domain.Memo
	err := g.do(ctx, request{
		method: http.MethodPut,
		route:  routeMemo,
		path:   memoPath(draft.ID),
		body:   api.MemoRequest{Title: draft.Title, Memo: draft.Memo},
		auth:   true,
	}, &memo)
	return memo, err
}

// DeleteMemo deletes a memo.
func (g *Gateway) DeleteMemo(ctx context.Context, id string) error {
	return g.do(ctx, request{method: http.MethodDelete, route: routeMemo, path: memoPath(id), auth: true}, nil)
}

// ToggleStar flips a memo's favourite flag and returns the updated memo.
func (g *Gateway) ToggleStar(ctx context.Context, id string) (domain.Memo, error) {
	var memo domain.Memo
	err := g.do(ctx, request{
		method: http.MethodPatch,
		route:  routeMemoFavour,
		path:   memoPath(id) + "favourite/",
		auth:   true,
	}, &memo)
	return memo, err
}

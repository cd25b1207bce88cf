package memos

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/domain"
	apperrors "mymemo-client/internal/errors"
)

// fakeAPI is an in-memory memo server.
type fakeAPI struct {
	mu        sync.Mutex
	memos     []domain.Memo
	nextID    int
	listCalls int
	getCalls  int
	failList  error
}

func (f *fakeAPI) ListMemos(context.Context) ([]domain.Memo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList != nil {
		return nil, f.failList
	}
	out := make([]domain.Memo, len(f.memos))
	copy(out, f.memos)
	return out, nil
}

func (f *fakeAPI) GetMemo(_ context.Context, id string) (domain.Memo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	i := f.find(id)
	if i < 0 {
		return domain.Memo{}, apperrors.NewConflictOrNotFoundError("", 404)
	}
	return f.memos[i], nil
}

func (f *fakeAPI) CreateMemo(_ context.Context, d domain.Draft) (domain.Memo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := domain.Memo{
		ID:      fmt.Sprint(f.nextID),
		Title:   d.Title,
		Memo:    d.Memo,
		Created: time.Date(2024, 1, 1, 0, f.nextID, 0, 0, time.UTC),
	}
	f.memos = append(f.memos, m)
	return m, nil
}

func (f *fakeAPI) UpdateMemo(_ context.Context, d domain.Draft) (domain.Memo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(d.ID)
	if i < 0 {
		return domain.Memo{}, apperrors.NewConflictOrNotFoundError("", 404)
	}
	f.memos[i].Title = d.Title
	f.memos[i].Memo = d.Memo
	return f.memos[i], nil
}

func (f *fakeAPI) DeleteMemo(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return apperrors.NewConflictOrNotFoundError("", 404)
	}
	f.memos = append(f.memos[:i], f.memos[i+1:]...)
	return nil
}

func (f *fakeAPI) ToggleStar(_ context.Context, id string) (domain.Memo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return domain.Memo{}, apperrors.NewConflictOrNotFoundError("", 404)
	}
	f.memos[i].Favourite = !f.memos[i].Favourite
	return f.memos[i], nil
}

func (f *fakeAPI) find(id string) int {
	for i, m := range f.memos {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func newService(api API) (*Service, *cache.Engine) {
	engine := cache.NewEngine(zap.NewNop(), nil)
	return NewService(api, engine, nil), engine
}

func titles(memos []domain.Memo) []string {
	out := make([]string, len(memos))
	for i, m := range memos {
		out[i] = m.Title
	}
	return out
}

func TestListIsConsistentAfterEveryMutation(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newService(api)
	ctx := context.Background()

	list := func() []string {
		memos, err := svc.List(ctx)
		require.NoError(t, err)
		return titles(memos)
	}

	assert.Empty(t, list())

	a, err := svc.Create(ctx, domain.Draft{Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, list())

	_, err = svc.Create(ctx, domain.Draft{Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, list())

	_, err = svc.Update(ctx, domain.Draft{ID: a.ID, Title: "A2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "B"}, list())

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, []string{"B"}, list())

	// Reads between mutations are served from the cache.
	calls := api.listCalls
	list()
	list()
	assert.Equal(t, calls, api.listCalls)
}

func TestToggleStarTwiceRestoresFavourite(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newService(api)
	ctx := context.Background()

	m, err := svc.Create(ctx, domain.Draft{Title: "Star me"})
	require.NoError(t, err)
	require.False(t, m.Favourite)

	once, err := svc.ToggleStar(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, once.Favourite)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Favourite)

	twice, err := svc.ToggleStar(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, twice.Favourite)

	listed, err = svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, listed[0].Favourite)
}

func TestGetIsInvalidatedByItemWrites(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newService(api)
	ctx := context.Background()

	m, err := svc.Create(ctx, domain.Draft{Title: "Old", Memo: "body"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Title)

	_, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, api.getCalls)

	_, err = svc.Update(ctx, domain.Draft{ID: m.ID, Title: "New", Memo: "body"})
	require.NoError(t, err)

	got, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, 2, api.getCalls)
}

func TestGetOfMissingMemoIsNotCached(t *testing.T) {
	api := &fakeAPI{}
	svc, engine := newService(api)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.True(t, apperrors.IsConflictOrNotFound(err))

	state, ok := engine.Inspect(ItemKey("missing"))
	require.True(t, ok)
	assert.False(t, state.HasValue)
	assert.Error(t, state.Err)

	_, err = svc.Get(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 2, api.getCalls)
}

func TestFailedListIsRefetchedAfterCreate(t *testing.T) {
	api := &fakeAPI{failList: apperrors.NewServerError("", 503)}
	svc, engine := newService(api)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.Error(t, err)

	state, ok := engine.Inspect(ListKey)
	require.True(t, ok)
	assert.Contains(t, state.Tags, ListTag)

	api.failList = nil
	_, err = svc.Create(ctx, domain.Draft{Title: "After outage"})
	require.NoError(t, err)

	memos, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"After outage"}, titles(memos))
}

func TestFailedMutationKeepsCache(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newService(api)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Draft{Title: "Keep"})
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	calls := api.listCalls

	err = svc.Delete(ctx, "does-not-exist")
	assert.True(t, apperrors.IsConflictOrNotFound(err))

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, api.listCalls)
}

func TestSubscribeListSignalsOnInvalidation(t *testing.T) {
	svc, _ := newService(&fakeAPI{})
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	sub := svc.SubscribeList()
	defer sub.Close()

	_, err = svc.Create(ctx, domain.Draft{Title: "ping"})
	require.NoError(t, err)

	select {
	case <-sub.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after create")
	}
}

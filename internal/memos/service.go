// Package memos binds the memo endpoints to the query cache: reads are cached
// under tags and writes invalidate the tags they affect.
package memos

import (
	"context"

	"go.uber.org/zap"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/domain"
)

// TagType is the tag type for every memo query and mutation.
const TagType = "Memo"

const (
	resourceList = "memos"
	resourceItem = "memo"
)

// ListKey is the cache key of the memo list.
var ListKey = cache.Key{Resource: resourceList, ID: cache.ListID}

// ItemKey is the cache key of a single memo query.
func ItemKey(id string) cache.Key {
	return cache.Key{Resource: resourceItem, ID: id}
}

// ListTag is invalidated by writes that change list membership.
var ListTag = cache.Tag{Type: TagType, ID: cache.ListID}

// ItemTag is invalidated by writes to one memo.
func ItemTag(id string) cache.Tag {
	return cache.Tag{Type: TagType, ID: id}
}

// API is the remote side of the memo resource.
type API interface {
	ListMemos(ctx context.Context) ([]domain.Memo, error)
	GetMemo(ctx context.Context, id string) (domain.Memo, error)
	CreateMemo(ctx context.Context, draft domain.Draft) (domain.Memo, error)
	UpdateMemo(ctx context.Context, draft domain.Draft) (domain.Memo, error)
	DeleteMemo(ctx context.Context, id string) error
	ToggleStar(ctx context.Context, id string) (domain.Memo, error)
}

// Service exposes cached memo reads and invalidating writes.
type Service struct {
	api    API
	cache  *cache.Engine
	logger *zap.Logger
}

// NewService creates a memo service.
func NewService(api API, engine *cache.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:    api,
		cache:  engine,
		logger: logger,
	}
}

// List returns the user's memos. A failed fetch still tags the entry with
// the list tag so that a later create refetches it.
func (s *Service) List(ctx context.Context) ([]domain.Memo, error) {
	return cache.Read(ctx, s.cache, cache.Query[[]domain.Memo]{
		Key:   ListKey,
		Fetch: s.api.ListMemos,
		ProvidesTags: func(memos []domain.Memo, err error) []cache.Tag {
			tags := make([]cache.Tag, 0, len(memos)+1)
			tags = append(tags, ListTag)
			for _, m := range memos {
				tags = append(tags, ItemTag(m.ID))
			}
			return tags
		},
	})
}

// Get returns one memo.
func (s *Service) Get(ctx context.Context, id string) (domain.Memo, error) {
	return cache.Read(ctx, s.cache, cache.Query[domain.Memo]{
		Key: ItemKey(id),
		Fetch: func(ctx context.Context) (domain.Memo, error) {
			return s.api.GetMemo(ctx, id)
		},
		ProvidesTags: func(_ domain.Memo, err error) []cache.Tag {
			if err != nil {
				return nil
			}
			return []cache.Tag{ItemTag(id)}
		},
	})
}

// Create saves a new memo.
func (s *Service) Create(ctx context.Context, draft domain.Draft) (domain.Memo, error) {
	return cache.Mutate(ctx, s.cache, cache.Mutation[domain.Memo]{
		Name: "createMemo",
		Run: func(ctx context.Context) (domain.Memo, error) {
			return s.api.CreateMemo(ctx, draft)
		},
		Invalidates: func(domain.Memo) []cache.Tag {
			return []cache.Tag{ListTag}
		},
	})
}

// Update replaces the title and body of draft.ID.
func (s *Service) Update(ctx context.Context, draft domain.Draft) (domain.Memo, error) {
	return cache.Mutate(ctx, s.cache, cache.Mutation[domain.Memo]{
		Name: "updateMemo",
		Run: func(ctx context.Context) (domain.Memo, error) {
			return s.api.UpdateMemo(ctx, draft)
		},
		Invalidates: func(domain.Memo) []cache.Tag {
			return []cache.Tag{ItemTag(draft.ID)}
		},
	})
}

// Delete removes a memo.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := cache.Mutate(ctx, s.cache, cache.Mutation[struct{}]{
		Name: "deleteMemo",
		Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.api.DeleteMemo(ctx, id)
		},
		Invalidates: func(struct{}) []cache.Tag {
			return []cache.Tag{ItemTag(id)}
		},
	})
	if err != nil {
		s.logger.Debug("Delete memo failed", zap.String("memo_id", id), zap.Error(err))
	}
	return err
}

// ToggleStar flips the favourite flag of a memo.
func (s *Service) ToggleStar(ctx context.Context, id string) (domain.Memo, error) {
	return cache.Mutate(ctx, s.cache, cache.Mutation[domain.Memo]{
		Name: "toggleStar",
		Run: func(ctx context.Context) (domain.Memo, error) {
			return s.api.ToggleStar(ctx, id)
		},
		Invalidates: func(domain.Memo) []cache.Tag {
			return []cache.Tag{ItemTag(id)}
		},
	})
}

// SubscribeList returns a subscription that fires whenever the list entry
// becomes stale or is refreshed.
func (s *Service) SubscribeList() *cache.Subscription {
	return s.cache.Subscribe(ListKey)
}

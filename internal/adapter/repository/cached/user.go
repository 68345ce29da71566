package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-service/internal/adapter/cache"
	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
)

// UserRepository implements user.Repository with a read-through cache on GetByID.
// Writes go to the wrapped repository first; updates then refresh the cached
// entry and deletes remove it.
type UserRepository struct {
	next  user.Repository
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewUserRepository wraps next with the given cache.
func NewUserRepository(next user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		next:  next,
		cache: c,
		log:   log,
	}
}

// Create delegates to the wrapped repository.
func (r *UserRepository) Create(ctx context.Context, in domain.Input) (*domain.User, error) {
	return r.next.Create(ctx, in)
}

// List delegates to the wrapped repository.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.next.List(ctx)
}

// Ping delegates to the wrapped repository.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// GetByID serves from cache when possible. Concurrent misses for the same id
// share a single store lookup; each caller still returns as soon as its own
// context is done.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u := r.fromCache(ctx, id); u != nil {
		return u, nil
	}

	ch := r.group.DoChan(id, func() (any, error) {
		// The lookup is shared, so it must outlive the caller that started it.
		lctx, cancel := detach(ctx)
		defer cancel()

		if u := r.fromCache(lctx, id); u != nil {
			return u, nil
		}

		u, err := r.next.GetByID(lctx, id)
		if err != nil {
			return nil, err
		}

		// Add never overwrites: an entry written by Update in the meantime is newer.
		if _, err := r.cache.Add(lctx, u); err != nil {
			r.log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
		}
		return u, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		u := *res.Val.(*domain.User)
		return &u, nil
	}
}

// Update replaces the user in the wrapped repository and writes the new
// record through to the cache.
func (r *UserRepository) Update(ctx context.Context, id string, in domain.Input) (*domain.User, error) {
	u, err := r.next.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to refresh cached user", zap.String("id", id), zap.Error(err))
		r.invalidate(ctx, id)
	}
	return u, nil
}

// Delete removes the user from the wrapped repository and invalidates the cache.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// detach drops ctx's cancellation but keeps its values and deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	lctx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(lctx, deadline)
	}
	return lctx, func() {}
}

func (r *UserRepository) fromCache(ctx context.Context, id string) *domain.User {
	u, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to store", zap.String("id", id), zap.Error(err))
		return nil
	}
	return u
}

func (r *UserRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("id", id), zap.Error(err))
	}
}

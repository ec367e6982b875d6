package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-crud-service/internal/adapter/cache"
	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) user.Repository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	// Try to get from cache first
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.String("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede.
	// The flight outlives any single caller, so it ignores their cancellation.
	result, err, _ := r.group.Do(id, func() (any, error) {
		return r.load(context.WithoutCancel(ctx), id)
	})

	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not alias the same value.
	u := *result.(*domain.User)
	return &u, nil
}

// load reads id from the database and fills the cache unless a write
// invalidated id while the read was in progress.
func (r *CachedUserRepository) load(ctx context.Context, id string) (*domain.User, error) {
	var (
		version   string
		cacheable bool
	)
	if r.cache != nil {
		// Another caller may have populated the cache while we waited
		cachedUser, err := r.cache.Get(ctx, id)
		if err == nil && cachedUser != nil {
			r.log.Debug("user retrieved from cache after single-flight wait", zap.String("id", id))
			return cachedUser, nil
		}

		version, err = r.cache.Version(ctx, id)
		if err != nil {
			r.log.Warn("cache version unavailable, skipping cache fill", zap.String("id", id), zap.Error(err))
		}
		cacheable = err == nil
	}

	u, err := r.dbRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if _, err := r.cache.SetIfVersion(ctx, u, version); err != nil {
			r.log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
		}
	}

	return u, nil
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, "update", u.ID)
	return updated, nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	deleted, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, "delete", id)
	return deleted, nil
}

// DeleteAll empties the DB and then the cache.
func (r *CachedUserRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := r.dbRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		if err := r.cache.DeleteAll(ctx); err != nil {
			r.log.Warn("failed to invalidate cache after delete all", zap.Error(err))
		}
	}

	return n, nil
}

// List delegates to the DB repository.
func (r *CachedUserRepository) List(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	return r.dbRepo.List(ctx, filter)
}

func (r *CachedUserRepository) invalidate(ctx context.Context, op, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache after "+op, zap.String("id", id), zap.Error(err))
	}
}

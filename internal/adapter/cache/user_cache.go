package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
)

// keyPrefix namespaces every user entry so DeleteAll can scan for them.
const keyPrefix = "user:"

// Version keys live outside keyPrefix so DeleteAll's scan never resets them.
const (
	versionPrefix = "userver:"
	versionAllKey = "userver:all"
)

// minVersionTTL bounds how long a version key outlives its last write.
const minVersionTTL = time.Minute

// UserCache defines the interface for user caching operations.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id string) (*domain.User, error)

	// Set stores a user in cache with the configured TTL.
	Set(ctx context.Context, user *domain.User) error

	// Version returns a token that changes whenever id is invalidated.
	// Read it before loading from the database and pass it to SetIfVersion.
	Version(ctx context.Context, id string) (string, error)

	// SetIfVersion stores user only if no invalidation happened since
	// version was read. It reports whether the entry was written.
	SetIfVersion(ctx context.Context, user *domain.User, version string) (bool, error)

	// Delete removes a user from cache by ID and bumps its version.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every cached user and bumps the shared version.
	DeleteAll(ctx context.Context) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) UserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// entry is the JSON form stored in Redis.
type entry struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func cacheKey(id string) string {
	return keyPrefix + id
}

func versionKey(id string) string {
	return versionPrefix + id
}

// setIfVersion writes KEYS[1] only while the per-id and shared version
// counters still match ARGV[1] and ARGV[2].
var setIfVersion = redis.NewScript(`
	local id = redis.call('GET', KEYS[2]) or '0'
	local all = redis.call('GET', KEYS[3]) or '0'
	if id ~= ARGV[1] or all ~= ARGV[2] then
		return 0
	end
	if tonumber(ARGV[4]) > 0 then
		redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
	else
		redis.call('SET', KEYS[1], ARGV[3])
	end
	return 1
`)

func (c *RedisUserCache) versionTTL() time.Duration {
	if c.ttl < minVersionTTL {
		return minVersionTTL
	}
	return 2 * c.ttl
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.String("user_id", id))
	return &domain.User{ID: e.ID, Name: e.Name, Email: e.Email, CreatedAt: e.CreatedAt}, nil
}

// Set stores a user in Redis cache with TTL.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("cannot cache nil user")
	}

	data, err := json.Marshal(entry{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt})
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, cacheKey(user.ID), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}

	c.log.Debug("cached user", zap.String("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Version reads the per-id and shared invalidation counters as one token.
func (c *RedisUserCache) Version(ctx context.Context, id string) (string, error) {
	vals, err := c.client.MGet(ctx, versionKey(id), versionAllKey).Result()
	if err != nil {
		c.log.Error("failed to read cache version", zap.String("user_id", id), zap.Error(err))
		return "", err
	}

	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "0"
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}
	return strings.Join(parts, ":"), nil
}

// SetIfVersion stores user with TTL unless it was invalidated after version was read.
func (c *RedisUserCache) SetIfVersion(ctx context.Context, user *domain.User, version string) (bool, error) {
	if user == nil {
		return false, fmt.Errorf("cannot cache nil user")
	}
	idVer, allVer, ok := strings.Cut(version, ":")
	if !ok {
		return false, fmt.Errorf("malformed cache version %q", version)
	}

	data, err := json.Marshal(entry{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt})
	if err != nil {
		return false, err
	}

	keys := []string{cacheKey(user.ID), versionKey(user.ID), versionAllKey}
	written, err := setIfVersion.Run(ctx, c.client, keys, idVer, allVer, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Error("failed to set cache", zap.String("user_id", user.ID), zap.Error(err))
		return false, err
	}
	if written == 0 {
		c.log.Debug("skipped caching invalidated user", zap.String("user_id", user.ID))
		return false, nil
	}

	c.log.Debug("cached user", zap.String("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Delete removes a user from Redis cache and bumps its version so in-flight
// loads that started earlier cannot write it back.
func (c *RedisUserCache) Delete(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.PExpire(ctx, versionKey(id), c.versionTTL())
		pipe.Del(ctx, cacheKey(id))
		return nil
	})
	if err != nil {
		c.log.Error("failed to delete from cache", zap.String("user_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.String("user_id", id))
	return nil
}

// DeleteAll removes every cached user, scanning in batches. The shared
// version is bumped first so loads already in flight are discarded.
func (c *RedisUserCache) DeleteAll(ctx context.Context) error {
	if _, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionAllKey)
		pipe.PExpire(ctx, versionAllKey, c.versionTTL())
		return nil
	}); err != nil {
		c.log.Error("failed to bump cache version", zap.Error(err))
		return err
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			c.log.Error("failed to scan cache", zap.Error(err))
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Error("failed to delete multiple from cache", zap.Int("count", len(keys)), zap.Error(err))
				return err
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	c.log.Debug("deleted all users from cache", zap.Int("count", removed))
	return nil
}

package lookup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const msgKeyPrefix = "event:post" // event:post:<messageID> -> eventID

// Cache is the fast message-id -> event-id association.
type Cache interface {
	Get(ctx context.Context, messageID string) (eventID int, ok bool, err error)
	Set(ctx context.Context, messageID string, eventID int) error
	Delete(ctx context.Context, messageID string) error
}

// NewRedisClient builds the Redis client and verifies connectivity with one
// ping.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func msgKey(messageID string) string {
	return fmt.Sprintf("%s:%s", msgKeyPrefix, messageID)
}

func (c *RedisCache) Get(ctx context.Context, messageID string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, msgKey(messageID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for message %s: %w", messageID, err)
	}
	return id, true, nil
}

func (c *RedisCache) Set(ctx context.Context, messageID string, eventID int) error {
	return c.rdb.Set(ctx, msgKey(messageID), eventID, 0).Err()
}

func (c *RedisCache) Delete(ctx context.Context, messageID string) error {
	return c.rdb.Del(ctx, msgKey(messageID)).Err()
}

// PostStore is the durable side of the lookup, backed by the event_post
// table. event.Repo satisfies it.
type PostStore interface {
	StorePost(ctx context.Context, p event.EventPost) error
	FindPostByMessage(ctx context.Context, messageID string) (*event.EventPost, error)
}

// Lookup resolves a message id to its event id: cache first, then the durable
// EventPost row, repopulating the cache on a fallback hit. Cache failures
// degrade to the durable path rather than failing the resolution.
type Lookup struct {
	cache Cache
	posts PostStore
}

func New(cache Cache, posts PostStore) *Lookup {
	return &Lookup{cache: cache, posts: posts}
}

func (l *Lookup) Resolve(ctx context.Context, messageID string) (int, bool, error) {
	id, ok, err := l.cache.Get(ctx, messageID)
	if err != nil {
		log.Warnf("lookup cache get failed for message %s: %v", messageID, err)
	} else if ok {
		return id, true, nil
	}

	post, err := l.posts.FindPostByMessage(ctx, messageID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve message %s: %w", messageID, err)
	}
	if post == nil {
		return 0, false, nil
	}
	if err := l.cache.Set(ctx, messageID, post.EventID); err != nil {
		log.Warnf("lookup cache repopulation failed for message %s: %v", messageID, err)
	}
	return post.EventID, true, nil
}

// Store records a freshly posted summary in both the durable table and the
// cache.
func (l *Lookup) Store(ctx context.Context, post event.EventPost) error {
	if err := l.posts.StorePost(ctx, post); err != nil {
		return err
	}
	if err := l.cache.Set(ctx, post.MessageID, post.EventID); err != nil {
		log.Warnf("lookup cache set failed for message %s: %v", post.MessageID, err)
	}
	return nil
}

// Forget drops a cache entry whose event no longer exists.
func (l *Lookup) Forget(ctx context.Context, messageID string) {
	if err := l.cache.Delete(ctx, messageID); err != nil {
		log.Warnf("lookup cache delete failed for message %s: %v", messageID, err)
	}
}

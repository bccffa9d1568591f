package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/pkg/redis"
)

const maxUpdateRetries = 5

// RedisStore keeps sessions as JSON documents with a sliding TTL.
// Update uses WATCH/MULTI so concurrent writers on different replicas
// never interleave a read-modify-write.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store; client must be enabled
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil || !client.Enabled() {
		return nil, fmt.Errorf("redis session store requires an enabled redis client")
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, redis.SessionKey(id))
}

func (s *RedisStore) Create(ctx context.Context, sess *contracts.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Redis().Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*contracts.Session, error) {
	return s.load(ctx, s.client.Redis(), id)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, rdb getter, id string) (*contracts.Session, error) {
	data, err := rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess contracts.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Steps == nil {
		sess.Steps = make(map[contracts.Step]*contracts.Table)
	}
	if sess.Status == nil {
		sess.Status = make(map[contracts.Step]bool)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(sess *contracts.Session) error) (*contracts.Session, error) {
	key := s.key(id)
	var updated *contracts.Session

	txf := func(tx *goredis.Tx) error {
		sess, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			updated = sess
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Redis().Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: session %s changed concurrently", contracts.ErrInternal, id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Redis().Del(ctx, s.key(id)).Err()
}

// Count scans the session keyspace
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Redis().Scan(ctx, 0, s.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	return count, nil
}

var _ Store = (*RedisStore)(nil)

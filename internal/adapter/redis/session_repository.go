// Package redis stores sessions in Redis so several service processes and
// dispatch workers share one collection.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/hookah/internal/config"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// Connect opens a client and pings the server.
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Each session is a JSON string under <prefix>session:<id>; the sorted set
// <prefix>sessions indexes ids by UpdatedAt.
type sessionRepository struct {
	client goredis.UniversalClient
	prefix string
}

func NewSessionRepository(client goredis.UniversalClient, prefix string) interfaces.SessionRepository {
	return &sessionRepository{client: client, prefix: prefix}
}

func (r *sessionRepository) sessionKey(id string) string { return r.prefix + "session:" + id }
func (r *sessionRepository) indexKey() string            { return r.prefix + "sessions" }

func (r *sessionRepository) Create(ctx context.Context, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.sessionKey(s.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !created {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return r.index(ctx, s)
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (domain.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, &domain.NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

// Update is a check-and-set under WATCH: the write is queued only if the
// stored version matches, and EXEC fails if another client touched the key
// in between.
func (r *sessionRepository) Update(ctx context.Context, s domain.Session) error {
	key := r.sessionKey(s.ID)

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return &domain.NotFoundError{Resource: "session", ID: s.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		var stored domain.Session
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		if stored.Version != s.Version {
			return &domain.ConflictError{ID: s.ID, Version: s.Version}
		}

		next := s
		next.Version++
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.ZAdd(ctx, r.indexKey(), indexEntry(next))
			return nil
		})
		return err
	}, key)

	if errors.Is(err, goredis.TxFailedErr) {
		return &domain.ConflictError{ID: s.ID, Version: s.Version}
	}
	if err != nil {
		var (
			notFound *domain.NotFoundError
			conflict *domain.ConflictError
		)
		if errors.As(err, &notFound) || errors.As(err, &conflict) {
			return err
		}
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func indexEntry(s domain.Session) goredis.Z {
	return goredis.Z{Score: float64(s.UpdatedAt.UnixMilli()), Member: s.ID}
}

func (r *sessionRepository) index(ctx context.Context, s domain.Session) error {
	if err := r.client.ZAdd(ctx, r.indexKey(), indexEntry(s)).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListAll(ctx context.Context) ([]domain.Session, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(ids))
	if len(ids) == 0 {
		return sessions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // removed between the index read and MGET
		}
		var s domain.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		sessions = append(sessions, s)
	}

	// The index has millisecond scores; order exactly like the other stores.
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}
	keys = append(keys, r.indexKey())

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

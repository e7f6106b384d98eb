// Package cache keeps recently read meetings in Redis, keyed by handle.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grab-a-time/internal/model"
)

var (
	// ErrMiss means the handle is not cached.
	ErrMiss = errors.New("cache miss")
	// ErrStale means the handle was invalidated after the caller took its
	// version, so the fill was dropped.
	ErrStale = errors.New("cache fill stale")
)

const (
	keyPrefix     = "meeting:"
	versionPrefix = "meeting-ver:"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

type Meetings struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMeetings(rdb *redis.Client, ttl time.Duration) *Meetings {
	return &Meetings{rdb: rdb, ttl: ttl}
}

func (c *Meetings) Get(ctx context.Context, h string) (*model.Meeting, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+h).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var m model.Meeting
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode cached meeting %s: %w", h, err)
	}
	return &m, nil
}

// Version returns the invalidation counter for h, 0 if it was never bumped.
func (c *Meetings) Version(ctx context.Context, h string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionPrefix+h).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Fill caches m if h's version still equals ver. The version key is watched,
// so a Delete landing between the check and the write aborts the fill.
func (c *Meetings) Fill(ctx context.Context, m *model.Meeting, ver int64) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	vkey := versionPrefix + m.Handle
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+m.Handle, raw, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Delete drops h and bumps its version. The version outlives the entry so
// an in-flight fill started before the delete still sees the change.
func (c *Meetings) Delete(ctx context.Context, h string) error {
	vkey := versionPrefix + h
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, 2*c.ttl+time.Hour)
		pipe.Del(ctx, keyPrefix+h)
		return nil
	})
	return err
}

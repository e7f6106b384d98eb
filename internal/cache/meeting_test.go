package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"grab-a-time/internal/cache"
	"grab-a-time/internal/handle"
	"grab-a-time/internal/model"
)

func setup(t *testing.T) *cache.Meetings {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := cache.NewClient(context.Background(), cache.Options{Addr: addr})
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return cache.NewMeetings(rdb, time.Minute)
}

func TestFillGetDelete(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	start := time.Date(2025, 12, 19, 12, 34, 0, 0, time.FixedZone("", -5*3600))
	m := &model.Meeting{
		Handle:      handle.NewGenerator(nil).Generate(),
		OwnerID:     "owner-1",
		GuestName:   "Joe Random",
		GuestEmail:  "joe@ran.dom",
		StartTime:   start,
		Duration:    30,
		LastUpdated: start,
		Status:      model.StatusBooked,
	}
	ver, err := c.Version(ctx, m.Handle)
	if err != nil || ver != 0 {
		t.Fatalf("version: %d, %v", ver, err)
	}
	if err := c.Fill(ctx, m, ver); err != nil {
		t.Fatalf("fill: %v", err)
	}
	got, err := c.Get(ctx, m.Handle)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != m.OwnerID || !got.StartTime.Equal(start) || got.Duration != 30 {
		t.Errorf("got %+v", got)
	}
	if _, off := got.StartTime.Zone(); off != -5*3600 {
		t.Errorf("offset lost: %d", off)
	}

	if err := c.Delete(ctx, m.Handle); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, m.Handle); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("after delete: got %v, want ErrMiss", err)
	}
}

func TestFillAfterDeleteIsDropped(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	m := &model.Meeting{
		Handle:    handle.NewGenerator(nil).Generate(),
		OwnerID:   "owner-1",
		StartTime: time.Now().Add(time.Hour),
		Duration:  30,
		Status:    model.StatusBooked,
	}
	ver, err := c.Version(ctx, m.Handle)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	// a write invalidates between the reader's version check and its fill
	if err := c.Delete(ctx, m.Handle); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Fill(ctx, m, ver); !errors.Is(err, cache.ErrStale) {
		t.Fatalf("fill: got %v, want ErrStale", err)
	}
	if _, err := c.Get(ctx, m.Handle); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("stale meeting cached: %v", err)
	}

	ver, err = c.Version(ctx, m.Handle)
	if err != nil || ver != 1 {
		t.Fatalf("version after delete: %d, %v", ver, err)
	}
	if err := c.Fill(ctx, m, ver); err != nil {
		t.Errorf("fill with current version: %v", err)
	}
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := cache.NewClient(context.Background(), cache.Options{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

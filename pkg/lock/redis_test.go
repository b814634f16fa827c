//go:build integration

package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pedigree/pkg/errors"
)

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("PEDIGREE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PEDIGREE_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL() error: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLocker(client, "pedigree:test:")

	release, err := l.Acquire(ctx, "FAM1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if _, err := l.Acquire(ctx, "FAM1", 10*time.Second); !errors.Is(err, errors.ErrCodeLocked) {
		t.Fatalf("second Acquire() error = %v, want %v", err, errors.ErrCodeLocked)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release() error: %v", err)
	}

	release, err = l.Acquire(ctx, "FAM1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() after release error: %v", err)
	}
	_ = release(ctx)
}

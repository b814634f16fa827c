package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = (%q, %v), want miss", data, hit)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get() on empty cache should miss")
	}

	if err := c.Set(ctx, "k", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get() = (%v, %v), want hit", hit, err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("Get() = %q, want %q", data, "<svg/>")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("Get() before expiry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() of expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not an entry"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() = (%v, %v), want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte("<svg/>"), 0); err != nil {
			t.Fatalf("Set(%q) error: %v", k, err)
		}
	}
	other := filepath.Join(dir, "README")
	if err := os.WriteFile(other, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get() after Clear should miss")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("Clear() removed a non-entry file: %v", err)
	}
}

func TestFileCacheClearMissingDir(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "gone"))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	if err := os.RemoveAll(c.Dir()); err != nil {
		t.Fatal(err)
	}
	if n, err := c.Clear(); n != 0 || err != nil {
		t.Errorf("Clear() = (%d, %v), want (0, nil)", n, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name       string
		a, b       [2]string
		wantEquals bool
	}{
		{"same inputs", [2]string{"h1", "P1"}, [2]string{"h1", "P1"}, true},
		{"different viewer", [2]string{"h1", "P1"}, [2]string{"h1", "P2"}, false},
		{"different image", [2]string{"h1", "P1"}, [2]string{"h2", "P1"}, false},
		{"no ambiguous join", [2]string{"h1", "P1"}, [2]string{"h1P", "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := k.ImageKey(tt.a[0], tt.a[1])
			kb := k.ImageKey(tt.b[0], tt.b[1])
			if (ka == kb) != tt.wantEquals {
				t.Errorf("ImageKey equality = %v, want %v (%s, %s)", ka == kb, tt.wantEquals, ka, kb)
			}
		})
	}

	if key := k.ImageKey("h", "v"); !strings.HasPrefix(key, "image:") {
		t.Errorf("ImageKey() = %q, want image: prefix", key)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "pedigree:test:")

	want := "pedigree:test:" + inner.ImageKey("h", "P1")
	if got := scoped.ImageKey("h", "P1"); got != want {
		t.Errorf("ImageKey() = %q, want %q", got, want)
	}

	nilInner := NewScopedKeyer(nil, "x:")
	if got := nilInner.ImageKey("h", "P1"); got != "x:"+inner.ImageKey("h", "P1") {
		t.Errorf("ImageKey() with nil inner = %q", got)
	}
}

var (
	errFlaky = errors.New("connection reset")
	errFatal = errors.New("bad request")
)

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errFlaky)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !IsRetryable(fmt.Errorf("save: %w", err)) {
		t.Error("IsRetryable should see through wrapping")
	}
	if !errors.Is(err, errFlaky) {
		t.Error("wrapped error should still match errFlaky")
	}
	if err.Error() != errFlaky.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), errFlaky.Error())
	}
	if IsRetryable(errFatal) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryBaseDelay = d }(retryBaseDelay)
	retryBaseDelay = time.Millisecond
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, true, 1, false},
		{"non-retryable stops", 5, false, 1, true},
		{"retry then succeed", 1, true, 2, false},
		{"gives up after three", 5, true, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(errFlaky)
				}
				return errFatal
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("RetryWithBackoff() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errFlaky)
	})
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() error = %v, want %v", err, context.Canceled)
	}
}

// Package cache provides key-value caching for rendered pedigree images.
//
// Highlighting an image for a viewer parses and rewrites the whole SVG, so
// the family service caches the result per image content and viewer. Keys are
// derived from a hash of the stored image, which makes stale entries
// unreachable as soon as the image changes.
//
// # Backends
//
//   - [FileCache]: files under the user cache directory (CLI)
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: caching disabled
//
// # Retries
//
// [Retryable] and [RetryWithBackoff] implement the retry policy used for
// collaborator calls (stores, caches, locks) that may fail transiently.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Cache is a byte-oriented key-value cache with optional expiry.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ImageKey is the key of an image rendered for one viewer.
	ImageKey(imageHash, viewerID string) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImageKey is "image:" followed by a digest of the image hash and viewer id.
// The parts are length-prefixed so no two pairs share a key.
func (DefaultKeyer) ImageKey(imageHash, viewerID string) string {
	var b strings.Builder
	for _, part := range []string{imageHash, viewerID} {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return "image:" + Hash([]byte(b.String()))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

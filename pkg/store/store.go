// Package store persists pedigree records: the graph document and its image.
//
// A [Record] is what the family service loads into a pedigree aggregate and
// saves back after an edit. The store treats both parts as opaque; it never
// parses the document or the SVG.
//
// Backends:
//   - [FileStore]: one JSON file per family, for the CLI
//   - [MongoStore]: a MongoDB collection, for shared deployments
//   - [BadgerStore]: an embedded BadgerDB, for a single host without MongoDB
//
// Every backend reports a missing family as FAMILY_NOT_FOUND and connection
// problems as STORE_UNAVAILABLE wrapping a [cache.Retryable] error, so callers
// can retry with [cache.RetryWithBackoff].
package store

import (
	"context"
	"time"
)

// Record is one stored family pedigree.
type Record struct {
	// ID is the family identifier.
	ID string

	// Data is the JSON graph document.
	Data []byte

	// Image is the SVG rendering, possibly empty.
	Image string

	// UpdatedAt is set by the store on save.
	UpdatedAt time.Time
}

// Store is the interface for family record backends.
type Store interface {
	// Get returns the record, or a FAMILY_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// Save creates or replaces the record and sets its UpdatedAt.
	Save(ctx context.Context, r *Record) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all family ids in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

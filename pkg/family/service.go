// Package family is the application layer around the pedigree aggregate.
//
// A [Service] loads family records from a [store.Store], builds a
// [pedigree.Pedigree] for each request and writes edits back. It adds what the
// in-memory aggregate deliberately leaves out:
//   - per-family locking around load, edit and save
//   - retries of transient collaborator failures
//   - caching of viewer-highlighted images
//   - patient lookups for linked identifiers
//   - consistency checks between document and image
//
// All collaborators are injected; nothing is looked up globally except the
// observability hooks.
package family

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/lock"
	"github.com/matzehuels/pedigree/pkg/observability"
	"github.com/matzehuels/pedigree/pkg/patients"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/store"
)

// Defaults used when Options leave a field zero.
const (
	DefaultLockTTL  = 30 * time.Second
	DefaultImageTTL = 24 * time.Hour
)

// imageKeyType labels image cache events.
const imageKeyType = "image"

// Options holds optional service settings.
type Options struct {
	Keyer    cache.Keyer
	LockTTL  time.Duration
	ImageTTL time.Duration
}

// Service coordinates family records, patients, locks and the image cache.
// It is safe for concurrent use; edits to one family are serialized by Locker.
type Service struct {
	Store    store.Store
	Patients patients.Repository
	Locker   lock.Locker
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	lockTTL  time.Duration
	imageTTL time.Duration
}

// NewService wires a service. A nil repository, locker, cache or logger falls
// back to an empty repository, an in-process locker, a NullCache and the
// default logger.
func NewService(st store.Store, repo patients.Repository, locker lock.Locker, c cache.Cache, logger *log.Logger, opts Options) *Service {
	if repo == nil {
		repo = patients.NewMemoryRepository()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if opts.ImageTTL <= 0 {
		opts.ImageTTL = DefaultImageTTL
	}
	return &Service{
		Store:    st,
		Patients: repo,
		Locker:   locker,
		Cache:    c,
		Keyer:    opts.Keyer,
		Logger:   logger,
		lockTTL:  opts.LockTTL,
		imageTTL: opts.ImageTTL,
	}
}

// =============================================================================
// Loading and saving
// =============================================================================

// List returns the ids of all stored families.
func (s *Service) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		ids, err = s.Store.List(ctx)
		return err
	})
	return ids, err
}

// Load reads a family and builds its pedigree.
func (s *Service) Load(ctx context.Context, familyID string) (*pedigree.Pedigree, error) {
	start := time.Now()
	p, err := s.load(ctx, familyID)

	nodes := 0
	if p != nil {
		nodes = p.NodeCount()
	}
	observability.Family().OnLoad(ctx, familyID, nodes, time.Since(start), err)
	return p, err
}

func (s *Service) load(ctx context.Context, familyID string) (*pedigree.Pedigree, error) {
	rec, err := s.Export(ctx, familyID)
	if err != nil {
		return nil, err
	}

	doc, err := pedigree.ParseDocument(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", familyID, err)
	}
	p, err := pedigree.New(doc, rec.Image)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", familyID, err)
	}
	return p, nil
}

// Export returns the stored record as is.
func (s *Service) Export(ctx context.Context, familyID string) (*store.Record, error) {
	if err := errors.ValidateRecordID("family", familyID); err != nil {
		return nil, err
	}

	var rec *store.Record
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		rec, err = s.Store.Get(ctx, familyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Import validates a document and image pair and stores it under familyID,
// replacing any previous record. The document bytes are stored unchanged.
func (s *Service) Import(ctx context.Context, familyID string, data []byte, image string) (*pedigree.Pedigree, error) {
	if err := errors.ValidateRecordID("family", familyID); err != nil {
		return nil, err
	}

	doc, err := pedigree.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	p, err := pedigree.New(doc, image)
	if err != nil {
		return nil, err
	}
	if image != "" {
		if _, err := s.checkImage(image); err != nil {
			return nil, err
		}
	}

	err = s.withLock(ctx, familyID, func() error {
		return s.save(ctx, &store.Record{ID: familyID, Data: data, Image: image})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("imported family", "family", familyID, "nodes", len(doc.Nodes))
	return p, nil
}

// SetImage replaces the stored image of a family, keeping its document.
func (s *Service) SetImage(ctx context.Context, familyID, image string) error {
	if image != "" {
		if _, err := s.checkImage(image); err != nil {
			return err
		}
	}

	return s.withLock(ctx, familyID, func() error {
		rec, err := s.Export(ctx, familyID)
		if err != nil {
			return err
		}
		rec.Image = image
		return s.save(ctx, rec)
	})
}

func (s *Service) save(ctx context.Context, rec *store.Record) error {
	return cache.RetryWithBackoff(ctx, func() error {
		return s.Store.Save(ctx, rec)
	})
}

// withLock runs fn while holding the family's edit lock.
func (s *Service) withLock(ctx context.Context, familyID string, fn func() error) error {
	var release lock.Release
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		release, err = s.Locker.Acquire(ctx, "family:"+familyID, s.lockTTL)
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.Logger.Warn("release lock failed", "family", familyID, "err", err)
		}
	}()
	return fn()
}

// =============================================================================
// Reads
// =============================================================================

// LinkedIDs returns the patient identifiers linked from the family's nodes.
func (s *Service) LinkedIDs(ctx context.Context, familyID string) ([]string, error) {
	p, err := s.Load(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return p.ExtractIDs()
}

// LinkedProperties returns copies of the non-empty node property bags.
func (s *Service) LinkedProperties(ctx context.Context, familyID string) ([]pedigree.Properties, error) {
	p, err := s.Load(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return p.ExtractLinkedProperties()
}

// Image returns the family image highlighted for viewerID. Results are cached
// per image content and viewer, so an edited image never serves stale entries.
func (s *Service) Image(ctx context.Context, familyID, viewerID string) (string, error) {
	start := time.Now()
	image, cached, err := s.image(ctx, familyID, viewerID)
	observability.Family().OnImage(ctx, familyID, cached, time.Since(start), err)
	return image, err
}

func (s *Service) image(ctx context.Context, familyID, viewerID string) (string, bool, error) {
	p, err := s.Load(ctx, familyID)
	if err != nil {
		return "", false, err
	}

	raw := p.RawImage()
	if raw == "" || strings.TrimSpace(viewerID) == "" {
		return raw, false, nil
	}

	key := s.imageKey(raw, viewerID)
	if data, hit, err := s.Cache.Get(ctx, key); err != nil {
		s.Logger.Warn("image cache read failed", "family", familyID, "err", err)
	} else if hit {
		observability.Cache().OnCacheHit(ctx, imageKeyType)
		return string(data), true, nil
	}
	observability.Cache().OnCacheMiss(ctx, imageKeyType)

	image, err := p.Image(viewerID)
	if err != nil {
		return "", false, fmt.Errorf("family %s: %w", familyID, err)
	}

	if err := s.Cache.Set(ctx, key, []byte(image), s.imageTTL); err != nil {
		s.Logger.Warn("image cache write failed", "family", familyID, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, imageKeyType, len(image))
	}
	return image, false, nil
}

// imageKey lowercases the viewer since regions match case-insensitively.
// Hashing the markup makes every edit a new key space.
func (s *Service) imageKey(image, viewerID string) string {
	return s.Keyer.ImageKey(cache.Hash([]byte(image)), strings.ToLower(viewerID))
}

// =============================================================================
// Edits
// =============================================================================

// UnlinkPatient removes every link to patientID from the family's image and
// document and saves the result. It returns the number of nodes unlinked.
//
// If the image cannot be updated nothing is saved. Nothing is saved either
// when the patient was not linked at all.
func (s *Service) UnlinkPatient(ctx context.Context, familyID, patientID string) (int, error) {
	if strings.TrimSpace(patientID) == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "patient id cannot be empty")
	}

	start := time.Now()
	var removed int
	err := s.withLock(ctx, familyID, func() error {
		p, err := s.load(ctx, familyID)
		if err != nil {
			return err
		}

		before := p.RawImage()
		removed, err = p.RemoveLink(patientID)
		if err != nil {
			return fmt.Errorf("family %s: %w", familyID, err)
		}
		if removed == 0 && p.RawImage() == before {
			s.Logger.Debug("patient not linked", "family", familyID, "patient", patientID)
			return nil
		}

		data, err := json.Marshal(p.Document())
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode family %s", familyID)
		}
		// Image keys hash the stored markup, so entries for the old image
		// are never read again and expire with their TTL.
		return s.save(ctx, &store.Record{ID: familyID, Data: data, Image: p.RawImage()})
	})

	observability.Family().OnUnlink(ctx, familyID, patientID, removed, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.Logger.Info("unlinked patient", "family", familyID, "patient", patientID, "nodes", removed)
	}
	return removed, nil
}

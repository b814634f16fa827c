package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/matzehuels/pedigree/pkg/errors"
)

const badgerFamilyPrefix = "family/"

// BadgerStore keeps families in an embedded BadgerDB. Only one process may
// open the directory at a time.
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions configures [OpenBadger].
type BadgerOptions struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; used by tests.
	InMemory bool

	// Logger receives Badger's own warnings and errors. Nil silences them.
	Logger *log.Logger
}

// OpenBadger opens (or creates) a Badger store.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "store directory cannot be empty")
		}
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "create store dir")
		}
		bopts = badger.DefaultOptions(opts.Dir).WithSyncWrites(true)
	}
	bopts = bopts.WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(badgerLogger{opts.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "open badger store")
	}
	return &BadgerStore{db: db}, nil
}

func familyKey(id string) []byte {
	return []byte(badgerFamilyPrefix + id)
}

func (s *BadgerStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return nil, err
	}

	var fr fileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(familyKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fr)
		})
	})
	switch {
	case err == badger.ErrKeyNotFound:
		return nil, errors.New(errors.ErrCodeFamilyNotFound, "family %s not found", id)
	case err != nil:
		if _, ok := err.(*json.SyntaxError); ok {
			return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "parse family %s", id)
		}
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read family %s", id)
	}
	return &Record{ID: id, Data: []byte(fr.Data), Image: fr.Image, UpdatedAt: fr.UpdatedAt}, nil
}

func (s *BadgerStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "record cannot be nil")
	}
	if err := errors.ValidateRecordID("family", r.ID); err != nil {
		return err
	}
	if !json.Valid(r.Data) {
		return errors.New(errors.ErrCodeMalformedDocument, "family %s data is not valid JSON", r.ID)
	}

	r.UpdatedAt = time.Now().UTC()
	val, err := json.Marshal(fileRecord{
		ID:        r.ID,
		Data:      string(r.Data),
		Image:     r.Image,
		UpdatedAt: r.UpdatedAt,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal family %s", r.ID)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(familyKey(r.ID), val)
	}); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "write family %s", r.ID)
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRecordID("family", id); err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(familyKey(id))
	}); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "remove family %s", id)
	}
	return nil
}

// List walks the key space in order, so the ids come back sorted.
func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerFamilyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), badgerFamilyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "list families")
	}
	return ids, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's printf-style logging to a charm logger.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...any)   { b.l.Error(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Warningf(format string, args ...any) { b.l.Warn(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Infof(format string, args ...any)    { b.l.Debug(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Debugf(format string, args ...any)   { b.l.Debug(fmt.Sprintf(format, args...)) }

var _ Store = (*BadgerStore)(nil)

package baseline

import (
	"context"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// keyPrefix namespaces baseline records inside the badger keyspace.
const keyPrefix = "baseline:"

// BadgerStore is a Store backed by BadgerDB v4. Records are encoded
// with msgpack under "baseline:<userID>" keys.
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions configures the badger-backed store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs badger without disk persistence. Useful for tests
	// that want the real engine.
	InMemory bool
}

// NewBadgerStore opens (or creates) a badger-backed baseline store.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("baseline: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(quietLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("baseline: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func userKey(userID string) []byte {
	return []byte(keyPrefix + userID)
}

func (s *BadgerStore) Get(_ context.Context, userID string) (*Baseline, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("baseline: decode record for %s: %w", userID, err)
	}
	return FromRecord(&r), nil
}

func (s *BadgerStore) Save(_ context.Context, userID string, b *Baseline) error {
	data, err := msgpack.Marshal(b.ToRecord())
	if err != nil {
		return fmt.Errorf("baseline: encode record for %s: %w", userID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(userID), data)
	})
}

func (s *BadgerStore) Delete(_ context.Context, userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(userKey(userID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// quietLogger suppresses badger's info and debug chatter.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}

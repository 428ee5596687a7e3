package journal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger warnings and errors. If nil, slog.Default is
	// used. Badger info and debug output is always dropped.
	Logger *slog.Logger
}

// OpenBadger opens (or creates) a journal database.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("journal: BadgerOptions.Dir is required for on-disk mode")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{logger.With("component", "badger")})
	if opts.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", opts.Dir, err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Put(_ context.Context, r *Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(r.ID), data)
	})
}

func (b *Badger) Get(_ context.Context, id string) (*Record, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
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
	return decode(data)
}

func (b *Badger) List(_ context.Context) iter.Seq2[*Record, error] {
	prefix := []byte(keyPrefix)
	return func(yield func(*Record, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var r *Record
				err := it.Item().Value(func(val []byte) error {
					var err error
					r, err = decode(val)
					return err
				})
				if !yield(r, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's printf-style logging to slog.
type badgerLogger struct {
	l *slog.Logger
}

func (g badgerLogger) Errorf(f string, v ...any)   { g.l.Error(fmt.Sprintf(f, v...)) }
func (g badgerLogger) Warningf(f string, v ...any) { g.l.Warn(fmt.Sprintf(f, v...)) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}

var _ Store = (*Badger)(nil)

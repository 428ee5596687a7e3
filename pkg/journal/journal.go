// Package journal records the encode sessions served over WebSocket: who
// connected, the stream format and serial, how much was encoded and where
// the archived stream went.
//
// Records are msgpack-encoded and keyed by session ID. Session IDs are
// UUIDv7, so key order is start-time order and List returns sessions
// oldest first.
//
// The package includes a BadgerDB-backed Store for production use and an
// in-memory Store for testing.
package journal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a session is not in the journal.
var ErrNotFound = errors.New("journal: session not found")

// Status is the outcome of a session.
type Status string

const (
	StatusStreaming Status = "streaming"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
)

// Record describes one encode session.
type Record struct {
	ID         string    `msgpack:"id" json:"id" yaml:"id"`
	Remote     string    `msgpack:"remote,omitempty" json:"remote,omitempty" yaml:"remote,omitempty"`
	Serial     int32     `msgpack:"serial" json:"serial" yaml:"serial"`
	Channels   int       `msgpack:"channels" json:"channels" yaml:"channels"`
	SampleRate int       `msgpack:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
	Quality    float32   `msgpack:"quality" json:"quality" yaml:"quality"`
	Started    time.Time `msgpack:"started" json:"started" yaml:"started"`
	Ended      time.Time `msgpack:"ended,omitempty" json:"ended,omitzero" yaml:"ended,omitempty"`
	Frames     int64     `msgpack:"frames" json:"frames" yaml:"frames"`
	Bytes      int64     `msgpack:"bytes" json:"bytes" yaml:"bytes"`
	Fragments  int       `msgpack:"fragments" json:"fragments" yaml:"fragments"`
	Archive    string    `msgpack:"archive,omitempty" json:"archive,omitempty" yaml:"archive,omitempty"`
	Status     Status    `msgpack:"status" json:"status" yaml:"status"`
	Error      string    `msgpack:"error,omitempty" json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns how long the session ran, or zero while it is open.
func (r *Record) Duration() time.Duration {
	if r.Ended.IsZero() {
		return 0
	}
	return r.Ended.Sub(r.Started)
}

// NewID returns a new time-ordered session ID.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Store persists session records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put creates or replaces the record with r.ID.
	Put(ctx context.Context, r *Record) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List iterates over all records, oldest session first.
	List(ctx context.Context) iter.Seq2[*Record, error]

	// Delete removes a record. No error if it does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

const keyPrefix = "session:"

func recordKey(id string) []byte {
	return []byte(keyPrefix + id)
}

func encode(r *Record) ([]byte, error) {
	if r.ID == "" {
		return nil, errors.New("journal: record without ID")
	}
	return msgpack.Marshal(r)
}

func decode(data []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("journal: decode record: %w", err)
	}
	return &r, nil
}

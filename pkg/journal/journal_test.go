package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/haivivi/pcmogg/pkg/journal"
)

func newBadgerStore(t *testing.T) journal.Store {
	t.Helper()
	s, err := journal.OpenBadger(journal.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]journal.Store {
	return map[string]journal.Store{
		"memory": journal.NewMemory(),
		"badger": newBadgerStore(t),
	}
}

func record(id string, started time.Time) *journal.Record {
	return &journal.Record{
		ID:         id,
		Remote:     "127.0.0.1:5000",
		Serial:     7,
		Channels:   2,
		SampleRate: 48000,
		Quality:    0.5,
		Started:    started,
		Status:     journal.StatusStreaming,
	}
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, journal.ErrNotFound) {
				t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
			}

			r := record("a", started)
			if err := s.Put(ctx, r); err != nil {
				t.Fatalf("Put: %v", err)
			}

			r.Status = journal.StatusFinished
			r.Ended = started.Add(3 * time.Second)
			r.Frames = 144000
			r.Bytes = 20480
			r.Fragments = 31
			r.Archive = "s3://bucket/a.ogg"
			if err := s.Put(ctx, r); err != nil {
				t.Fatalf("Put update: %v", err)
			}

			got, err := s.Get(ctx, "a")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Status != journal.StatusFinished || got.Bytes != 20480 || got.Frames != 144000 {
				t.Errorf("Get = %+v", got)
			}
			if !got.Started.Equal(started) {
				t.Errorf("Started = %v, want %v", got.Started, started)
			}
			if got.Duration() != 3*time.Second {
				t.Errorf("Duration = %v, want 3s", got.Duration())
			}
			if got.Archive != r.Archive || got.Quality != 0.5 || got.Serial != 7 {
				t.Errorf("Get = %+v", got)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "a"); !errors.Is(err, journal.ErrNotFound) {
				t.Errorf("Get after Delete = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Errorf("Delete twice: %v", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			var ids []string
			for i := range 5 {
				id := journal.NewID()
				ids = append(ids, id)
				if err := s.Put(ctx, record(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
					t.Fatalf("Put: %v", err)
				}
				// UUIDv7 carries millisecond time; keep IDs strictly ordered.
				time.Sleep(2 * time.Millisecond)
			}

			var got []string
			for r, err := range s.List(ctx) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				got = append(got, r.ID)
			}
			if len(got) != len(ids) {
				t.Fatalf("List returned %d records, want %d", len(got), len(ids))
			}
			for i := range ids {
				if got[i] != ids[i] {
					t.Errorf("List[%d] = %s, want %s", i, got[i], ids[i])
				}
			}

			n := 0
			for range s.List(ctx) {
				n++
				if n == 2 {
					break
				}
			}
			if n != 2 {
				t.Errorf("early break yielded %d records", n)
			}
		})
	}
}

func TestPutWithoutID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(context.Background(), &journal.Record{}); err == nil {
				t.Error("Put without ID succeeded")
			}
		})
	}
}

func TestBadgerPersistence(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "journal")

	s, err := journal.OpenBadger(journal.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := s.Put(ctx, record("persisted", time.Now().UTC())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = journal.OpenBadger(journal.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	r, err := s.Get(ctx, "persisted")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if r.SampleRate != 48000 || r.Channels != 2 {
		t.Errorf("Get after reopen = %+v", r)
	}
}

func TestOpenBadger_NoDir(t *testing.T) {
	if _, err := journal.OpenBadger(journal.BadgerOptions{}); err == nil {
		t.Error("OpenBadger without Dir succeeded")
	}
}

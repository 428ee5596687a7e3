package commands

import (
	"context"
	"io"

	"github.com/haivivi/pcmogg/pkg/storage"
)

// openInput opens a location or stdin for reading.
func (a *app) openInput(ctx context.Context, raw string, cfg storage.S3Config) (io.ReadCloser, error) {
	if raw == storage.Stdio {
		return io.NopCloser(a.stdin), nil
	}
	loc, err := storage.ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(loc, cfg)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("reading input", "location", loc)
	return store.Read(ctx, loc.Name)
}

// openOutput opens a location or stdout for writing. The file appears when
// the writer is closed; storage.Abort discards it.
func (a *app) openOutput(ctx context.Context, raw string, cfg storage.S3Config) (io.WriteCloser, error) {
	if raw == storage.Stdio {
		return nopWriteCloser{a.stdout}, nil
	}
	loc, err := storage.ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(loc, cfg)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("writing output", "location", loc)
	return store.Write(ctx, loc.Name)
}

// summaryWriter returns where the summary goes: stderr when stdout carries
// the encoded stream.
func (a *app) summaryWriter(output string) io.Writer {
	if output == storage.Stdio {
		return a.stderr
	}
	return a.stdout
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// finishOutput commits w on success and discards it on failure.
func finishOutput(w io.WriteCloser, err error) error {
	if err != nil {
		storage.Abort(w)
		return err
	}
	return w.Close()
}

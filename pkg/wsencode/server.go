package wsencode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/journal"
	"github.com/haivivi/pcmogg/pkg/oggenc"
	"github.com/haivivi/pcmogg/pkg/storage"
)

// Path is the endpoint served by Server.Handler.
const Path = "/v1/encode"

// DefaultReadLimit caps a single client message.
const DefaultReadLimit = 4 << 20

const writeTimeout = 10 * time.Second

// Server encodes one Ogg Vorbis stream per WebSocket connection.
type Server struct {
	upgrader  websocket.Upgrader
	logger    *slog.Logger
	archive   storage.FileStore
	journal   journal.Store
	serials   *oggenc.SerialCounter
	encOpts   []oggenc.Option
	readLimit int64
	active    sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger. Default slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArchive writes every session's stream to fs as <session>.ogg.
func WithArchive(fs storage.FileStore) ServerOption {
	return func(s *Server) { s.archive = fs }
}

// WithJournal records every session in j.
func WithJournal(j journal.Store) ServerOption {
	return func(s *Server) { s.journal = j }
}

// WithSerials numbers sessions that do not request a serial from c.
func WithSerials(c *oggenc.SerialCounter) ServerOption {
	return func(s *Server) { s.serials = c }
}

// WithEncoderOptions adds options to every encoder the server creates.
func WithEncoderOptions(opts ...oggenc.Option) ServerOption {
	return func(s *Server) { s.encOpts = append(s.encOpts, opts...) }
}

// WithReadLimit caps the size of a client message in bytes.
func WithReadLimit(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}

// NewServer creates a Server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:    slog.Default(),
		serials:   oggenc.NewSerialCounter(1),
		readLimit: DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns an http.Handler serving the encoder at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+Path, s)
	return mux
}

// Wait blocks until every running session has ended or ctx is done.
// http.Server.Shutdown does not wait for upgraded connections.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and runs one encode session.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.active.Add(1)
	defer s.active.Done()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.readLimit)

	sess := &session{
		server: s,
		conn:   conn,
		record: &journal.Record{
			ID:      journal.NewID(),
			Remote:  r.RemoteAddr,
			Started: time.Now().UTC(),
			Status:  journal.StatusStreaming,
		},
	}
	sess.logger = s.logger.With("session", sess.record.ID)
	sess.run(r.Context(), r.URL.Query())
}

// parseFormat reads the stream format and optional serial from the query.
func parseFormat(q url.Values) (oggenc.Format, *int32, error) {
	var f oggenc.Format
	atoi := func(key string) (int, error) {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", oggenc.ErrInit, key, q.Get(key))
		}
		return v, nil
	}
	var err error
	if f.Channels, err = atoi("channels"); err != nil {
		return f, nil, err
	}
	if f.SampleRate, err = atoi("sample_rate"); err != nil {
		return f, nil, err
	}
	quality, err := strconv.ParseFloat(q.Get("quality"), 32)
	if err != nil {
		return f, nil, fmt.Errorf("%w: quality=%q", oggenc.ErrInit, q.Get("quality"))
	}
	f.Quality = float32(quality)
	if !q.Has("serial") {
		return f, nil, nil
	}
	serial, err := strconv.ParseInt(q.Get("serial"), 10, 32)
	if err != nil {
		return f, nil, fmt.Errorf("%w: serial=%q", oggenc.ErrInit, q.Get("serial"))
	}
	s := int32(serial)
	return f, &s, nil
}

type session struct {
	server  *Server
	conn    *websocket.Conn
	logger  *slog.Logger
	enc     *oggenc.Encoder
	archive io.WriteCloser
	record  *journal.Record
	samples []float32
}

func (s *session) run(ctx context.Context, q url.Values) {
	err := s.start(ctx, q)
	if err == nil {
		err = s.loop(ctx)
	}
	s.end(ctx, err)
}

func (s *session) start(ctx context.Context, q url.Values) error {
	format, serial, err := parseFormat(q)
	if err != nil {
		return err
	}
	opts := append([]oggenc.Option{oggenc.WithSerials(s.server.serials)}, s.server.encOpts...)
	if serial != nil {
		opts = append(opts, oggenc.WithSerial(*serial))
	}
	if s.enc, err = oggenc.New(format, opts...); err != nil {
		return err
	}

	s.record.Serial = s.enc.Serial()
	s.record.Channels = format.Channels
	s.record.SampleRate = format.SampleRate
	s.record.Quality = format.Quality
	if s.server.archive != nil {
		name := s.record.ID + ".ogg"
		if s.archive, err = s.server.archive.Write(ctx, name); err != nil {
			s.logger.Warn("archive disabled", "error", err)
		} else {
			s.record.Archive = name
		}
	}
	s.put(ctx)
	s.logger.Info("session started", "remote", s.record.Remote, "format", format, "serial", s.record.Serial)

	if err := s.send(s.enc.TakeHeader()); err != nil {
		return err
	}
	return s.writeJSON(Message{Type: TypeReady, Session: s.record.ID, Serial: s.record.Serial})
}

func (s *session) loop(ctx context.Context) error {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("wsencode: connection lost before finish: %w", err)
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := s.feed(data); err != nil {
				return err
			}
		case websocket.TextMessage:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != TypeFinish {
				if err := s.reject(CodeBadRequest, fmt.Sprintf("unexpected message %q", data)); err != nil {
					return err
				}
				continue
			}
			return s.finish()
		}
	}
}

// feed encodes one PCM message. Encoder errors that leave the session
// usable are reported to the client and swallowed.
func (s *session) feed(data []byte) error {
	if len(data)%pcm.F32LE.BytesPerSample() != 0 {
		return s.reject(CodeMalformedInput, fmt.Sprintf("%d bytes is not whole float32 samples", len(data)))
	}
	s.samples = pcm.F32LE.Decode(s.samples[:0], data)
	frag, err := s.enc.Feed(s.samples)
	switch {
	case errors.Is(err, oggenc.ErrMalformedInput), errors.Is(err, oggenc.ErrOutOfMemory):
		s.logger.Debug("chunk rejected", "samples", len(s.samples), "error", err)
		return s.reject(errorCode(err), err.Error())
	case err != nil:
		return err
	}
	s.record.Frames += int64(len(s.samples) / s.enc.Format().Channels)
	return s.send(frag, nil)
}

func (s *session) finish() error {
	if err := s.send(s.enc.Finish()); err != nil {
		return err
	}
	s.record.Status = journal.StatusFinished
	return s.writeJSON(Message{Type: TypeDone, Bytes: s.record.Bytes, Frames: s.record.Frames})
}

// send writes a non-empty fragment to the client and the archive.
func (s *session) send(frag *oggenc.Fragment, err error) error {
	if err != nil {
		return err
	}
	defer frag.Release()
	if frag.Len() == 0 {
		return nil
	}
	if s.archive != nil {
		if _, err := frag.WriteTo(s.archive); err != nil {
			s.logger.Warn("archive write failed", "error", err)
			s.archive.Close()
			s.archive = nil
			s.record.Archive = ""
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frag.Bytes()); err != nil {
		return fmt.Errorf("wsencode: write fragment: %w", err)
	}
	s.record.Bytes += int64(frag.Len())
	s.record.Fragments++
	return nil
}

func (s *session) reject(code, message string) error {
	return s.writeJSON(Message{Type: TypeError, Code: code, Message: message})
}

func (s *session) writeJSON(msg Message) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(msg)
}

// end reports a fatal error to the client, closes the connection and
// settles the journal record.
func (s *session) end(ctx context.Context, err error) {
	closeCode, reason := websocket.CloseNormalClosure, ""
	if err != nil {
		code := errorCode(err)
		s.reject(code, err.Error())
		closeCode, reason = websocket.CloseInternalServerErr, code
		if code == CodeInitError {
			closeCode = websocket.CloseUnsupportedData
		}
		s.record.Status = journal.StatusFailed
		s.record.Error = err.Error()
	}
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, reason), time.Now().Add(time.Second))

	if s.enc != nil {
		s.enc.Close()
	}
	if s.archive != nil {
		if cerr := s.archive.Close(); cerr != nil {
			s.logger.Warn("archive close failed", "error", cerr)
			s.record.Archive = ""
		}
	}
	s.record.Ended = time.Now().UTC()
	if s.enc != nil {
		s.put(ctx)
	}

	attrs := []any{
		"status", s.record.Status,
		"bytes", s.record.Bytes,
		"frames", s.record.Frames,
		"duration", s.record.Duration(),
	}
	if err != nil {
		s.logger.Error("session failed", append(attrs, "error", err)...)
		return
	}
	s.logger.Info("session finished", attrs...)
}

func (s *session) put(ctx context.Context) {
	if s.server.journal == nil {
		return
	}
	if err := s.server.journal.Put(context.WithoutCancel(ctx), s.record); err != nil {
		s.logger.Warn("journal write failed", "error", err)
	}
}

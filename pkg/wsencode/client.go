package wsencode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/oggenc"
)

// ErrClosed is returned when the connection ended before the server
// acknowledged finish.
var ErrClosed = errors.New("wsencode: connection closed before done")

// Client streams PCM to a Server and writes the encoded stream to an
// io.Writer as fragments arrive.
//
// Send and Finish may be called from one goroutine while the client's
// reader goroutine writes fragments.
type Client struct {
	conn    *websocket.Conn
	session string
	serial  int32

	wmu sync.Mutex
	buf []byte

	w       io.Writer
	written int64
	errs    []error
	final   *Message
	readErr error
	done    chan struct{}
}

// DialOption configures Dial.
type DialOption func(*dialOptions)

type dialOptions struct {
	serial *int32
	dialer *websocket.Dialer
}

// WithDialSerial asks the server for a specific stream serial number.
func WithDialSerial(serial int32) DialOption {
	return func(o *dialOptions) { o.serial = &serial }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) DialOption {
	return func(o *dialOptions) { o.dialer = d }
}

// EncodeURL returns the session URL for format on the server at base.
// A base without a path gets Path appended.
func EncodeURL(base string, format oggenc.Format, serial *int32) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("wsencode: parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("wsencode: unsupported scheme %q", u.Scheme)
	}
	if strings.TrimSuffix(u.Path, "/") == "" {
		u.Path = Path
	}
	q := u.Query()
	q.Set("channels", strconv.Itoa(format.Channels))
	q.Set("sample_rate", strconv.Itoa(format.SampleRate))
	q.Set("quality", strconv.FormatFloat(float64(format.Quality), 'f', -1, 32))
	if serial != nil {
		q.Set("serial", strconv.FormatInt(int64(*serial), 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens an encode session and writes the stream header to w. The
// returned error is an *Error when the server rejected the format.
func Dial(ctx context.Context, base string, format oggenc.Format, w io.Writer, opts ...DialOption) (*Client, error) {
	o := dialOptions{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}
	target, err := EncodeURL(base, format, o.serial)
	if err != nil {
		return nil, err
	}
	conn, _, err := o.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("wsencode: dial: %w", err)
	}

	c := &Client{conn: conn, w: w, done: make(chan struct{})}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	go c.readLoop()
	return c, nil
}

// handshake reads the header fragment and the ready message.
func (c *Client) handshake() error {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("wsencode: handshake: %w", err)
		}
		if mt == websocket.BinaryMessage {
			if err := c.write(data); err != nil {
				return err
			}
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("wsencode: handshake: %w", err)
		}
		switch msg.Type {
		case TypeReady:
			c.session, c.serial = msg.Session, msg.Serial
			return nil
		case TypeError:
			return &Error{Code: msg.Code, Message: msg.Message}
		default:
			return fmt.Errorf("wsencode: handshake: unexpected %q message", msg.Type)
		}
	}
}

func (c *Client) write(p []byte) error {
	n, err := c.w.Write(p)
	c.written += int64(n)
	if err != nil {
		return fmt.Errorf("wsencode: write output: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.final == nil {
				c.readErr = err
			}
			return
		}
		if mt == websocket.BinaryMessage {
			if err := c.write(data); err != nil {
				c.readErr = err
				c.conn.Close()
				return
			}
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errs = append(c.errs, fmt.Errorf("wsencode: bad server message: %w", err))
			continue
		}
		switch msg.Type {
		case TypeError:
			c.errs = append(c.errs, &Error{Code: msg.Code, Message: msg.Message})
		case TypeDone:
			c.final = &msg
		}
	}
}

// Session returns the server-assigned session ID.
func (c *Client) Session() string { return c.session }

// Serial returns the stream serial number.
func (c *Client) Serial() int32 { return c.serial }

// Send streams interleaved samples to the server. Rejections of the chunk
// arrive asynchronously and are returned by Finish.
func (c *Client) Send(samples []float32) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.buf = pcm.F32LE.Encode(c.buf[:0], samples)
	if err := c.conn.WriteMessage(websocket.BinaryMessage, c.buf); err != nil {
		return fmt.Errorf("wsencode: send: %w", err)
	}
	return nil
}

// Finish ends the stream and waits for the server to deliver the final
// fragment. It returns the number of bytes written to the output. Any
// errors the server reported during the session are joined into err.
func (c *Client) Finish(ctx context.Context) (int64, error) {
	c.wmu.Lock()
	err := c.conn.WriteJSON(Message{Type: TypeFinish})
	c.wmu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("wsencode: send finish: %w", err)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		c.conn.Close()
		<-c.done
		return c.written, ctx.Err()
	}
	c.conn.Close()

	errs := c.errs
	if c.final == nil {
		cause := ErrClosed
		if c.readErr != nil {
			cause = fmt.Errorf("%w: %w", ErrClosed, c.readErr)
		}
		errs = append(errs, cause)
	}
	return c.written, errors.Join(errs...)
}

// Close abandons the session.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

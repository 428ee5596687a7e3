// Package vorbis provides Go bindings for the libvorbis encoder.
//
// Only the analysis (encode) side of libvorbis is bound. Packets leave the
// package as ogg.Packet values holding Go copies of the data, so they can be
// handed to any Ogg muxer.
package vorbis

// For go build: use pkg-config to find system libvorbis
// For bazel build: cdeps provides vorbis headers and library

/*
#cgo darwin CFLAGS: -I/opt/homebrew/include
#cgo darwin LDFLAGS: -L/opt/homebrew/lib -lvorbisenc -lvorbis -logg
#cgo linux pkg-config: vorbisenc vorbis ogg
#include <vorbis/vorbisenc.h>
#include <stdlib.h>

typedef struct {
    vorbis_info      vi;
    vorbis_comment   vc;
    vorbis_dsp_state vd;
    vorbis_block     vb;
} venc_t;

static venc_t* venc_new(int channels, long rate, float quality, int *err) {
    venc_t *e = (venc_t*)calloc(1, sizeof(venc_t));
    if (!e) {
        *err = OV_EFAULT;
        return NULL;
    }
    vorbis_info_init(&e->vi);
    *err = vorbis_encode_init_vbr(&e->vi, channels, rate, quality);
    if (*err) {
        vorbis_info_clear(&e->vi);
        free(e);
        return NULL;
    }
    vorbis_comment_init(&e->vc);
    vorbis_analysis_init(&e->vd, &e->vi);
    vorbis_block_init(&e->vd, &e->vb);
    return e;
}

static void venc_free(venc_t *e) {
    if (!e) {
        return;
    }
    vorbis_block_clear(&e->vb);
    vorbis_dsp_clear(&e->vd);
    vorbis_comment_clear(&e->vc);
    vorbis_info_clear(&e->vi);
    free(e);
}

static void venc_add_tag(venc_t *e, const char *key, const char *value) {
    vorbis_comment_add_tag(&e->vc, key, value);
}

static int venc_headerout(venc_t *e, ogg_packet *ident, ogg_packet *comm, ogg_packet *code) {
    return vorbis_analysis_headerout(&e->vd, &e->vc, ident, comm, code);
}

static float** venc_buffer(venc_t *e, int frames) {
    return vorbis_analysis_buffer(&e->vd, frames);
}

static int venc_wrote(venc_t *e, int frames) {
    return vorbis_analysis_wrote(&e->vd, frames);
}

// Pulls one block and runs it through analysis and the bitrate manager.
static int venc_blockout(venc_t *e) {
    int ret = vorbis_analysis_blockout(&e->vd, &e->vb);
    if (ret != 1) {
        return ret;
    }
    ret = vorbis_analysis(&e->vb, NULL);
    if (ret) {
        return ret;
    }
    ret = vorbis_bitrate_addblock(&e->vb);
    if (ret) {
        return ret;
    }
    return 1;
}

static int venc_flushpacket(venc_t *e, ogg_packet *op) {
    return vorbis_bitrate_flushpacket(&e->vd, op);
}
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/haivivi/pcmogg/pkg/audio/codec/ogg"
)

var (
	// ErrUnsupported is returned when libvorbis has no mode for the
	// requested channels, rate and quality (OV_EIMPL).
	ErrUnsupported = errors.New("vorbis: unsupported encoding mode")
	// ErrInvalid is returned for arguments libvorbis rejects (OV_EINVAL).
	ErrInvalid = errors.New("vorbis: invalid argument")
	// ErrFault is returned for internal libvorbis failures (OV_EFAULT).
	ErrFault = errors.New("vorbis: internal fault")
	// ErrClosed is returned by operations on a closed encoder.
	ErrClosed = errors.New("vorbis: encoder is closed")
)

func codeErr(code C.int) error {
	switch code {
	case C.OV_EIMPL:
		return ErrUnsupported
	case C.OV_EINVAL:
		return ErrInvalid
	case C.OV_EFAULT:
		return ErrFault
	}
	return fmt.Errorf("vorbis: error code %d", int(code))
}

// Option configures an Encoder.
type Option func(*options)

type options struct {
	tags [][2]string
}

// WithComment adds a user comment (for example TITLE or ARTIST) to the
// comment header. Options are applied in order; repeated keys are kept.
func WithComment(key, value string) Option {
	return func(o *options) {
		o.tags = append(o.tags, [2]string{key, value})
	}
}

// Encoder wraps a libvorbis VBR encoder.
// Must call Close() when done to release resources.
type Encoder struct {
	enc        *C.venc_t
	channels   int
	sampleRate int
	quality    float32

	packet  C.ogg_packet
	planes  [][]float32
	closed  atomic.Bool
	cleanup runtime.Cleanup
}

func freeEncoder(ptr uintptr) {
	C.venc_free((*C.venc_t)(unsafe.Pointer(ptr)))
}

// NewEncoder creates a VBR encoder.
//
// Parameters:
//   - channels: number of interleaved input channels
//   - sampleRate: input sample rate in Hz
//   - quality: VBR quality, libvorbis accepts -0.1 (smallest) to 1.0 (best)
//
// Range checking is left to libvorbis; rejected settings come back as
// ErrUnsupported or ErrInvalid.
func NewEncoder(channels, sampleRate int, quality float32, opts ...Option) (*Encoder, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var code C.int
	enc := C.venc_new(C.int(channels), C.long(sampleRate), C.float(quality), &code)
	if enc == nil {
		return nil, fmt.Errorf("vorbis: init %d ch, %d Hz, quality %.2f: %w",
			channels, sampleRate, quality, codeErr(code))
	}

	for _, tag := range o.tags {
		key, value := C.CString(tag[0]), C.CString(tag[1])
		C.venc_add_tag(enc, key, value)
		C.free(unsafe.Pointer(key))
		C.free(unsafe.Pointer(value))
	}

	e := &Encoder{
		enc:        enc,
		channels:   channels,
		sampleRate: sampleRate,
		quality:    quality,
		planes:     make([][]float32, channels),
	}
	e.cleanup = runtime.AddCleanup(e, freeEncoder, uintptr(unsafe.Pointer(enc)))
	return e, nil
}

// Close releases the encoder resources. Safe to call multiple times.
func (e *Encoder) Close() {
	if e.closed.CompareAndSwap(false, true) {
		e.cleanup.Stop()
		C.venc_free(e.enc)
		e.enc = nil
		e.planes = nil
	}
}

// Channels returns the number of channels of this encoder.
func (e *Encoder) Channels() int {
	return e.channels
}

// SampleRate returns the sample rate of this encoder.
func (e *Encoder) SampleRate() int {
	return e.sampleRate
}

// Quality returns the VBR quality the encoder was created with.
func (e *Encoder) Quality() float32 {
	return e.quality
}

// HeaderOut builds the three Vorbis header packets: identification,
// comment and setup (codebooks).
func (e *Encoder) HeaderOut() (ident, comment, setup ogg.Packet, err error) {
	if e.enc == nil {
		return ident, comment, setup, ErrClosed
	}
	var h, c, s C.ogg_packet
	if code := C.venc_headerout(e.enc, &h, &c, &s); code != 0 {
		return ident, comment, setup, fmt.Errorf("vorbis: header out: %w", codeErr(code))
	}
	return copyPacket(&h), copyPacket(&c), copyPacket(&s), nil
}

// Buffer exposes the analysis buffer for the next frames samples per
// channel. The returned planes live in libvorbis memory and are valid until
// Wrote is called.
func (e *Encoder) Buffer(frames int) [][]float32 {
	if e.enc == nil || frames <= 0 {
		return nil
	}
	bufs := C.venc_buffer(e.enc, C.int(frames))
	chans := unsafe.Slice(bufs, e.channels)
	for c := range e.planes {
		e.planes[c] = unsafe.Slice((*float32)(unsafe.Pointer(chans[c])), frames)
	}
	return e.planes
}

// Wrote tells libvorbis how many frames were written into the buffer.
// Zero marks the end of input.
func (e *Encoder) Wrote(frames int) error {
	if e.enc == nil {
		return ErrClosed
	}
	if code := C.venc_wrote(e.enc, C.int(frames)); code != 0 {
		return fmt.Errorf("vorbis: analysis wrote: %w", codeErr(code))
	}
	return nil
}

// BlockOut pulls the next analysis block, if one is complete, and feeds it
// through the psychoacoustic analysis and the bitrate manager. It reports
// false when more input is needed.
func (e *Encoder) BlockOut() (bool, error) {
	if e.enc == nil {
		return false, ErrClosed
	}
	switch code := C.venc_blockout(e.enc); {
	case code == 1:
		return true, nil
	case code == 0:
		return false, nil
	default:
		return false, fmt.Errorf("vorbis: block out: %w", codeErr(code))
	}
}

// FlushPacket moves the next finished audio packet into p. It reports false
// when no packet is ready.
func (e *Encoder) FlushPacket(p *ogg.Packet) bool {
	if e.enc == nil {
		return false
	}
	if C.venc_flushpacket(e.enc, &e.packet) != 1 {
		return false
	}
	*p = copyPacket(&e.packet)
	return true
}

func copyPacket(op *C.ogg_packet) ogg.Packet {
	return ogg.NewPacket(
		C.GoBytes(unsafe.Pointer(op.packet), C.int(op.bytes)),
		int64(op.granulepos),
		int64(op.packetno),
		op.b_o_s != 0,
		op.e_o_s != 0,
	)
}

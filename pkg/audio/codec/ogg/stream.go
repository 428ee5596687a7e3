package ogg

/*
#include <ogg/ogg.h>
#include <stdlib.h>
#include <string.h>

static ogg_stream_state* alloc_stream_state() {
    return (ogg_stream_state*)calloc(1, sizeof(ogg_stream_state));
}

static void free_stream_state(ogg_stream_state *state) {
    if (state) {
        ogg_stream_clear(state);
        free(state);
    }
}

// The body is copied by ogg_stream_packetin; data only has to live for the
// call.
static int stream_packetin(ogg_stream_state *state, unsigned char *data, long bytes,
                           ogg_int64_t granulepos, ogg_int64_t packetno, int bos, int eos) {
    ogg_packet op;
    memset(&op, 0, sizeof(op));
    op.packet = data;
    op.bytes = bytes;
    op.granulepos = granulepos;
    op.packetno = packetno;
    op.b_o_s = bos;
    op.e_o_s = eos;
    return ogg_stream_packetin(state, &op);
}
*/
import "C"
import (
	"errors"
	"runtime"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrStream indicates a stream error.
	ErrStream = errors.New("ogg: stream error")
	// ErrNoPacket indicates no packet is available.
	ErrNoPacket = errors.New("ogg: no packet available")
	// ErrHole indicates a gap in the data (packet loss).
	ErrHole = errors.New("ogg: hole in data")
	// ErrCleared is returned by operations on a cleared stream.
	ErrCleared = errors.New("ogg: stream state cleared")
	// ErrAlloc indicates libogg could not allocate memory.
	ErrAlloc = errors.New("ogg: allocation failed")
)

// StreamState welds packets of one logical bitstream into pages.
// Must call Clear() when done to release resources.
type StreamState struct {
	state    *C.ogg_stream_state
	serialNo int32
	packet   C.ogg_packet
	cleared  atomic.Bool
	cleanup  runtime.Cleanup
}

// freeStreamState releases C resources.
func freeStreamState(ptr uintptr) {
	C.free_stream_state((*C.ogg_stream_state)(unsafe.Pointer(ptr)))
}

// NewStreamState creates a new stream state with the given serial number.
// Returns an error if memory allocation fails.
func NewStreamState(serialNo int32) (*StreamState, error) {
	state := C.alloc_stream_state()
	if state == nil {
		return nil, ErrAlloc
	}
	if C.ogg_stream_init(state, C.int(serialNo)) != 0 {
		C.free(unsafe.Pointer(state))
		return nil, ErrAlloc
	}
	s := &StreamState{
		state:    state,
		serialNo: serialNo,
	}
	s.cleanup = runtime.AddCleanup(s, freeStreamState, uintptr(unsafe.Pointer(state)))
	return s, nil
}

// Clear releases resources. Safe to call multiple times.
func (s *StreamState) Clear() {
	if s.cleared.CompareAndSwap(false, true) {
		s.cleanup.Stop()
		C.free_stream_state(s.state)
		s.state = nil
	}
}

// SerialNo returns the stream serial number.
func (s *StreamState) SerialNo() int32 {
	return s.serialNo
}

// EOS returns true if the last packet was marked end of stream.
func (s *StreamState) EOS() bool {
	if s.state == nil {
		return false
	}
	return C.ogg_stream_eos(s.state) != 0
}

// PacketIn submits a packet for page generation. The data is copied.
func (s *StreamState) PacketIn(p *Packet) error {
	if s.state == nil {
		return ErrCleared
	}
	var data *C.uchar
	if len(p.data) > 0 {
		data = (*C.uchar)(unsafe.Pointer(&p.data[0]))
	}
	var bos, eos C.int
	if p.bos {
		bos = 1
	}
	if p.eos {
		eos = 1
	}
	if C.stream_packetin(s.state, data, C.long(len(p.data)),
		C.ogg_int64_t(p.granulePos), C.ogg_int64_t(p.packetNo), bos, eos) != 0 {
		return ErrStream
	}
	return nil
}

// PageOut fills page with the next complete page, if libogg considers
// one ready. It reports false when more packets are needed.
func (s *StreamState) PageOut(page *Page) bool {
	if s.state == nil {
		return false
	}
	return C.ogg_stream_pageout(s.state, &page.page) != 0
}

// Flush forces any buffered packets into page, even if the page would
// normally wait for more data. It reports false when nothing is pending.
func (s *StreamState) Flush(page *Page) bool {
	if s.state == nil {
		return false
	}
	return C.ogg_stream_flush(s.state, &page.page) != 0
}

// PageIn submits a page to the stream for packetization.
func (s *StreamState) PageIn(page *Page) error {
	if s.state == nil {
		return ErrCleared
	}
	if C.ogg_stream_pagein(s.state, &page.page) != 0 {
		return ErrStream
	}
	return nil
}

// PacketOut extracts a packet from the stream.
// Returns ErrNoPacket if no complete packet is available.
// Returns ErrHole if there's a gap in the data.
func (s *StreamState) PacketOut(packet *Packet) error {
	if s.state == nil {
		return ErrCleared
	}
	switch C.ogg_stream_packetout(s.state, &s.packet) {
	case 1:
		packet.data = C.GoBytes(unsafe.Pointer(s.packet.packet), C.int(s.packet.bytes))
		packet.granulePos = int64(s.packet.granulepos)
		packet.packetNo = int64(s.packet.packetno)
		packet.bos = s.packet.b_o_s != 0
		packet.eos = s.packet.e_o_s != 0
		return nil
	case 0:
		return ErrNoPacket
	default:
		return ErrHole
	}
}

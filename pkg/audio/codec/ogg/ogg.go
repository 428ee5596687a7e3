// Package ogg provides Go bindings for libogg.
//
// libogg is the reference implementation of the Ogg container format.
// The package exposes the two halves the encoder needs: StreamState welds
// codec packets into pages, and SyncState/Decoder split a byte stream back
// into pages so produced output can be inspected.
package ogg

/*
#cgo pkg-config: ogg
#include <ogg/ogg.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"
import (
	"io"
	"unsafe"
)

// Page header type flags
const (
	// Continued indicates this page contains data from a packet continued from the previous page
	Continued = 0x01
	// BOS indicates beginning of stream
	BOS = 0x02
	// EOS indicates end of stream
	EOS = 0x04
)

// Page represents an Ogg page.
//
// A Page filled by StreamState or SyncState points into memory owned by
// that state. It stays valid only until the next call on the same state;
// use Header, Body or WriteTo to keep the bytes.
type Page struct {
	page C.ogg_page
}

func (p *Page) headerView() []byte {
	if p.page.header == nil || p.page.header_len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p.page.header)), int(p.page.header_len))
}

func (p *Page) bodyView() []byte {
	if p.page.body == nil || p.page.body_len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p.page.body)), int(p.page.body_len))
}

// Header returns a copy of the page header.
func (p *Page) Header() []byte {
	return append([]byte(nil), p.headerView()...)
}

// Body returns a copy of the page body.
func (p *Page) Body() []byte {
	return append([]byte(nil), p.bodyView()...)
}

// Len returns the encoded size of the page, header plus body.
func (p *Page) Len() int {
	return int(p.page.header_len) + int(p.page.body_len)
}

// WriteTo writes the header followed by the body to w.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.headerView())
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(p.bodyView())
	return int64(n + m), err
}

// SerialNo returns the stream serial number.
func (p *Page) SerialNo() int32 {
	return int32(C.ogg_page_serialno(&p.page))
}

// PageNo returns the page sequence number.
func (p *Page) PageNo() int64 {
	return int64(C.ogg_page_pageno(&p.page))
}

// IsBOS returns true if this is a beginning of stream page.
func (p *Page) IsBOS() bool {
	return C.ogg_page_bos(&p.page) != 0
}

// IsEOS returns true if this is an end of stream page.
func (p *Page) IsEOS() bool {
	return C.ogg_page_eos(&p.page) != 0
}

// IsContinued returns true if the page starts with the tail of a packet
// begun on the previous page.
func (p *Page) IsContinued() bool {
	return C.ogg_page_continued(&p.page) != 0
}

// GranulePos returns the granule position.
func (p *Page) GranulePos() int64 {
	return int64(C.ogg_page_granulepos(&p.page))
}

// Packets returns the number of complete packets in this page.
func (p *Page) Packets() int {
	return int(C.ogg_page_packets(&p.page))
}

// Packet represents an Ogg packet.
// Data is stored as a Go slice to avoid CGO pointer issues.
type Packet struct {
	data       []byte
	granulePos int64
	packetNo   int64
	bos        bool
	eos        bool
}

// NewPacket builds a packet from codec output. The data slice is retained,
// not copied.
func NewPacket(data []byte, granulePos, packetNo int64, bos, eos bool) Packet {
	return Packet{
		data:       data,
		granulePos: granulePos,
		packetNo:   packetNo,
		bos:        bos,
		eos:        eos,
	}
}

// Data returns the packet data.
func (p *Packet) Data() []byte {
	return p.data
}

// Bytes returns the packet length.
func (p *Packet) Bytes() int64 {
	return int64(len(p.data))
}

// BOS returns true if this is a beginning of stream packet.
func (p *Packet) BOS() bool {
	return p.bos
}

// EOS returns true if this is an end of stream packet.
func (p *Packet) EOS() bool {
	return p.eos
}

// GranulePos returns the granule position.
func (p *Packet) GranulePos() int64 {
	return p.granulePos
}

// PacketNo returns the packet sequence number.
func (p *Packet) PacketNo() int64 {
	return p.packetNo
}

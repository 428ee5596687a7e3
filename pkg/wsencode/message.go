package wsencode

import (
	"errors"
	"fmt"

	"github.com/haivivi/pcmogg/pkg/oggenc"
)

// Message types.
const (
	TypeReady  = "ready"
	TypeFinish = "finish"
	TypeDone   = "done"
	TypeError  = "error"
)

// Error codes.
const (
	CodeInitError      = "init_error"
	CodeMalformedInput = "malformed_input"
	CodeOutOfMemory    = "out_of_memory"
	CodeBadRequest     = "bad_request"
	CodeInternal       = "internal"
)

// Message is a control message in either direction.
type Message struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Serial  int32  `json:"serial,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	Frames  int64  `json:"frames,omitempty"`
}

// Error is an error reported by the server.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "wsencode: " + e.Code
	}
	return fmt.Sprintf("wsencode: %s: %s", e.Code, e.Message)
}

// Unwrap maps encoder error codes back to the oggenc sentinels, so callers
// can use errors.Is(err, oggenc.ErrMalformedInput) on either side.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeInitError:
		return oggenc.ErrInit
	case CodeMalformedInput:
		return oggenc.ErrMalformedInput
	case CodeOutOfMemory:
		return oggenc.ErrOutOfMemory
	}
	return nil
}

// errorCode classifies an encoder error for the wire.
func errorCode(err error) string {
	switch {
	case errors.Is(err, oggenc.ErrInit):
		return CodeInitError
	case errors.Is(err, oggenc.ErrMalformedInput):
		return CodeMalformedInput
	case errors.Is(err, oggenc.ErrOutOfMemory):
		return CodeOutOfMemory
	}
	return CodeInternal
}

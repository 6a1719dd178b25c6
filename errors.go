package bitswap

import (
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// Errors shared by the native and compat codecs.
//
// These categories are intended to remain stable across versions.
// Callers should branch on the typed errors and sentinels below via
// errors.As/errors.Is (or the IsXxx helpers) rather than matching
// error strings; Error() strings are for humans and may evolve.
//
// Truncated input is not a dedicated sentinel: it is io.EOF or
// io.ErrUnexpectedEOF propagated from the underlying read, detectable
// with IsTruncated.

var (
	// ErrInvalidData marks structurally inconsistent wire input: a
	// malformed identifier, a malformed token length, or a dangling
	// token-table index. Errors carrying more context wrap it.
	ErrInvalidData = errors.New("bitswap: invalid data")

	// ErrOverflow marks a declared length that does not fit the
	// platform's int. Reachable on 32-bit platforms and for 64-bit
	// varint lengths above the int ceiling.
	ErrOverflow = errors.New("bitswap: length does not fit in int")
)

// UnknownMessageTypeError reports a message tag byte outside the
// recognized set for its frame kind.
type UnknownMessageTypeError struct {
	Type byte
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("bitswap: unknown message type %d", e.Type)
}

// MessageTooLargeError reports a frame whose declared or encoded length
// exceeds the applicable size ceiling. Size is the observed length.
type MessageTooLargeError struct {
	Size int
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("bitswap: message too large (%d bytes)", e.Size)
}

// IsUnknownMessageType reports whether err is (or wraps) an
// UnknownMessageTypeError.
func IsUnknownMessageType(err error) bool {
	var e *UnknownMessageTypeError
	return errors.As(err, &e)
}

// IsMessageTooLarge reports whether err is (or wraps) a
// MessageTooLargeError.
func IsMessageTooLarge(err error) bool {
	var e *MessageTooLargeError
	return errors.As(err, &e)
}

// IsTruncated reports whether err indicates input that ended before a
// declared length was satisfied.
func IsTruncated(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, varint.ErrUnderflow)
}

package bitswap

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/multiformats/go-varint"
)

func TestIsTruncated(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"varint underflow", varint.ErrUnderflow, true},
		{"wrapped", fmt.Errorf("reading frame: %w", io.ErrUnexpectedEOF), true},
		{"nil", nil, false},
		{"overflow", ErrOverflow, false},
		{"invalid data", ErrInvalidData, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTruncated(tc.err); got != tc.want {
				t.Fatalf("IsTruncated(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTypedErrors(t *testing.T) {
	unknown := fmt.Errorf("decoding request: %w", &UnknownMessageTypeError{Type: 7})
	if !IsUnknownMessageType(unknown) {
		t.Fatalf("IsUnknownMessageType(%v) = false, want true", unknown)
	}
	if IsUnknownMessageType(ErrInvalidData) {
		t.Fatal("IsUnknownMessageType(ErrInvalidData) = true, want false")
	}

	large := fmt.Errorf("reading frame: %w", &MessageTooLargeError{Size: 1 << 30})
	if !IsMessageTooLarge(large) {
		t.Fatalf("IsMessageTooLarge(%v) = false, want true", large)
	}
	if IsMessageTooLarge(unknown) {
		t.Fatal("IsMessageTooLarge reported an unknown-type error as too large")
	}

	var typed *UnknownMessageTypeError
	if !errors.As(unknown, &typed) || typed.Type != 7 {
		t.Fatalf("errors.As lost the message type: %+v", typed)
	}
}

func TestErrorStrings(t *testing.T) {
	if got := (&UnknownMessageTypeError{Type: 3}).Error(); got != "bitswap: unknown message type 3" {
		t.Fatalf("unexpected error string %q", got)
	}
	if got := (&MessageTooLargeError{Size: 2048}).Error(); got != "bitswap: message too large (2048 bytes)" {
		t.Fatalf("unexpected error string %q", got)
	}
}

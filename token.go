package bitswap

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/multiformats/go-varint"
)

// Token is an opaque authentication credential attached to requests and
// responses. Codec is a multicodec naming the encoding of Value; both
// are opaque to this layer. See https://github.com/ipfs/specs/pull/270.
//
// Wire format:
//
//	Token       = MultiCodec TokenLength TokenValue
//	MultiCodec  = unsigned varint
//	TokenLength = unsigned varint
//	TokenValue  = *OCTET
//
// Tokens are immutable once constructed; callers must not mutate Value
// after handing a Token to a codec.
type Token struct {
	Codec uint64
	Value []byte
}

// Bytes returns the token's wire encoding as a fresh slice.
func (t Token) Bytes() []byte {
	buf := make([]byte, varint.UvarintSize(t.Codec)+varint.UvarintSize(uint64(len(t.Value)))+len(t.Value))
	n := varint.PutUvarint(buf, t.Codec)
	n += varint.PutUvarint(buf[n:], uint64(len(t.Value)))
	copy(buf[n:], t.Value)
	return buf
}

// WriteBytes writes the token's wire encoding to w and returns the
// number of bytes written.
func (t Token) WriteBytes(w io.Writer) (int, error) {
	var hdr [20]byte // two maximal uvarints
	n := varint.PutUvarint(hdr[:], t.Codec)
	n += varint.PutUvarint(hdr[n:], uint64(len(t.Value)))
	wrote, err := w.Write(hdr[:n])
	if err != nil {
		return wrote, err
	}
	n, err = w.Write(t.Value)
	return wrote + n, err
}

// TokenFromBytes parses one token from the front of data and returns the
// number of bytes consumed. The token's value is copied out of data, so
// the returned Token stays valid when data is a reused decode buffer.
//
// It fails with a truncated-input error (see IsTruncated) when data ends
// before the declared value length is satisfied, and with ErrOverflow
// when the declared length does not fit in int.
func TokenFromBytes(data []byte) (int, Token, error) {
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return 0, Token{}, fmt.Errorf("bitswap: token codec: %w", err)
	}
	length, m, err := varint.FromUvarint(data[n:])
	if err != nil {
		return 0, Token{}, fmt.Errorf("bitswap: token length: %w", err)
	}
	if length > math.MaxInt {
		return 0, Token{}, fmt.Errorf("bitswap: token length %d: %w", length, ErrOverflow)
	}
	rest := data[n+m:]
	if int(length) > len(rest) {
		return 0, Token{}, fmt.Errorf("bitswap: token value needs %d bytes, have %d: %w",
			length, len(rest), io.ErrUnexpectedEOF)
	}
	var value []byte
	if length > 0 {
		value = make([]byte, length)
		copy(value, rest)
	}
	return n + m + int(length), Token{Codec: code, Value: value}, nil
}

// Equal reports whether two tokens carry the same codec and value.
func (t Token) Equal(o Token) bool {
	return t.Codec == o.Codec && bytes.Equal(t.Value, o.Value)
}

// Compare orders tokens by codec, then by value lexicographically. The
// order is total, so token sets and maps can be made deterministic.
func (t Token) Compare(o Token) int {
	if t.Codec != o.Codec {
		if t.Codec < o.Codec {
			return -1
		}
		return 1
	}
	return bytes.Compare(t.Value, o.Value)
}

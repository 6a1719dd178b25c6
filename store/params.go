// Package store declares the parameters the wire codecs need from a
// block store. Storage itself is out of scope for this module; the
// codecs only care how large a block is allowed to get.
package store

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMaxBlockSize caps block payloads at 1 MiB, the conventional
// ceiling for exchanged blocks.
const DefaultMaxBlockSize = 1 << 20

// Params carries the store limits the codecs enforce on the wire.
type Params struct {
	// MaxBlockSize is the largest block payload, in bytes, the codec
	// will encode or accept. Block frames are one byte larger than the
	// payload to carry the message tag.
	MaxBlockSize int
}

// DefaultParams returns the stock limits.
func DefaultParams() Params {
	return Params{MaxBlockSize: DefaultMaxBlockSize}
}

// Validate reports whether the limits are usable on the wire. A block
// frame length (payload plus tag byte) must fit in 32 bits.
func (p Params) Validate() error {
	if p.MaxBlockSize <= 0 {
		return errors.New("store: max block size must be positive")
	}
	if uint64(p.MaxBlockSize)+1 > math.MaxUint32 {
		return fmt.Errorf("store: max block size %d does not fit a frame length", p.MaxBlockSize)
	}
	return nil
}

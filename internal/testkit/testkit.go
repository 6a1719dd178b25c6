// Package testkit provides deterministic CID fixtures shared by the
// codec tests and the vector generator.
package testkit

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// BlockCid derives the CIDv1 (raw codec, blake3-256) for a block of
// data, the recipe the tests use for realistic identifiers.
func BlockCid(data []byte) cid.Cid {
	sum, err := multihash.Sum(data, multihash.BLAKE3, -1)
	if err != nil {
		panic("testkit: blake3 sum: " + err.Error())
	}
	return cid.NewCidV1(cid.Raw, sum)
}

// FixedCid returns a CIDv1 (raw, blake3-256) over a constant digest of
// 32 fill bytes. Its encoding is hand-computable, 0x01 0x55 0x1e 0x20
// followed by the digest, which keeps golden wire vectors readable.
func FixedCid(fill byte) cid.Cid {
	enc, err := multihash.Encode(bytes.Repeat([]byte{fill}, 32), multihash.BLAKE3)
	if err != nil {
		panic("testkit: encode multihash: " + err.Error())
	}
	return cid.NewCidV1(cid.Raw, enc)
}

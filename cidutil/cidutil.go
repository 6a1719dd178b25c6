// Package cidutil keeps the small CID derivations the codecs share in
// one place.
package cidutil

import (
	"github.com/ipfs/go-cid"
)

// PrefixBytes returns the binary prefix of c: version, codec, and
// multihash parameters without the digest. A block's CID can be rebuilt
// from the prefix and the block data via CidFromPrefix, so messages can
// carry the prefix instead of the full CID.
func PrefixBytes(c cid.Cid) []byte {
	return c.Prefix().Bytes()
}

// CidFromPrefix rebuilds a CID by hashing data with the parameters
// carried in prefix. The result equals the CID the prefix was taken
// from exactly when data is that CID's preimage.
func CidFromPrefix(prefix, data []byte) (cid.Cid, error) {
	p, err := cid.PrefixFromBytes(prefix)
	if err != nil {
		return cid.Undef, err
	}
	return p.Sum(data)
}

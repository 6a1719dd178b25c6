// Package bitswap implements the wire codecs for a peer-to-peer block
// exchange protocol.
//
// The root package holds the pieces shared by both codecs: the opaque
// authentication Token and its byte encoding, and the error taxonomy
// raised on malformed or oversized wire input.
//
// Subpackages:
//   - protocol: the native length-framed request/response codec driven by
//     a stream transport.
//   - compat: translation to and from the protobuf message format spoken
//     by legacy peers, including its deduplicated token table.
//   - cidutil: the prefix decomposition of content identifiers used by
//     the compat payload entries.
//   - store: the block-store parameters the codecs are bounded by.
package bitswap

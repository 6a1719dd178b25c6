// Package protocol implements the native bitswap wire protocol: tagged
// request and response payloads, and a length-framed stream codec with
// hard size ceilings.
package protocol

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"

	bitswap "github.com/dkuhnert/libp2p-bitswap"
	"github.com/dkuhnert/libp2p-bitswap/store"
)

// ID is the stream protocol identifier negotiated for this codec.
const ID = "/ipfs-embed/bitswap/1.1.0"

// MaxCIDSize bounds an encoded CID: four u64 varints (version, codec,
// hash code, digest length) plus a 64-byte digest.
const MaxCIDSize = 4*10 + 64

// MaxTokenSize bounds the encoded tokens carried by one message.
const MaxTokenSize = 1024 * 1024

// RequestType selects what a request asks for.
type RequestType byte

const (
	// RequestHave asks whether the peer holds the block.
	RequestHave RequestType = iota
	// RequestBlock asks for the block payload itself.
	RequestBlock
)

func (t RequestType) String() string {
	switch t {
	case RequestHave:
		return "have"
	case RequestBlock:
		return "block"
	}
	return fmt.Sprintf("invalid(%d)", byte(t))
}

// Wire tags for requests.
const (
	requestTagHave  = 0x00
	requestTagBlock = 0x01
)

func (t RequestType) wireTag() (byte, error) {
	switch t {
	case RequestHave:
		return requestTagHave, nil
	case RequestBlock:
		return requestTagBlock, nil
	}
	return 0, &bitswap.UnknownMessageTypeError{Type: byte(t)}
}

func requestTypeFromWire(tag byte) (RequestType, error) {
	switch tag {
	case requestTagHave:
		return RequestHave, nil
	case requestTagBlock:
		return RequestBlock, nil
	}
	return 0, &bitswap.UnknownMessageTypeError{Type: tag}
}

// Request asks a peer about one block, identified by CID, optionally
// presenting authentication tokens.
type Request struct {
	Type   RequestType
	Cid    cid.Cid
	Tokens []bitswap.Token
}

// WriteBytes writes the request payload to w: a tag byte, the CID
// bytes, a varint token count, then each token. It returns the number
// of bytes written.
func (r Request) WriteBytes(w io.Writer) (int, error) {
	tag, err := r.Type.wireTag()
	if err != nil {
		return 0, err
	}
	n, err := w.Write([]byte{tag})
	if err != nil {
		return n, err
	}
	m, err := r.Cid.WriteBytes(w)
	n += m
	if err != nil {
		return n, fmt.Errorf("writing cid: %w", err)
	}
	var cnt [varint.MaxLenUvarint63]byte
	m, err = w.Write(cnt[:varint.PutUvarint(cnt[:], uint64(len(r.Tokens)))])
	n += m
	if err != nil {
		return n, err
	}
	for _, tok := range r.Tokens {
		m, err = tok.WriteBytes(w)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// RequestFromBytes decodes a request payload. Trailing bytes after the
// final token are ignored.
func RequestFromBytes(data []byte) (Request, error) {
	if len(data) == 0 {
		return Request{}, fmt.Errorf("reading request type: %w", io.ErrUnexpectedEOF)
	}
	ty, err := requestTypeFromWire(data[0])
	if err != nil {
		return Request{}, err
	}
	n, id, err := cid.CidFromBytes(data[1:])
	if err != nil {
		return Request{}, fmt.Errorf("reading request cid (%v): %w", err, bitswap.ErrInvalidData)
	}
	rest := data[1+n:]
	count, m, err := varint.FromUvarint(rest)
	if err != nil {
		return Request{}, fmt.Errorf("reading token count: %w", err)
	}
	rest = rest[m:]
	// A token takes at least two bytes on the wire, so a count beyond
	// half the remaining input is unsatisfiable. Checking up front keeps
	// a hostile count from sizing the allocation below.
	if count > uint64(len(rest)/2) {
		return Request{}, fmt.Errorf("token count %d exceeds remaining %d bytes: %w",
			count, len(rest), io.ErrUnexpectedEOF)
	}
	var tokens []bitswap.Token
	if count > 0 {
		tokens = make([]bitswap.Token, 0, count)
		for i := uint64(0); i < count; i++ {
			adv, tok, err := bitswap.TokenFromBytes(rest)
			if err != nil {
				return Request{}, fmt.Errorf("reading token %d: %w", i, err)
			}
			rest = rest[adv:]
			tokens = append(tokens, tok)
		}
	}
	return Request{Type: ty, Cid: id, Tokens: tokens}, nil
}

// Equal reports whether two requests are identical, tokens included.
func (r Request) Equal(o Request) bool {
	if r.Type != o.Type || !r.Cid.Equals(o.Cid) || len(r.Tokens) != len(o.Tokens) {
		return false
	}
	for i := range r.Tokens {
		if !r.Tokens[i].Equal(o.Tokens[i]) {
			return false
		}
	}
	return true
}

// ResponseType distinguishes presence answers from block payloads.
type ResponseType byte

const (
	// ResponseHave answers a presence probe; Response.Have carries the
	// answer.
	ResponseHave ResponseType = iota
	// ResponseBlock carries the block payload in Response.Block.
	ResponseBlock
)

func (t ResponseType) String() string {
	switch t {
	case ResponseHave:
		return "have"
	case ResponseBlock:
		return "block"
	}
	return fmt.Sprintf("invalid(%d)", byte(t))
}

// Wire tags for responses. Presence uses two tags, one per answer.
const (
	responseTagHave     = 0x00
	responseTagBlock    = 0x01
	responseTagDontHave = 0x02
)

// Response answers one request.
type Response struct {
	Type  ResponseType
	Have  bool
	Block []byte
}

// HaveResponse answers a presence probe.
func HaveResponse(have bool) Response {
	return Response{Type: ResponseHave, Have: have}
}

// BlockResponse answers with the block payload.
func BlockResponse(block []byte) Response {
	return Response{Type: ResponseBlock, Block: block}
}

func (r Response) wireTag() (byte, error) {
	switch r.Type {
	case ResponseHave:
		if r.Have {
			return responseTagHave, nil
		}
		return responseTagDontHave, nil
	case ResponseBlock:
		return responseTagBlock, nil
	}
	return 0, &bitswap.UnknownMessageTypeError{Type: byte(r.Type)}
}

// WriteBytes writes the response payload to w: a tag byte, then the
// block payload for block responses. It returns the number of bytes
// written.
func (r Response) WriteBytes(w io.Writer) (int, error) {
	tag, err := r.wireTag()
	if err != nil {
		return 0, err
	}
	n, err := w.Write([]byte{tag})
	if err != nil || r.Type != ResponseBlock {
		return n, err
	}
	m, err := w.Write(r.Block)
	return n + m, err
}

// ResponseFromBytes decodes a response payload. The block payload is
// copied out of data. Trailing bytes after a presence tag are ignored.
func ResponseFromBytes(data []byte) (Response, error) {
	if len(data) == 0 {
		return Response{}, fmt.Errorf("reading response type: %w", io.ErrUnexpectedEOF)
	}
	switch data[0] {
	case responseTagHave:
		return HaveResponse(true), nil
	case responseTagDontHave:
		return HaveResponse(false), nil
	case responseTagBlock:
		block := make([]byte, len(data)-1)
		copy(block, data[1:])
		return BlockResponse(block), nil
	}
	return Response{}, &bitswap.UnknownMessageTypeError{Type: data[0]}
}

// Equal reports whether two responses carry the same answer.
func (r Response) Equal(o Response) bool {
	if r.Type != o.Type {
		return false
	}
	switch r.Type {
	case ResponseHave:
		return r.Have == o.Have
	case ResponseBlock:
		return bytes.Equal(r.Block, o.Block)
	}
	return false
}

// Codec frames payloads for one stream: an unsigned varint length
// prefix, then the payload. Request frames are capped at
// MaxCIDSize+MaxTokenSize+1 bytes, response frames at the store's
// MaxBlockSize+1; oversize frames are rejected before the body is
// read. A Codec owns one reusable scratch buffer and is not safe for
// concurrent use; give each stream its own.
type Codec struct {
	maxBlockSize int
	buf          []byte
}

// NewCodec returns a codec enforcing the store's limits. The scratch
// buffer is pre-sized for the largest frame seen in normal operation.
func NewCodec(params store.Params) (*Codec, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Codec{
		maxBlockSize: params.MaxBlockSize,
		buf:          make([]byte, 0, max(params.MaxBlockSize, MaxCIDSize, MaxTokenSize)+1),
	}, nil
}

// Reset clears the scratch buffer. Call it before reusing the codec
// after an abandoned stream operation.
func (c *Codec) Reset() {
	c.buf = c.buf[:0]
}

// ReadRequest reads one length-framed request from r.
func (c *Codec) ReadRequest(r io.Reader) (Request, error) {
	if err := c.readFrame(r, MaxCIDSize+MaxTokenSize+1); err != nil {
		return Request{}, err
	}
	return RequestFromBytes(c.buf)
}

// ReadResponse reads one length-framed response from r.
func (c *Codec) ReadResponse(r io.Reader) (Response, error) {
	if err := c.readFrame(r, c.maxBlockSize+1); err != nil {
		return Response{}, err
	}
	return ResponseFromBytes(c.buf)
}

// WriteRequest writes one length-framed request to w.
func (c *Codec) WriteRequest(w io.Writer, req Request) error {
	c.buf = c.buf[:0]
	if _, err := req.WriteBytes(appendWriter{&c.buf}); err != nil {
		return err
	}
	return c.writeFrame(w, MaxCIDSize+MaxTokenSize+1)
}

// WriteResponse writes one length-framed response to w.
func (c *Codec) WriteResponse(w io.Writer, res Response) error {
	c.buf = c.buf[:0]
	if _, err := res.WriteBytes(appendWriter{&c.buf}); err != nil {
		return err
	}
	return c.writeFrame(w, c.maxBlockSize+1)
}

// readFrame reads a varint frame length, enforces limit before sizing
// the buffer, and fills the buffer with the frame body.
func (c *Codec) readFrame(r io.Reader, limit int) error {
	length, err := readUvarint(r)
	if err != nil {
		return fmt.Errorf("reading frame length: %w", err)
	}
	// Frame lengths are u32 on the wire.
	if length > math.MaxUint32 || length > math.MaxInt {
		return fmt.Errorf("frame length %d: %w", length, bitswap.ErrOverflow)
	}
	if length > uint64(limit) {
		return fmt.Errorf("reading frame: %w", &bitswap.MessageTooLargeError{Size: int(length)})
	}
	if cap(c.buf) < int(length) {
		c.buf = make([]byte, length)
	} else {
		c.buf = c.buf[:length]
	}
	if _, err := io.ReadFull(r, c.buf); err != nil {
		return fmt.Errorf("reading frame body: %w", err)
	}
	return nil
}

// writeFrame checks the encoded payload against limit, then writes the
// varint length prefix and the payload.
func (c *Codec) writeFrame(w io.Writer, limit int) error {
	if len(c.buf) > limit {
		return fmt.Errorf("writing frame: %w", &bitswap.MessageTooLargeError{Size: len(c.buf)})
	}
	var hdr [varint.MaxLenUvarint63]byte
	if _, err := w.Write(hdr[:varint.PutUvarint(hdr[:], uint64(len(c.buf)))]); err != nil {
		return err
	}
	_, err := w.Write(c.buf)
	return err
}

// readUvarint reads a varint byte by byte so the codec never consumes
// past the frame header.
func readUvarint(r io.Reader) (uint64, error) {
	if br, ok := r.(io.ByteReader); ok {
		return varint.ReadUvarint(br)
	}
	return varint.ReadUvarint(oneByteReader{r})
}

type oneByteReader struct{ r io.Reader }

func (b oneByteReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// appendWriter lets the payload codecs write straight into the scratch
// buffer.
type appendWriter struct{ buf *[]byte }

func (w appendWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

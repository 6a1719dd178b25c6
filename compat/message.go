// Package compat bridges the native protocol to the legacy protobuf
// bitswap message, so peers speaking the classic protocol can be
// served. One legacy frame batches any number of requests and
// responses; tokens ride in a per-frame table and entries reference
// them by index.
package compat

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	bitswap "github.com/dkuhnert/libp2p-bitswap"
	"github.com/dkuhnert/libp2p-bitswap/cidutil"
	"github.com/dkuhnert/libp2p-bitswap/compat/pb"
	"github.com/dkuhnert/libp2p-bitswap/protocol"
)

var log = logging.Logger("bitswap/compat")

// ID is the legacy stream protocol this codec speaks.
const ID = "/ipfs/bitswap/1.2.0"

// Legacy peers order their queues by priority; entries built here all
// use the same neutral value.
const defaultPriority = 1

// Message is one native message in transit over the legacy protocol:
// a Request or a Response.
type Message interface {
	compatMessage()
}

// Request wraps a native request for the legacy wire.
type Request struct {
	protocol.Request
}

// Response pairs a native response with the CID it answers. The legacy
// schema carries tokens beside the response rather than inside it.
type Response struct {
	Cid cid.Cid
	protocol.Response
	Tokens []bitswap.Token
}

func (Request) compatMessage()  {}
func (Response) compatMessage() {}

// MessageBuilder accumulates requests and responses into one legacy
// frame, deduplicating token bytes through a per-frame interning
// table. A builder makes a single frame: add entries, call Bytes,
// then discard it, table and all.
type MessageBuilder struct {
	msg pb.Message
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// AddRequest appends req as a want-list entry.
func (b *MessageBuilder) AddRequest(req protocol.Request) error {
	var want pb.WantType
	switch req.Type {
	case protocol.RequestHave:
		want = pb.WantTypeHave
	case protocol.RequestBlock:
		want = pb.WantTypeBlock
	default:
		return &bitswap.UnknownMessageTypeError{Type: byte(req.Type)}
	}
	if b.msg.Wantlist == nil {
		b.msg.Wantlist = new(pb.Wantlist)
	}
	b.msg.Wantlist.Entries = append(b.msg.Wantlist.Entries, pb.Entry{
		Block:        req.Cid.Bytes(),
		Priority:     defaultPriority,
		WantType:     want,
		SendDontHave: true,
		Tokens:       b.internTokens(req.Tokens),
	})
	return nil
}

// AddResponse appends a response for id: a presence entry for Have
// answers, a payload block otherwise.
func (b *MessageBuilder) AddResponse(id cid.Cid, res protocol.Response, tokens []bitswap.Token) error {
	switch res.Type {
	case protocol.ResponseHave:
		presence := pb.BlockPresenceHave
		if !res.Have {
			presence = pb.BlockPresenceDontHave
		}
		b.msg.BlockPresences = append(b.msg.BlockPresences, pb.BlockPresence{
			Cid:    id.Bytes(),
			Type:   presence,
			Tokens: b.internTokens(tokens),
		})
	case protocol.ResponseBlock:
		b.msg.Payload = append(b.msg.Payload, pb.Block{
			Prefix: cidutil.PrefixBytes(id),
			Data:   res.Block,
			Tokens: b.internTokens(tokens),
		})
	default:
		return &bitswap.UnknownMessageTypeError{Type: byte(res.Type)}
	}
	return nil
}

// Add dispatches m to AddRequest or AddResponse.
func (b *MessageBuilder) Add(m Message) error {
	switch m := m.(type) {
	case Request:
		return b.AddRequest(m.Request)
	case Response:
		return b.AddResponse(m.Cid, m.Response, m.Tokens)
	}
	return fmt.Errorf("unsupported message %T: %w", m, bitswap.ErrInvalidData)
}

// Bytes finalizes the frame.
func (b *MessageBuilder) Bytes() []byte {
	return b.msg.Marshal()
}

// internToken returns the table index of the token's encoding,
// appending it on first sight. The scan is linear; frames carry few
// distinct tokens.
func (b *MessageBuilder) internToken(tok bitswap.Token) int32 {
	enc := tok.Bytes()
	for i, have := range b.msg.Tokens {
		if bytes.Equal(have, enc) {
			return int32(i)
		}
	}
	b.msg.Tokens = append(b.msg.Tokens, enc)
	return int32(len(b.msg.Tokens) - 1)
}

func (b *MessageBuilder) internTokens(toks []bitswap.Token) []int32 {
	if len(toks) == 0 {
		return nil
	}
	idx := make([]int32, len(toks))
	for i, tok := range toks {
		idx[i] = b.internToken(tok)
	}
	return idx
}

// Encode renders a single message as one legacy frame.
func Encode(m Message) ([]byte, error) {
	b := NewMessageBuilder()
	if err := b.Add(m); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode parses one legacy frame into native messages: want-list
// entries first, then payload blocks, then presences. Entries a stock
// peer may legitimately send but this layer cannot express are skipped
// with a log line; structural corruption fails the whole frame and
// returns no messages.
func Decode(data []byte) ([]Message, error) {
	var msg pb.Message
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("unmarshaling message (%v): %w", err, bitswap.ErrInvalidData)
	}
	var parts []Message
	if msg.Wantlist != nil {
		for _, entry := range msg.Wantlist.Entries {
			if !entry.SendDontHave {
				log.Error("message entry has send_dont_have unset: skipping")
				continue
			}
			id, err := cid.Cast(entry.Block)
			if err != nil {
				return nil, fmt.Errorf("parsing entry cid (%v): %w", err, bitswap.ErrInvalidData)
			}
			var ty protocol.RequestType
			switch entry.WantType {
			case pb.WantTypeHave:
				ty = protocol.RequestHave
			case pb.WantTypeBlock:
				ty = protocol.RequestBlock
			default:
				log.Errorf("unknown want type %v: skipping", entry.WantType)
				continue
			}
			tokens, err := resolveTokens(&msg, entry.Tokens)
			if err != nil {
				return nil, err
			}
			parts = append(parts, Request{protocol.Request{Type: ty, Cid: id, Tokens: tokens}})
		}
	}
	for _, payload := range msg.Payload {
		id, err := cidutil.CidFromPrefix(payload.Prefix, payload.Data)
		if err != nil {
			return nil, fmt.Errorf("rebuilding payload cid (%v): %w", err, bitswap.ErrInvalidData)
		}
		tokens, err := resolveTokens(&msg, payload.Tokens)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Response{
			Cid:      id,
			Response: protocol.BlockResponse(payload.Data),
			Tokens:   tokens,
		})
	}
	for _, presence := range msg.BlockPresences {
		id, err := cid.Cast(presence.Cid)
		if err != nil {
			return nil, fmt.Errorf("parsing presence cid (%v): %w", err, bitswap.ErrInvalidData)
		}
		var have bool
		switch presence.Type {
		case pb.BlockPresenceHave:
			have = true
		case pb.BlockPresenceDontHave:
			have = false
		default:
			log.Errorf("unknown block presence type %v: skipping", presence.Type)
			continue
		}
		tokens, err := resolveTokens(&msg, presence.Tokens)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Response{
			Cid:      id,
			Response: protocol.HaveResponse(have),
			Tokens:   tokens,
		})
	}
	return parts, nil
}

// resolveTokens maps table indices back to tokens. A reference outside
// the table is corruption, not a skippable entry.
func resolveTokens(msg *pb.Message, indices []int32) ([]bitswap.Token, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	tokens := make([]bitswap.Token, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || int(idx) >= len(msg.Tokens) {
			return nil, fmt.Errorf("token index %d outside table of %d: %w",
				idx, len(msg.Tokens), bitswap.ErrInvalidData)
		}
		_, tok, err := bitswap.TokenFromBytes(msg.Tokens[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing token %d: %w", idx, err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

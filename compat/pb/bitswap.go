// Package pb implements the compatibility wire schema by hand on
// protowire, so this module does not require a protoc/codegen
// toolchain.
//
// Proto definition: bitswap.proto. Marshal emits fields in number
// order, skipping zero values the way proto3 does; Unmarshal skips
// unknown fields, merges embedded messages, lets later scalar
// occurrences win, and accepts both packed and unpacked index lists.
// Decoded bytes fields never alias the input buffer.
package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// WantType says whether a want-list entry asks for a presence answer
// or the block itself.
type WantType int32

const (
	WantTypeBlock WantType = 0
	WantTypeHave  WantType = 1
)

func (t WantType) String() string {
	switch t {
	case WantTypeBlock:
		return "Block"
	case WantTypeHave:
		return "Have"
	}
	return fmt.Sprintf("WantType(%d)", int32(t))
}

// BlockPresenceType is the answer carried by a BlockPresence.
type BlockPresenceType int32

const (
	BlockPresenceHave     BlockPresenceType = 0
	BlockPresenceDontHave BlockPresenceType = 1
)

func (t BlockPresenceType) String() string {
	switch t {
	case BlockPresenceHave:
		return "Have"
	case BlockPresenceDontHave:
		return "DontHave"
	}
	return fmt.Sprintf("BlockPresenceType(%d)", int32(t))
}

// Message is the top-level compatibility frame.
type Message struct {
	Wantlist       *Wantlist
	Payload        []Block
	BlockPresences []BlockPresence
	Tokens         [][]byte
}

// Wantlist carries the requests of a message.
type Wantlist struct {
	Entries []Entry
	Full    bool
}

// Entry is one want-list request.
type Entry struct {
	Block        []byte
	Priority     int32
	Cancel       bool
	WantType     WantType
	SendDontHave bool
	Tokens       []int32
}

// Block is one delivered block payload.
type Block struct {
	Prefix []byte
	Data   []byte
	Tokens []int32
}

// BlockPresence is one presence answer.
type BlockPresence struct {
	Cid    []byte
	Type   BlockPresenceType
	Tokens []int32
}

// Field numbers from bitswap.proto.
const (
	msgWantlist       = 1
	msgPayload        = 3
	msgBlockPresences = 4
	msgTokens         = 6

	wantlistEntries = 1
	wantlistFull    = 2

	entryBlock        = 1
	entryPriority     = 2
	entryCancel       = 3
	entryWantType     = 4
	entrySendDontHave = 5
	entryTokens       = 6

	blockPrefix = 1
	blockData   = 2
	blockTokens = 3

	presenceCid    = 1
	presenceType   = 2
	presenceTokens = 3
)

// Marshal renders the message as wire bytes.
func (m *Message) Marshal() []byte {
	return m.appendTo(nil)
}

func (m *Message) appendTo(b []byte) []byte {
	if m.Wantlist != nil {
		b = protowire.AppendTag(b, msgWantlist, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Wantlist.appendTo(nil))
	}
	for i := range m.Payload {
		b = protowire.AppendTag(b, msgPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload[i].appendTo(nil))
	}
	for i := range m.BlockPresences {
		b = protowire.AppendTag(b, msgBlockPresences, protowire.BytesType)
		b = protowire.AppendBytes(b, m.BlockPresences[i].appendTo(nil))
	}
	for _, tok := range m.Tokens {
		b = protowire.AppendTag(b, msgTokens, protowire.BytesType)
		b = protowire.AppendBytes(b, tok)
	}
	return b
}

func (w *Wantlist) appendTo(b []byte) []byte {
	for i := range w.Entries {
		b = protowire.AppendTag(b, wantlistEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, w.Entries[i].appendTo(nil))
	}
	if w.Full {
		b = protowire.AppendTag(b, wantlistFull, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

func (e *Entry) appendTo(b []byte) []byte {
	if len(e.Block) > 0 {
		b = protowire.AppendTag(b, entryBlock, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Block)
	}
	if e.Priority != 0 {
		b = protowire.AppendTag(b, entryPriority, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(e.Priority)))
	}
	if e.Cancel {
		b = protowire.AppendTag(b, entryCancel, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if e.WantType != 0 {
		b = protowire.AppendTag(b, entryWantType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(e.WantType)))
	}
	if e.SendDontHave {
		b = protowire.AppendTag(b, entrySendDontHave, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	b = appendPackedInt32(b, entryTokens, e.Tokens)
	return b
}

func (blk *Block) appendTo(b []byte) []byte {
	if len(blk.Prefix) > 0 {
		b = protowire.AppendTag(b, blockPrefix, protowire.BytesType)
		b = protowire.AppendBytes(b, blk.Prefix)
	}
	if len(blk.Data) > 0 {
		b = protowire.AppendTag(b, blockData, protowire.BytesType)
		b = protowire.AppendBytes(b, blk.Data)
	}
	b = appendPackedInt32(b, blockTokens, blk.Tokens)
	return b
}

func (p *BlockPresence) appendTo(b []byte) []byte {
	if len(p.Cid) > 0 {
		b = protowire.AppendTag(b, presenceCid, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Cid)
	}
	if p.Type != 0 {
		b = protowire.AppendTag(b, presenceType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(p.Type)))
	}
	b = appendPackedInt32(b, presenceTokens, p.Tokens)
	return b
}

func appendPackedInt32(b []byte, num protowire.Number, vals []int32) []byte {
	if len(vals) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vals {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// Unmarshal parses data into m, merging with whatever m already holds.
func (m *Message) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var consumed int
		switch num {
		case msgWantlist:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if m.Wantlist == nil {
				m.Wantlist = new(Wantlist)
			}
			if err := m.Wantlist.unmarshal(v); err != nil {
				return err
			}
			consumed = n
		case msgPayload:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var blk Block
			if err := blk.unmarshal(v); err != nil {
				return err
			}
			m.Payload = append(m.Payload, blk)
			consumed = n
		case msgBlockPresences:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var p BlockPresence
			if err := p.unmarshal(v); err != nil {
				return err
			}
			m.BlockPresences = append(m.BlockPresences, p)
			consumed = n
		case msgTokens:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Tokens = append(m.Tokens, append([]byte(nil), v...))
			consumed = n
		}
		if consumed == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			consumed = n
		}
		data = data[consumed:]
	}
	return nil
}

func (w *Wantlist) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var consumed int
		switch num {
		case wantlistEntries:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var e Entry
			if err := e.unmarshal(v); err != nil {
				return err
			}
			w.Entries = append(w.Entries, e)
			consumed = n
		case wantlistFull:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			w.Full = protowire.DecodeBool(v)
			consumed = n
		}
		if consumed == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			consumed = n
		}
		data = data[consumed:]
	}
	return nil
}

func (e *Entry) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var consumed int
		switch num {
		case entryBlock:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.Block = append([]byte(nil), v...)
			consumed = n
		case entryPriority:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.Priority = int32(v)
			consumed = n
		case entryCancel:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.Cancel = protowire.DecodeBool(v)
			consumed = n
		case entryWantType:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.WantType = WantType(int32(v))
			consumed = n
		case entrySendDontHave:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			e.SendDontHave = protowire.DecodeBool(v)
			consumed = n
		case entryTokens:
			list, n, err := consumeInt32List(e.Tokens, typ, data)
			if err != nil {
				return err
			}
			if n > 0 {
				e.Tokens = list
				consumed = n
			}
		}
		if consumed == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			consumed = n
		}
		data = data[consumed:]
	}
	return nil
}

func (blk *Block) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var consumed int
		switch num {
		case blockPrefix:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			blk.Prefix = append([]byte(nil), v...)
			consumed = n
		case blockData:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			blk.Data = append([]byte(nil), v...)
			consumed = n
		case blockTokens:
			list, n, err := consumeInt32List(blk.Tokens, typ, data)
			if err != nil {
				return err
			}
			if n > 0 {
				blk.Tokens = list
				consumed = n
			}
		}
		if consumed == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			consumed = n
		}
		data = data[consumed:]
	}
	return nil
}

func (p *BlockPresence) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var consumed int
		switch num {
		case presenceCid:
			if typ != protowire.BytesType {
				break
			}
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p.Cid = append([]byte(nil), v...)
			consumed = n
		case presenceType:
			if typ != protowire.VarintType {
				break
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p.Type = BlockPresenceType(int32(v))
			consumed = n
		case presenceTokens:
			list, n, err := consumeInt32List(p.Tokens, typ, data)
			if err != nil {
				return err
			}
			if n > 0 {
				p.Tokens = list
				consumed = n
			}
		}
		if consumed == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			consumed = n
		}
		data = data[consumed:]
	}
	return nil
}

// consumeInt32List reads a repeated int32 field in either wire form:
// a packed length-delimited run or a single unpacked varint. It returns
// the extended list and the bytes consumed; consumed is zero when the
// wire type is neither form, leaving the field to the unknown-field
// path.
func consumeInt32List(list []int32, typ protowire.Type, data []byte) ([]int32, int, error) {
	switch typ {
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		for len(v) > 0 {
			e, m := protowire.ConsumeVarint(v)
			if m < 0 {
				return nil, 0, protowire.ParseError(m)
			}
			list = append(list, int32(e))
			v = v[m:]
		}
		return list, n, nil
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		return append(list, int32(v)), n, nil
	}
	return list, 0, nil
}

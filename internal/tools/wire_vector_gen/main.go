// Prints the golden wire vectors embedded in
// protocol/conformance_vectors_test.go, so they can be regenerated and
// cross-checked by hand.
package main

import (
	"bytes"
	"fmt"

	bitswap "github.com/dkuhnert/libp2p-bitswap"
	"github.com/dkuhnert/libp2p-bitswap/internal/testkit"
	"github.com/dkuhnert/libp2p-bitswap/protocol"
	"github.com/dkuhnert/libp2p-bitswap/store"
)

func main() {
	codec, err := protocol.NewCodec(store.DefaultParams())
	if err != nil {
		panic(err)
	}

	token := bitswap.Token{Codec: 1, Value: []byte("abc")}
	fmt.Printf("%-24s %x\n", "token", token.Bytes())
	fmt.Printf("%-24s %x\n", "fixed cid 0x42", testkit.FixedCid(0x42).Bytes())

	requests := []struct {
		name string
		req  protocol.Request
	}{
		{"request have", protocol.Request{Type: protocol.RequestHave, Cid: testkit.FixedCid(0x42)}},
		{"request block w/ token", protocol.Request{
			Type:   protocol.RequestBlock,
			Cid:    testkit.FixedCid(0x42),
			Tokens: []bitswap.Token{token},
		}},
	}
	for _, v := range requests {
		var payload, framed bytes.Buffer
		if _, err := v.req.WriteBytes(&payload); err != nil {
			panic(err)
		}
		if err := codec.WriteRequest(&framed, v.req); err != nil {
			panic(err)
		}
		fmt.Printf("%-24s %x\n", v.name, payload.Bytes())
		fmt.Printf("%-24s %x\n", v.name+" framed", framed.Bytes())
	}

	responses := []struct {
		name string
		res  protocol.Response
	}{
		{"response have", protocol.HaveResponse(true)},
		{"response dont have", protocol.HaveResponse(false)},
		{"response block", protocol.BlockResponse([]byte("block_response"))},
	}
	for _, v := range responses {
		var payload, framed bytes.Buffer
		if _, err := v.res.WriteBytes(&payload); err != nil {
			panic(err)
		}
		if err := codec.WriteResponse(&framed, v.res); err != nil {
			panic(err)
		}
		fmt.Printf("%-24s %x\n", v.name, payload.Bytes())
		fmt.Printf("%-24s %x\n", v.name+" framed", framed.Bytes())
	}
}

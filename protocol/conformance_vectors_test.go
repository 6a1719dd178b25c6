package protocol

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	bitswap "github.com/dkuhnert/libp2p-bitswap"
	"github.com/dkuhnert/libp2p-bitswap/internal/testkit"
	"github.com/dkuhnert/libp2p-bitswap/store"
)

// Golden wire bytes, written out by hand so the tests pin the format
// rather than the code. internal/tools/wire_vector_gen reprints them
// for cross-checking. The fixture CID is CIDv1/raw/blake3-256 over a
// constant digest: 01 55 1e 20 followed by 32 fill bytes.
var fixedCidHex = "01551e20" + strings.Repeat("42", 32)

func TestConformanceVectors_RequestPayloads(t *testing.T) {
	cases := []struct {
		name    string
		request Request
		hex     string
	}{
		{
			name:    "have request without tokens",
			request: Request{Type: RequestHave, Cid: testkit.FixedCid(0x42)},
			hex:     "00" + fixedCidHex + "00",
		},
		{
			name: "block request with one token",
			request: Request{
				Type:   RequestBlock,
				Cid:    testkit.FixedCid(0x42),
				Tokens: []bitswap.Token{{Codec: 1, Value: []byte("abc")}},
			},
			hex: "01" + fixedCidHex + "01" + "0103616263",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := tc.request.WriteBytes(&buf); err != nil {
				t.Fatalf("WriteBytes: %v", err)
			}
			if got := hex.EncodeToString(buf.Bytes()); got != tc.hex {
				t.Fatalf("encoded to\n  %s\nwant\n  %s", got, tc.hex)
			}
			got, err := RequestFromBytes(mustHex(t, tc.hex))
			if err != nil {
				t.Fatalf("RequestFromBytes: %v", err)
			}
			if !got.Equal(tc.request) {
				t.Fatalf("decoded %+v, want %+v", got, tc.request)
			}
		})
	}
}

func TestConformanceVectors_ResponsePayloads(t *testing.T) {
	cases := []struct {
		name     string
		response Response
		hex      string
	}{
		{"have", HaveResponse(true), "00"},
		{"dont have", HaveResponse(false), "02"},
		{"block", BlockResponse([]byte("block_response")), "01" + hex.EncodeToString([]byte("block_response"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := tc.response.WriteBytes(&buf); err != nil {
				t.Fatalf("WriteBytes: %v", err)
			}
			if got := hex.EncodeToString(buf.Bytes()); got != tc.hex {
				t.Fatalf("encoded to %s, want %s", got, tc.hex)
			}
			got, err := ResponseFromBytes(mustHex(t, tc.hex))
			if err != nil {
				t.Fatalf("ResponseFromBytes: %v", err)
			}
			if !got.Equal(tc.response) {
				t.Fatalf("decoded %+v, want %+v", got, tc.response)
			}
		})
	}
}

func TestConformanceVectors_FramedStream(t *testing.T) {
	c := newTestCodec(t, store.DefaultParams())

	t.Run("request frame", func(t *testing.T) {
		req := Request{
			Type:   RequestBlock,
			Cid:    testkit.FixedCid(0x42),
			Tokens: []bitswap.Token{{Codec: 1, Value: []byte("abc")}},
		}
		// Payload is 43 bytes: tag, 36-byte CID, count, 5-byte token.
		want := "2b" + "01" + fixedCidHex + "01" + "0103616263"
		var stream bytes.Buffer
		if err := c.WriteRequest(&stream, req); err != nil {
			t.Fatalf("WriteRequest: %v", err)
		}
		if got := hex.EncodeToString(stream.Bytes()); got != want {
			t.Fatalf("framed to\n  %s\nwant\n  %s", got, want)
		}
		got, err := c.ReadRequest(bytes.NewReader(mustHex(t, want)))
		if err != nil {
			t.Fatalf("ReadRequest: %v", err)
		}
		if !got.Equal(req) {
			t.Fatalf("decoded %+v, want %+v", got, req)
		}
	})

	t.Run("response frames", func(t *testing.T) {
		cases := []struct {
			name     string
			response Response
			hex      string
		}{
			{"have", HaveResponse(true), "0100"},
			{"dont have", HaveResponse(false), "0102"},
			{"block", BlockResponse([]byte("block_response")), "0f01" + hex.EncodeToString([]byte("block_response"))},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				var stream bytes.Buffer
				if err := c.WriteResponse(&stream, tc.response); err != nil {
					t.Fatalf("WriteResponse: %v", err)
				}
				if got := hex.EncodeToString(stream.Bytes()); got != tc.hex {
					t.Fatalf("framed to %s, want %s", got, tc.hex)
				}
				got, err := c.ReadResponse(bytes.NewReader(mustHex(t, tc.hex)))
				if err != nil {
					t.Fatalf("ReadResponse: %v", err)
				}
				if !got.Equal(tc.response) {
					t.Fatalf("decoded %+v, want %+v", got, tc.response)
				}
			})
		}
	})
}

package explode

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "raw literals with copies", in: "00048224258f807f", want: "AIAIAIAIAIAIA"},
		{name: "raw literals", in: "0004e4940943a64d191063deb8a153c60d9d390a01ff", want: "readme contents\n"},
		{name: "coded literals with copy", in: "010414db34757c1fb38132e01f", want: "hello, hello, hello!"},
		{name: "coded literals", in: "0104506cd3d4898803fe01", want: "Hello\r\n"},
		{name: "empty", in: "000401ff", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(mustHex(t, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestDecompressErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		code int
	}{
		{name: "empty input", in: nil, code: CodeIncomplete},
		{name: "bad literal flag", in: []byte{2, 4}, code: CodeLiteralFlag},
		{name: "dictionary too small", in: []byte{0, 3}, code: CodeDictionary},
		{name: "dictionary too large", in: []byte{1, 7}, code: CodeDictionary},
		{name: "missing end code", in: []byte{0x01, 0x04, 0x14, 0xdb, 0x34}, code: CodeIncomplete},
		{name: "distance before start", in: []byte{0x00, 0x04, 0x82, 0x3e, 0x05, 0xfc, 0x03}, code: CodeDistance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(tt.in)
			require.Error(t, err)
			assert.Nil(t, out)
			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.code, e.Code)
			assert.True(t, errors.Is(err, ErrCorrupt))
		})
	}
}

func TestCodeTablesComplete(t *testing.T) {
	for name, h := range map[string]*huffman{"literal": litCode, "length": lenCode, "distance": distCode} {
		total := 0
		for _, c := range h.count[1:] {
			total += c
		}
		assert.Equal(t, len(h.symbol), total, name)
	}
	assert.Len(t, litCode.symbol, 256)
	assert.Len(t, lenCode.symbol, 16)
	assert.Len(t, distCode.symbol, 64)
}

package ethereum

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/blockterm/internal/apperror"
)

const erc20ABI = `[
	{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

func packCall(t *testing.T, method string, args ...any) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	require.NoError(t, err)
	data, err := parsed.Pack(method, args...)
	require.NoError(t, err)
	return data
}

func TestInputDecoder_Transfer(t *testing.T) {
	data := packCall(t, "transfer", vitalik, big.NewInt(1_000_000))

	got, err := InputDecoder{}.Decode(erc20ABI, data)
	require.NoError(t, err)

	assert.Equal(t, "a9059cbb", got.Selector)
	assert.Equal(t, "transfer", got.Method)
	assert.Equal(t, "transfer(address,uint256)", got.Signature)
	require.Len(t, got.Args, 2)
	assert.Equal(t, "to", got.Args[0].Name)
	assert.Equal(t, "address", got.Args[0].Type)
	assert.Equal(t, vitalik.Hex(), got.Args[0].Value)
	assert.Equal(t, "1000000", got.Args[1].Value)
}

func TestInputDecoder_UnnamedArgument(t *testing.T) {
	data := packCall(t, "approve", common.HexToAddress("0x01"), big.NewInt(5))

	got, err := InputDecoder{}.Decode(erc20ABI, data)
	require.NoError(t, err)
	assert.Equal(t, "arg1", got.Args[1].Name)
}

func TestInputDecoder_Errors(t *testing.T) {
	tests := []struct {
		name string
		abi  string
		data []byte
		code apperror.Code
	}{
		{"short calldata", erc20ABI, []byte{0xa9}, apperror.CodeInputDecodeFailed},
		{"bad abi", `{`, []byte{0xa9, 0x05, 0x9c, 0xbb}, apperror.CodeABIParseFailed},
		{"unknown selector", erc20ABI, []byte{0xde, 0xad, 0xbe, 0xef}, apperror.CodeInputDecodeFailed},
		{"truncated args", erc20ABI, []byte{0xa9, 0x05, 0x9c, 0xbb, 0x00}, apperror.CodeInputDecodeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDecoder{}.Decode(tt.abi, tt.data)
			assert.Equal(t, tt.code, apperror.GetCode(err))
		})
	}
}

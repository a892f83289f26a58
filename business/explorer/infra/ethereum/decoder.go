package ethereum

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
)

var _ app.InputDecoder = InputDecoder{}

// InputDecoder decodes calldata against a contract ABI.
type InputDecoder struct{}

// Decode matches the 4-byte selector of data to a method of abiJSON and
// unpacks its arguments.
func (InputDecoder) Decode(abiJSON string, data []byte) (*domain.DecodedInput, error) {
	if len(data) < 4 {
		return nil, apperror.Validation(apperror.CodeInputDecodeFailed, "calldata shorter than a selector")
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, apperror.New(apperror.CodeABIParseFailed, apperror.WithCause(err))
	}

	selector := data[:4]
	method, err := parsed.MethodById(selector)
	if err != nil {
		return nil, apperror.New(apperror.CodeInputDecodeFailed,
			apperror.WithContext("0x"+hex.EncodeToString(selector)),
			apperror.WithCause(err))
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, apperror.New(apperror.CodeInputDecodeFailed,
			apperror.WithContext(method.Sig),
			apperror.WithCause(err))
	}

	out := &domain.DecodedInput{
		Selector:  hex.EncodeToString(selector),
		Method:    method.RawName,
		Signature: method.Sig,
		Args:      make([]domain.DecodedArg, len(values)),
	}
	for i, v := range values {
		arg := method.Inputs[i]
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		out.Args[i] = domain.DecodedArg{Name: name, Type: arg.Type.String(), Value: formatArg(v)}
	}
	return out, nil
}

func formatArg(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case [32]byte:
		return common.Hash(x).Hex()
	case string:
		return x
	case []common.Address:
		parts := make([]string, len(x))
		for i, a := range x {
			parts[i] = a.Hex()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []*big.Int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = n.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

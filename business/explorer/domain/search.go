package domain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/blockterm/internal/apperror"
)

// ParseSearch maps search-bar input to a command: a decimal is a block
// number, 32 bytes of hex a transaction hash, 20 bytes of hex or a dotted
// name an account.
func ParseSearch(input string) (Command, error) {
	q := strings.TrimSpace(input)
	if q == "" {
		return nil, apperror.Validation(apperror.CodeUnknownSearch, "empty search")
	}

	if n, err := strconv.ParseUint(q, 10, 64); err == nil {
		return FetchBlockByNumber{Number: n, FromSearch: true}, nil
	}

	if isHashHex(q) {
		return FetchTransaction{Hash: common.HexToHash(q), FromSearch: true}, nil
	}

	if common.IsHexAddress(q) {
		return ResolveNameOrAddress{Query: common.HexToAddress(q).Hex(), FromSearch: true}, nil
	}

	if isENSName(q) {
		return ResolveNameOrAddress{Query: strings.ToLower(q), FromSearch: true}, nil
	}

	return nil, apperror.Validation(apperror.CodeUnknownSearch, q)
}

func isHashHex(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*common.HashLength {
		return false
	}
	for _, r := range s {
		if !isHexRune(r) {
			return false
		}
	}
	return true
}

func isHexRune(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func isENSName(s string) bool {
	if strings.ContainsAny(s, " \t/") {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}

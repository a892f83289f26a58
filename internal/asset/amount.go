package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset       = errors.New("asset: nil asset")
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrAssetMismatch  = errors.New("asset: cannot operate on different assets")
)

// GweiDecimals is the exponent between wei and gwei.
const GweiDecimals = 9

// Amount is an immutable quantity in the asset's smallest unit.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw; a nil raw is zero.
func NewAmount(a *Asset, raw *big.Int) Amount {
	if a == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: a}
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Asset() *Asset { return a.asset }

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Add sums two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.asset != b.asset {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return NewAmount(a.asset, new(big.Int).Add(a.Raw(), b.Raw())), nil
}

// ToDecimal converts to whole units for display.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// Value prices the amount at rate quote units per whole unit.
func (a Amount) Value(rate decimal.Decimal) decimal.Decimal {
	return a.ToDecimal().Mul(rate)
}

// String renders "1.5 ETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

// StringFixed renders with fixed decimal places.
func (a Amount) StringFixed(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().StringFixed(places), a.asset.Symbol())
}

// FormatEther renders wei as ETH with up to places decimals, trailing zeros trimmed.
func FormatEther(wei *big.Int, places int32) string {
	if wei == nil {
		return "-"
	}
	return decimal.NewFromBigInt(wei, -18).Round(places).String() + " ETH"
}

// FormatGwei renders wei as gwei.
func FormatGwei(wei *big.Int, places int32) string {
	if wei == nil {
		return "-"
	}
	return decimal.NewFromBigInt(wei, -GweiDecimals).StringFixed(places) + " Gwei"
}

// FormatUSD renders a dollar figure with two decimals.
func FormatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

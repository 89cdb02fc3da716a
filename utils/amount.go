package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL 最小单位换算
const LamportsPerSOL = 1_000_000_000

const solDecimals = 9

var ErrInvalidAmount = errors.New("invalid amount")

// FormatSOL lamports -> "0.001" 形式
func FormatSOL(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-solDecimals).String()
}

// ParseSOL "0.5" -> 500000000 lamports；拒绝负数、超过 9 位小数和超出 uint64 的值
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	l := d.Shift(solDecimals)
	if !l.IsInteger() {
		return 0, fmt.Errorf("%w: more than %d decimals", ErrInvalidAmount, solDecimals)
	}
	bi := l.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: exceeds u64", ErrInvalidAmount)
	}
	return bi.Uint64(), nil
}

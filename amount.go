package main

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// parseAmount converts a UI amount like "1.5" into base units of a mint with
// the given decimals.
func parseAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	d = d.Shift(int32(decimals))
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("amount %s exceeds %d decimals", s, decimals)
	}
	n := d.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows", s)
	}
	return n.Uint64(), nil
}

func formatAmount(n uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), -int32(decimals)).String()
}

package evmrpc

import (
	"math/big"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// XRPToWei converts a decimal XRP amount to integer wei (18 decimals).
func XRPToWei(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.Errorf("amount must be positive, got %s", amount)
	}
	wei := amount.Shift(18)
	if !wei.IsInteger() {
		return nil, pkgerrors.Errorf("amount %s has sub-wei precision", amount)
	}
	return wei.BigInt(), nil
}

// WeiToXRP converts integer wei to a decimal XRP amount.
func WeiToXRP(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-18)
}

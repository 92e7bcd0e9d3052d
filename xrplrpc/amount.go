package xrplrpc

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// dropsPerXRP is the XRPL's smallest-unit scale: 1 XRP = 1e6 drops.
const dropsExponent = 6

// XRPToDrops converts a decimal XRP string to an integer drops string.
// Amounts with sub-drop precision are rejected rather than rounded.
func XRPToDrops(amount string) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", errors.Wrapf(err, "bad XRP amount %q", amount)
	}
	if !d.IsPositive() {
		return "", errors.Errorf("XRP amount must be positive, got %s", amount)
	}
	drops := d.Shift(dropsExponent)
	if !drops.IsInteger() {
		return "", errors.Errorf("XRP amount %s has sub-drop precision", amount)
	}
	return drops.String(), nil
}

// DropsToXRP converts an integer drops string to a decimal XRP amount.
func DropsToXRP(drops string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "bad drops amount %q", drops)
	}
	if !d.IsInteger() {
		return decimal.Zero, errors.Errorf("drops amount %s is not an integer", drops)
	}
	return d.Shift(-dropsExponent), nil
}

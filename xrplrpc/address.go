package xrplrpc

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// base58 as rippled orders it, 'r' encoding zero
const xrplAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// ValidateAddress checks that address is a well-formed XRPL classic
// address: base58 in the XRPL alphabet decoding to a 0x00 version byte,
// a 20-byte account ID and a valid double-SHA256 checksum.
func ValidateAddress(address string) error {
	if len(address) < 25 || len(address) > 35 {
		return errors.Errorf("address %q has invalid length", address)
	}
	if address[0] != 'r' {
		return errors.Errorf("address %q does not start with r", address)
	}

	decoded, err := decodeBase58(address)
	if err != nil {
		return err
	}
	// version byte + 160-bit account ID + 4-byte checksum
	if len(decoded) != 25 {
		return errors.Errorf("address %q decodes to %d bytes, want 25", address, len(decoded))
	}
	if decoded[0] != 0x00 {
		return errors.Errorf("address %q has wrong version byte", address)
	}

	first := sha256.Sum256(decoded[:21])
	second := sha256.Sum256(first[:])
	if string(second[:4]) != string(decoded[21:]) {
		return errors.Errorf("address %q has bad checksum", address)
	}
	return nil
}

func decodeBase58(s string) ([]byte, error) {
	n := new(big.Int)
	radix := big.NewInt(58)
	for _, c := range s {
		idx := strings.IndexRune(xrplAlphabet, c)
		if idx < 0 {
			return nil, errors.Errorf("invalid base58 character %q", c)
		}
		n.Mul(n, radix)
		n.Add(n, big.NewInt(int64(idx)))
	}

	decoded := n.Bytes()
	// leading zero-value characters become leading zero bytes
	for i := 0; i < len(s) && s[i] == xrplAlphabet[0]; i++ {
		decoded = append([]byte{0}, decoded...)
	}
	return decoded, nil
}

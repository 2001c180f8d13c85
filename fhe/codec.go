package fhe

import (
	"math/big"

	"github.com/delta/fhe-auction-client/models"
)

// WeiPerUnit is the scale between wei and the encrypted fixed-point unit (gwei)
var WeiPerUnit = big.NewInt(1e9)

var maxUnits = new(big.Int).SetUint64(^uint64(0))

// ToCanonical converts a wei amount to gwei for encryption. Anything below
// one gwei is truncated. Amounts that don't fit in 64 bits of gwei are
// rejected with a ValidationError.
func ToCanonical(wei *big.Int) (uint64, error) {
	if wei == nil || wei.Sign() < 0 {
		return 0, models.ValidationError{Field: "amount", Reason: "must be a non-negative amount"}
	}
	units := new(big.Int).Quo(wei, WeiPerUnit)
	if units.Cmp(maxUnits) > 0 {
		return 0, models.ValidationError{Field: "amount", Reason: "too large to encrypt"}
	}
	return units.Uint64(), nil
}

// FromCanonical converts gwei back to wei
func FromCanonical(units uint64) *big.Int {
	v := new(big.Int).SetUint64(units)
	return v.Mul(v, WeiPerUnit)
}

// TruncationLoss is the part of wei that ToCanonical drops
func TruncationLoss(wei *big.Int) *big.Int {
	if wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Rem(wei, WeiPerUnit)
}

package proof

import (
	"math/big"
)

// DepositChecker verifies the token deposit proof: the raw on-chain amount,
// scaled by the token's fixed decimal count, must meet the configured
// minimum. Pure arithmetic, no I/O.
type DepositChecker struct {
	scale   *big.Rat
	minimum *big.Rat
}

// NewDepositChecker builds a checker for a token with the given decimals and
// a minimum threshold expressed in whole tokens (e.g. "1.5").
func NewDepositChecker(decimals int, minimum *big.Rat) *DepositChecker {
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	return &DepositChecker{scale: scale, minimum: minimum}
}

// Check scales the raw deposit and compares it against the minimum. A nil
// deposit reads as zero.
func (c *DepositChecker) Check(rawDeposit *big.Int) Outcome {
	if rawDeposit == nil {
		rawDeposit = big.NewInt(0)
	}
	amount := new(big.Rat).Quo(new(big.Rat).SetInt(rawDeposit), c.scale)
	if amount.Cmp(c.minimum) >= 0 {
		return Proven
	}
	return NotProven
}

// Amount returns the scaled deposit for logging and profile display.
func (c *DepositChecker) Amount(rawDeposit *big.Int) *big.Rat {
	if rawDeposit == nil {
		rawDeposit = big.NewInt(0)
	}
	return new(big.Rat).Quo(new(big.Rat).SetInt(rawDeposit), c.scale)
}

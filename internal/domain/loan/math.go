package loan

import (
	"math/big"

	"lendpool-backend/internal/domain/money"
)

var basisPoints = money.FromUint64(10_000)

// RequiredRepayment is the exact amount that settles an active loan:
// principal + floor(principal * interestRateBps / 10000).
func RequiredRepayment(principal money.Amount, interestRateBps uint16) money.Amount {
	interest := principal.MulDiv(money.FromUint64(uint64(interestRateBps)), basisPoints)
	return principal.Add(interest)
}

// ProRataSplit partitions total across weights (floor division), crediting the
// rounding remainder to the first weight so the parts always sum to total
// exactly. The weight total must be positive.
func ProRataSplit(total money.Amount, weights []money.Amount) []money.Amount {
	weightSum := money.Zero()
	for _, w := range weights {
		weightSum = weightSum.Add(w)
	}
	out := make([]money.Amount, len(weights))
	distributed := money.Zero()
	for i, w := range weights {
		out[i] = total.MulDiv(w, weightSum)
		distributed = distributed.Add(out[i])
	}
	if rem := total.Sub(distributed); rem.Sign() > 0 && len(out) > 0 {
		out[0] = out[0].Add(rem)
	}
	return out
}

// StrictMajority reports whether weight is a strict majority of total:
// 2*weight > total.
func StrictMajority(weight, total money.Amount) bool {
	lhs := new(big.Int).Lsh(weight.BigInt(), 1)
	return lhs.Cmp(total.BigInt()) > 0
}

package loan

import (
	"math/big"
	"time"
)

// Collateral below 120% of the loan value is eligible for forced settlement.
// The 20% buffer absorbs price movement between detection and settlement
// confirmation.
const liquidationThresholdPct = 120

// Valuation carries one side's USD value. OK=false means the quote was stale
// or the feed unreachable; the value check is then skipped entirely rather
// than reporting the loan safe on a dead number.
type Valuation struct {
	USD *big.Int
	OK  bool
}

// Liquidatable is the stateless settlement predicate:
//
//	pastDue OR collateralUSD*100 < loanUSD*120
//
// When either valuation failed, only the past-due check applies.
func Liquidatable(l *Loan, loanValue, collateralValue Valuation, now time.Time) bool {
	if l.PastDue(now) {
		return true
	}
	if !loanValue.OK || !collateralValue.OK {
		return false
	}
	lhs := new(big.Int).Mul(collateralValue.USD, big.NewInt(100))
	rhs := new(big.Int).Mul(loanValue.USD, big.NewInt(liquidationThresholdPct))
	return lhs.Cmp(rhs) < 0
}

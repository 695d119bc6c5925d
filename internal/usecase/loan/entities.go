package loan

import (
	"time"

	"lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/money"
)

type RequestLoanInput struct {
	Borrower          string       `json:"borrower"`
	LoanTokenID       uint64       `json:"loan_token_id"`
	CollateralTokenID uint64       `json:"collateral_token_id"`
	Principal         money.Amount `json:"principal"`
	CollateralAmount  money.Amount `json:"collateral_amount"`
	InterestRateBps   uint16       `json:"interest_rate_bps"`
	DurationSecs      uint32       `json:"duration_secs"`
	RiskScore         uint16       `json:"risk_score"`
	DocumentRef       string       `json:"document_ref"`
}

type ContributeInput struct {
	Lender string       `json:"lender"`
	Amount money.Amount `json:"amount"`
}

type RepayInput struct {
	Amount money.Amount `json:"amount"`
}

type VoteInput struct {
	Lender string `json:"lender"`
	Choice string `json:"choice"`
}

// TransferLegDTO is one ledger movement produced by a lifecycle transition.
// The strategy comes from the token registry entry, so downstream transfer
// builders switch on the closed variant instead of re-inspecting the token.
type TransferLegDTO struct {
	Strategy string       `json:"strategy"`
	TokenID  uint64       `json:"token_id"`
	To       string       `json:"to"`
	Amount   money.Amount `json:"amount"`
}

type LoanDTO struct {
	LoanID            string       `json:"loan_id"`
	Borrower          string       `json:"borrower"`
	LoanTokenID       uint64       `json:"loan_token_id"`
	CollateralTokenID uint64       `json:"collateral_token_id"`
	Principal         money.Amount `json:"principal"`
	CollateralAmount  money.Amount `json:"collateral_amount"`
	AmountFunded      money.Amount `json:"amount_funded"`
	InterestRateBps   uint16       `json:"interest_rate_bps"`
	DurationSecs      uint32       `json:"duration_secs"`
	RiskScore         uint16       `json:"risk_score"`
	Status            string       `json:"status"`
	FundingDeadline   time.Time    `json:"funding_deadline"`
	FundedAt          *time.Time   `json:"funded_at,omitempty"`
	DueDate           *time.Time   `json:"due_date,omitempty"`
	CollateralClaimed bool         `json:"collateral_claimed"`
	CreatedAt         time.Time    `json:"created_at"`
	// Set only on the response that activated the loan: the principal leg
	// disbursed to the borrower.
	Disbursement *TransferLegDTO `json:"disbursement,omitempty"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:            l.LoanID,
		Borrower:          l.Borrower,
		LoanTokenID:       l.LoanTokenID,
		CollateralTokenID: l.CollateralTokenID,
		Principal:         l.Principal,
		CollateralAmount:  l.CollateralAmount,
		AmountFunded:      l.AmountFunded,
		InterestRateBps:   l.InterestRateBps,
		DurationSecs:      l.DurationSecs,
		RiskScore:         l.RiskScore,
		Status:            string(l.Status),
		FundingDeadline:   l.FundingDeadline,
		FundedAt:          l.FundedAt,
		DueDate:           l.DueDate,
		CollateralClaimed: l.CollateralClaimed,
		CreatedAt:         l.CreatedAt,
	}
}

type ContributionDTO struct {
	Lender          string       `json:"lender"`
	Amount          money.Amount `json:"amount"`
	Refunded        bool         `json:"refunded"`
	PaidOut         money.Amount `json:"paid_out"`
	CollateralShare money.Amount `json:"collateral_share"`
	CreatedAt       time.Time    `json:"created_at"`
}

type RefundDTO struct {
	Lender string       `json:"lender"`
	Amount money.Amount `json:"amount"`
	// Replayed means the contribution was refunded earlier; no funds moved on
	// this call.
	Replayed bool `json:"replayed"`
}

type PayoutDTO struct {
	Lender string       `json:"lender"`
	Amount money.Amount `json:"amount"`
}

type RepayDTO struct {
	LoanID  string       `json:"loan_id"`
	Repaid  money.Amount `json:"repaid"`
	Payouts []PayoutDTO  `json:"payouts"`
	// The escrowed collateral leg returned to the borrower.
	CollateralRelease *TransferLegDTO `json:"collateral_release,omitempty"`
}

// SettleOutcome describes what a settlement call did.
type SettleOutcome string

const (
	// Active loan pushed through past_due into voting.
	OutcomeDefaulted SettleOutcome = "defaulted"
	// Majority chose liquidation-by-sale.
	OutcomeLiquidated SettleOutcome = "liquidated"
	// Majority chose direct proportional collateral claim.
	OutcomePartiallyClaimed SettleOutcome = "partially_claimed"
)

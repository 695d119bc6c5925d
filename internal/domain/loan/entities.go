package loan

import (
	"time"

	"lendpool-backend/internal/domain/money"
)

type Status string

const (
	// Funding window open, contributions accepted.
	StatusRequested Status = "requested"
	// Fully funded and disbursed. The "funded" instant is not a resting state:
	// the funding completion and the disbursement commit atomically.
	StatusActive Status = "active"
	StatusRepaid Status = "repaid"
	// Funding deadline lapsed underfunded; contributions refundable.
	StatusExpired Status = "expired"
	StatusPastDue Status = "past_due"
	// Default-resolution vote in progress.
	StatusVoting           Status = "voting"
	StatusLiquidated       Status = "liquidated"
	StatusPartiallyClaimed Status = "partially_claimed"
)

// Terminal reports whether no further mutation is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusRepaid, StatusExpired, StatusLiquidated, StatusPartiallyClaimed:
		return true
	}
	return false
}

type Loan struct {
	// Internal numeric id; densely allocated, scanned in order by the monitor.
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex).
	LoanID   string `gorm:"column:loan_id;type:char(32);not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	Borrower string `gorm:"column:borrower;type:char(32);not null;index:idx_loans_borrower" json:"borrower"`

	LoanTokenID       uint64       `gorm:"column:loan_token_id;not null" json:"loan_token_id"`
	CollateralTokenID uint64       `gorm:"column:collateral_token_id;not null" json:"collateral_token_id"`
	Principal         money.Amount `gorm:"column:principal;type:decimal(65,0);not null" json:"principal"`
	CollateralAmount  money.Amount `gorm:"column:collateral_amount;type:decimal(65,0);not null" json:"collateral_amount"`
	AmountFunded      money.Amount `gorm:"column:amount_funded;type:decimal(65,0);not null" json:"amount_funded"`

	InterestRateBps uint16 `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	DurationSecs    uint32 `gorm:"column:duration_secs;not null" json:"duration_secs"`
	// Supplied by the external scoring collaborator; stored read-only.
	RiskScore uint16 `gorm:"column:risk_score;not null" json:"risk_score"`
	// Opaque content address for off-ledger paperwork.
	DocumentRef string `gorm:"column:document_ref;type:text" json:"document_ref,omitempty"`

	Status            Status     `gorm:"column:status;type:varchar(20);not null;default:'requested';index:idx_loans_status" json:"status"`
	FundingDeadline   time.Time  `gorm:"column:funding_deadline;not null" json:"funding_deadline"`
	FundedAt          *time.Time `gorm:"column:funded_at" json:"funded_at,omitempty"`
	DueDate           *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	CollateralClaimed bool       `gorm:"column:collateral_claimed;not null;default:false" json:"collateral_claimed"`

	StatusUpdatedAt time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// FundingOpen reports whether contributions are still accepted at now.
func (l *Loan) FundingOpen(now time.Time) bool {
	return l.Status == StatusRequested && now.Before(l.FundingDeadline)
}

// Remaining is the principal capacity still unfunded.
func (l *Loan) Remaining() money.Amount {
	if l.AmountFunded.Cmp(l.Principal) >= 0 {
		return money.Zero()
	}
	return l.Principal.Sub(l.AmountFunded)
}

// PastDue reports whether the repayment due date has lapsed. Loans that never
// activated have no due date and are never past due.
func (l *Loan) PastDue(now time.Time) bool {
	return l.DueDate != nil && now.After(*l.DueDate)
}

// Contribution is the (loan, lender) funding record. A lender tops up the same
// row; withdrawal is only legal as a refund after expiry.
type Contribution struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID uint64 `gorm:"column:loan_id;not null;uniqueIndex:ux_contrib_loan_lender" json:"-"`
	Lender string `gorm:"column:lender;type:char(32);not null;uniqueIndex:ux_contrib_loan_lender" json:"lender"`
	Amount money.Amount `gorm:"column:amount;type:decimal(65,0);not null" json:"amount"`

	Refunded bool `gorm:"column:refunded;not null;default:false" json:"refunded"`
	// Repayment or liquidation proceeds credited to this lender.
	PaidOut money.Amount `gorm:"column:paid_out;type:decimal(65,0);not null;default:0" json:"paid_out"`
	// Collateral partitioned to this lender on the proportional-claim path.
	CollateralShare money.Amount `gorm:"column:collateral_share;type:decimal(65,0);not null;default:0" json:"collateral_share"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Contribution) TableName() string { return "contributions" }

type VoteChoice string

const (
	ChoiceLiquidate         VoteChoice = "liquidate"
	ChoiceClaimProportional VoteChoice = "claim_proportional"
)

// Vote is a default-resolution ballot, weighted by the lender's contribution.
// Only meaningful while the loan is in voting; ignored afterwards.
type Vote struct {
	ID        uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID    uint64     `gorm:"column:loan_id;not null;uniqueIndex:ux_votes_loan_lender" json:"-"`
	Lender    string     `gorm:"column:lender;type:char(32);not null;uniqueIndex:ux_votes_loan_lender" json:"lender"`
	Choice    VoteChoice `gorm:"column:choice;type:varchar(20);not null" json:"choice"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Vote) TableName() string { return "votes" }

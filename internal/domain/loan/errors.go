package loan

import "errors"

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("operation not legal in current loan status")
	ErrTerminalLoan      = errors.New("loan is terminal")
	ErrFundingClosed     = errors.New("funding window is closed")
	ErrExceedsRemaining  = errors.New("contribution exceeds remaining principal capacity")
	ErrAmountMismatch    = errors.New("repayment amount does not match principal plus interest")
	ErrNoContribution    = errors.New("caller holds no contribution on this loan")
	ErrAlreadyVoted      = errors.New("lender already voted on this loan")
	ErrNoMajority        = errors.New("no strict majority reached yet")
)

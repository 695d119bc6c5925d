package http

import (
	"net/http"

	"lendpool-backend/internal/domain/money"
	"lendpool-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	Borrower          string `json:"borrower"            validate:"required,hex32"`
	LoanTokenID       uint64 `json:"loan_token_id"       validate:"required"`
	CollateralTokenID uint64 `json:"collateral_token_id" validate:"required"`
	Principal         string `json:"principal"           validate:"required,amount"`
	CollateralAmount  string `json:"collateral_amount"   validate:"required,amount"`
	InterestRateBps   uint16 `json:"interest_rate_bps"   validate:"lte=10000"`
	DurationSecs      uint32 `json:"duration_secs"       validate:"required"`
	RiskScore         uint16 `json:"risk_score"`
	DocumentRef       string `json:"document_ref"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	principal, err := money.Parse(req.Principal)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid principal"})
	}
	collateral, err := money.Parse(req.CollateralAmount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid collateral_amount"})
	}

	dto, err := h.uc.Request(c.Request().Context(), loan.RequestLoanInput{
		Borrower:          req.Borrower,
		LoanTokenID:       req.LoanTokenID,
		CollateralTokenID: req.CollateralTokenID,
		Principal:         principal,
		CollateralAmount:  collateral,
		InterestRateBps:   req.InterestRateBps,
		DurationSecs:      req.DurationSecs,
		RiskScore:         req.RiskScore,
		DocumentRef:       req.DocumentRef,
	})
	if err != nil {
		if code := domainStatus(err); code != http.StatusInternalServerError {
			return c.JSON(code, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ActiveLoans(c echo.Context) error {
	ids, err := h.uc.ActiveLoanIDs(c.Request().Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_ids": ids})
}

type contributeReq struct {
	Lender string `json:"lender" validate:"required,hex32"`
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *LoanHandler) Contribute(c echo.Context) error {
	var req contributeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
	}

	dto, err := h.uc.Contribute(c.Request().Context(), c.Param("loan_id"), loan.ContributeInput{
		Lender: req.Lender,
		Amount: amount,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListContributions(c echo.Context) error {
	out, err := h.uc.Contributions(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"contributions": out})
}

type refundReq struct {
	Lender string `json:"lender" validate:"required,hex32"`
}

func (h *LoanHandler) Refund(c echo.Context) error {
	var req refundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Refund(c.Request().Context(), c.Param("loan_id"), req.Lender)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type repayReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *LoanHandler) Repay(c echo.Context) error {
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
	}
	dto, err := h.uc.Repay(c.Request().Context(), c.Param("loan_id"), loan.RepayInput{Amount: amount})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type voteReq struct {
	Lender string `json:"lender" validate:"required,hex32"`
	Choice string `json:"choice" validate:"required,votechoice"`
}

func (h *LoanHandler) Vote(c echo.Context) error {
	var req voteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.Vote(c.Request().Context(), c.Param("loan_id"), loan.VoteInput{
		Lender: req.Lender,
		Choice: req.Choice,
	}); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "recorded"})
}

package http

import (
	"net/http"
	"strconv"

	"lendpool-backend/internal/usecase/token"

	"github.com/labstack/echo/v4"
)

type TokenHandler struct{ uc *token.Usecase }

func NewTokenHandler(uc *token.Usecase) *TokenHandler { return &TokenHandler{uc: uc} }

type registerTokenReq struct {
	ID           uint64 `json:"id"             validate:"required"`
	Kind         string `json:"kind"           validate:"required,oneof=native fungible"`
	AssetRef     string `json:"asset_ref"`
	Symbol       string `json:"symbol"         validate:"required"`
	Decimals     uint8  `json:"decimals"       validate:"lte=36"`
	PriceFeedRef string `json:"price_feed_ref" validate:"required"`
}

func (h *TokenHandler) Register(c echo.Context) error {
	var req registerTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	t, err := h.uc.Register(c.Request().Context(), token.RegisterInput{
		ID:           req.ID,
		Kind:         req.Kind,
		AssetRef:     req.AssetRef,
		Symbol:       req.Symbol,
		Decimals:     req.Decimals,
		PriceFeedRef: req.PriceFeedRef,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TokenHandler) Deactivate(c echo.Context) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid token id"})
	}
	t, err := h.uc.Deactivate(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TokenHandler) Get(c echo.Context) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid token id"})
	}
	t, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func tokenIDParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

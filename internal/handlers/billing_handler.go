package handlers

import (
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// BillingHandler exposes tips and the caller's transaction history.
type BillingHandler struct {
	billing *services.BillingService
}

func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// RegisterBillingRoutes registers payment routes
func (h *BillingHandler) RegisterBillingRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/payments/tips", h.Tip, auth)
	g.GET("/payments/transactions", h.Transactions, auth)
}

// Tip creates a processor payment intent; the transaction is recorded when
// the processor reports the outcome.
func (h *BillingHandler) Tip(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.TipRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.billing.Tip(c.Request().Context(), userID, req.CreatorID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"paymentIntentId": result.ID,
		"clientSecret":    result.ClientSecret,
	})
}

func (h *BillingHandler) Transactions(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	page, err := h.billing.Transactions(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageEnvelope("transactions", page))
}

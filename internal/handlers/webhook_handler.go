package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// MaxWebhookBodyBytes caps the size of an inbound processor event.
const MaxWebhookBodyBytes = 64 << 10

// WebhookHandler ingests payment processor events.
type WebhookHandler struct {
	verifier   payments.Verifier
	reconciler *services.PaymentReconciler
	metrics    *metrics.Collector
	log        logrus.FieldLogger
}

func NewWebhookHandler(verifier payments.Verifier, reconciler *services.PaymentReconciler, m *metrics.Collector, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		metrics:    m,
		log:        log.WithField("component", "webhook"),
	}
}

// RegisterWebhookRoutes registers the processor callback. It is
// authenticated by signature, not by bearer token.
func (h *WebhookHandler) RegisterWebhookRoutes(g *echo.Group) {
	g.POST("/stripe/webhook", h.HandleStripeEvent)
}

// HandleStripeEvent verifies and applies one event. Responses drive the
// processor's redelivery: 400 for bad signatures, 500 for storage failures,
// 200 for everything applied or deliberately dropped.
func (h *WebhookHandler) HandleStripeEvent(c echo.Context) error {
	if h.verifier == nil {
		return apperrors.Upstream(nil, "payment processor is not configured")
	}

	req := c.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
		}
		return apperrors.InvalidOperation("unreadable payload")
	}

	event, err := h.verifier.ConstructEvent(payload, req.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.WithError(err).Warn("rejected webhook with invalid signature")
		h.metrics.WebhookEvent("unverified", "rejected")
		return apperrors.InvalidOperation("invalid webhook signature")
	}

	outcome, err := h.reconciler.Reconcile(req.Context(), event)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process event").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true, "outcome": outcome})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandler exposes the subscription ledger.
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
	billing       *services.BillingService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService, billing *services.BillingService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, billing: billing}
}

// RegisterSubscriptionRoutes registers subscription routes. Every route
// requires authentication.
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	sg := g.Group("/subscriptions", auth)
	sg.POST("", h.Subscribe)
	sg.POST("/checkout", h.Checkout)
	sg.GET("/my-subscriptions", h.MySubscriptions)
	sg.GET("/my-subscribers", h.MySubscribers)
	sg.GET("/:id", h.GetSubscription)
	sg.DELETE("/:id", h.CancelSubscription)
}

type subscriptionItem struct {
	ID        uint                      `json:"id"`
	Creator   models.UserCompact        `json:"creator"`
	ExpiresAt time.Time                 `json:"expiresAt"`
	Status    models.SubscriptionStatus `json:"status"`
}

type subscriberItem struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Subscribe creates or renews the caller's subscription to a creator:
// 201 when a new subscription starts, 200 when an active one is extended.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CreateSubscriptionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, created, err := h.subscriptions.Subscribe(c.Request().Context(), userID, req.CreatorID, req.Months)
	if err != nil {
		return err
	}
	if created {
		return c.JSON(http.StatusCreated, echo.Map{"message": "Subscription created", "subscription": sub})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Subscription renewed", "subscription": sub})
}

// Checkout starts a processor-billed subscription.
func (h *SubscriptionHandler) Checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.billing.Checkout(c.Request().Context(), userID, req.CreatorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"subscriptionId": result.ID, "status": result.Status})
}

func (h *SubscriptionHandler) MySubscriptions(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	page, err := h.subscriptions.MySubscriptions(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}

	items := make([]subscriptionItem, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, subscriptionItem{ID: v.ID, Creator: v.User, ExpiresAt: v.ExpiresAt, Status: v.Status})
	}
	return c.JSON(http.StatusOK, pageEnvelope("subscriptions", models.Page[subscriptionItem]{
		Items: items, Total: page.Total, Pages: page.Pages, CurrentPage: page.CurrentPage,
	}))
}

func (h *SubscriptionHandler) MySubscribers(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	page, err := h.subscriptions.MySubscribers(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}

	items := make([]subscriberItem, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, subscriberItem{
			ID:        v.User.ID,
			Username:  v.User.Username,
			Name:      v.User.Name,
			Avatar:    v.User.Avatar,
			ExpiresAt: v.ExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, pageEnvelope("subscribers", models.Page[subscriberItem]{
		Items: items, Total: page.Total, Pages: page.Pages, CurrentPage: page.CurrentPage,
	}))
}

func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.Get(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// CancelSubscription stops renewal. Access lasts until the paid period ends.
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.Cancel(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Subscription canceled", "subscription": sub})
}

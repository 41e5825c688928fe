package handlers

import (
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AnalyticsHandler records reader activity and serves the dashboard reports.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// RegisterAnalyticsRoutes registers analytics routes. Recording is open to
// anonymous readers; the reports require authentication.
func (h *AnalyticsHandler) RegisterAnalyticsRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	ag := g.Group("/analytics")
	ag.POST("/pageview", h.RecordPageView)
	ag.POST("/engagement", h.RecordEngagement)
	ag.GET("/page-views", h.GetPageViews, auth)
	ag.GET("/engagement", h.GetEngagement, auth)
	ag.GET("/stats", h.GetStats, auth)
}

func optionalUserID(c echo.Context) *uint {
	claims := currentClaims(c)
	if claims == nil || claims.UserID == 0 {
		return nil
	}
	id := claims.UserID
	return &id
}

func (h *AnalyticsHandler) RecordPageView(c echo.Context) error {
	var req models.PageViewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r := c.Request()
	view := &models.PageView{
		URL:       req.URL,
		UserID:    optionalUserID(c),
		SessionID: req.SessionID,
		IPAddress: c.RealIP(),
		UserAgent: r.UserAgent(),
		Referer:   req.Referrer,
		Duration:  req.Duration,
	}
	if view.Referer == "" {
		view.Referer = r.Referer()
	}
	if req.PostID != "" {
		postID := req.PostID
		view.PostID = &postID
	}
	if err := h.analytics.RecordPageView(r.Context(), view); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *AnalyticsHandler) RecordEngagement(c echo.Context) error {
	var req models.EngagementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e := &models.UserEngagement{
		PostID:    req.PostID,
		UserID:    optionalUserID(c),
		SessionID: req.SessionID,
		Type:      req.Type,
	}
	if err := h.analytics.RecordEngagement(c.Request().Context(), e); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

// GetPageViews returns daily page-view counts, oldest first.
func (h *AnalyticsHandler) GetPageViews(c echo.Context) error {
	views, err := h.analytics.PageViews(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"pageViews": views})
}

func (h *AnalyticsHandler) GetEngagement(c echo.Context) error {
	summary, err := h.analytics.Engagement(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) GetStats(c echo.Context) error {
	stats, err := h.analytics.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

package handlers

import (
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SocialHandler exposes the follow graph.
type SocialHandler struct {
	social *services.SocialService
}

func NewSocialHandler(social *services.SocialService) *SocialHandler {
	return &SocialHandler{social: social}
}

// RegisterSocialRoutes registers follow-related routes
func (h *SocialHandler) RegisterSocialRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/social/follow", h.Follow, auth)
	g.DELETE("/social/unfollow/:followingId", h.Unfollow, auth)
	g.GET("/social/:userId/followers", h.Followers)
	g.GET("/social/:userId/following", h.Following)
}

// Follow creates a follow edge from the caller to followingId.
func (h *SocialHandler) Follow(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.FollowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	followed, err := h.social.Follow(c.Request().Context(), userID, req.FollowingID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Successfully followed user",
		"user":    followed,
	})
}

// Unfollow removes the caller's follow edge to followingId.
func (h *SocialHandler) Unfollow(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	followingID, err := parseIDParam(c, "followingId")
	if err != nil {
		return err
	}
	if err := h.social.Unfollow(c.Request().Context(), userID, followingID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SocialHandler) Followers(c echo.Context) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return err
	}
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	page, err := h.social.Followers(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageEnvelope("followers", page))
}

func (h *SocialHandler) Following(c echo.Context) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return err
	}
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	page, err := h.social.Following(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageEnvelope("following", page))
}

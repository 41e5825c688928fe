package handlers

import (
	"strconv"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/middleware"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// currentClaims returns the caller's token claims, or nil for anonymous requests.
func currentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(middleware.UserContextKey).(*models.JwtCustomClaims)
	return claims
}

// currentUserID returns the authenticated caller's id.
func currentUserID(c echo.Context) (uint, error) {
	claims := currentClaims(c)
	if claims == nil || claims.UserID == 0 {
		return 0, apperrors.Unauthorized("authentication required")
	}
	return claims.UserID, nil
}

func currentViewer(c echo.Context) services.Viewer {
	return services.ViewerFromClaims(currentClaims(c))
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidOperation("invalid " + name)
	}
	return uint(id), nil
}

// parsePagination reads ?page and ?limit. Non-numeric values are rejected;
// numeric ones are clamped.
func parsePagination(c echo.Context, defaultLimit int) (models.Pagination, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return models.Pagination{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return models.Pagination{}, err
	}
	if limit == 0 && c.QueryParam("limit") != "" {
		limit = 1
	}
	return models.NewPagination(page, limit, defaultLimit), nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidOperation(name + " must be an integer")
	}
	return v, nil
}

// bindAndValidate decodes the request body into req and checks its tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Wrap(err, apperrors.KindInvalidOperation, "invalid request payload")
	}
	return c.Validate(req)
}

// pageEnvelope renders a page as {<key>: items, total, pages, currentPage}.
func pageEnvelope[T any](key string, page models.Page[T]) echo.Map {
	return echo.Map{
		key:           page.Items,
		"total":       page.Total,
		"pages":       page.Pages,
		"currentPage": page.CurrentPage,
	}
}

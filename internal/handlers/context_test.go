package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/middleware"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, models.DefaultPageSize},
		{"?page=3&limit=5", 3, 5},
		{"?page=-2", 1, models.DefaultPageSize},
		{"?limit=0", 1, 1},
		{"?limit=1000", 1, models.MaxPageSize},
		{"?page=4611686018427387904&limit=4", models.MaxPage, 4},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			p, err := parsePagination(newContext("/"+tc.query), models.DefaultPageSize)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantLimit, p.Limit)
		})
	}

	for _, bad := range []string{"/?page=abc", "/?limit=1.5"} {
		_, err := parsePagination(newContext(bad), models.DefaultPageSize)
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation), bad)
	}
}

func TestParseIDParam(t *testing.T) {
	for raw, ok := range map[string]bool{"42": true, "0": false, "-1": false, "abc": false} {
		c := newContext("/")
		c.SetParamNames("id")
		c.SetParamValues(raw)
		id, err := parseIDParam(c, "id")
		if ok {
			require.NoError(t, err)
			assert.EqualValues(t, 42, id)
		} else {
			assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation), raw)
		}
	}
}

func TestCurrentUserID(t *testing.T) {
	c := newContext("/")
	_, err := currentUserID(c)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	c.Set(middleware.UserContextKey, &models.JwtCustomClaims{UserID: 7, Role: models.RoleEditor})
	id, err := currentUserID(c)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	assert.True(t, currentViewer(c).Role.IsStaff())
}

func TestPageEnvelope(t *testing.T) {
	p := models.NewPagination(1, 2, models.DefaultPageSize)
	env := pageEnvelope("users", models.NewPage([]string{"a", "b"}, 5, p))
	assert.Equal(t, []string{"a", "b"}, env["users"])
	assert.EqualValues(t, 5, env["total"])
	assert.Equal(t, 3, env["pages"])
	assert.Equal(t, 1, env["currentPage"])
}

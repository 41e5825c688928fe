package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const kindInternal apperrors.Kind = "INTERNAL"

type errorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
	Detail  string         `json:"detail,omitempty"`
}

// NewHTTPErrorHandler renders every error as {"error":{"kind","message"}}.
// Underlying causes are only exposed when development is set.
func NewHTTPErrorHandler(log logrus.FieldLogger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := describeError(err)
		if development && body.Detail == "" && status >= http.StatusInternalServerError {
			body.Detail = err.Error()
		}
		if !development {
			body.Detail = ""
		}

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request().Method,
			"uri":        c.Request().RequestURI,
			"status":     status,
			"kind":       body.Kind,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"error": body})
		}
		if err != nil {
			log.WithError(err).Error("failed to write error response")
		}
	}
}

func describeError(err error) (int, errorBody) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		body := errorBody{Kind: kindForStatus(he.Code), Message: fmt.Sprint(he.Message)}
		if he.Internal != nil {
			body.Detail = he.Internal.Error()
		}
		return he.Code, body
	}
	if kind := apperrors.KindOf(err); kind != "" {
		body := errorBody{Kind: kind, Message: "request timed out"}
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			body.Message = appErr.Message
			if appErr.Err != nil {
				body.Detail = appErr.Err.Error()
			}
		}
		return apperrors.HTTPStatus(kind), body
	}

	return http.StatusInternalServerError, errorBody{Kind: kindInternal, Message: "internal server error"}
}

func kindForStatus(status int) apperrors.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.KindUnauthorized
	case http.StatusForbidden:
		return apperrors.KindForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.KindNotFound
	case http.StatusConflict:
		return apperrors.KindConflict
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperrors.KindUpstreamFailure
	}
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return apperrors.KindInvalidOperation
	}
	return kindInternal
}

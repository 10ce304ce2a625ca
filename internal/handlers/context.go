package handlers

import (
	"errors"
	"net/http"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user's id (hex ObjectID)
// set by the auth middleware. Empty string when unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	if claims, ok := c.Get("user").(*models.JwtCustomClaims); ok {
		return claims.UserID
	}
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

// httpError translates a domain error into an echo HTTPError. Unknown
// errors become an opaque 500.
func httpError(err error) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindForbidden:
		status = http.StatusForbidden
	case apperrors.KindSelfReference, apperrors.KindNotFollowing, apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindAlreadyFollowing:
		status = http.StatusConflict
	}
	return echo.NewHTTPError(status, domainErr.Message)
}

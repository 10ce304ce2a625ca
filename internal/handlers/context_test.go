package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpErrorMapsDomainKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperrors.NotFound("post"), http.StatusNotFound},
		{"forbidden", apperrors.Forbidden("not the owner"), http.StatusForbidden},
		{"self reference", apperrors.New(apperrors.KindSelfReference, "cannot follow yourself"), http.StatusBadRequest},
		{"not following", apperrors.New(apperrors.KindNotFollowing, "not following"), http.StatusBadRequest},
		{"validation", apperrors.New(apperrors.KindValidation, "bad input"), http.StatusBadRequest},
		{"already following", apperrors.New(apperrors.KindAlreadyFollowing, "already following"), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var httpErr *echo.HTTPError
			require.ErrorAs(t, httpError(tc.err), &httpErr)
			assert.Equal(t, tc.status, httpErr.Code)
			assert.Equal(t, tc.err.Error(), httpErr.Message)
		})
	}
}

func TestHttpErrorHidesInternalDetail(t *testing.T) {
	var httpErr *echo.HTTPError
	require.ErrorAs(t, httpError(errors.New("pg: connection refused")), &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	assert.Equal(t, "internal server error", httpErr.Message)
}

func TestGetUserIDFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	c := e.NewContext(req, httptest.NewRecorder())
	assert.Empty(t, getUserIDFromContext(c))

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("user", &models.JwtCustomClaims{UserID: "64a000000000000000000000"})
	assert.Equal(t, "64a000000000000000000000", getUserIDFromContext(c))

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("userID", "64a000000000000000000001")
	assert.Equal(t, "64a000000000000000000001", getUserIDFromContext(c))
}

package handlers

import (
	"net/http"

	"github.com/campusnet-app/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReconcileHandler exposes the follow-graph repair pass
type ReconcileHandler struct {
	reconciler *services.Reconciler
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(reconciler *services.Reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// RegisterReconcileRoutes registers the admin reconciliation route
func (h *ReconcileHandler) RegisterReconcileRoutes(g *echo.Group) {
	g.POST("/admin/reconcile-follow-graph", h.Reconcile)
}

// Reconcile runs the symmetry repair pass and reports how many entries
// were fixed
func (h *ReconcileHandler) Reconcile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	repairs, err := h.reconciler.Reconcile(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"repairs": repairs}})
}

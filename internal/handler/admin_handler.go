package handler

import (
	"net/http"

	"fitcommunity/internal/logging"
	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

// BreakerReporter exposes an upstream client's circuit breaker state.
type BreakerReporter interface {
	Name() string
	State() string
}

type AdminHandler struct {
	maint     *service.MaintenanceService
	upstreams []BreakerReporter
}

func NewAdminHandler(maint *service.MaintenanceService, upstreams ...BreakerReporter) *AdminHandler {
	return &AdminHandler{maint: maint, upstreams: upstreams}
}

// ReconcileCounters handles POST /admin/maintenance/reconcile-counters.
func (h *AdminHandler) ReconcileCounters(c *gin.Context) {
	repairs, err := h.maint.ReconcileCounters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	logging.Ctx(c.Request.Context()).Info().Uint("admin_id", middleware.GetUserID(c)).Msg("counters reconciled")
	c.JSON(http.StatusOK, gin.H{"repairs": repairs})
}

// RunChecks handles POST /admin/maintenance/checks: both pull-style checks in one call.
func (h *AdminHandler) RunChecks(c *gin.Context) {
	ctx := c.Request.Context()
	goals, err := h.maint.CheckGoals(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	challenges, err := h.maint.CheckChallenges(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals_deactivated": goals, "challenges_ended": challenges})
}

// Upstreams handles GET /admin/upstreams.
func (h *AdminHandler) Upstreams(c *gin.Context) {
	out := make(map[string]string, len(h.upstreams))
	for _, u := range h.upstreams {
		out[u.Name()] = u.State()
	}
	c.JSON(http.StatusOK, gin.H{"breakers": out})
}

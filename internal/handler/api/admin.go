package api

import (
	"net/http"

	resdto "gin-seckill/internal/handler/dto/response"
	"gin-seckill/internal/handler/httperr"
	"gin-seckill/internal/usecase/reconcile"
	"gin-seckill/internal/usecase/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	reconciler  reconcile.Runner
	coordinator seckill.Coordinator
}

func NewAdminHandler(reconciler reconcile.Runner, coordinator seckill.Coordinator) *AdminHandler {
	return &AdminHandler{
		reconciler:  reconciler,
		coordinator: coordinator,
	}
}

// @Summary Run a reconciliation pass now
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.ReconcileResponse
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Reconciliation failed", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReport(report))
}

// @Summary Clear an item's sold-out flag
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/items/{id}/sold-out [delete]
func (h *AdminHandler) ResetSoldOut(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	if err := h.coordinator.ResetSoldOut(c.Request.Context(), id); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

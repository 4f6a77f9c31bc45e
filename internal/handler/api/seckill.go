package api

import (
	"net/http"

	resdto "gin-seckill/internal/handler/dto/response"
	"gin-seckill/internal/handler/httperr"
	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/usecase/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SeckillHandler struct {
	coordinator seckill.Coordinator
}

func NewSeckillHandler(coordinator seckill.Coordinator) *SeckillHandler {
	return &SeckillHandler{
		coordinator: coordinator,
	}
}

// @Summary Attempt a flash-sale purchase
// @Description Reserves one unit for the caller. 202 means the reservation is provisional; poll the result endpoint.
// @Tags seckill
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Item ID"
// @Success 202 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /seckill/{itemId} [post]
func (h *SeckillHandler) Reserve(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item id", nil)
		return
	}

	reservation, err := h.coordinator.Reserve(c.Request.Context(), buyerID, itemID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resdto.FromReservation(reservation))
}

// @Summary Poll a purchase result
// @Tags seckill
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Item ID"
// @Success 200 {object} resdto.ResultResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /seckill/{itemId}/result [get]
func (h *SeckillHandler) Result(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item id", nil)
		return
	}

	result, err := h.coordinator.Result(c.Request.Context(), buyerID, itemID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromResult(result))
}

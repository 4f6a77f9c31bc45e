package api

import (
	"net/http"

	resdto "gin-seckill/internal/handler/dto/response"
	"gin-seckill/internal/handler/httperr"
	"gin-seckill/internal/usecase/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ItemHandler struct {
	queries seckill.ItemQueries
}

func NewItemHandler(queries seckill.ItemQueries) *ItemHandler {
	return &ItemHandler{queries: queries}
}

// @Summary List sale items
// @Tags items
// @Produce json
// @Success 200 {array} resdto.ItemResponse
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	views, err := h.queries.List(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to list items", nil)
		return
	}

	response := make([]*resdto.ItemResponse, len(views))
	for i := range views {
		response[i] = resdto.FromItemView(&views[i])
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Get a sale item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} resdto.ItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	view, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromItemView(view))
}

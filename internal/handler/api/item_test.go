//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/handler/api"
	resdto "gin-seckill/internal/handler/dto/response"
	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/seckill"
	"gin-seckill/tests/common/httptest"
	seckillmock "gin-seckill/tests/mock/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ItemHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *seckillmock.MockItemQueries
}

func (s *ItemHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = seckillmock.NewMockItemQueries(s.mockCtrl)
	handler := api.NewItemHandler(s.mockQueries)

	s.router.GET("/items", handler.List)
	s.router.GET("/items/:id", handler.Get)
}

func (s *ItemHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestItemHandlerSuite(t *testing.T) {
	suite.Run(t, new(ItemHandlerTestSuite))
}

func itemView(status domain.WindowStatus, remain int) seckill.ItemView {
	start := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	return seckill.ItemView{
		ID:            uuid.New(),
		Name:          "console",
		PriceCents:    49900,
		TotalStock:    10,
		StockCount:    7,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Status:        status,
		RemainSeconds: remain,
	}
}

func (s *ItemHandlerTestSuite) TestList() {
	s.Run("success: returns every item with its sale status", func() {
		views := []seckill.ItemView{itemView(domain.WindowUpcoming, 120), itemView(domain.WindowActive, 0)}
		s.mockQueries.EXPECT().List(gomock.Any()).Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/items", nil, "")

		var resp []resdto.ItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Require().Len(resp, 2)
		s.Equal("upcoming", resp[0].Status)
		s.Equal(120, resp[0].RemainSeconds)
		s.Equal("active", resp[1].Status)
	})

	s.Run("error: store failure returns 500", func() {
		s.mockQueries.EXPECT().List(gomock.Any()).Return(nil, errs.ErrDatabaseOperationFailed).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/items", nil, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Failed to list items")
	})
}

func (s *ItemHandlerTestSuite) TestGet() {
	s.Run("success: returns the item", func() {
		view := itemView(domain.WindowActive, 0)
		s.mockQueries.EXPECT().Get(gomock.Any(), view.ID).Return(&view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/items/"+view.ID.String(), nil, "")

		var resp resdto.ItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(view.ID, resp.ID)
		s.Equal(int64(49900), resp.PriceCents)
	})

	s.Run("error: unknown item returns 404", func() {
		id := uuid.New()
		s.mockQueries.EXPECT().Get(gomock.Any(), id).Return(nil, errs.ErrItemNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/items/"+id.String(), nil, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Item not found")
	})

	s.Run("error: invalid id returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/items/42", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

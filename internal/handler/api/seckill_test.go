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
	"gin-seckill/tests/common/httptest"
	seckillmock "gin-seckill/tests/mock/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SeckillHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockCtrl        *gomock.Controller
	mockCoordinator *seckillmock.MockCoordinator
	buyerID         uuid.UUID
}

func (s *SeckillHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCoordinator = seckillmock.NewMockCoordinator(s.mockCtrl)
	handler := api.NewSeckillHandler(s.mockCoordinator)
	s.buyerID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", s.buyerID)
		c.Set("user_role", middleware.RoleBuyer)
		c.Next()
	}

	s.router.POST("/seckill/:itemId", authMiddleware, handler.Reserve)
	s.router.GET("/seckill/:itemId/result", authMiddleware, handler.Result)
}

func (s *SeckillHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestSeckillHandlerSuite(t *testing.T) {
	suite.Run(t, new(SeckillHandlerTestSuite))
}

func (s *SeckillHandlerTestSuite) TestReserve() {
	itemID := uuid.New()
	url := "/seckill/" + itemID.String()

	s.Run("success: returns 202 with a provisional reservation", func() {
		reservedAt := time.Date(2026, 10, 1, 10, 0, 1, 0, time.UTC)
		s.mockCoordinator.EXPECT().Reserve(gomock.Any(), s.buyerID, itemID).
			Return(&domain.Reservation{BuyerID: s.buyerID, ItemID: itemID, TransactionID: "tx-1", ReservedAt: reservedAt}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

		var resp resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusAccepted, &resp)
		s.Equal(itemID, resp.ItemID)
		s.Equal("tx-1", resp.TransactionID)
		s.Equal("pending", resp.Status)
		s.True(reservedAt.Equal(resp.ReservedAt))
	})

	errorCases := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
		retryable  bool
	}{
		{name: "error: sold out returns 410", err: errs.ErrSoldOut, expectCode: http.StatusGone, expectMsg: "Sold out"},
		{name: "error: repeat purchase returns 409", err: errs.ErrRepeatPurchase, expectCode: http.StatusConflict, expectMsg: "Already purchased"},
		{name: "error: reservation conflict returns 409", err: errs.ErrReservationConflict, expectCode: http.StatusConflict, expectMsg: "retry", retryable: true},
		{name: "error: sale not started returns 400", err: errs.ErrSaleNotStarted, expectCode: http.StatusBadRequest, expectMsg: "not started"},
		{name: "error: sale ended returns 400", err: errs.ErrSaleEnded, expectCode: http.StatusBadRequest, expectMsg: "ended"},
		{name: "error: unknown item returns 404", err: errs.ErrItemNotFound, expectCode: http.StatusNotFound, expectMsg: "Item not found"},
		{
			name:       "error: emission failure returns 503",
			err:        errs.Mark(errs.Mark(errs.New("broker down"), errs.ErrDatabaseOperationFailed), errs.ErrEmissionFailure),
			expectCode: http.StatusServiceUnavailable,
			expectMsg:  "retry",
			retryable:  true,
		},
		{name: "error: unexpected failure returns 500", err: errs.New("redis timeout"), expectCode: http.StatusInternalServerError, expectMsg: "Internal server error"},
	}

	for _, tc := range errorCases {
		s.Run(tc.name, func() {
			s.mockCoordinator.EXPECT().Reserve(gomock.Any(), s.buyerID, itemID).Return(nil, tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
			if tc.retryable {
				httptest.AssertRetryAfter(s.T(), rec, 1)
			} else {
				s.Empty(rec.Header().Get("Retry-After"))
			}
		})
	}

	s.Run("error: invalid item id returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/seckill/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid item id")
	})

	s.Run("error: missing token returns 401", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

func (s *SeckillHandlerTestSuite) TestResult() {
	itemID := uuid.New()
	url := "/seckill/" + itemID.String() + "/result"

	cases := []struct {
		name         string
		result       domain.Result
		expectStatus string
		expectNo     string
	}{
		{name: "success: won carries the order number", result: domain.Won("20261001100001abcd1234"), expectStatus: "won", expectNo: "20261001100001abcd1234"},
		{name: "success: lost", result: domain.Lost(), expectStatus: "lost"},
		{name: "success: pending", result: domain.Pending(), expectStatus: "pending"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockCoordinator.EXPECT().Result(gomock.Any(), s.buyerID, itemID).Return(tc.result, nil).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

			var resp resdto.ResultResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
			s.Equal(tc.expectStatus, resp.Status)
			s.Equal(tc.expectNo, resp.OrderNo)
		})
	}

	s.Run("error: unknown item returns 404", func() {
		s.mockCoordinator.EXPECT().Result(gomock.Any(), s.buyerID, itemID).Return(domain.Result{}, errs.ErrItemNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Item not found")
	})
}

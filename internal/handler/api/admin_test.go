//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/handler/api"
	resdto "gin-seckill/internal/handler/dto/response"
	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/reconcile"
	"gin-seckill/tests/common/httptest"
	reconcilemock "gin-seckill/tests/mock/reconcile"
	seckillmock "gin-seckill/tests/mock/seckill"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AdminHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockCtrl        *gomock.Controller
	mockRunner      *reconcilemock.MockRunner
	mockCoordinator *seckillmock.MockCoordinator
}

func (s *AdminHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockRunner = reconcilemock.NewMockRunner(s.mockCtrl)
	s.mockCoordinator = seckillmock.NewMockCoordinator(s.mockCtrl)
	handler := api.NewAdminHandler(s.mockRunner, s.mockCoordinator)

	s.router.POST("/admin/reconcile", handler.Reconcile)
	s.router.DELETE("/admin/items/:id/sold-out", handler.ResetSoldOut)
}

func (s *AdminHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func (s *AdminHandlerTestSuite) TestReconcile() {
	s.Run("success: returns the report", func() {
		itemID := uuid.New()
		report := reconcile.Report{
			Checked:    3,
			Consistent: 2,
			Drifts: []reconcile.Drift{{
				ItemID:    itemID,
				Sale:      seckill.SaleKey{ItemID: itemID, WindowStart: 1790848800},
				Durable:   5,
				Available: 4,
				Reserved:  2,
			}},
		}
		s.mockRunner.EXPECT().RunOnce(gomock.Any()).Return(report, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/admin/reconcile", nil, "")

		var resp resdto.ReconcileResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(3, resp.Checked)
		s.Require().Len(resp.Drifts, 1)
		s.Equal(int64(1), resp.Drifts[0].Delta)
		s.Equal(int64(1790848800), resp.Drifts[0].WindowStart)
	})

	s.Run("error: listing failure returns 500", func() {
		s.mockRunner.EXPECT().RunOnce(gomock.Any()).Return(reconcile.Report{}, errs.ErrDatabaseOperationFailed).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/admin/reconcile", nil, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Reconciliation failed")
	})
}

func (s *AdminHandlerTestSuite) TestResetSoldOut() {
	s.Run("success: returns 204", func() {
		id := uuid.New()
		s.mockCoordinator.EXPECT().ResetSoldOut(gomock.Any(), id).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/admin/items/"+id.String()+"/sold-out", nil, "")

		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: unknown item returns 404", func() {
		id := uuid.New()
		s.mockCoordinator.EXPECT().ResetSoldOut(gomock.Any(), id).Return(errs.ErrItemNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/admin/items/"+id.String()+"/sold-out", nil, "")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Item not found")
	})
}

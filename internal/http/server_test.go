package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpH "github.com/civicworks/sitelore-backend/internal/http/handlers"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

func TestServerServesConfiguredRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}

	srv := NewServer(RouterConfig{
		Log:           log,
		HealthHandler: httpH.NewHealthHandler(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	srv.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

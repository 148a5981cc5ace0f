package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/civicworks/sitelore-backend/internal/http/handlers"
	httpMW "github.com/civicworks/sitelore-backend/internal/http/middleware"
	"github.com/civicworks/sitelore-backend/internal/observability"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler    *httpH.HealthHandler
	ProjectHandler   *httpH.ProjectHandler
	LessonHandler    *httpH.LessonHandler
	ConflictHandler  *httpH.ConflictHandler
	ChecklistHandler *httpH.ChecklistHandler
	KnowledgeHandler *httpH.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())
	r.Use(httpMW.Metrics(observability.Current()))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if observability.Enabled() {
		r.GET("/metrics", func(c *gin.Context) {
			c.Header("Content-Type", "text/plain; version=0.0.4")
			observability.Current().WritePrometheus(c.Writer)
		})
	}

	api := r.Group("/api")
	{
		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects", cfg.ProjectHandler.List)
			api.GET("/projects/:name", cfg.ProjectHandler.Get)
		}

		if cfg.LessonHandler != nil {
			api.POST("/lessons/extract", cfg.LessonHandler.Extract)
			api.GET("/lessons/:scope/:key", cfg.LessonHandler.List)
		}

		if cfg.ConflictHandler != nil {
			api.GET("/conflicts/:scope/:key", cfg.ConflictHandler.ListPending)
			api.POST("/conflicts/:scope/:key/:id/resolve", cfg.ConflictHandler.Resolve)
		}

		if cfg.ChecklistHandler != nil {
			api.GET("/checklists/global/:type", cfg.ChecklistHandler.GetGlobal)
			api.PUT("/checklists/global/:type", cfg.ChecklistHandler.ReplaceGlobal)
			api.POST("/checklists/sync", cfg.ChecklistHandler.Sync)
			api.GET("/projects/:name/checklists/:type", cfg.ChecklistHandler.GetProjectChecklist)
			api.PATCH("/projects/:name/checklists/:type/tasks/:taskId", cfg.ChecklistHandler.UpdateTaskStatus)
		}

		if cfg.KnowledgeHandler != nil {
			api.POST("/knowledge/:projectType/query", cfg.KnowledgeHandler.Ask)
		}
	}

	return r
}

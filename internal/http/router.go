package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/dislu/ai-study-circle-sub003/internal/http/handlers"
	httpMW "github.com/dislu/ai-study-circle-sub003/internal/http/middleware"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/translation"
)

type RouterConfig struct {
	Gateway *translation.Gateway
	Log     *logger.Logger

	ContentHandler     *httpH.ContentHandler
	JobHandler         *httpH.JobHandler
	TranslationHandler *httpH.TranslationHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.Check)
	}

	api := r.Group("/api")

	// Content. Requests pass through the translation stage before the
	// handler binds them, and JSON responses are rewritten on the way out
	// when the caller opted into its original language.
	if cfg.ContentHandler != nil {
		content := api.Group("/content")
		if cfg.Gateway != nil {
			content.Use(httpMW.Translate(cfg.Gateway))
			content.Use(httpMW.WrapResponse(cfg.Gateway))
		}
		content.POST("/upload", cfg.ContentHandler.Upload)
		content.POST("/generate", cfg.ContentHandler.Generate)
		content.POST("/validate", cfg.ContentHandler.Validate)

		batch := api.Group("/content/batch")
		if cfg.Gateway != nil {
			batch.Use(httpMW.BatchTranslate(cfg.Gateway))
		}
		batch.POST("/validate", cfg.ContentHandler.BatchValidate)
	}

	// Jobs
	if cfg.JobHandler != nil {
		api.GET("/jobs", cfg.JobHandler.List)
		api.GET("/jobs/stats", cfg.JobHandler.Stats)
		api.GET("/jobs/:id", cfg.JobHandler.Get)
		api.PATCH("/jobs/:id", cfg.JobHandler.Update)
		api.POST("/jobs/:id/result", cfg.JobHandler.Complete)
		api.POST("/jobs/:id/fail", cfg.JobHandler.Fail)
	}

	// Translation
	if cfg.TranslationHandler != nil {
		api.POST("/translation/detect", cfg.TranslationHandler.Detect)
		api.POST("/translation/translate", cfg.TranslationHandler.Translate)
		api.GET("/translation/languages", cfg.TranslationHandler.Languages)
		api.GET("/translation/health", cfg.TranslationHandler.Health)
		api.POST("/translation/cache/clear", cfg.TranslationHandler.ClearCache)
	}

	return r
}

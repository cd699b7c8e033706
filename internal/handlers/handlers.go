package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mamorett/comfyprompt-dataset/internal/config"
	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
)

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	state *dataset.State
}

func NewHandlerSet(log zerolog.Logger, state *dataset.State, cfg *config.AppConfig) HandlerSet {
	return HandlerSet{
		log:   log,
		cfg:   cfg,
		state: state,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		records := v1.Group("/records")
		records.GET("", h.ListRecords)
		records.DELETE("", h.ClearRecords)
		records.GET("/:id", h.GetRecord)
		records.DELETE("/:id", h.RemoveRecord)
		records.GET("/:id/thumbnail", h.RecordThumbnail)
		records.PUT("/:id/prompt", h.UpdatePrompt)

		v1.POST("/uploads", h.Upload)
		v1.POST("/scan", h.Scan)
		v1.POST("/reload", h.Reload)
		v1.POST("/repair", h.RepairPaths)
		v1.POST("/affixes", h.ApplyAffixes)

		v1.GET("/manifest", h.ExportManifest)
		v1.POST("/manifest", h.ImportManifest)

		v1.GET("/stats", h.Stats)
		v1.GET("/dataset", h.DatasetInfo)
		v1.PUT("/dataset", h.SetDatasetRoot)
	}
}

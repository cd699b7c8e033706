package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Records     int    `json:"records"`
	DatasetRoot string `json:"dataset_root"`
	DatasetOK   bool   `json:"dataset_ok"`
}

func (h HandlerSet) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Environment: h.cfg.Environment,
		Records:     h.state.Len(),
		DatasetRoot: h.state.Root(),
		DatasetOK:   h.state.CheckRoot() == nil,
	})
}

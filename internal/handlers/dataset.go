package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

func (h HandlerSet) Scan(c *gin.Context) {
	observability.ScansTotal.WithLabelValues("api").Inc()

	report, err := h.state.Rescan(nil)
	if err != nil {
		status, code := scanErrorStatus(err)
		h.log.Warn().Err(err).Msg("scan rejected")
		c.JSON(status, gin.H{"error": code})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h HandlerSet) Reload(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Reload())
}

func (h HandlerSet) RepairPaths(c *gin.Context) {
	var req struct {
		Find    string `json:"find" binding:"required"`
		Replace string `json:"replace"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "find_required"})
		return
	}

	fixed := h.state.RepairPaths(req.Find, req.Replace)
	c.JSON(http.StatusOK, gin.H{"fixed": fixed})
}

func (h HandlerSet) DatasetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.datasetInfo())
}

func (h HandlerSet) SetDatasetRoot(c *gin.Context) {
	var req struct {
		Root   string `json:"root" binding:"required"`
		Create bool   `json:"create"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "root_required"})
		return
	}

	if err := h.state.SetRoot(req.Root); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_root"})
		return
	}
	if req.Create {
		if err := h.state.EnsureRoot(); err != nil {
			h.log.Error().Err(err).Str("root", req.Root).Msg("could not create dataset root")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_root_failed"})
			return
		}
	}

	h.log.Info().Str("root", req.Root).Msg("dataset root changed")
	c.JSON(http.StatusOK, h.datasetInfo())
}

func (h HandlerSet) datasetInfo() gin.H {
	info := gin.H{
		"root":      h.state.Root(),
		"recursive": h.state.Recursive(),
		"exists":    false,
	}
	if err := h.state.CheckRoot(); err != nil {
		return info
	}
	info["exists"] = true
	if n, err := h.state.DiskCount(); err == nil {
		info["disk_images"] = n
	}
	return info
}

func scanErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dataset.ErrRootMissing):
		return http.StatusConflict, "dataset_root_missing"
	case errors.Is(err, dataset.ErrNotDirectory):
		return http.StatusConflict, "dataset_root_not_directory"
	default:
		return http.StatusInternalServerError, "scan_failed"
	}
}

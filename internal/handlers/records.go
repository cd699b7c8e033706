package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
)

func (h HandlerSet) ListRecords(c *gin.Context) {
	page := 1
	perPage := 20

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 && v <= 200 {
		perPage = v
	}

	items, total := h.state.Page(page, perPage)
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h HandlerSet) GetRecord(c *gin.Context) {
	rec, err := h.state.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h HandlerSet) RecordThumbnail(c *gin.Context) {
	id := c.Param("id")
	thumb, err := h.state.Thumbnail(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
		return
	}
	if thumb == "" {
		rec, _ := h.state.Get(id)
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "thumbnail_unavailable",
			"debug_info": rec.DebugInfo,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "thumbnail": thumb})
}

func (h HandlerSet) UpdatePrompt(c *gin.Context) {
	var req struct {
		Prompt *string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt_required"})
		return
	}

	rec, err := h.state.UpdatePrompt(c.Param("id"), *req.Prompt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h HandlerSet) RemoveRecord(c *gin.Context) {
	id := c.Param("id")
	if err := h.state.Remove(id); err != nil {
		if errors.Is(err, dataset.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("remove failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": id})
}

func (h HandlerSet) ClearRecords(c *gin.Context) {
	n := h.state.Clear()
	h.log.Info().Int("records", n).Msg("collection cleared")
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

func (h HandlerSet) ApplyAffixes(c *gin.Context) {
	var req struct {
		Prefix string   `json:"prefix"`
		Suffix string   `json:"suffix"`
		IDs    []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	if req.Prefix == "" && req.Suffix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "affix_required"})
		return
	}

	updated := h.state.ApplyAffixes(req.Prefix, req.Suffix, req.IDs)
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h HandlerSet) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Stats())
}

package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxManifestBytes = 64 << 20

// ExportManifest streams the collection as a portable manifest. An
// optional ids query (comma separated) narrows it to a subset.
func (h HandlerSet) ExportManifest(c *gin.Context) {
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	c.Header("Content-Disposition", `attachment; filename="dataset.jsonl"`)
	c.Data(http.StatusOK, "application/x-ndjson", []byte(h.state.ExportManifest(ids)))
}

// ImportManifest merges manifest text into the collection. The text
// comes either as a "file" multipart field or as the raw request body.
func (h HandlerSet) ImportManifest(c *gin.Context) {
	text, err := manifestBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manifest_required"})
		return
	}

	report := h.state.MergeManifest(text)
	c.JSON(http.StatusOK, report)
}

func manifestBody(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", err
		}
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxManifestBytes))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxManifestBytes))
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", errors.New("empty manifest body")
	}
	return string(data), nil
}

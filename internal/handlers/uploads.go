package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
	"github.com/mamorett/comfyprompt-dataset/internal/media"
)

const maxUploadBytes = 64 << 20

type uploadResult struct {
	OriginalName string `json:"original_name"`
	ID           string `json:"id,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Upload accepts one or more images under the "files" multipart field
// (or a single "file") and ingests each independently. One bad file
// never fails the batch.
func (h HandlerSet) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}

	added := 0
	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxUploadBytes {
			results = append(results, uploadResult{OriginalName: fh.Filename, Error: "file_too_large"})
			continue
		}
		data, err := readMultipartFile(fh)
		if err != nil {
			h.log.Warn().Err(err).Str("file", fh.Filename).Msg("could not read upload")
			results = append(results, uploadResult{OriginalName: fh.Filename, Error: "unreadable_file"})
			continue
		}
		if code := checkDeclaredType(fh, data); code != "" {
			results = append(results, uploadResult{OriginalName: fh.Filename, Error: code})
			continue
		}

		rec, err := h.state.Upload(fh.Filename, data)
		if err != nil {
			h.log.Warn().Err(err).Str("file", fh.Filename).Msg("upload rejected")
			results = append(results, uploadResult{OriginalName: fh.Filename, Error: uploadErrorCode(err)})
			continue
		}
		added++
		results = append(results, uploadResult{OriginalName: rec.OriginalName, ID: rec.ID, Prompt: rec.Prompt})
	}

	c.JSON(http.StatusOK, gin.H{"added": added, "results": results})
}

// checkDeclaredType compares the client's Content-Type against the
// sniffed format. A generic or absent declaration passes; an image type
// that contradicts the bytes does not.
func checkDeclaredType(fh *multipart.FileHeader, data []byte) string {
	format, err := media.DetectFormat(data)
	if err != nil {
		return "unsupported_format"
	}
	declared := media.MimeTypeFromHTTP(http.Header(fh.Header))
	if declared != "" && declared != "application/octet-stream" && declared != format.MIME() {
		return "content_type_mismatch"
	}
	return ""
}

func uploadErrorCode(err error) string {
	switch {
	case errors.Is(err, dataset.ErrDuplicateID):
		return "duplicate_content"
	case errors.Is(err, dataset.ErrDuplicateName):
		return "duplicate_filename"
	case errors.Is(err, media.ErrUnknownFormat):
		return "unsupported_format"
	default:
		return "upload_failed"
	}
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

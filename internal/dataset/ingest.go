package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mamorett/comfyprompt-dataset/internal/manifest"
	"github.com/mamorett/comfyprompt-dataset/internal/media"
	"github.com/mamorett/comfyprompt-dataset/internal/metadata"
	"github.com/mamorett/comfyprompt-dataset/internal/models"
)

// buildRecord runs the ingestion pipeline for one file: content id,
// prompt extraction, thumbnail. Extraction failures are not fatal; the
// record simply carries an empty prompt or preview.
func (s *State) buildRecord(path, originalName, datasetFilename string, source models.Source) (models.ImageRecord, error) {
	id, err := s.cache.ContentID(path)
	if err != nil {
		return models.ImageRecord{}, fmt.Errorf("content id: %w", err)
	}

	prompt := ""
	if _, meta, err := media.ReadTextMetadata(path); err == nil {
		prompt = metadata.Best(meta)
	} else {
		s.log.Debug().Err(err).Str("path", path).Msg("metadata unreadable")
	}

	return models.ImageRecord{
		ID:              id,
		OriginalName:    originalName,
		DatasetFilename: datasetFilename,
		FullPath:        path,
		RelPath:         manifest.MakeRelPath(s.root, datasetFilename),
		Prompt:          prompt,
		Thumbnail:       s.cache.Thumbnail(path),
		Source:          source,
	}, nil
}

// Upload stores an uploaded image in the dataset root under a
// timestamped name and ingests it. The stored file is removed again if
// the content turns out to be a duplicate of an existing record.
func (s *State) Upload(originalName string, data []byte) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		return models.ImageRecord{}, errors.New("empty upload")
	}
	if _, err := media.DetectFormat(data); err != nil {
		return models.ImageRecord{}, err
	}
	if err := s.ensureRootLocked(); err != nil {
		return models.ImageRecord{}, err
	}

	name := uploadName(originalName)
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.ImageRecord{}, fmt.Errorf("store upload: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	rec, err := s.buildRecord(path, originalName, name, models.SourceUploaded)
	if err != nil {
		_ = os.Remove(path)
		return models.ImageRecord{}, err
	}
	if err := s.appendLocked(rec); err != nil {
		_ = os.Remove(path)
		return models.ImageRecord{}, err
	}
	s.log.Info().Str("id", rec.ID).Str("file", name).Msg("image uploaded")
	return rec, nil
}

// uploadName prefixes the original file name with a millisecond
// timestamp so repeated uploads of the same file never collide. Any
// client-supplied directory part is stripped.
func uploadName(originalName string) string {
	base := strings.TrimSpace(originalName)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		base = "upload.png"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), stem, ext)
}

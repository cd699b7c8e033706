package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/mamorett/comfyprompt-dataset/internal/models"
	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

// maxReportErrors caps the per-file error samples carried in a scan
// report so a broken directory cannot balloon the response.
const maxReportErrors = 25

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// Progress receives the number of files handled so far and the total,
// once per file. It runs synchronously inside the scan and must not
// call back into State.
type Progress func(done, total int)

// Rescan walks the dataset root and ingests every image file that is
// not already in the collection. Files whose name or content matches an
// existing record are skipped, so repeated scans of an unchanged
// directory add nothing.
func (s *State) Rescan(progress Progress) (models.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.checkRootLocked(); err != nil {
		return models.ScanReport{}, err
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return models.ScanReport{}, fmt.Errorf("resolve dataset root: %w", err)
	}
	paths, err := s.listImagesLocked(rootAbs)
	if err != nil {
		return models.ScanReport{}, err
	}

	names := make(map[string]struct{}, len(s.records))
	fullPaths := make(map[string]struct{}, len(s.records))
	ids := make(map[string]struct{}, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		if rec.DatasetFilename != "" {
			names[rec.DatasetFilename] = struct{}{}
		}
		if rec.FullPath != "" {
			fullPaths[rec.FullPath] = struct{}{}
		}
		ids[rec.ID] = struct{}{}
	}

	report := models.ScanReport{ID: ksuid.New().String()}
	total := len(paths)
	for i, path := range paths {
		done := i + 1

		rel, err := filepath.Rel(rootAbs, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		datasetFilename := filepath.ToSlash(rel)

		if _, ok := names[datasetFilename]; ok {
			report.Skipped++
			notify(progress, done, total)
			continue
		}
		if _, ok := fullPaths[path]; ok {
			report.Skipped++
			notify(progress, done, total)
			continue
		}

		rec, err := s.buildRecord(path, filepath.Base(path), datasetFilename, models.SourceRescanned)
		if err != nil {
			report.Failed++
			if len(report.Errors) < maxReportErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", datasetFilename, err))
			}
			s.log.Warn().Err(err).Str("path", path).Msg("scan: file not ingested")
			notify(progress, done, total)
			continue
		}
		if _, ok := ids[rec.ID]; ok {
			report.Skipped++
			s.log.Debug().Str("path", path).Str("id", rec.ID).Msg("scan: duplicate content")
			notify(progress, done, total)
			continue
		}

		s.records = append(s.records, rec)
		names[datasetFilename] = struct{}{}
		fullPaths[path] = struct{}{}
		ids[rec.ID] = struct{}{}
		report.Added++
		observability.RecordsAdded.Inc()
		notify(progress, done, total)
	}

	observability.Records.Set(float64(len(s.records)))
	report.DurationMS = time.Since(start).Milliseconds()
	s.log.Info().
		Int("added", report.Added).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int64("duration_ms", report.DurationMS).
		Msg("dataset scan finished")
	return report, nil
}

// listImagesLocked returns the absolute paths of all image files under
// root in lexical order. Unreadable subtrees are logged and skipped.
func (s *State) listImagesLocked(root string) ([]string, error) {
	if !s.recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read dataset root: %w", err)
		}
		var paths []string
		for _, entry := range entries {
			if entry.IsDir() || !isImageName(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(root, entry.Name()))
		}
		return paths, nil
	}

	var paths []string
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("scan: path not accessible")
			return nil
		}
		if info.IsDir() || !isImageName(info.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk dataset root: %w", walkErr)
	}
	return paths, nil
}

func isImageName(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

func notify(progress Progress, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

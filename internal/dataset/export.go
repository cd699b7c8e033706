package dataset

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/mamorett/comfyprompt-dataset/internal/manifest"
	"github.com/mamorett/comfyprompt-dataset/internal/media"
	"github.com/mamorett/comfyprompt-dataset/internal/models"
	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

// WriteManifest emits the collection as manifest text against the
// current dataset root. When ids is non-empty only those records are
// written, in collection order. Each written record's relative path is
// refreshed in memory as a side effect.
func (s *State) WriteManifest(w io.Writer, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := idSet(ids)
	records := make([]models.ImageRecord, 0, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		if selected != nil {
			if _, ok := selected[rec.ID]; !ok {
				continue
			}
		}
		rec.RelPath = manifest.MakeRelPath(s.root, rec.DatasetFilename)
		records = append(records, *rec)
	}
	return manifest.Write(w, records, s.root)
}

// ExportManifest is WriteManifest into a string.
func (s *State) ExportManifest(ids []string) string {
	var b strings.Builder
	// strings.Builder writes cannot fail.
	_ = s.WriteManifest(&b, ids)
	return b.String()
}

// MergeManifest parses manifest text and appends every record that is
// not already present. Records whose file does not resolve are still
// appended, with diagnostics attached, so the path fixer can deal with
// them; they count as both added and failed in the report.
func (s *State) MergeManifest(text string) models.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	loaded, baseDir := manifest.Load(text)
	s.log.Info().Str("base_dir", baseDir).Int("records", len(loaded)).Msg("manifest parsed")

	ids := make(map[string]struct{}, len(s.records))
	names := make(map[string]struct{}, len(s.records))
	for i := range s.records {
		ids[s.records[i].ID] = struct{}{}
		if s.records[i].DatasetFilename != "" {
			names[s.records[i].DatasetFilename] = struct{}{}
		}
	}

	report := models.ScanReport{ID: ksuid.New().String()}
	for _, rec := range loaded {
		if rec.ID == "" {
			report.Skipped++
			continue
		}
		if _, ok := ids[rec.ID]; ok {
			report.Skipped++
			continue
		}
		if rec.DatasetFilename != "" {
			if _, ok := names[rec.DatasetFilename]; ok {
				report.Skipped++
				continue
			}
		}

		if rec.FullPath != "" {
			if info := media.Probe(rec.FullPath); !info.Exists || !info.Readable {
				rec.DebugInfo = info
				report.Failed++
				if len(report.Errors) < maxReportErrors {
					report.Errors = append(report.Errors, fmt.Sprintf("%s: file not found at %s", rec.OriginalName, rec.FullPath))
				}
			}
		}

		s.records = append(s.records, rec)
		ids[rec.ID] = struct{}{}
		if rec.DatasetFilename != "" {
			names[rec.DatasetFilename] = struct{}{}
		}
		report.Added++
		observability.RecordsAdded.Inc()
	}

	observability.Records.Set(float64(len(s.records)))
	report.DurationMS = time.Since(start).Milliseconds()
	s.log.Info().
		Int("added", report.Added).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("manifest merge finished")
	return report
}

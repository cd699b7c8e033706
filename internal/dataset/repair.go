package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/mamorett/comfyprompt-dataset/internal/media"
	"github.com/mamorett/comfyprompt-dataset/internal/models"
)

// Reload re-probes every record that has a path but no preview yet,
// typically after a manifest import. Resolvable files get their
// thumbnail generated; unresolvable ones get diagnostics attached for
// the path fixer.
func (s *State) Reload() models.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report := models.ScanReport{ID: ksuid.New().String()}
	for i := range s.records {
		rec := &s.records[i]
		if rec.FullPath == "" || rec.Thumbnail != "" {
			report.Skipped++
			continue
		}
		info := media.Probe(rec.FullPath)
		if !info.Exists || !info.Readable {
			rec.DebugInfo = info
			report.Failed++
			if len(report.Errors) < maxReportErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: unreadable at %s", rec.OriginalName, rec.FullPath))
			}
			continue
		}
		thumb := s.cache.Thumbnail(rec.FullPath)
		if thumb == "" {
			rec.DebugInfo = info
			report.Failed++
			if len(report.Errors) < maxReportErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: not decodable as an image", rec.OriginalName))
			}
			continue
		}
		rec.Thumbnail = thumb
		rec.DebugInfo = nil
		report.Added++
	}
	report.DurationMS = time.Since(start).Milliseconds()
	s.log.Info().
		Int("refreshed", report.Added).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("record reload finished")
	return report
}

// RepairPaths substring-replaces find with replace in the stored path
// of every record whose file cannot currently be read, then re-probes.
// The rewrite sticks even when the new path still does not resolve, so
// successive partial fixes compose. Returns how many records resolved.
func (s *State) RepairPaths(find, replace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if find == "" {
		return 0
	}
	fixed := 0
	for i := range s.records {
		rec := &s.records[i]
		if rec.FullPath == "" || !strings.Contains(rec.FullPath, find) {
			continue
		}
		if info := media.Probe(rec.FullPath); info.Exists && info.Readable {
			continue
		}
		rec.FullPath = strings.ReplaceAll(rec.FullPath, find, replace)
		rec.Thumbnail = ""
		if after := media.Probe(rec.FullPath); after.Exists && after.Readable {
			rec.DebugInfo = nil
			fixed++
		} else {
			rec.DebugInfo = after
		}
	}
	if fixed > 0 {
		s.log.Info().Int("fixed", fixed).Str("find", find).Str("replace", replace).Msg("record paths repaired")
	}
	return fixed
}

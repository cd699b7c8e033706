package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mamorett/comfyprompt-dataset/internal/models"
)

const (
	headerKey    = "__manifest__"
	maxLineBytes = 16 << 20
)

// line mirrors the persisted record shape. FullPath, Thumbnail and
// DebugInfo are run-local and deliberately absent.
type line struct {
	ID              string `json:"id"`
	OriginalName    string `json:"original_name"`
	DatasetFilename string `json:"dataset_filename"`
	RelPath         string `json:"rel_path"`
	Prompt          string `json:"prompt"`
	Modified        bool   `json:"modified"`
	Source          string `json:"source"`
}

type header struct {
	Manifest headerBody `json:"__manifest__"`
}

type headerBody struct {
	BaseDir string `json:"base_dir"`
}

// Write emits one header line and one JSON object per record, newline
// joined. Every record's rel_path is recomputed from baseDir before emit,
// so the output stays portable no matter what the in-memory records hold.
func Write(w io.Writer, records []models.ImageRecord, baseDir string) error {
	base := NormalizeBaseDir(baseDir)

	head, err := json.Marshal(header{Manifest: headerBody{BaseDir: base}})
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	bw := bufio.NewWriter(w)
	bw.Write(head)

	for i, rec := range records {
		data, err := json.Marshal(line{
			ID:              rec.ID,
			OriginalName:    rec.OriginalName,
			DatasetFilename: rec.DatasetFilename,
			RelPath:         MakeRelPath(base, rec.DatasetFilename),
			Prompt:          rec.Prompt,
			Modified:        rec.Modified,
			Source:          string(rec.Source),
		})
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		bw.WriteByte('\n')
		bw.Write(data)
	}
	return bw.Flush()
}

// Save is Write into a string.
func Save(records []models.ImageRecord, baseDir string) string {
	var sb strings.Builder
	// strings.Builder writes cannot fail and the line type always marshals.
	_ = Write(&sb, records, baseDir)
	return sb.String()
}

// Read parses a manifest stream. Lines that do not parse as records are
// skipped, and the header is recognized anywhere in the stream. Returned
// records have full_path resolved against the current working directory,
// thumbnails reset for lazy re-resolution, and source defaulted to "jsonl".
func Read(r io.Reader) ([]models.ImageRecord, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		lines   []line
		baseDir string
	)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			continue
		}
		if rawHead, ok := obj[headerKey]; ok {
			var body headerBody
			if err := json.Unmarshal(rawHead, &body); err == nil {
				baseDir = body.BaseDir
			}
			continue
		}
		var ln line
		if err := json.Unmarshal([]byte(text), &ln); err != nil {
			continue
		}
		lines = append(lines, ln)
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("read manifest: %w", err)
	}

	// Path resolution runs after the whole stream is read so a late header
	// still applies to every record.
	records := make([]models.ImageRecord, 0, len(lines))
	for _, ln := range lines {
		records = append(records, ln.toRecord(baseDir))
	}
	return records, baseDir, nil
}

// Load is Read from a string. A missing header leaves baseDir empty.
func Load(text string) ([]models.ImageRecord, string) {
	records, baseDir, _ := Read(strings.NewReader(text))
	return records, baseDir
}

func (ln line) toRecord(baseDir string) models.ImageRecord {
	fn := ln.DatasetFilename
	if fn == "" {
		fn = ln.OriginalName
	}
	relPath := ln.RelPath
	if relPath == "" && fn != "" {
		relPath = MakeRelPath(baseDir, fn)
	}
	var fullPath string
	if relPath != "" {
		if abs, err := filepath.Abs(relPath); err == nil {
			fullPath = abs
		}
	}
	source := models.Source(ln.Source)
	if source == "" {
		source = models.SourceManifest
	}
	return models.ImageRecord{
		ID:              ln.ID,
		OriginalName:    ln.OriginalName,
		DatasetFilename: fn,
		FullPath:        fullPath,
		RelPath:         relPath,
		Prompt:          ln.Prompt,
		Modified:        ln.Modified,
		Source:          source,
	}
}

// NormalizeBaseDir trims the configured directory and marks plain relative
// paths with "./" so manifest consumers can tell them from absolute ones.
func NormalizeBaseDir(dir string) string {
	base := strings.TrimRight(strings.TrimSpace(dir), "/\\")
	if base == "" {
		return ""
	}
	if filepath.IsAbs(base) || strings.HasPrefix(base, ".") {
		return base
	}
	return "./" + base
}

// MakeRelPath builds the portable location reference: base_dir joined with
// the dataset filename, forward slashes throughout.
func MakeRelPath(baseDir, datasetFilename string) string {
	base := NormalizeBaseDir(baseDir)
	rel := strings.TrimLeft(filepath.ToSlash(datasetFilename), "/\\")
	if base == "" {
		return rel
	}
	return filepath.ToSlash(base) + "/" + rel
}

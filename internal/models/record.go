package models

type Source string

const (
	SourceUploaded  Source = "uploaded_to_dataset"
	SourceRescanned Source = "rescanned_dataset"
	SourceManifest  Source = "jsonl"
)

// DebugInfo is the file-access probe attached to a record when resolving
// its image fails. Never persisted to a manifest.
type DebugInfo struct {
	Exists       bool   `json:"exists"`
	Readable     bool   `json:"readable"`
	Size         int64  `json:"size"`
	Error        string `json:"error,omitempty"`
	AbsolutePath string `json:"absolute_path"`
}

// ImageRecord is one entry per known image. ID is the hex digest of the
// file content, so a renamed copy keeps its identity. FullPath is valid for
// the current run only; RelPath is the portable reference persisted to a
// manifest.
type ImageRecord struct {
	ID              string     `json:"id"`
	OriginalName    string     `json:"original_name"`
	DatasetFilename string     `json:"dataset_filename"`
	FullPath        string     `json:"full_path,omitempty"`
	RelPath         string     `json:"rel_path"`
	Prompt          string     `json:"prompt"`
	Thumbnail       string     `json:"thumbnail,omitempty"`
	Modified        bool       `json:"modified"`
	Source          Source     `json:"source"`
	DebugInfo       *DebugInfo `json:"debug_info,omitempty"`
}

type Stats struct {
	Total      int            `json:"total"`
	WithPrompt int            `json:"with_prompt"`
	Modified   int            `json:"modified"`
	Unresolved int            `json:"unresolved"`
	BySource   map[Source]int `json:"by_source"`
}

// ScanReport aggregates the outcome of a batch operation (rescan, manifest
// merge, reload). Errors keeps the first few failures for display; the rest
// are only counted.
type ScanReport struct {
	ID         string   `json:"id"`
	Added      int      `json:"added"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

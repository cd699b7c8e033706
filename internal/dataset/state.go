package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mamorett/comfyprompt-dataset/internal/config"
	"github.com/mamorett/comfyprompt-dataset/internal/media"
	"github.com/mamorett/comfyprompt-dataset/internal/models"
	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

var (
	ErrRootMissing    = errors.New("dataset root does not exist")
	ErrNotDirectory   = errors.New("dataset root is not a directory")
	ErrDuplicateID    = errors.New("record id already present")
	ErrDuplicateName  = errors.New("dataset filename already present")
	ErrRecordNotFound = errors.New("record not found")
)

const (
	defaultPerPage = 20
	maxPerPage     = 200
)

// State owns the in-memory record collection. All mutation goes through
// its methods under a single lock, so callers never share record slices
// with concurrent writers.
type State struct {
	mu        sync.Mutex
	records   []models.ImageRecord
	root      string
	recursive bool
	cache     *media.Cache
	log       zerolog.Logger
}

func New(cfg config.DatasetConfig, cache *media.Cache, log zerolog.Logger) *State {
	return &State{
		root:      cfg.Root,
		recursive: cfg.Recursive,
		cache:     cache,
		log:       log,
	}
}

// Append adds a record, rejecting duplicate ids and duplicate dataset
// filenames.
func (s *State) Append(rec models.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(rec)
}

func (s *State) appendLocked(rec models.ImageRecord) error {
	if rec.ID == "" {
		return errors.New("record id required")
	}
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		if rec.DatasetFilename != "" && s.records[i].DatasetFilename == rec.DatasetFilename {
			return fmt.Errorf("%w: %s", ErrDuplicateName, rec.DatasetFilename)
		}
	}
	s.records = append(s.records, rec)
	observability.RecordsAdded.Inc()
	observability.Records.Set(float64(len(s.records)))
	return nil
}

func (s *State) Get(id string) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return models.ImageRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return s.records[idx], nil
}

// Page returns one page of records in collection order plus the total
// record count. Pages are 1-based.
func (s *State) Page(page, perPage int) ([]models.ImageRecord, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	total := len(s.records)
	start := (page - 1) * perPage
	if start >= total {
		return []models.ImageRecord{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]models.ImageRecord, end-start)
	copy(out, s.records[start:end])
	return out, total
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the whole collection in insertion order.
func (s *State) Records() []models.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

// UpdatePrompt replaces a record's prompt. The record is flagged as
// modified only when the text actually changes.
func (s *State) UpdatePrompt(id, prompt string) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return models.ImageRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := &s.records[idx]
	if rec.Prompt != prompt {
		rec.Prompt = prompt
		rec.Modified = true
	}
	return *rec, nil
}

// ApplyAffixes concatenates prefix and suffix onto the prompt of the
// selected records, or of every record when ids is empty. Returns how
// many records changed.
func (s *State) ApplyAffixes(prefix, suffix string, ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prefix == "" && suffix == "" {
		return 0
	}
	selected := idSet(ids)
	changed := 0
	for i := range s.records {
		rec := &s.records[i]
		if selected != nil {
			if _, ok := selected[rec.ID]; !ok {
				continue
			}
		}
		rec.Prompt = prefix + rec.Prompt + suffix
		rec.Modified = true
		changed++
	}
	return changed
}

// Remove drops a record. When the record was uploaded through this
// service and its file still lives under the dataset root, the file is
// deleted as well; files outside the root are never touched.
func (s *State) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := s.records[idx]
	if rec.Source == models.SourceUploaded && rec.FullPath != "" && s.insideRootLocked(rec.FullPath) {
		if err := os.Remove(rec.FullPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", rec.FullPath).Msg("could not delete dataset file")
		}
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	observability.Records.Set(float64(len(s.records)))
	return nil
}

// Clear empties the collection without touching any files. Returns the
// number of records dropped.
func (s *State) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = nil
	observability.Records.Set(0)
	return n
}

// Thumbnail returns the record's preview, generating and storing it on
// first access. An empty result with a nil error means the backing file
// could not be rendered; diagnostics are attached to the record.
func (s *State) Thumbnail(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := &s.records[idx]
	if rec.Thumbnail != "" {
		return rec.Thumbnail, nil
	}
	if rec.FullPath == "" {
		return "", nil
	}
	thumb := s.cache.Thumbnail(rec.FullPath)
	if thumb == "" {
		rec.DebugInfo = media.Probe(rec.FullPath)
		return "", nil
	}
	rec.Thumbnail = thumb
	rec.DebugInfo = nil
	return thumb, nil
}

func (s *State) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.Stats{BySource: make(map[models.Source]int)}
	st.Total = len(s.records)
	for i := range s.records {
		rec := &s.records[i]
		if rec.Prompt != "" {
			st.WithPrompt++
		}
		if rec.Modified {
			st.Modified++
		}
		if rec.DebugInfo != nil {
			st.Unresolved++
		}
		st.BySource[rec.Source]++
	}
	return st
}

func (s *State) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

func (s *State) Recursive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recursive
}

// SetRoot points the collection at a different dataset directory.
// Existing records keep their paths; a rescan picks up the new root.
func (s *State) SetRoot(root string) error {
	root = strings.TrimSpace(root)
	if root == "" {
		return ErrRootMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	return nil
}

// EnsureRoot creates the dataset root directory if it is missing.
func (s *State) EnsureRoot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureRootLocked()
}

func (s *State) ensureRootLocked() error {
	if strings.TrimSpace(s.root) == "" {
		return ErrRootMissing
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create dataset root: %w", err)
	}
	return nil
}

// CheckRoot verifies the dataset root exists and is a directory.
func (s *State) CheckRoot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkRootLocked()
}

func (s *State) checkRootLocked() error {
	if strings.TrimSpace(s.root) == "" {
		return ErrRootMissing
	}
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootMissing, s.root)
		}
		return fmt.Errorf("stat dataset root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, s.root)
	}
	return nil
}

// DiskCount walks the dataset root and reports how many image files are
// currently on disk, independent of the in-memory collection.
func (s *State) DiskCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRootLocked(); err != nil {
		return 0, err
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return 0, fmt.Errorf("resolve dataset root: %w", err)
	}
	paths, err := s.listImagesLocked(rootAbs)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

func (s *State) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) insideRootLocked(path string) bool {
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

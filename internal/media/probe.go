package media

import (
	"os"
	"path/filepath"

	"github.com/mamorett/comfyprompt-dataset/internal/models"
)

// Probe checks whether the file at path can be resolved and read. The
// result is attached to records as debug_info when resolution fails.
func Probe(path string) *models.DebugInfo {
	info := &models.DebugInfo{AbsolutePath: path}
	if abs, err := filepath.Abs(path); err == nil {
		info.AbsolutePath = abs
	}

	st, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			info.Error = err.Error()
		}
		return info
	}
	info.Exists = true
	info.Size = st.Size()

	f, err := os.Open(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	f.Close()
	info.Readable = true
	return info
}

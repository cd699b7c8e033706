package media

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"
)

// Thumbnail returns a base64 PNG preview no larger than maxW x maxH, aspect
// ratio preserved, never upscaled. Any failure yields "": a record without
// a preview is a normal state, not an error.
func Thumbnail(path string, maxW, maxH int) string {
	if maxW <= 0 || maxH <= 0 {
		return ""
	}
	src, err := imaging.Open(path)
	if err != nil {
		return ""
	}

	thumb := imaging.Fit(src, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

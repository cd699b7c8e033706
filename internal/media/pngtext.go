package media

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Generation tools embed prompt data as PNG text chunks (tEXt, zTXt, iTXt)
// with keywords like "parameters", "workflow" and "prompt". Text chunks can
// appear anywhere between IHDR and IEND, so the whole chunk stream is walked.

const (
	sniffLen     = 512
	maxTextChunk = 64 << 20
)

// ReadTextMetadata reports the container format of the image at path and its
// embedded text metadata, keyed by chunk keyword. Formats without text
// chunks yield an empty map. Unknown or corrupt containers fail with
// ErrUnknownFormat.
func ReadTextMetadata(path string) (Format, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read head: %w", err)
	}

	format, err := DetectFormat(head[:n])
	if err != nil {
		return "", nil, err
	}
	if format != FormatPNG {
		return format, map[string]string{}, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return format, nil, fmt.Errorf("rewind: %w", err)
	}
	meta, err := readPNGText(f)
	if err != nil {
		return format, nil, err
	}
	return format, meta, nil
}

// readPNGText walks the chunk stream collecting text chunks. A stream
// truncated mid-chunk still yields the chunks read up to that point.
func readPNGText(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngMagic))
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !isPNG(sig) {
		return nil, ErrUnknownFormat
	}

	meta := make(map[string]string)
	var header [8]byte
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			return meta, nil
		}
		length := binary.BigEndian.Uint32(header[:4])
		chunkType := string(header[4:8])

		switch {
		case chunkType == "IEND":
			return meta, nil
		case isTextChunk(chunkType) && length <= maxTextChunk:
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return meta, nil
			}
			if key, value, ok := decodeTextChunk(chunkType, data); ok {
				meta[key] = value
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)); err != nil {
				return meta, nil
			}
		}

		// chunk CRC, not verified
		if _, err := io.CopyN(io.Discard, br, 4); err != nil {
			return meta, nil
		}
	}
}

func isTextChunk(chunkType string) bool {
	return chunkType == "tEXt" || chunkType == "zTXt" || chunkType == "iTXt"
}

func decodeTextChunk(chunkType string, data []byte) (string, string, bool) {
	switch chunkType {
	case "tEXt":
		key, text, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 {
			return "", "", false
		}
		return latin1(key), latin1(text), true

	case "zTXt":
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 || len(rest) < 1 || rest[0] != 0 {
			return "", "", false
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", "", false
		}
		return latin1(key), latin1(text), true

	case "iTXt":
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 || len(rest) < 2 {
			return "", "", false
		}
		compressed, method := rest[0] == 1, rest[1]
		rest = rest[2:]
		if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok { // language tag
			return "", "", false
		}
		if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok { // translated keyword
			return "", "", false
		}
		if !compressed {
			return latin1(key), string(rest), true
		}
		if method != 0 {
			return "", "", false
		}
		text, err := inflate(rest)
		if err != nil {
			return "", "", false
		}
		return latin1(key), string(text), true
	}
	return "", "", false
}

// latin1 maps each byte to its code point; tEXt and zTXt payloads and all
// keywords are Latin-1 in the PNG format.
func latin1(b []byte) string {
	out := make([]rune, len(b))
	for i, c := range b {
		out[i] = rune(c)
	}
	return string(out)
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxTextChunk))
}

package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Legacy exports were written on Windows boxes in single-byte encodings;
// these are tried after plain UTF-8 fails.
var fallbackEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// LoadFile reads a snapshot document from disk and returns it as a
// decoded generic JSON value. Gzip-compressed files are detected by
// magic number and decompressed transparently; plain files are decoded
// as UTF-8 first, then through the single-byte fallbacks.
func LoadFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot file: %w", err)
	}

	if len(raw) >= 2 && raw[0] == 0x1F && raw[1] == 0x8B {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("error opening gzip snapshot: %w", err)
		}
		defer zr.Close()

		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("error decompressing snapshot: %w", err)
		}
	}

	return decodeDocument(raw)
}

func decodeDocument(raw []byte) (any, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var doc any
	if utf8.Valid(raw) {
		if err := json.Unmarshal(raw, &doc); err == nil {
			return doc, nil
		}
	} else {
		// json.Unmarshal would silently mangle invalid UTF-8 into
		// replacement runes, so reinterpret the bytes instead.
		for _, enc := range fallbackEncodings {
			decoded, err := enc.NewDecoder().Bytes(raw)
			if err != nil {
				continue
			}
			if err := json.Unmarshal(decoded, &doc); err == nil {
				return doc, nil
			}
		}
	}

	return nil, errors.New("snapshot is not valid JSON in any supported encoding")
}

package core

// decode.go normalizes the raw bytes of a spreadsheet export before CSV
// parsing:
//
//   - readLimited: reads the body, failing with ErrSourceTooLarge past the limit
//   - skipBOM: removes the UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows programs
//   - toUTF8: decodes Windows-1252 when the body is not valid UTF-8
//
// Use decodeSource to apply the byte transforms in the correct order.

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readLimited reads r fully. maxBytes <= 0 disables the limit.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, maxBytes)
	}
	return data, nil
}

// skipBOM returns data without a leading UTF-8 BOM.
func skipBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// toUTF8 returns data unchanged when it is valid UTF-8. Otherwise the body
// was most likely saved by Excel in a pt-BR locale, and is decoded as
// Windows-1252, which maps every byte.
func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

// decodeSource applies BOM stripping and charset decoding.
// The BOM must go first: it is valid UTF-8 but not part of the header.
func decodeSource(data []byte) ([]byte, error) {
	return toUTF8(skipBOM(data))
}

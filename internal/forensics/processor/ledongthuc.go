package processor

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// withLedongthuc opens path with ledongthuc/pdf, a lighter reader that only
// understands the subset of PDF needed for text.
func withLedongthuc(path string, fn func(r *pdf.Reader) error) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("ledongthuc open: %w", err)
	}
	defer f.Close()
	return fn(r)
}

// ledongthucText returns the decoded text string stored under key in v
func ledongthucText(v pdf.Value, key string) (string, bool) {
	entry := v.Key(key)
	if entry.IsNull() {
		return "", false
	}
	var s string
	switch entry.Kind() {
	case pdf.String:
		s = entry.Text()
	case pdf.Name:
		s = entry.Name()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ledongthucXMP returns the catalog's XMP packet, or nil
func ledongthucXMP(r *pdf.Reader) ([]byte, error) {
	md := r.Trailer().Key("Root").Key("Metadata")
	if md.Kind() != pdf.Stream {
		return nil, nil
	}
	rc := md.Reader()
	defer rc.Close()
	return io.ReadAll(rc)
}

package service

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// Extensions resolved without consulting the system MIME tables, which
// differ between hosts.
var extensionTypes = map[string]string{
	".pdf":  domain.MIMEPDF,
	".docx": domain.MIMEDOCX,
	".doc":  domain.MIMEDOC,
}

// DetectMIME picks the MIME type for an upload: the client's declared type
// unless it is missing or generic, then the filename extension, then the
// file's content.
func DetectMIME(declared, filename, path string) string {
	if t := mediaType(declared); t != "" && t != octetStream {
		return t
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mediaType(mime.TypeByExtension(ext)); t != "" {
		return t
	}

	if path != "" {
		if m, err := mimetype.DetectFile(path); err == nil {
			if t := mediaType(m.String()); t != "" {
				return t
			}
		}
	}
	return octetStream
}

// mediaType strips parameters and normalizes case
func mediaType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if t, _, err := mime.ParseMediaType(v); err == nil {
		return t
	}
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

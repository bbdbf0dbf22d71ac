package service

import (
	"testing"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDetectMIME(t *testing.T) {
	pdf := testutil.WriteFile(t, "upload", testutil.BuildPDF(testutil.PDFSpec{PageTexts: []string{"hi"}}))
	png := testutil.WriteFile(t, "blob", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"))

	tests := []struct {
		name     string
		declared string
		filename string
		path     string
		want     string
	}{
		{"declared wins", "application/pdf", "report.docx", "", domain.MIMEPDF},
		{"declared parameters stripped", "Text/Plain; charset=utf-8", "a.txt", "", "text/plain"},
		{"generic declared ignored", "application/octet-stream", "report.pdf", "", domain.MIMEPDF},
		{"docx extension", "", "Contract.DOCX", "", domain.MIMEDOCX},
		{"legacy doc extension", "", "old.doc", "", domain.MIMEDOC},
		{"system table", "", "photo.png", "", "image/png"},
		{"content sniffed pdf", "", "upload", pdf, domain.MIMEPDF},
		{"content sniffed png", "", "blob", png, "image/png"},
		{"nothing known", "", "blob", "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.declared, tt.filename, tt.path))
		})
	}
}

package processor

import (
	"context"
	"testing"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/docforensics/forensics-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestImageAnalyzer(t *testing.T) {
	tests := []struct {
		name           string
		data           []byte
		mimeType       string
		wantImages     int
		wantConfidence int
	}{
		{
			name:           "pdf without images",
			data:           testutil.BuildPDF(testutil.PDFSpec{PageTexts: []string{"text only", "more text"}}),
			mimeType:       domain.MIMEPDF,
			wantImages:     0,
			wantConfidence: 95,
		},
		{
			name:           "pdf with images",
			data:           testutil.BuildPDF(testutil.PDFSpec{Images: 2}),
			mimeType:       domain.MIMEPDF,
			wantImages:     2,
			wantConfidence: 85,
		},
		{
			name:           "unreadable pdf counts nothing",
			data:           []byte("garbage"),
			mimeType:       domain.MIMEPDF,
			wantImages:     0,
			wantConfidence: 95,
		},
		{
			name:           "raster image",
			data:           []byte("\x89PNG\r\n\x1a\n"),
			mimeType:       "image/png",
			wantImages:     1,
			wantConfidence: 90,
		},
		{
			name:           "other type",
			data:           []byte("hello"),
			mimeType:       "text/plain",
			wantImages:     0,
			wantConfidence: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, "upload", tt.data)
			got := NewImageAnalyzer(logger.Nop()).Analyze(context.Background(), path, domain.FileInfo{MimeType: tt.mimeType})

			assert.Equal(t, tt.wantImages, got.ImagesFound)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Zero(t, got.TamperedImages)
			assert.NotNil(t, got.SuspiciousRegions)
			assert.Empty(t, got.SuspiciousRegions)
		})
	}
}

func TestImageAnalyzer_SecondaryCountsImages(t *testing.T) {
	path := testutil.WriteFile(t, "scan.pdf", testutil.BuildPDF(testutil.PDFSpec{Images: 3}))

	a := NewImageAnalyzerWith(logger.Nop(),
		NewStrategy("primary", func(context.Context, string) (int, error) { panic("bad object stream") }),
		NewStrategy("ledongthuc", ledongthucImageCount(logger.Nop())),
	)
	got := a.Analyze(context.Background(), path, domain.FileInfo{MimeType: domain.MIMEPDF})

	assert.Equal(t, 3, got.ImagesFound)
	assert.Equal(t, 85, got.Confidence)
}

package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/internal/forensics/processor"
	"github.com/docforensics/forensics-api/internal/forensics/storage"
	"github.com/docforensics/forensics-api/pkg/errors"
	"github.com/docforensics/forensics-api/pkg/logger"
)

// MetadataAnalyzer extracts the metadata section of a report
type MetadataAnalyzer interface {
	Analyze(ctx context.Context, path string, info domain.FileInfo) domain.MetadataRecord
}

// TextAnalyzer extracts and scores document text
type TextAnalyzer interface {
	Analyze(ctx context.Context, path string, info domain.FileInfo) domain.TextAnalysis
}

// ImageAnalyzer counts embedded images
type ImageAnalyzer interface {
	Analyze(ctx context.Context, path string, info domain.FileInfo) domain.ImageAnalysis
}

// SignatureAnalyzer checks for a digital signature
type SignatureAnalyzer interface {
	Analyze(ctx context.Context, path string, info domain.FileInfo) domain.SignatureResult
}

// Analyzers is the set of analyzers run against one upload
type Analyzers struct {
	Metadata   MetadataAnalyzer
	Text       TextAnalyzer
	Images     ImageAnalyzer
	Signatures SignatureAnalyzer
}

// AnalyzerFactory builds the analyzers for one request
type AnalyzerFactory func(log *logger.Logger) Analyzers

// DefaultAnalyzers returns the library-backed analyzers
func DefaultAnalyzers(log *logger.Logger) Analyzers {
	return Analyzers{
		Metadata:   processor.NewMetadataAnalyzer(log),
		Text:       processor.NewTextAnalyzer(log),
		Images:     processor.NewImageAnalyzer(log),
		Signatures: processor.NewSignatureAnalyzer(log),
	}
}

// Upload is one file received by the API
type Upload struct {
	Filename     string
	DeclaredType string
	Size         int64
	Content      io.Reader
}

// Service orchestrates one analysis: stage upload → detect type → run analyzers → cleanup
type Service struct {
	files     *storage.TempFiles
	analyzers AnalyzerFactory
	log       *logger.Logger
}

// NewService creates a new analysis service. A nil factory uses DefaultAnalyzers.
func NewService(files *storage.TempFiles, analyzers AnalyzerFactory, log *logger.Logger) *Service {
	if analyzers == nil {
		analyzers = DefaultAnalyzers
	}
	return &Service{
		files:     files,
		analyzers: analyzers,
		log:       log,
	}
}

// Analyze runs every analyzer against the upload. The staged file is removed
// before Analyze returns, whether or not an analyzer panicked.
func (s *Service) Analyze(ctx context.Context, up Upload) (report *domain.AnalysisReport, err error) {
	started := time.Now()

	f, err := s.files.Stage(up.Filename, up.Content)
	if err != nil {
		return nil, errors.Wrap(err, "STAGE_FAILED", "stage upload", http.StatusInternalServerError)
	}
	defer f.Release()

	info := domain.FileInfo{
		Filename:   up.Filename,
		Size:       f.Size,
		MimeType:   DetectMIME(up.DeclaredType, up.Filename, f.Path),
		UploadedAt: started.UTC(),
	}
	log := s.log.WithFile(info.Filename, info.MimeType)

	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("%v", r)
			log.Error().Err(err).Msg("analysis aborted by panic")
		}
	}()

	log.Info().Int64("size", info.Size).Msg("analysis started")
	a := s.analyzers(log)

	report = &domain.AnalysisReport{
		Success:        true,
		Metadata:       a.Metadata.Analyze(ctx, f.Path, info),
		TextAnalysis:   a.Text.Analyze(ctx, f.Path, info),
		ImageAnalysis:  a.Images.Analyze(ctx, f.Path, info),
		SignatureCheck: a.Signatures.Analyze(ctx, f.Path, info),
		AnalysisTime:   domain.FormatTimestamp(time.Now().UTC()),
	}

	log.Info().
		Dur("duration", time.Since(started)).
		Msg("analysis completed")
	return report, nil
}

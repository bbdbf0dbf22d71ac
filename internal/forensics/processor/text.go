package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// TextAnalyzer extracts document text and scores it for suspicious patterns
type TextAnalyzer struct {
	pdf  *Chain[string]
	docx *Chain[string]
	log  *logger.Logger
}

// NewTextAnalyzer creates an analyzer with the default strategies
func NewTextAnalyzer(log *logger.Logger) *TextAnalyzer {
	log = log.WithComponent("text")
	return NewTextAnalyzerWith(log,
		[]Strategy[string]{
			NewStrategy("ledongthuc", ledongthucPlainText(log)),
			NewStrategy("pdfcpu-content", pdfcpuContentText(log)),
		},
		[]Strategy[string]{
			NewStrategy("docx", docxText),
		},
	)
}

// NewTextAnalyzerWith creates an analyzer with explicit strategy chains
func NewTextAnalyzerWith(log *logger.Logger, pdfStrategies, docxStrategies []Strategy[string]) *TextAnalyzer {
	return &TextAnalyzer{
		pdf:  NewChain("pdf-text", log, pdfStrategies...),
		docx: NewChain("docx-text", log, docxStrategies...),
		log:  log,
	}
}

// Analyze extracts and scores the text of the file at path
func (a *TextAnalyzer) Analyze(ctx context.Context, path string, info domain.FileInfo) (result domain.TextAnalysis) {
	err := guard(func() error {
		switch {
		case domain.IsPDF(info.MimeType):
			extracted, err := a.extract(ctx, a.pdf, path)
			if err != nil {
				return err
			}
			result = Score(extracted, "PDF")
		case domain.IsWordDocument(info.MimeType):
			extracted, err := a.extract(ctx, a.docx, path)
			if err != nil {
				return err
			}
			result = Score(extracted, "DOCX")
		default:
			result = domain.TextAnalysis{Confidence: 100, Flags: []string{FlagNotImplemented}}
		}
		return nil
	})
	if err != nil {
		a.log.Error().Err(err).Msg("text analysis failed")
		return domain.TextAnalysis{
			Confidence: 0,
			Flags:      []string{"Analysis failed: " + err.Error()},
		}
	}

	a.log.Info().
		Int("words", result.TotalWords).
		Int("score", result.SuspiciousWords).
		Int("confidence", result.Confidence).
		Msg("text analysis completed")
	return result
}

// extract runs chain and classifies the outcome. Only cancellation is an error;
// strategy failures become ExtractionFailed.
func (a *TextAnalyzer) extract(ctx context.Context, chain *Chain[string], path string) (ExtractedText, error) {
	text, strategy, err := chain.Run(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ExtractedText{}, ctxErr
		}
		return ExtractedText{Outcome: ExtractionFailed}, nil
	}
	a.log.Debug().
		Str("strategy", strategy).
		Int("characters", len(text)).
		Msg("text extracted")
	return ExtractedText{Text: text, Outcome: Extracted, Strategy: strategy}, nil
}

func ledongthucPlainText(log *logger.Logger) func(context.Context, string) (string, error) {
	return func(ctx context.Context, path string) (string, error) {
		var b strings.Builder
		err := withLedongthuc(path, func(r *pdf.Reader) error {
			n := r.NumPage()
			for i := 1; i <= n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				page := r.Page(i)
				if page.V.IsNull() {
					continue
				}
				text, err := page.GetPlainText(nil)
				if err != nil {
					return fmt.Errorf("page %d: %w", i, err)
				}
				log.Debug().Int("page", i).Int("characters", len(text)).Msg("page text")
				b.WriteString(text)
				b.WriteString(" ")
			}
			return nil
		})
		return b.String(), err
	}
}

func pdfcpuContentText(log *logger.Logger) func(context.Context, string) (string, error) {
	return func(ctx context.Context, path string) (string, error) {
		var b strings.Builder
		err := withPDFCPU(path, func(pctx *model.Context) error {
			pages, err := pdfcpuPages(pctx)
			if err != nil {
				return err
			}
			for i, page := range pages {
				if err := ctx.Err(); err != nil {
					return err
				}
				content, err := pageContent(pctx, page.Dict)
				if err != nil {
					return fmt.Errorf("page %d: %w", i+1, err)
				}
				text := contentText(content)
				log.Debug().Int("page", i+1).Int("characters", len(text)).Msg("page text")
				b.WriteString(text)
				b.WriteString(" ")
			}
			return nil
		})
		return b.String(), err
	}
}

// pageContent returns the decoded /Contents of a page; arrays of streams are
// concatenated with a newline between parts.
func pageContent(ctx *model.Context, page types.Dict) ([]byte, error) {
	obj, found := page.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	o, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	arr, ok := o.(types.Array)
	if !ok {
		return pdfcpuStream(ctx, obj)
	}

	var content []byte
	for _, part := range arr {
		data, err := pdfcpuStream(ctx, part)
		if err != nil {
			return nil, err
		}
		content = append(content, data...)
		content = append(content, '\n')
	}
	return content, nil
}

func docxText(_ context.Context, path string) (string, error) {
	body, err := readDocxBody(path)
	if err != nil {
		return "", err
	}
	return body.Text(), nil
}

package processor

import (
	"context"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Image confidence values
const (
	confidenceNoImages   = 95
	confidenceWithImages = 85
	confidenceRasterFile = 90
	confidenceOtherFile  = 100
)

// ImageAnalyzer counts embedded images. Tamper detection is not performed.
type ImageAnalyzer struct {
	pdf *Chain[int]
	log *logger.Logger
}

// NewImageAnalyzer creates an analyzer with the default strategies
func NewImageAnalyzer(log *logger.Logger) *ImageAnalyzer {
	log = log.WithComponent("image")
	return NewImageAnalyzerWith(log,
		NewStrategy("pdfcpu", pdfcpuImageCount(log)),
		NewStrategy("ledongthuc", ledongthucImageCount(log)),
	)
}

// NewImageAnalyzerWith creates an analyzer with an explicit PDF strategy chain
func NewImageAnalyzerWith(log *logger.Logger, pdfStrategies ...Strategy[int]) *ImageAnalyzer {
	return &ImageAnalyzer{
		pdf: NewChain("pdf-images", log, pdfStrategies...),
		log: log,
	}
}

// Analyze counts the images in the file at path
func (a *ImageAnalyzer) Analyze(ctx context.Context, path string, info domain.FileInfo) domain.ImageAnalysis {
	result := domain.ImageAnalysis{SuspiciousRegions: []string{}}

	switch {
	case domain.IsPDF(info.MimeType):
		// both strategies failing leaves the count at zero
		count, _, err := a.pdf.Run(ctx, path)
		if err != nil {
			count = 0
		}
		result.ImagesFound = count
		result.Confidence = confidenceNoImages
		if count > 0 {
			result.Confidence = confidenceWithImages
		}
	case domain.IsImage(info.MimeType):
		result.ImagesFound = 1
		result.Confidence = confidenceRasterFile
	default:
		result.Confidence = confidenceOtherFile
	}

	a.log.Info().
		Int("images", result.ImagesFound).
		Int("confidence", result.Confidence).
		Msg("image analysis completed")
	return result
}

func pdfcpuImageCount(log *logger.Logger) func(context.Context, string) (int, error) {
	return func(_ context.Context, path string) (int, error) {
		count := 0
		err := withPDFCPU(path, func(ctx *model.Context) error {
			pages, err := pdfcpuPages(ctx)
			if err != nil {
				return err
			}
			for i, page := range pages {
				n, err := pdfcpuPageImages(ctx, page.Resources)
				if err != nil {
					return err
				}
				log.Debug().Int("page", i+1).Int("images", n).Msg("page images")
				count += n
			}
			return nil
		})
		return count, err
	}
}

func pdfcpuPageImages(ctx *model.Context, resources types.Dict) (int, error) {
	if resources == nil {
		return 0, nil
	}
	xobjObj, found := resources.Find("XObject")
	if !found {
		return 0, nil
	}
	xobjects, err := ctx.DereferenceDict(xobjObj)
	if err != nil || xobjects == nil {
		return 0, err
	}

	count := 0
	for _, ref := range xobjects {
		o, err := ctx.Dereference(ref)
		if err != nil {
			return 0, err
		}
		sd, ok := o.(types.StreamDict)
		if !ok {
			continue
		}
		if st := sd.Subtype(); st != nil && *st == "Image" {
			count++
		}
	}
	return count, nil
}

func ledongthucImageCount(log *logger.Logger) func(context.Context, string) (int, error) {
	return func(_ context.Context, path string) (int, error) {
		count := 0
		err := withLedongthuc(path, func(r *pdf.Reader) error {
			n := r.NumPage()
			for i := 1; i <= n; i++ {
				page := r.Page(i)
				if page.V.IsNull() {
					continue
				}
				found := 0
				xobjects := page.Resources().Key("XObject")
				for _, name := range xobjects.Keys() {
					if xobjects.Key(name).Key("Subtype").Name() == "Image" {
						found++
					}
				}
				log.Debug().Int("page", i).Int("images", found).Msg("page images")
				count += found
			}
			return nil
		})
		return count, err
	}
}

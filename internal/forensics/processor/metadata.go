package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/internal/forensics/pdfdate"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info dictionary keys some producers use for the last editor
var infoModifierKeys = []string{"LastModifiedBy", "LastSavedBy"}

// MetadataAnalyzer extracts document metadata. PDFs go through a two-library
// fallback chain, Word documents through one; whatever fails ends in a record
// built from the filesystem so a report is always produced.
type MetadataAnalyzer struct {
	pdf  *Chain[domain.MetadataRecord]
	docx *Chain[domain.MetadataRecord]
	log  *logger.Logger
}

// NewMetadataAnalyzer creates an analyzer with the default strategies
func NewMetadataAnalyzer(log *logger.Logger) *MetadataAnalyzer {
	log = log.WithComponent("metadata")
	return NewMetadataAnalyzerWith(log,
		[]Strategy[domain.MetadataRecord]{
			NewStrategy("pdfcpu", pdfcpuMetadata),
			NewStrategy("ledongthuc", ledongthucMetadata),
		},
		[]Strategy[domain.MetadataRecord]{
			NewStrategy("docx", docxMetadata),
		},
	)
}

// NewMetadataAnalyzerWith creates an analyzer with explicit strategy chains
func NewMetadataAnalyzerWith(log *logger.Logger, pdfStrategies, docxStrategies []Strategy[domain.MetadataRecord]) *MetadataAnalyzer {
	return &MetadataAnalyzer{
		pdf:  NewChain("pdf-metadata", log, pdfStrategies...),
		docx: NewChain("docx-metadata", log, docxStrategies...),
		log:  log,
	}
}

// Analyze returns the metadata record for the file at path. It never fails.
func (a *MetadataAnalyzer) Analyze(ctx context.Context, path string, info domain.FileInfo) domain.MetadataRecord {
	var rec domain.MetadataRecord

	switch {
	case domain.IsPDF(info.MimeType):
		rec = a.run(ctx, a.pdf, path)
	case domain.IsWordDocument(info.MimeType):
		rec = a.run(ctx, a.docx, path)
	default:
		rec = domain.NewMetadataRecord(info.MimeType)
		rec.Author = domain.NotAvailable
	}

	rec.Filename = info.Filename
	rec.Size = info.Size
	rec.Type = info.MimeType
	rec.LastModified = domain.FormatTimestamp(info.UploadedAt)
	return rec
}

func (a *MetadataAnalyzer) run(ctx context.Context, chain *Chain[domain.MetadataRecord], path string) domain.MetadataRecord {
	rec, strategy, err := chain.Run(ctx, path)
	if err != nil {
		a.log.Warn().Msg("using filesystem metadata fallback")
		return statMetadata(path)
	}
	a.log.Info().
		Str("strategy", strategy).
		Str("page_count", rec.PageCount.String()).
		Msg("metadata extracted")
	return rec
}

// statMetadata is the last-resort record, built from os.Stat only
func statMetadata(path string) domain.MetadataRecord {
	rec := domain.NewMetadataRecord("")
	rec.Author = domain.CouldNotExtract
	rec.Title = domain.CouldNotExtract
	rec.LastModifiedBy = domain.Unknown
	rec.PageCount = domain.UnknownPages

	if st, err := os.Stat(path); err == nil {
		mod := st.ModTime().Format(domain.NaiveISOLayout)
		rec.ModifiedDate = &mod
	}
	return rec
}

func pdfcpuMetadata(_ context.Context, path string) (domain.MetadataRecord, error) {
	rec := domain.NewMetadataRecord(domain.MIMEPDF)

	err := withPDFCPU(path, func(ctx *model.Context) error {
		info, err := pdfcpuInfo(ctx)
		if err != nil {
			return fmt.Errorf("info dict: %w", err)
		}

		if info != nil {
			rec.Producer = domain.NotSpecified
			for key, dst := range infoFields(&rec) {
				if v, ok := pdfcpuText(ctx, info, key); ok {
					*dst = v
				}
			}

			if s, ok := pdfcpuText(ctx, info, "CreationDate"); ok {
				rec.CreatedDate = pdfdate.ISO(s)
			}
			if s, ok := pdfcpuText(ctx, info, "ModDate"); ok {
				rec.ModifiedDate = pdfdate.ISO(s)
			}
		}

		// XMP is optional; a broken packet only loses the modifier
		if packet, err := pdfcpuXMP(ctx); err == nil {
			if v, err := xmpLookup(packet, xmpModifierKeys...); err == nil && v != "" {
				rec.LastModifiedBy = v
			}
		}
		if rec.LastModifiedBy == domain.NotSpecified {
			for _, key := range infoModifierKeys {
				if v, ok := pdfcpuText(ctx, info, key); ok {
					rec.LastModifiedBy = v
					break
				}
			}
		}

		pages, err := pdfcpuPages(ctx)
		if err != nil {
			return fmt.Errorf("page tree: %w", err)
		}
		rec.PageCount = domain.Pages(len(pages))
		return nil
	})
	return rec, err
}

func ledongthucMetadata(_ context.Context, path string) (domain.MetadataRecord, error) {
	rec := domain.NewMetadataRecord(domain.MIMEPDF)

	err := withLedongthuc(path, func(r *pdf.Reader) error {
		info := r.Trailer().Key("Info")
		if !info.IsNull() {
			rec.Producer = domain.NotSpecified
			for key, dst := range infoFields(&rec) {
				if v, ok := ledongthucText(info, key); ok {
					*dst = v
				}
			}

			if s, ok := ledongthucText(info, "CreationDate"); ok {
				rec.CreatedDate = pdfdate.ISO(s)
			}
			if s, ok := ledongthucText(info, "ModDate"); ok {
				rec.ModifiedDate = pdfdate.ISO(s)
			}
		}

		if packet, err := ledongthucXMP(r); err == nil && len(packet) > 0 {
			v, err := xmpLookup(packet, xmpModifierKeys[0])
			if err != nil {
				v, _ = xmpLookup(packet, xmpModifierKeys[1:]...)
			}
			if v != "" {
				rec.LastModifiedBy = v
			}
		}
		if rec.LastModifiedBy == domain.NotSpecified && !info.IsNull() {
			for _, key := range infoModifierKeys {
				if v, ok := ledongthucText(info, key); ok {
					rec.LastModifiedBy = v
					break
				}
			}
		}

		rec.PageCount = domain.Pages(r.NumPage())
		return nil
	})
	return rec, err
}

// infoFields maps Info dictionary keys to the record fields they fill
func infoFields(rec *domain.MetadataRecord) map[string]*string {
	return map[string]*string{
		"Author":   &rec.Author,
		"Title":    &rec.Title,
		"Subject":  &rec.Subject,
		"Creator":  &rec.Creator,
		"Keywords": &rec.Keywords,
		"Producer": &rec.Producer,
	}
}

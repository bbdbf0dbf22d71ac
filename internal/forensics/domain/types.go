package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MIME types the analyzers dispatch on
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDOC  = "application/msword"
)

// Placeholder values used when a metadata field cannot be read
const (
	NotSpecified    = "Not specified"
	NotAvailable    = "Not available for this file type"
	CouldNotExtract = "Could not extract"
	Unknown         = "Unknown"
)

// NaiveISOLayout formats a timestamp without zone information
const NaiveISOLayout = "2006-01-02T15:04:05"

// IsPDF reports whether mimeType is a PDF document
func IsPDF(mimeType string) bool {
	return mimeType == MIMEPDF
}

// IsWordDocument reports whether mimeType is routed to the Word analyzers
func IsWordDocument(mimeType string) bool {
	return mimeType == MIMEDOCX || mimeType == MIMEDOC
}

// IsImage reports whether mimeType is a single raster image
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// FormatTimestamp renders t as ISO-8601 for API responses
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// FileInfo describes one uploaded file. Created once per request and shared read-only
// with every analyzer.
type FileInfo struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"type"`
	UploadedAt time.Time `json:"uploadTime"`
}

// PageCount is either a known number of pages or the "Unknown" sentinel
type PageCount struct {
	Pages int
	Known bool
}

// Pages returns a known page count
func Pages(n int) PageCount {
	return PageCount{Pages: n, Known: true}
}

// UnknownPages is the sentinel page count for records built without parsing the file
var UnknownPages = PageCount{}

func (p PageCount) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(Unknown)
	}
	return json.Marshal(p.Pages)
}

func (p *PageCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Pages(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != Unknown {
		return fmt.Errorf("invalid page count %q", s)
	}
	*p = UnknownPages
	return nil
}

func (p PageCount) String() string {
	if !p.Known {
		return Unknown
	}
	return fmt.Sprintf("%d", p.Pages)
}

// MetadataRecord is the document metadata section of the report.
// Nil dates serialize as null.
type MetadataRecord struct {
	Filename       string    `json:"filename"`
	Size           int64     `json:"size"`
	LastModified   string    `json:"lastModified"`
	Type           string    `json:"type"`
	Author         string    `json:"author"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject"`
	Creator        string    `json:"creator"`
	Producer       string    `json:"producer,omitempty"`
	Keywords       string    `json:"keywords"`
	LastModifiedBy string    `json:"lastModifiedBy"`
	CreatedDate    *string   `json:"createdDate"`
	ModifiedDate   *string   `json:"modifiedDate"`
	PageCount      PageCount `json:"pageCount"`
}

// NewMetadataRecord returns a record with every string field set to "Not specified"
func NewMetadataRecord(mimeType string) MetadataRecord {
	return MetadataRecord{
		Type:           mimeType,
		Author:         NotSpecified,
		Title:          NotSpecified,
		Subject:        NotSpecified,
		Creator:        NotSpecified,
		Keywords:       NotSpecified,
		LastModifiedBy: NotSpecified,
		PageCount:      UnknownPages,
	}
}

// TextAnalysis is the text section of the report. SuspiciousWords is a penalty
// score, not a literal count of words.
type TextAnalysis struct {
	TotalWords      int      `json:"totalWords"`
	SuspiciousWords int      `json:"suspiciousWords"`
	Confidence      int      `json:"confidence"`
	Flags           []string `json:"flags"`
}

// ImageAnalysis is the embedded-image section of the report.
// TamperedImages and SuspiciousRegions are reserved and always empty.
type ImageAnalysis struct {
	ImagesFound       int      `json:"imagesFound"`
	TamperedImages    int      `json:"tamperedImages"`
	Confidence        int      `json:"confidence"`
	SuspiciousRegions []string `json:"suspiciousRegions"`
}

// SignatureResult is the digital signature section of the report
type SignatureResult struct {
	HasDigitalSignature bool   `json:"hasDigitalSignature"`
	IsValid             bool   `json:"isValid"`
	SignerName          string `json:"signerName"`
	SignedDate          string `json:"signedDate"`
	Certificate         string `json:"certificate"`
}

// AnalysisReport aggregates all analyzer outputs for one upload
type AnalysisReport struct {
	Success        bool            `json:"success"`
	Metadata       MetadataRecord  `json:"metadata"`
	TextAnalysis   TextAnalysis    `json:"textAnalysis"`
	ImageAnalysis  ImageAnalysis   `json:"imageAnalysis"`
	SignatureCheck SignatureResult `json:"signatureCheck"`
	AnalysisTime   string          `json:"analysisTime"`
}

package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/nguyenthenguyen/docx"
)

const (
	nsWordML      = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	docxCorePath  = "docProps/core.xml"
	paragraphsPer = 25
)

var errEmptyDocument = errors.New("docx: word/document.xml is missing or empty")

// docxBody is the readable text of a Word document body
type docxBody struct {
	// Paragraphs holds every body-level paragraph, empty ones included
	Paragraphs []string
	// Cells holds the text of each cell of the body-level tables
	Cells []string
}

// Text joins non-empty paragraphs and then non-empty table cells with spaces
func (b docxBody) Text() string {
	var parts []string
	for _, p := range b.Paragraphs {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	for _, c := range b.Cells {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// EstimatedPages is a layout-free guess: one page per 25 paragraphs, at least one
func (b docxBody) EstimatedPages() int {
	return max(1, len(b.Paragraphs)/paragraphsPer)
}

// readDocxBody opens a .docx and parses word/document.xml
func readDocxBody(path string) (docxBody, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return docxBody{}, fmt.Errorf("docx open: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return docxBody{}, errEmptyDocument
	}
	return parseDocxBody(strings.NewReader(content))
}

func parseDocxBody(r io.Reader) (docxBody, error) {
	var body docxBody
	dec := xml.NewDecoder(r)

	var (
		stack     []string
		para      *strings.Builder
		paraDepth int
		cell      *strings.Builder
		cellDepth int
		cellParas int
		inText    bool
	)

	write := func(s string) {
		if para != nil {
			para.WriteString(s)
		}
		if cell != nil {
			cell.WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return body, fmt.Errorf("docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := ""
			if t.Name.Space == nsWordML {
				name = t.Name.Local
			}
			stack = append(stack, name)
			depth := len(stack)

			switch name {
			case "p":
				if depth >= 2 && stack[depth-2] == "body" {
					para = &strings.Builder{}
					paraDepth = depth
				}
				if cell != nil {
					if cellParas > 0 {
						cell.WriteString("\n")
					}
					cellParas++
				}
			case "tc":
				if cell == nil && depth >= 4 && stack[depth-4] == "body" {
					cell = &strings.Builder{}
					cellDepth = depth
					cellParas = 0
				}
			case "t":
				inText = true
			case "tab":
				write("\t")
			case "br", "cr":
				write("\n")
			}
		case xml.CharData:
			if inText {
				write(string(t))
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			depth := len(stack)
			name := stack[depth-1]
			stack = stack[:depth-1]

			switch {
			case name == "t":
				inText = false
			case name == "p" && para != nil && depth == paraDepth:
				body.Paragraphs = append(body.Paragraphs, para.String())
				para = nil
			case name == "tc" && cell != nil && depth == cellDepth:
				body.Cells = append(body.Cells, cell.String())
				cell = nil
			}
		}
	}
	return body, nil
}

// docxCoreProps is docProps/core.xml
type docxCoreProps struct {
	Title          string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Subject        string `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Creator        string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Keywords       string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties keywords"`
	LastModifiedBy string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties lastModifiedBy"`
	Created        string `xml:"http://purl.org/dc/terms/ created"`
	Modified       string `xml:"http://purl.org/dc/terms/ modified"`
}

// readDocxCoreProps reads the core properties part. A package without one
// yields empty properties.
func readDocxCoreProps(path string) (docxCoreProps, error) {
	var props docxCoreProps

	zr, err := zip.OpenReader(path)
	if err != nil {
		return props, fmt.Errorf("docx archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxCorePath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return props, fmt.Errorf("open %s: %w", docxCorePath, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return props, fmt.Errorf("read %s: %w", docxCorePath, err)
		}
		if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&props); err != nil {
			return props, fmt.Errorf("parse %s: %w", docxCorePath, err)
		}
		break
	}
	return props, nil
}

// coreDate parses a W3CDTF core property date into the same naive form as
// PDF dates. Zoned values are converted to UTC first.
func coreDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		iso := t.UTC().Format(domain.NaiveISOLayout)
		return &iso
	}
	for _, layout := range []string{domain.NaiveISOLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format(domain.NaiveISOLayout)
			return &iso
		}
	}
	return nil
}

func docxMetadata(_ context.Context, path string) (domain.MetadataRecord, error) {
	rec := domain.NewMetadataRecord(domain.MIMEDOCX)

	body, err := readDocxBody(path)
	if err != nil {
		return rec, err
	}
	props, err := readDocxCoreProps(path)
	if err != nil {
		return rec, err
	}

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&rec.Author, props.Creator)
	set(&rec.Creator, props.Creator)
	set(&rec.Title, props.Title)
	set(&rec.Subject, props.Subject)
	set(&rec.Keywords, props.Keywords)
	set(&rec.LastModifiedBy, props.LastModifiedBy)
	rec.CreatedDate = coreDate(props.Created)
	rec.ModifiedDate = coreDate(props.Modified)
	rec.PageCount = domain.Pages(body.EstimatedPages())
	return rec, nil
}

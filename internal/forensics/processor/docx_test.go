package processor

import (
	"strings"
	"testing"

	"github.com/docforensics/forensics-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocxBody(t *testing.T) {
	doc := testutil.DocxDocument(
		testutil.DocxParagraph("Title") +
			`<w:p><w:r><w:t>Tab</w:t><w:tab/><w:t>bed</w:t><w:br/><w:t>next</w:t></w:r></w:p>` +
			testutil.DocxParagraph("") +
			`<w:tbl><w:tr>` +
			`<w:tc>` + testutil.DocxParagraph("A1") + testutil.DocxParagraph("A1 second") + `</w:tc>` +
			`<w:tc>` + testutil.DocxParagraph("") + `</w:tc>` +
			`</w:tr></w:tbl>` +
			`<w:sectPr/>`,
	)

	body, err := parseDocxBody(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Title", "Tab\tbed\nnext", ""}, body.Paragraphs)
	assert.Equal(t, []string{"A1\nA1 second", ""}, body.Cells)
	assert.Equal(t, "Title Tab\tbed\nnext A1\nA1 second", body.Text())
}

func TestDocxBody_EstimatedPages(t *testing.T) {
	tests := []struct {
		paragraphs int
		want       int
	}{
		{0, 1},
		{24, 1},
		{25, 1},
		{49, 1},
		{50, 2},
		{260, 10},
	}

	for _, tt := range tests {
		body := docxBody{Paragraphs: make([]string, tt.paragraphs)}
		assert.Equal(t, tt.want, body.EstimatedPages(), "%d paragraphs", tt.paragraphs)
	}
}

func TestParseDocxBody_Malformed(t *testing.T) {
	_, err := parseDocxBody(strings.NewReader(`<w:document ` + `xmlns:w="x"><w:body><w:p>`))
	assert.Error(t, err)
}

func TestReadDocxBody_MissingDocument(t *testing.T) {
	path := testutil.WriteFile(t, "empty.docx", testutil.BuildDocx(t, map[string]string{
		"docProps/core.xml": testutil.DocxCore("a", "b", "c", ""),
	}))

	_, err := readDocxBody(path)
	assert.Error(t, err)
}

func TestReadDocxCoreProps_Absent(t *testing.T) {
	path := testutil.WriteFile(t, "bare.docx", testutil.BuildDocx(t, map[string]string{
		"word/document.xml": testutil.DocxDocument(""),
	}))

	props, err := readDocxCoreProps(path)
	require.NoError(t, err)
	assert.Equal(t, docxCoreProps{}, props)
}

func TestCoreDate(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"", nil},
		{"2024-02-03T04:05:06Z", testutil.PtrString("2024-02-03T04:05:06")},
		{"2024-02-03T04:05:06+02:00", testutil.PtrString("2024-02-03T02:05:06")},
		{"2024-02-03T23:30:00-01:00", testutil.PtrString("2024-02-04T00:30:00")},
		{"2024-02-03T04:05:06", testutil.PtrString("2024-02-03T04:05:06")},
		{"2024-02-03", testutil.PtrString("2024-02-03T00:00:00")},
		{"yesterday", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, coreDate(tt.in))
		})
	}
}

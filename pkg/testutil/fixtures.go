// Package testutil builds document fixtures and HTTP helpers for tests.
// PDFs are assembled byte by byte with a computed xref table so both PDF
// libraries can open them.
package testutil

import (
	"archive/zip"
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hhrutter/pkcs7"
	"github.com/stretchr/testify/require"
)

// PDFBuilder assembles a classic-xref PDF with correct byte offsets.
// Objects are numbered from 1 in the order they are reserved.
type PDFBuilder struct {
	objs []string
}

// Reserve allocates an object number to be filled in later with Set
func (b *PDFBuilder) Reserve() int {
	b.objs = append(b.objs, "")
	return len(b.objs)
}

func (b *PDFBuilder) Set(n int, body string) {
	b.objs[n-1] = body
}

// Add appends an object and returns its number
func (b *PDFBuilder) Add(body string) int {
	n := b.Reserve()
	b.Set(n, body)
	return n
}

// PDFStream renders a stream object with its /Length
func PDFStream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// Bytes renders the file with the given /Root and optional /Info object
func (b *PDFBuilder) Bytes(root, info int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(b.objs)+1, root)
	if info > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// signaturePadding is the zero fill after a /Contents blob, as signing tools
// reserve the space before the signature size is known
const signaturePadding = 2048

// PDFSpec describes the fixture produced by BuildPDF
type PDFSpec struct {
	// PageTexts holds one entry per page; an empty string draws nothing
	PageTexts []string
	// Images is the number of image XObjects on the first page
	Images int
	// Info entries are written as literal strings
	Info map[string]string
	// XMP is attached to the catalog as /Metadata
	XMP string
	// SignatureCert adds a signed /Sig form field carrying this DER certificate
	SignatureCert []byte
	// SignatureContents adds a /adbe.pkcs7.detached /Sig form field with this
	// PKCS#7 blob zero-padded in /Contents. It takes precedence over SignatureCert.
	SignatureContents []byte
	// SignerName is written as /Name in the signature dictionary
	SignerName string
	// SigningDate is written as /M in the signature dictionary
	SigningDate string
}

// BuildPDF renders spec as a one-font PDF with Helvetica text
func BuildPDF(spec PDFSpec) []byte {
	if len(spec.PageTexts) == 0 {
		spec.PageTexts = []string{""}
	}

	b := &PDFBuilder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var images []int
	for i := 0; i < spec.Images; i++ {
		images = append(images, b.Add(PDFStream(
			"/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8",
			"\x00",
		)))
	}

	var kids []string
	var firstPage int
	for i, text := range spec.PageTexts {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		contents := b.Add(PDFStream("", content))

		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if i == 0 && len(images) > 0 {
			var xobj []string
			for j, img := range images {
				xobj = append(xobj, fmt.Sprintf("/Im%d %d 0 R", j+1, img))
			}
			resources += fmt.Sprintf(" /XObject << %s >>", strings.Join(xobj, " "))
		}

		page := b.Add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>",
			pages, resources, contents,
		))
		if i == 0 {
			firstPage = page
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))

	catalogDict := fmt.Sprintf("/Type /Catalog /Pages %d 0 R", pages)
	if spec.XMP != "" {
		xmp := b.Add(PDFStream("/Type /Metadata /Subtype /XML", spec.XMP))
		catalogDict += fmt.Sprintf(" /Metadata %d 0 R", xmp)
	}
	if spec.SignatureCert != nil || spec.SignatureContents != nil {
		var v string
		if spec.SignatureContents != nil {
			padded := append(append([]byte{}, spec.SignatureContents...), make([]byte, signaturePadding)...)
			v = fmt.Sprintf("/Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached /Contents <%X>", padded)
		} else {
			v = fmt.Sprintf("/Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.x509.rsa_sha1 /Cert <%X>", spec.SignatureCert)
		}
		if spec.SignerName != "" {
			v += fmt.Sprintf(" /Name (%s)", spec.SignerName)
		}
		if spec.SigningDate != "" {
			v += fmt.Sprintf(" /M (%s)", spec.SigningDate)
		}
		sig := b.Add("<< " + v + " >>")
		field := b.Add(fmt.Sprintf(
			"<< /FT /Sig /T (Signature1) /V %d 0 R /Type /Annot /Subtype /Widget /Rect [0 0 0 0] /P %d 0 R >>",
			sig, firstPage,
		))
		catalogDict += fmt.Sprintf(" /AcroForm << /Fields [%d 0 R] /SigFlags 3 >>", field)
	}
	b.Set(catalog, "<< "+catalogDict+" >>")

	info := 0
	if len(spec.Info) > 0 {
		keys := make([]string, 0, len(spec.Info))
		for k := range spec.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var entries []string
		for _, k := range keys {
			entries = append(entries, fmt.Sprintf("/%s (%s)", k, spec.Info[k]))
		}
		info = b.Add("<< " + strings.Join(entries, " ") + " >>")
	}

	return b.Bytes(catalog, info)
}

// WriteFile writes data to a file under t.TempDir and returns its path
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

const (
	wordNS  = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

// DocxDocument wraps body XML in a word/document.xml root
func DocxDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

// DocxParagraph renders one w:p; empty text gives an empty paragraph
func DocxParagraph(text string) string {
	if text == "" {
		return "<w:p/>"
	}
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// DocxCore renders docProps/core.xml
func DocxCore(author, title, modifiedBy, created string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:creator>` + author + `</dc:creator>
<dc:title>` + title + `</dc:title>
<cp:lastModifiedBy>` + modifiedBy + `</cp:lastModifiedBy>
<dcterms:created xsi:type="dcterms:W3CDTF">` + created + `</dcterms:created>
</cp:coreProperties>`
}

// BuildDocx zips parts into a package; document.xml.rels is added when missing
func BuildDocx(t testing.TB, parts map[string]string) []byte {
	t.Helper()
	if _, ok := parts["word/_rels/document.xml.rels"]; !ok {
		parts["word/_rels/document.xml.rels"] = relsXML
	}

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// SelfSignedCert returns a DER certificate for commonName
func SelfSignedCert(t testing.TB, commonName string) []byte {
	t.Helper()
	cert, _ := selfSigned(t, commonName)
	return cert.Raw
}

// DetachedPKCS7 signs content with a fresh self-signed certificate for
// commonName and returns the detached PKCS#7 SignedData.
func DetachedPKCS7(t testing.TB, commonName string, content []byte) []byte {
	t.Helper()
	cert, key := selfSigned(t, commonName)

	sd, err := pkcs7.NewSignedData(content)
	require.NoError(t, err)
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	require.NoError(t, sd.AddSigner(cert, key, pkcs7.SignerInfoConfig{}))
	sd.Detach()

	der, err := sd.Finish()
	require.NoError(t, err)
	return der
}

func selfSigned(t testing.TB, commonName string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"Example Org"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

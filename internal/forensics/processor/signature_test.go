package processor

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/docforensics/forensics-api/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func docxSignatureXML(subject, signingTime, cert string) string {
	x := `<?xml version="1.0" encoding="UTF-8"?>
<Signature xmlns="http://www.w3.org/2000/09/xmldsig#" Id="idPackageSignature">
 <SignedInfo/>
 <SignatureValue>AAAA</SignatureValue>
 <KeyInfo><X509Data>`
	if subject != "" {
		x += `<X509SubjectName>` + subject + `</X509SubjectName>`
	}
	if cert != "" {
		x += `<X509Certificate>` + cert + `</X509Certificate>`
	}
	x += `</X509Data></KeyInfo>
 <Object><SignatureProperties><SignatureProperty>
  <mdssi:SignatureTime xmlns:mdssi="http://schemas.openxmlformats.org/package/2006/digital-signature">
   <mdssi:Format>YYYY-MM-DDThh:mm:ssTZD</mdssi:Format>
   <mdssi:Value>` + signingTime + `</mdssi:Value>
  </mdssi:SignatureTime>
 </SignatureProperty></SignatureProperties></Object>
</Signature>`
	return x
}

func signedDocx(t *testing.T, sigXML string) string {
	return testutil.WriteFile(t, "signed.docx", testutil.BuildDocx(t, map[string]string{
		"word/document.xml":                     testutil.DocxDocument(testutil.DocxParagraph("signed")),
		"_xmlsignatures/origin.sigs":            "",
		"_xmlsignatures/sig1.xml":               sigXML,
		"_xmlsignatures/_rels/origin.sigs.rels": "<Relationships/>",
	}))
}

func docxInfo() domain.FileInfo { return domain.FileInfo{MimeType: domain.MIMEDOCX} }

func TestSignatureAnalyzer_UnsignedPDF(t *testing.T) {
	path := testutil.WriteFile(t, "doc.pdf", testutil.BuildPDF(testutil.PDFSpec{PageTexts: []string{"hello"}}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.Equal(t, domain.SignatureResult{
		SignerName:  "No signature found",
		Certificate: "No digital signature present",
	}, got)
}

func TestSignatureAnalyzer_SignedPDF(t *testing.T) {
	cert := testutil.SelfSignedCert(t, "Signing Authority")
	path := testutil.WriteFile(t, "signed.pdf", testutil.BuildPDF(testutil.PDFSpec{
		PageTexts:     []string{"contract"},
		SignatureCert: cert,
		SignerName:    "Jane Signer",
		SigningDate:   "D:20240102030405Z",
	}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.True(t, got.HasDigitalSignature)
	assert.True(t, got.IsValid)
	assert.Equal(t, "Jane Signer", got.SignerName)
	assert.Equal(t, "2024-01-02T03:04:05", got.SignedDate)
	assert.Contains(t, got.Certificate, "Signing Authority")
	assert.Contains(t, got.Certificate, "chain of trust not verified")
}

func TestSignatureAnalyzer_PDFSignerFromCertificate(t *testing.T) {
	cert := testutil.SelfSignedCert(t, "Cert Holder")
	path := testutil.WriteFile(t, "signed.pdf", testutil.BuildPDF(testutil.PDFSpec{SignatureCert: cert}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.True(t, got.IsValid)
	assert.Equal(t, "Cert Holder", got.SignerName)
	assert.Empty(t, got.SignedDate)
}

func TestSignatureAnalyzer_PKCS7DetachedPDF(t *testing.T) {
	blob := testutil.DetachedPKCS7(t, "Detached Signer", []byte("signed byte ranges"))
	path := testutil.WriteFile(t, "signed.pdf", testutil.BuildPDF(testutil.PDFSpec{
		PageTexts:         []string{"contract"},
		SignatureContents: blob,
		SigningDate:       "D:20240102030405Z",
	}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.True(t, got.HasDigitalSignature)
	assert.True(t, got.IsValid)
	assert.Equal(t, "Detached Signer", got.SignerName)
	assert.Equal(t, "2024-01-02T03:04:05", got.SignedDate)
	assert.Contains(t, got.Certificate, "Detached Signer")
}

func TestSignatureAnalyzer_PKCS7Garbage(t *testing.T) {
	path := testutil.WriteFile(t, "signed.pdf", testutil.BuildPDF(testutil.PDFSpec{
		SignatureContents: []byte{0x30, 0x03, 0x02, 0x01, 0x01},
	}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.False(t, got.HasDigitalSignature)
	assert.Equal(t, "Error", got.SignerName)
	assert.True(t, strings.HasPrefix(got.Certificate, "Error checking signature: "))
}

func TestSignatureAnalyzer_PDFBadCertificate(t *testing.T) {
	path := testutil.WriteFile(t, "signed.pdf", testutil.BuildPDF(testutil.PDFSpec{
		SignatureCert: []byte{0x30, 0x03, 0x02, 0x01, 0x01},
	}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.False(t, got.HasDigitalSignature)
	assert.False(t, got.IsValid)
	assert.Equal(t, "Error", got.SignerName)
	assert.True(t, strings.HasPrefix(got.Certificate, "Error checking signature: "))
}

func TestSignatureAnalyzer_UnreadablePDF(t *testing.T) {
	path := testutil.WriteFile(t, "broken.pdf", []byte("garbage"))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, pdfOnly())

	assert.Equal(t, "Error", got.SignerName)
	assert.True(t, strings.HasPrefix(got.Certificate, "Error checking signature: "))
}

func TestSignatureAnalyzer_SignedDocx(t *testing.T) {
	cert := base64.StdEncoding.EncodeToString(testutil.SelfSignedCert(t, "Office Signer"))
	// certificates are usually wrapped in the XML
	wrapped := cert[:40] + "\n   " + cert[40:]
	path := signedDocx(t, docxSignatureXML("CN=Office Signer, O=Example Org", "2024-05-06T07:08:09Z", wrapped))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, docxInfo())

	assert.True(t, got.HasDigitalSignature)
	assert.True(t, got.IsValid)
	assert.Equal(t, "Office Signer", got.SignerName)
	assert.Equal(t, "2024-05-06T07:08:09Z", got.SignedDate)
}

func TestSignatureAnalyzer_DocxWithoutCertificate(t *testing.T) {
	path := signedDocx(t, docxSignatureXML("CN=Someone", "2024-05-06T07:08:09Z", ""))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, docxInfo())

	assert.True(t, got.HasDigitalSignature)
	assert.False(t, got.IsValid)
	assert.Equal(t, "CN=Someone", got.SignerName)
	assert.Equal(t, "Signature present but no certificate embedded", got.Certificate)
}

func TestSignatureAnalyzer_DocxBadCertificate(t *testing.T) {
	path := signedDocx(t, docxSignatureXML("CN=Someone", "", "!!!not-base64!!!"))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, docxInfo())

	assert.False(t, got.HasDigitalSignature)
	assert.Equal(t, "Error", got.SignerName)
	assert.Contains(t, got.Certificate, "Error checking signature: ")
}

func TestSignatureAnalyzer_UnsignedDocx(t *testing.T) {
	path := testutil.WriteFile(t, "plain.docx", testutil.BuildDocx(t, map[string]string{
		"word/document.xml": testutil.DocxDocument(testutil.DocxParagraph("unsigned")),
	}))

	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), path, docxInfo())

	assert.False(t, got.HasDigitalSignature)
	assert.Equal(t, "No signature found", got.SignerName)
}

func TestSignatureAnalyzer_NotApplicable(t *testing.T) {
	got := NewSignatureAnalyzer(logger.Nop()).Analyze(context.Background(), "/unused", domain.FileInfo{MimeType: "image/jpeg"})

	assert.Equal(t, domain.SignatureResult{
		SignerName:  "Not applicable",
		Certificate: "File type does not support digital signatures",
	}, got)
}

func TestXMLSignatureFields_XAdESSigningTime(t *testing.T) {
	x := `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#" xmlns:xd="http://uri.etsi.org/01903/v1.3.2#">
<ds:Object><xd:QualifyingProperties><xd:SignedProperties><xd:SignedSignatureProperties>
<xd:SigningTime>2023-11-12T10:00:00Z</xd:SigningTime>
</xd:SignedSignatureProperties></xd:SignedProperties></xd:QualifyingProperties></ds:Object>
</ds:Signature>`

	fields, err := xmlSignatureFields(strings.NewReader(x))
	assert.NoError(t, err)
	assert.Equal(t, "2023-11-12T10:00:00Z", fields.SigningTime)
	assert.Empty(t, fields.Certificate)
}

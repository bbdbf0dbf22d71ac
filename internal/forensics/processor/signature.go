package processor

import (
	"archive/zip"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/internal/forensics/pdfdate"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/hhrutter/pkcs7"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Archive directory holding OPC digital signature parts
const docxSignaturePrefix = "_xmlsignatures/"

var errNoCertificate = errors.New("no certificate embedded in signature")

// SignatureAnalyzer looks for an embedded digital signature. A certificate
// that parses is reported as valid; expiry, chain of trust and revocation are
// not checked.
type SignatureAnalyzer struct {
	log *logger.Logger
}

// NewSignatureAnalyzer creates a signature analyzer
func NewSignatureAnalyzer(log *logger.Logger) *SignatureAnalyzer {
	return &SignatureAnalyzer{log: log.WithComponent("signature")}
}

// foundSignature is what a container walk yields before it is rendered
type foundSignature struct {
	Signer string
	Date   string
	Cert   *x509.Certificate
}

// Analyze checks the file at path for a digital signature
func (a *SignatureAnalyzer) Analyze(_ context.Context, path string, info domain.FileInfo) domain.SignatureResult {
	var (
		sig *foundSignature
		err error
	)

	switch {
	case domain.IsPDF(info.MimeType):
		err = guard(func() (err error) {
			sig, err = pdfSignature(path)
			return err
		})
	case domain.IsWordDocument(info.MimeType):
		err = guard(func() (err error) {
			sig, err = docxSignature(path)
			return err
		})
	default:
		return notApplicable()
	}

	result := renderSignature(sig, err)
	a.log.Info().
		Bool("has_signature", result.HasDigitalSignature).
		Bool("valid", result.IsValid).
		Msg("signature check completed")
	if err != nil {
		a.log.Warn().Err(err).Msg("signature check failed")
	}
	return result
}

func renderSignature(sig *foundSignature, err error) domain.SignatureResult {
	switch {
	case err != nil && !errors.Is(err, errNoCertificate):
		return domain.SignatureResult{
			SignerName:  "Error",
			Certificate: "Error checking signature: " + err.Error(),
		}
	case sig == nil:
		return domain.SignatureResult{
			SignerName:  "No signature found",
			Certificate: "No digital signature present",
		}
	case sig.Cert == nil:
		return domain.SignatureResult{
			HasDigitalSignature: true,
			SignerName:          orUnknown(sig.Signer),
			SignedDate:          sig.Date,
			Certificate:         "Signature present but no certificate embedded",
		}
	}

	signer := sig.Signer
	if signer == "" {
		signer = sig.Cert.Subject.CommonName
	}
	return domain.SignatureResult{
		HasDigitalSignature: true,
		IsValid:             true,
		SignerName:          orUnknown(signer),
		SignedDate:          sig.Date,
		Certificate: fmt.Sprintf("Certificate parsed: subject %q, issued by %q (chain of trust not verified)",
			sig.Cert.Subject.String(), sig.Cert.Issuer.String()),
	}
}

func notApplicable() domain.SignatureResult {
	return domain.SignatureResult{
		SignerName:  "Not applicable",
		Certificate: "File type does not support digital signatures",
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.Unknown
	}
	return s
}

// pdfSignature returns the first signed /Sig field of the AcroForm, or nil
func pdfSignature(path string) (*foundSignature, error) {
	var sig *foundSignature
	err := withPDFCPU(path, func(ctx *model.Context) error {
		v, err := firstSignatureValue(ctx)
		if err != nil || v == nil {
			return err
		}

		sig = &foundSignature{}
		if name, ok := pdfcpuText(ctx, v, "Name"); ok {
			sig.Signer = name
		}
		if m, ok := pdfcpuText(ctx, v, "M"); ok {
			if iso := pdfdate.ISO(m); iso != nil {
				sig.Date = *iso
			}
		}

		sig.Cert, err = pdfSignatureCert(ctx, v)
		if errors.Is(err, errNoCertificate) {
			return nil
		}
		return err
	})
	return sig, err
}

// firstSignatureValue walks /AcroForm /Fields, including /Kids, for a field
// of type /Sig that carries a /V signature dictionary.
func firstSignatureValue(ctx *model.Context) (types.Dict, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	formObj, found := root.Find("AcroForm")
	if !found {
		return nil, nil
	}
	form, err := ctx.DereferenceDict(formObj)
	if err != nil || form == nil {
		return nil, err
	}
	fieldsObj, found := form.Find("Fields")
	if !found {
		return nil, nil
	}

	var walk func(obj types.Object, inheritedFT string, depth int) (types.Dict, error)
	walk = func(obj types.Object, inheritedFT string, depth int) (types.Dict, error) {
		if depth > 32 {
			return nil, fmt.Errorf("form field tree too deep")
		}
		o, err := ctx.Dereference(obj)
		if err != nil {
			return nil, err
		}

		switch f := o.(type) {
		case types.Array:
			for _, kid := range f {
				if v, err := walk(kid, inheritedFT, depth+1); err != nil || v != nil {
					return v, err
				}
			}
		case types.Dict:
			ft := inheritedFT
			if name := f.NameEntry("FT"); name != nil {
				ft = *name
			}
			if ft == "Sig" {
				if vObj, ok := f.Find("V"); ok {
					v, err := ctx.DereferenceDict(vObj)
					if err != nil || v != nil {
						return v, err
					}
				}
			}
			if kids, ok := f.Find("Kids"); ok {
				return walk(kids, ft, depth+1)
			}
		}
		return nil, nil
	}
	return walk(fieldsObj, "", 0)
}

// pdfSignatureCert reads the signing certificate from /Cert (x509.rsa_sha1)
// or from the PKCS#7 blob in /Contents.
func pdfSignatureCert(ctx *model.Context, v types.Dict) (*x509.Certificate, error) {
	if certObj, found := v.Find("Cert"); found {
		o, err := ctx.Dereference(certObj)
		if err != nil {
			return nil, err
		}
		if arr, ok := o.(types.Array); ok && len(arr) > 0 {
			if o, err = ctx.Dereference(arr[0]); err != nil {
				return nil, err
			}
		}
		der, err := literalBytes(o)
		if err != nil {
			return nil, fmt.Errorf("/Cert: %w", err)
		}
		return x509.ParseCertificate(der)
	}

	contents, err := pdfcpuBytes(ctx, v, "Contents")
	if err != nil {
		return nil, fmt.Errorf("/Contents: %w", err)
	}
	if len(contents) == 0 {
		return nil, errNoCertificate
	}

	p7, err := pkcs7.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("pkcs7: %w", err)
	}
	if cert := p7.GetOnlySigner(); cert != nil {
		return cert, nil
	}
	if len(p7.Certificates) > 0 {
		return p7.Certificates[0], nil
	}
	return nil, errNoCertificate
}

// docxSignature reads the first part under _xmlsignatures/, or returns nil
// when the package is unsigned.
func docxSignature(path string) (*foundSignature, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("docx archive: %w", err)
	}
	defer zr.Close()

	var parts []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, docxSignaturePrefix) && strings.HasSuffix(f.Name, ".xml") {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })

	rc, err := parts[0].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	fields, err := xmlSignatureFields(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", parts[0].Name, err)
	}

	sig := &foundSignature{Signer: fields.Subject, Date: fields.SigningTime}
	if fields.Certificate == "" {
		return sig, nil
	}
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(fields.Certificate), ""))
	if err != nil {
		return nil, fmt.Errorf("X509Certificate: %w", err)
	}
	if sig.Cert, err = x509.ParseCertificate(der); err != nil {
		return nil, err
	}
	if cn := sig.Cert.Subject.CommonName; cn != "" {
		sig.Signer = cn
	}
	return sig, nil
}

// signatureFields are the XML-DSig values reported to the caller
type signatureFields struct {
	Subject     string
	SigningTime string
	Certificate string
}

// xmlSignatureFields reads the first X509SubjectName, X509Certificate and
// signing time (XAdES SigningTime or OPC SignatureTime/Value) from an
// XML-DSig document. Elements are matched by local name.
func xmlSignatureFields(r io.Reader) (signatureFields, error) {
	var fields signatureFields
	dec := xml.NewDecoder(r)

	var stack []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fields, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			v := strings.TrimSpace(string(t))
			if v == "" {
				continue
			}
			switch top := stack[len(stack)-1]; {
			case top == "X509SubjectName" && fields.Subject == "":
				fields.Subject = v
			case top == "X509Certificate" && fields.Certificate == "":
				fields.Certificate = v
			case top == "SigningTime" && fields.SigningTime == "":
				fields.SigningTime = v
			case top == "Value" && len(stack) >= 2 && stack[len(stack)-2] == "SignatureTime" && fields.SigningTime == "":
				fields.SigningTime = v
			}
		}
	}
	return fields, nil
}

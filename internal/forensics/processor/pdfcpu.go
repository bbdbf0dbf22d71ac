package processor

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disablePDFCPUConfig sync.Once

// withPDFCPU opens path with pdfcpu's full object model and keeps the file
// open for the duration of fn.
func withPDFCPU(path string, fn func(ctx *model.Context) error) error {
	// pdfcpu otherwise writes a config directory under the user's home on first use
	disablePDFCPUConfig.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}
	return fn(ctx)
}

// pdfcpuPage is one leaf of the page tree with its effective resources
type pdfcpuPage struct {
	Dict      types.Dict
	Resources types.Dict
}

// pdfcpuPages walks the page tree from the catalog, resolving inherited
// /Resources the way a viewer would.
func pdfcpuPages(ctx *model.Context) ([]pdfcpuPage, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	pagesObj, found := root.Find("Pages")
	if !found {
		return nil, fmt.Errorf("catalog has no /Pages")
	}

	var pages []pdfcpuPage
	visited := map[int]bool{}

	var walk func(obj types.Object, inherited types.Dict, depth int) error
	walk = func(obj types.Object, inherited types.Dict, depth int) error {
		if depth > 64 {
			return fmt.Errorf("page tree too deep")
		}
		if ref, ok := obj.(types.IndirectRef); ok {
			nr := ref.ObjectNumber.Value()
			if visited[nr] {
				return fmt.Errorf("page tree cycle at object %d", nr)
			}
			visited[nr] = true
		}

		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}

		resources := inherited
		if resObj, ok := d.Find("Resources"); ok {
			if res, err := ctx.DereferenceDict(resObj); err == nil && res != nil {
				resources = res
			}
		}

		kidsObj, hasKids := d.Find("Kids")
		if t := d.Type(); (t != nil && *t == "Pages") || hasKids {
			kidsDeref, err := ctx.Dereference(kidsObj)
			if err != nil {
				return err
			}
			kids, _ := kidsDeref.(types.Array)
			for _, kid := range kids {
				if err := walk(kid, resources, depth+1); err != nil {
					return err
				}
			}
			return nil
		}

		pages = append(pages, pdfcpuPage{Dict: d, Resources: resources})
		return nil
	}

	if err := walk(pagesObj, nil, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

// pdfcpuInfo returns the document information dictionary, or nil if the
// trailer has none.
func pdfcpuInfo(ctx *model.Context) (types.Dict, error) {
	if ctx.Info == nil {
		return nil, nil
	}
	return ctx.DereferenceDict(*ctx.Info)
}

// pdfcpuText reads a text string entry from d. Empty values count as absent.
func pdfcpuText(ctx *model.Context, d types.Dict, key string) (string, bool) {
	if d == nil {
		return "", false
	}
	obj, found := d.Find(key)
	if !found || obj == nil {
		return "", false
	}
	obj, err := ctx.Dereference(obj)
	if err != nil || obj == nil {
		return "", false
	}

	var s string
	switch o := obj.(type) {
	case types.Name:
		s = string(o)
	default:
		decoded, err := types.StringOrHexLiteral(obj)
		if err != nil || decoded == nil {
			return "", false
		}
		s = *decoded
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

// pdfcpuBytes reads a string entry from d as raw bytes (e.g. /Contents of a signature)
func pdfcpuBytes(ctx *model.Context, d types.Dict, key string) ([]byte, error) {
	obj, found := d.Find(key)
	if !found || obj == nil {
		return nil, nil
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	return literalBytes(obj)
}

func literalBytes(obj types.Object) ([]byte, error) {
	switch o := obj.(type) {
	case types.HexLiteral:
		return o.Bytes()
	case types.StringLiteral:
		return types.Unescape(o.Value())
	default:
		return nil, fmt.Errorf("unexpected %T for string value", obj)
	}
}

// pdfcpuStream dereferences obj as a stream and returns its decoded content
func pdfcpuStream(ctx *model.Context, obj types.Object) ([]byte, error) {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	sd, ok := o.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("expected stream, got %T", o)
	}
	if err := sd.Decode(); err != nil {
		return nil, err
	}
	return sd.Content, nil
}

// pdfcpuXMP returns the raw XMP packet attached to the catalog, or nil
func pdfcpuXMP(ctx *model.Context) ([]byte, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	obj, found := root.Find("Metadata")
	if !found {
		return nil, nil
	}
	return pdfcpuStream(ctx, obj)
}

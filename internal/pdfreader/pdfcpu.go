// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfreader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "github.com/hhrutter/tiff"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

func init() {
	// Keep pdfcpu from writing its config directory under the user's home.
	api.DisableConfigDir()
}

// PdfcpuReader opens documents with pdfcpu.
type PdfcpuReader struct {
	password string
}

// NewPdfcpuReader returns a Reader. A non-empty password is used as both
// user and owner password for encrypted documents.
func NewPdfcpuReader(password string) *PdfcpuReader {
	return &PdfcpuReader{password: password}
}

// Open reads and validates the PDF at path. The file stays open until the
// returned Document is closed. The document is not optimized, so image
// objects with identical streams stay distinct.
func (r *PdfcpuReader) Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if r.password != "" {
		conf.UserPW = r.password
		conf.OwnerPW = r.password
	}

	ctx, err := api.ReadAndValidate(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		f.Close()
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}

	log.Debug().Str("pdf", path).Int("pages", ctx.PageCount).Msg("document opened")
	return &pdfcpuDocument{file: f, ctx: ctx, cachedPage: -1}, nil
}

// imageUse is one Do invocation of an image XObject.
type imageUse struct {
	ref ImageRef
	sd  *pdftypes.StreamDict
}

// pdfcpuDocument keeps the image uses of the most recently listed page so
// that ImageRefs followed by Decode walks each page's content once.
type pdfcpuDocument struct {
	file *os.File
	ctx  *model.Context

	cachedPage int
	cached     []imageUse
}

func (d *pdfcpuDocument) PageCount() int {
	return d.ctx.PageCount
}

// ImageRefs lists the images the page draws in content stream order, one
// entry per Do operator. Images drawn through form XObjects appear where the
// form is drawn. An image drawn twice is listed twice.
func (d *pdfcpuDocument) ImageRefs(page int) ([]ImageRef, error) {
	uses, err := d.pageImages(page)
	if err != nil {
		return nil, err
	}
	refs := make([]ImageRef, len(uses))
	for i, u := range uses {
		refs[i] = u.ref
	}
	return refs, nil
}

func (d *pdfcpuDocument) Decode(ref ImageRef) (types.DecodedImage, error) {
	uses, err := d.pageImages(ref.Page)
	if err != nil {
		return types.DecodedImage{}, err
	}
	if ref.Index < 0 || ref.Index >= len(uses) || uses[ref.Index].ref.ObjectNumber != ref.ObjectNumber {
		return types.DecodedImage{}, fmt.Errorf("image %s not found", ref)
	}

	data, fileType, err := d.render(ref, *uses[ref.Index].sd)
	if err != nil {
		return types.DecodedImage{}, err
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return types.DecodedImage{}, fmt.Errorf("decoding image %s (%s): %w", ref, fileType, err)
	}
	log.Debug().
		Str("ref", ref.String()).
		Str("stream", fileType).
		Str("codec", format).
		Msg("image decoded")

	return Pixmap(decoded), nil
}

// render returns an encoded image file for the stream. DCT streams are
// returned as stored so four-component JPEGs reach the decoder as CMYK.
// Everything else goes through pdfcpu, which renders to PNG or, for CMYK,
// TIFF.
func (d *pdfcpuDocument) render(ref ImageRef, sd pdftypes.StreamDict) ([]byte, string, error) {
	if n := len(sd.FilterPipeline); n > 0 {
		switch sd.FilterPipeline[n-1].Name {
		case filter.JPX:
			return nil, "jpx", fmt.Errorf("image %s: JPEG 2000 streams are not supported", ref)
		case filter.DCT:
			if n == 1 {
				return sd.Raw, "jpg", nil
			}
		}
	}

	img, err := pdfcpu.ExtractImage(d.ctx, &sd, false, ref.Name, ref.ObjectNumber, false)
	if err != nil {
		return nil, "", fmt.Errorf("extracting image %s: %w", ref, err)
	}
	if img == nil || img.Reader == nil {
		return nil, "", fmt.Errorf("image %s: unsupported stream filter", ref)
	}
	data, err := io.ReadAll(img.Reader)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", ref, err)
	}
	return data, img.FileType, nil
}

func (d *pdfcpuDocument) Close() error {
	d.cached = nil
	d.cachedPage = -1
	return d.file.Close()
}

func (d *pdfcpuDocument) pageImages(page int) ([]imageUse, error) {
	if page == d.cachedPage {
		return d.cached, nil
	}
	if page < 0 || page >= d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page+1, d.ctx.PageCount)
	}

	pageDict, _, attrs, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", page+1, err)
	}
	if pageDict == nil {
		return nil, fmt.Errorf("page %d not found", page+1)
	}
	content, err := d.ctx.PageContent(pageDict)
	if errors.Is(err, model.ErrNoContent) {
		content, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading content of page %d: %w", page+1, err)
	}

	w := &contentWalker{ctx: d.ctx, page: page, forms: make(map[int]bool)}
	if err := w.walk(content, attrs.Resources); err != nil {
		return nil, fmt.Errorf("scanning page %d: %w", page+1, err)
	}

	d.cachedPage, d.cached = page, w.uses
	return w.uses, nil
}

// contentWalker collects the image XObjects drawn by a content stream and
// the form XObjects it draws.
type contentWalker struct {
	ctx   *model.Context
	page  int
	forms map[int]bool
	uses  []imageUse
}

func (w *contentWalker) walk(content []byte, resources pdftypes.Dict) error {
	calls := xobjectCalls(content)
	if len(calls) == 0 {
		return nil
	}

	var xobjects pdftypes.Dict
	if resources != nil {
		if o, found := resources.Find("XObject"); found {
			d, err := w.ctx.DereferenceDict(o)
			if err != nil {
				return err
			}
			xobjects = d
		}
	}

	for _, name := range calls {
		o, found := xobjects.Find(name)
		if !found {
			log.Debug().Int("page", w.page+1).Str("name", name).Msg("Do operand has no XObject resource")
			continue
		}
		objNr := 0
		if ir, ok := o.(pdftypes.IndirectRef); ok {
			objNr = ir.ObjectNumber.Value()
		}
		sd, _, err := w.ctx.DereferenceStreamDict(o)
		if err != nil {
			return fmt.Errorf("XObject %s: %w", name, err)
		}
		if sd == nil {
			continue
		}

		subtype := sd.Subtype()
		switch {
		case subtype != nil && *subtype == "Image":
			w.uses = append(w.uses, imageUse{
				ref: ImageRef{Page: w.page, Index: len(w.uses), ObjectNumber: objNr, Name: name},
				sd:  sd,
			})
		case subtype != nil && *subtype == "Form":
			if err := w.walkForm(name, objNr, sd, resources); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkForm descends into a form XObject. A form without its own resources
// uses those of the content that draws it. Forms already being walked are
// skipped to break reference cycles.
func (w *contentWalker) walkForm(name string, objNr int, sd *pdftypes.StreamDict, parent pdftypes.Dict) error {
	if objNr > 0 {
		if w.forms[objNr] {
			return nil
		}
		w.forms[objNr] = true
		defer delete(w.forms, objNr)
	}

	if err := sd.Decode(); err != nil {
		return fmt.Errorf("form %s: %w", name, err)
	}

	resources := parent
	if o, found := sd.Find("Resources"); found {
		d, err := w.ctx.DereferenceDict(o)
		if err != nil {
			return fmt.Errorf("form %s resources: %w", name, err)
		}
		resources = d
	}
	return w.walk(sd.Content, resources)
}

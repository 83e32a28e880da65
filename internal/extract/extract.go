// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract walks a PDF page by page and saves every embedded raster
// image as a standalone file named page<N>_img<M>.<format>.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/pdf-image-extract/internal/imageenc"
	"github.com/pdiddy/pdf-image-extract/internal/pdfreader"
	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// Error kinds. Errors returned by Extract wrap exactly one of these.
var (
	ErrSourceNotFound = errors.New("source PDF not found")
	ErrDocumentOpen   = errors.New("cannot open document")
	ErrDecode         = errors.New("cannot decode image")
	ErrEncode         = errors.New("cannot encode image")
	ErrOutput         = errors.New("cannot prepare output folder")
)

// Extractor ties a PDF reader to an image encoder. Progress lines are
// written to the configured writer.
type Extractor struct {
	reader  pdfreader.Reader
	encoder imageenc.Encoder
	out     io.Writer
}

// New returns an Extractor that reports progress to out.
func New(r pdfreader.Reader, e imageenc.Encoder, out io.Writer) *Extractor {
	return &Extractor{reader: r, encoder: e, out: out}
}

// FileName returns the output name for the image at 0-based index i on the
// 0-based page p.
func FileName(p, i int, format types.ImageFormat) string {
	return fmt.Sprintf("page%d_img%d.%s", p+1, i+1, format)
}

// OutputPath joins dir and name the way the output lines show them: dir is
// kept verbatim and a separator is added only when it does not end in one.
func OutputPath(dir, name string) string {
	if dir == "" || strings.HasSuffix(dir, string(os.PathSeparator)) || strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + string(os.PathSeparator) + name
}

// Extract saves every image of the PDF at pdfPath into outDir. Processing is
// sequential and stops at the first failure; files saved before it stay on
// disk and are listed in the returned summary.
func (x *Extractor) Extract(ctx context.Context, pdfPath, outDir string, format types.ImageFormat) (types.ExtractionSummary, error) {
	var summary types.ExtractionSummary

	if _, err := os.Stat(pdfPath); err != nil {
		return summary, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, pdfPath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return summary, fmt.Errorf("%w: %s: %v", ErrOutput, outDir, err)
	}

	doc, err := x.reader.Open(pdfPath)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", ErrDocumentOpen, err)
	}
	defer doc.Close()

	pages := doc.PageCount()
	log.Debug().Str("pdf", pdfPath).Int("pages", pages).Str("format", string(format)).Msg("extracting images")

	for p := 0; p < pages; p++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		refs, err := doc.ImageRefs(p)
		if err != nil {
			return summary, fmt.Errorf("%w: page %d: %v", ErrDecode, p+1, err)
		}
		log.Debug().Int("page", p+1).Int("images", len(refs)).Msg("scanning page")

		for i, ref := range refs {
			saved, err := x.saveImage(doc, ref, p, i, outDir, format)
			if err != nil {
				return summary, err
			}
			fmt.Fprintf(x.out, "Saved: %s\n", saved.Path)
			summary.Images = append(summary.Images, saved)
			summary.Count++
		}
	}

	if summary.Count == 0 {
		fmt.Fprintln(x.out, "No images found in the PDF.")
	} else {
		fmt.Fprintf(x.out, "Successfully extracted %d images.\n", summary.Count)
	}
	return summary, nil
}

func (x *Extractor) saveImage(doc pdfreader.Document, ref pdfreader.ImageRef, p, i int, outDir string, format types.ImageFormat) (types.SavedImage, error) {
	src, err := doc.Decode(ref)
	if err != nil {
		return types.SavedImage{}, fmt.Errorf("%w: %s: %v", ErrDecode, ref, err)
	}
	if err := src.Validate(); err != nil {
		return types.SavedImage{}, fmt.Errorf("%w: %s: %v", ErrDecode, ref, err)
	}

	rgb := pdfreader.NormalizeRGB(src)
	path := OutputPath(outDir, FileName(p, i, format))

	if err := x.encoder.Save(rgb, path, format); err != nil {
		return types.SavedImage{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return types.SavedImage{
		Page:           p + 1,
		Index:          i + 1,
		ObjectNumber:   ref.ObjectNumber,
		Width:          rgb.Width,
		Height:         rgb.Height,
		SourceChannels: src.Channels,
		SourceModel:    src.Model,
		Channels:       rgb.Channels,
		Format:         format,
		Path:           path,
	}, nil
}

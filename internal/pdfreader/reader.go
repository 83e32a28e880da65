// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfreader opens PDF documents and decodes their embedded raster
// images into raw pixmaps. The Reader and Document interfaces hide the PDF
// library so the extractor can be driven by fakes in tests.
package pdfreader

import (
	"fmt"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// ImageRef identifies one use of an image XObject on a page. It is only
// meaningful for the Document that returned it.
type ImageRef struct {
	// Page is the 0-based page ordinal the reference was found on.
	Page int

	// Index is the 0-based position of the use among the page's images.
	Index int

	// ObjectNumber is the PDF object number of the image stream.
	ObjectNumber int

	// Name is the resource name the page uses for the image (e.g. "Im0").
	Name string
}

func (r ImageRef) String() string {
	return fmt.Sprintf("page %d obj %d (%s)", r.Page+1, r.ObjectNumber, r.Name)
}

// Reader opens documents.
type Reader interface {
	// Open parses the PDF at path. The returned Document must be closed.
	Open(path string) (Document, error)
}

// Document is an opened PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// ImageRefs lists the images drawn by the 0-based page in content
	// stream order. An image drawn twice appears twice.
	ImageRefs(page int) ([]ImageRef, error)

	// Decode returns the pixmap for ref.
	Decode(ref ImageRef) (types.DecodedImage, error)

	// Close releases the underlying file and any cached page data.
	Close() error
}

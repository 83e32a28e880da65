// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imageenc writes decoded pixmaps to disk as png, jpeg or bmp files.
package imageenc

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// Encoder persists a pixmap under path in the given format.
type Encoder interface {
	Save(img types.DecodedImage, path string, format types.ImageFormat) error
}

// FileEncoder is the production Encoder backed by the standard codecs and
// golang.org/x/image/bmp.
type FileEncoder struct {
	jpegQuality int
}

// NewFileEncoder returns an encoder that writes jpg/jpeg output at quality
// (1-100). Out-of-range values fall back to the default.
func NewFileEncoder(quality int) *FileEncoder {
	if quality < 1 || quality > 100 {
		quality = types.DefaultJPEGQuality
	}
	return &FileEncoder{jpegQuality: quality}
}

// Save builds an image.Image over the samples and encodes it to path. If
// encoding fails the partially written file is removed.
func (e *FileEncoder) Save(img types.DecodedImage, path string, format types.ImageFormat) error {
	src, err := ToImage(img)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := e.encode(f, src, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s as %s: %w", path, format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func (e *FileEncoder) encode(w io.Writer, img image.Image, format types.ImageFormat) error {
	switch {
	case format == types.FormatPNG:
		return png.Encode(w, img)
	case format.IsJPEG():
		return jpeg.Encode(w, img, &jpeg.Options{Quality: e.jpegQuality})
	case format == types.FormatBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
}

// ToImage wraps the samples of d in the matching image type. Three-channel
// pixmaps become opaque RGBA images since the standard library has no
// packed RGB type.
func ToImage(d types.DecodedImage) (image.Image, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, d.Width, d.Height)
	n := d.Width * d.Height

	switch d.Channels {
	case 1:
		return &image.Gray{Pix: d.Samples, Stride: d.Width, Rect: rect}, nil
	case 2:
		dst := image.NewNRGBA(rect)
		for i := 0; i < n; i++ {
			g, a := d.Samples[i*2], d.Samples[i*2+1]
			copy(dst.Pix[i*4:i*4+4], []byte{g, g, g, a})
		}
		return dst, nil
	case 3:
		dst := image.NewRGBA(rect)
		for i := 0; i < n; i++ {
			copy(dst.Pix[i*4:i*4+3], d.Samples[i*3:i*3+3])
			dst.Pix[i*4+3] = 0xff
		}
		return dst, nil
	case 4:
		if d.Model == types.ModelCMYK {
			return &image.CMYK{Pix: d.Samples, Stride: d.Width * 4, Rect: rect}, nil
		}
		return &image.NRGBA{Pix: d.Samples, Stride: d.Width * 4, Rect: rect}, nil
	}
	return nil, fmt.Errorf("cannot encode %d-channel image", d.Channels)
}

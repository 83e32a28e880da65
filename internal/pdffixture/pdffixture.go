// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdffixture builds small PDF documents with embedded images for
// tests. Build and Document go through gofpdf; BuildRaw writes the file
// object by object for layouts gofpdf cannot produce.
package pdffixture

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/jung-kurt/gofpdf"
)

// cmykJPEG is a 150x103 four-component (Adobe CMYK) baseline JPEG.
//
//go:embed testdata/cmyk.jpeg
var cmykJPEG []byte

// CMYKJPEGWidth and CMYKJPEGHeight are the dimensions of CMYKJPEG images.
const (
	CMYKJPEGWidth  = 150
	CMYKJPEGHeight = 103
)

// Kind selects how an image is embedded.
type Kind int

const (
	// RGBPNG embeds an opaque RGB PNG (FlateDecode, DeviceRGB).
	RGBPNG Kind = iota
	// GrayPNG embeds a grayscale PNG (FlateDecode, DeviceGray).
	GrayPNG
	// RGBJPEG embeds a baseline JPEG (DCTDecode, DeviceRGB).
	RGBJPEG
	// CMYKJPEG embeds a fixed CMYK JPEG (DCTDecode, DeviceCMYK). Width,
	// Height and Color are ignored.
	CMYKJPEG
	// AlphaPNG embeds an RGB PNG whose alpha channel becomes an SMask.
	// Color.A sets the alpha of every pixel.
	AlphaPNG
)

// Image describes one embedded image. gofpdf stores identical image data
// once, so give every distinct image on a document its own colour or size.
type Image struct {
	// Name, when set, lets a document draw the same image more than once:
	// later images with the same name reuse the first registration.
	Name   string
	Kind   Kind
	Width  int
	Height int
	Color  color.RGBA
}

// Document is a multi-page fixture. Each page lists the images it draws,
// top to bottom.
type Document struct {
	Pages [][]Image

	// ObjectsByWidth numbers image objects by ascending width. Without it
	// the numbering follows gofpdf's map iteration and is unspecified.
	ObjectsByWidth bool
}

// Build writes a PDF with one page per entry of pages to path.
func Build(path string, pages [][]Image) error {
	return Document{Pages: pages}.Write(path)
}

// Write renders the document to path.
func (d Document) Write(path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(d.ObjectsByWidth)

	registered := make(map[string]bool)
	seq := 0
	for _, imgs := range d.Pages {
		pdf.AddPage()
		y := 10.0
		for _, img := range imgs {
			name := img.Name
			if name == "" {
				name = fmt.Sprintf("img%d", seq)
				seq++
			}

			data, imageType, err := encode(img)
			if err != nil {
				return err
			}
			opts := gofpdf.ImageOptions{ImageType: imageType}
			if !registered[name] {
				pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
				registered[name] = true
			}
			pdf.ImageOptions(name, 10, y, 30, 30, false, opts, 0, "")
			y += 40
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building fixture: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}

func encode(img Image) ([]byte, string, error) {
	rect := image.Rect(0, 0, img.Width, img.Height)
	var buf bytes.Buffer

	switch img.Kind {
	case GrayPNG:
		g := image.NewGray(rect)
		gray := color.GrayModel.Convert(img.Color).(color.Gray)
		for i := range g.Pix {
			g.Pix[i] = gray.Y
		}
		if err := png.Encode(&buf, g); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "PNG", nil
	case RGBJPEG:
		if err := jpeg.Encode(&buf, fill(rect, img.Color), &jpeg.Options{Quality: 95}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "JPG", nil
	case CMYKJPEG:
		return cmykJPEG, "JPG", nil
	case AlphaPNG:
		dst := image.NewNRGBA(rect)
		c := color.NRGBA{R: img.Color.R, G: img.Color.G, B: img.Color.B, A: img.Color.A}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				dst.SetNRGBA(x, y, c)
			}
		}
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "PNG", nil
	}

	if err := png.Encode(&buf, fill(rect, img.Color)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "PNG", nil
}

func fill(rect image.Rectangle, c color.RGBA) *image.RGBA {
	c.A = 0xff
	dst := image.NewRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.SetRGBA(x, y, c)
		}
	}
	return dst
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for pdf-image-extract:
// decoded pixel buffers handed between the PDF reader and the encoder,
// the record of each saved image, and the run configuration.
package types

import "fmt"

// ColorModel describes how the channels of a DecodedImage are interpreted.
type ColorModel string

const (
	ModelGray      ColorModel = "gray"
	ModelGrayAlpha ColorModel = "gray+alpha"
	ModelRGB       ColorModel = "rgb"
	ModelRGBA      ColorModel = "rgba"
	ModelCMYK      ColorModel = "cmyk"
)

// Channels returns the number of samples per pixel for the model.
func (m ColorModel) Channels() int {
	switch m {
	case ModelGray:
		return 1
	case ModelGrayAlpha:
		return 2
	case ModelRGB:
		return 3
	case ModelRGBA, ModelCMYK:
		return 4
	}
	return 0
}

// DecodedImage is a raw pixmap: Width*Height pixels of Channels interleaved
// 8-bit samples, row-major, no row padding.
type DecodedImage struct {
	Width    int
	Height   int
	Channels int
	Model    ColorModel
	Samples  []byte
}

// Validate checks that the sample buffer matches the declared geometry.
func (d DecodedImage) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", d.Width, d.Height)
	}
	if d.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", d.Channels)
	}
	if want := d.Width * d.Height * d.Channels; len(d.Samples) != want {
		return fmt.Errorf("sample buffer holds %d bytes, want %d for %dx%dx%d",
			len(d.Samples), want, d.Width, d.Height, d.Channels)
	}
	return nil
}

// SavedImage records one image written to disk.
type SavedImage struct {
	// Page is the 1-indexed page number.
	Page int `json:"page" yaml:"page"`

	// Index is the 1-indexed position of the image within its page.
	Index int `json:"index" yaml:"index"`

	// ObjectNumber is the PDF object number of the image XObject.
	ObjectNumber int `json:"object_number" yaml:"object_number"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// SourceChannels and SourceModel describe the decoded pixmap before normalization.
	SourceChannels int        `json:"source_channels" yaml:"source_channels"`
	SourceModel    ColorModel `json:"source_model" yaml:"source_model"`

	// Channels is the channel count handed to the encoder.
	Channels int `json:"channels" yaml:"channels"`

	Format ImageFormat `json:"format" yaml:"format"`
	Path   string      `json:"path" yaml:"path"`
}

// ExtractionSummary is the result of one extraction run. Images are listed in
// save order, which is page order then per-page reference order.
type ExtractionSummary struct {
	Count  int          `json:"count" yaml:"count"`
	Images []SavedImage `json:"images" yaml:"images"`
}

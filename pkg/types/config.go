package types

import (
	"fmt"
	"strings"
)

// ImageFormat names an output image format. The value doubles as the file
// extension of every image written in that format.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPG  ImageFormat = "jpg"
	FormatJPEG ImageFormat = "jpeg"
	FormatBMP  ImageFormat = "bmp"
)

// SupportedFormats lists the accepted formats in the order they are shown to users.
var SupportedFormats = []ImageFormat{FormatPNG, FormatJPG, FormatJPEG, FormatBMP}

// ErrUnsupportedFormat is returned by ParseImageFormat for tokens outside SupportedFormats.
var ErrUnsupportedFormat = fmt.Errorf("unsupported image format")

// ParseImageFormat lowercases s and returns the matching ImageFormat.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(s))
	for _, sf := range SupportedFormats {
		if f == sf {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// IsJPEG reports whether f selects the JPEG codec (jpg or jpeg).
func (f ImageFormat) IsJPEG() bool {
	return f == FormatJPG || f == FormatJPEG
}

// DefaultJPEGQuality matches the quality most imaging libraries default to.
const DefaultJPEGQuality = 75

// ExtractionConfig holds the settings for one extraction run, resolved from
// flags, environment and the optional config file.
type ExtractionConfig struct {
	// PDFPath is the source document.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// OutputDir receives the extracted images. It is created with parents.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects both the codec and the file extension.
	Format ImageFormat `json:"format" yaml:"format"`

	// JPEGQuality is the quality (1-100) used for jpg and jpeg output (default 75).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// Password opens encrypted documents. Empty means no password.
	Password string `json:"-" yaml:"-"`

	// Strict turns a missing source PDF into a non-zero exit.
	Strict bool `json:"strict" yaml:"strict"`

	// ReportPath, when set, receives a YAML or JSON summary of the run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// CatalogPath, when set, is a SQLite database that records every saved image.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}

// Quality returns JPEGQuality clamped to the valid range, or the default when unset.
func (c ExtractionConfig) Quality() int {
	switch {
	case c.JPEGQuality <= 0:
		return DefaultJPEGQuality
	case c.JPEGQuality > 100:
		return 100
	}
	return c.JPEGQuality
}

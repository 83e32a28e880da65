// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfreader

import (
	"image"
	"image/color"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// opaquer is implemented by the image types in the standard library.
type opaquer interface {
	Opaque() bool
}

// Pixmap flattens img into an interleaved 8-bit sample buffer. The channel
// layout follows the decoded type: gray stays single-channel, CMYK keeps four
// channels, opaque colour images become RGB and anything with transparency
// becomes RGBA.
func Pixmap(img image.Image) types.DecodedImage {
	b := img.Bounds()

	switch src := img.(type) {
	case *image.Gray:
		return pack(b, types.ModelGray, func(x, y int, dst []byte) {
			dst[0] = src.GrayAt(x, y).Y
		})
	case *image.Gray16:
		return pack(b, types.ModelGray, func(x, y int, dst []byte) {
			dst[0] = uint8(src.Gray16At(x, y).Y >> 8)
		})
	case *image.CMYK:
		return pack(b, types.ModelCMYK, func(x, y int, dst []byte) {
			c := src.CMYKAt(x, y)
			dst[0], dst[1], dst[2], dst[3] = c.C, c.M, c.Y, c.K
		})
	case *image.YCbCr:
		return pack(b, types.ModelRGB, func(x, y int, dst []byte) {
			c := src.YCbCrAt(x, y)
			dst[0], dst[1], dst[2] = color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
		})
	}

	if o, ok := img.(opaquer); ok && o.Opaque() {
		return pack(b, types.ModelRGB, func(x, y int, dst []byte) {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst[0], dst[1], dst[2] = c.R, c.G, c.B
		})
	}
	return pack(b, types.ModelRGBA, func(x, y int, dst []byte) {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		dst[0], dst[1], dst[2], dst[3] = c.R, c.G, c.B, c.A
	})
}

func pack(b image.Rectangle, model types.ColorModel, px func(x, y int, dst []byte)) types.DecodedImage {
	n := model.Channels()
	w, h := b.Dx(), b.Dy()
	samples := make([]byte, w*h*n)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px(x, y, samples[i:i+n])
			i += n
		}
	}
	return types.DecodedImage{
		Width:    w,
		Height:   h,
		Channels: n,
		Model:    model,
		Samples:  samples,
	}
}

// NormalizeRGB converts pixmaps with four or more channels to three-channel
// RGB. CMYK goes through the standard CMYK to RGB conversion; other layouts
// keep their first three channels and drop the rest. Pixmaps with fewer than
// four channels are returned unchanged.
func NormalizeRGB(d types.DecodedImage) types.DecodedImage {
	if d.Channels < 4 {
		return d
	}

	out := make([]byte, d.Width*d.Height*3)
	for i, o := 0, 0; i+d.Channels <= len(d.Samples) && o+3 <= len(out); i, o = i+d.Channels, o+3 {
		px := d.Samples[i : i+d.Channels]
		if d.Model == types.ModelCMYK {
			out[o], out[o+1], out[o+2] = color.CMYKToRGB(px[0], px[1], px[2], px[3])
			continue
		}
		copy(out[o:o+3], px[:3])
	}

	return types.DecodedImage{
		Width:    d.Width,
		Height:   d.Height,
		Channels: 3,
		Model:    types.ModelRGB,
		Samples:  out,
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffixture

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"strings"
)

// RawImage is an image XObject written with FlateDecode and 8 bits per
// component. Samples holds Width*Height*components bytes for ColorSpace
// (DeviceGray, DeviceRGB or DeviceCMYK).
type RawImage struct {
	Name       string
	ColorSpace string
	Width      int
	Height     int
	Samples    []byte
}

// RawForm is a form XObject whose content draws the named XObjects of its
// page in order.
type RawForm struct {
	Name string
	Draw []string
}

// RawPage lists the XObjects of a page and the order its content stream
// invokes them in. Every image and form gets its own object, numbered in
// the order given here.
type RawPage struct {
	Images []RawImage
	Forms  []RawForm
	Draw   []string
}

type rawObject struct {
	dict   string
	stream []byte
}

// BuildRaw writes a PDF with the given pages to path.
func BuildRaw(path string, pages []RawPage) error {
	// 1 catalog, 2 page tree, then per page: page, content, images, forms.
	objs := []rawObject{{}, {}, {}}
	var kids []string

	for _, page := range pages {
		pageNr := len(objs)
		contentNr := pageNr + 1
		objs = append(objs, rawObject{}, rawObject{})
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))

		var entries []string
		for _, img := range page.Images {
			data, err := deflate(img.Samples)
			if err != nil {
				return err
			}
			entries = append(entries, fmt.Sprintf("/%s %d 0 R", img.Name, len(objs)))
			objs = append(objs, rawObject{
				dict: fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8 /Filter /FlateDecode /Length %d >>",
					img.Width, img.Height, img.ColorSpace, len(data)),
				stream: data,
			})
		}
		imageRes := fmt.Sprintf("<< /XObject << %s >> >>", strings.Join(entries, " "))

		for _, form := range page.Forms {
			content := drawOps(form.Draw)
			entries = append(entries, fmt.Sprintf("/%s %d 0 R", form.Name, len(objs)))
			objs = append(objs, rawObject{
				dict: fmt.Sprintf("<< /Type /XObject /Subtype /Form /BBox [0 0 1 1] /Resources %s /Length %d >>",
					imageRes, len(content)),
				stream: content,
			})
		}

		objs[pageNr] = rawObject{dict: fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /XObject << %s >> >> /Contents %d 0 R >>",
			strings.Join(entries, " "), contentNr)}
		content := drawOps(page.Draw)
		objs[contentNr] = rawObject{dict: fmt.Sprintf("<< /Length %d >>", len(content)), stream: content}
	}

	objs[1] = rawObject{dict: "<< /Type /Catalog /Pages 2 0 R >>"}
	objs[2] = rawObject{dict: fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objs))
	for nr := 1; nr < len(objs); nr++ {
		offsets[nr] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\n", nr, objs[nr].dict)
		if objs[nr].stream != nil {
			buf.WriteString("stream\n")
			buf.Write(objs[nr].stream)
			buf.WriteString("\nendstream\n")
		}
		buf.WriteString("endobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs))
	for nr := 1; nr < len(objs); nr++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[nr])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs), xref)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// drawOps places each named XObject in its own unit square.
func drawOps(names []string) []byte {
	var b bytes.Buffer
	for i, name := range names {
		fmt.Fprintf(&b, "q 40 0 0 40 10 %d cm /%s Do Q\n", 10+i*45, name)
	}
	return b.Bytes()
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Solid returns Width*Height copies of px, a sample buffer for RawImage.
func Solid(width, height int, px ...byte) []byte {
	out := make([]byte, 0, width*height*len(px))
	for i := 0; i < width*height; i++ {
		out = append(out, px...)
	}
	return out
}

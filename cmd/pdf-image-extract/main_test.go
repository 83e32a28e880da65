// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
	_ "golang.org/x/image/bmp"

	"github.com/pdiddy/pdf-image-extract/internal/catalog"
	"github.com/pdiddy/pdf-image-extract/internal/extract"
	"github.com/pdiddy/pdf-image-extract/internal/pdffixture"
	"github.com/pdiddy/pdf-image-extract/internal/secrets"
	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// invoke runs the CLI and returns the exit code and captured streams.
func invoke(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func twoPagePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.pdf")
	require.NoError(t, pdffixture.Build(path, [][]pdffixture.Image{
		{{Kind: pdffixture.RGBPNG, Width: 4, Height: 4, Color: color.RGBA{R: 255}}},
		{
			{Kind: pdffixture.RGBJPEG, Width: 8, Height: 8, Color: color.RGBA{B: 255}},
			{Kind: pdffixture.RGBPNG, Width: 3, Height: 2, Color: color.RGBA{G: 255}},
		},
	}))
	return path
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRun_WrongArgumentCount(t *testing.T) {
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "out")

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two arguments", []string{"in.pdf", outDir}},
		{"four arguments", []string{"in.pdf", outDir, "png", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := invoke(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Equal(t, usageLine+"\n", stdout)
			assert.NoDirExists(t, outDir)
		})
	}
}

func TestRun_UnsupportedFormat(t *testing.T) {
	pdf := twoPagePDF(t)
	outDir := filepath.Join(t.TempDir(), "out")

	code, stdout, _ := invoke(t, pdf, outDir, "tiff")

	assert.Equal(t, exitUsage, code)
	assert.Equal(t, "Error: Unsupported image format. Supported formats: png, jpg, jpeg, bmp.\n", stdout)
	assert.NoDirExists(t, outDir)
}

func TestRun_MissingPDF(t *testing.T) {
	tmp := t.TempDir()
	pdf := filepath.Join(tmp, "absent.pdf")
	outDir := filepath.Join(tmp, "out")

	code, stdout, _ := invoke(t, pdf, outDir, "png")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, fmt.Sprintf("Error: PDF file '%s' not found.\n", pdf), stdout)
	assert.NoDirExists(t, outDir)

	code, stdout, _ = invoke(t, pdf, outDir, "png", "--strict")
	assert.Equal(t, exitNotFound, code)
	assert.Contains(t, stdout, pdf)
	assert.NoDirExists(t, outDir)
}

func TestRun_TwoPageScenario(t *testing.T) {
	pdf := twoPagePDF(t)
	outDir := filepath.Join(t.TempDir(), "images")

	code, stdout, stderr := invoke(t, pdf, outDir, "PNG")
	require.Equal(t, exitOK, code, "stderr: %s", stderr)

	assert.Equal(t, []string{"page1_img1.png", "page2_img1.png", "page2_img2.png"}, dirNames(t, outDir))

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Saved: "+extract.OutputPath(outDir, "page1_img1.png"), lines[0])
	assert.Equal(t, "Successfully extracted 3 images.", lines[3])
}

func TestRun_Formats(t *testing.T) {
	pdf := twoPagePDF(t)

	for _, format := range []string{"jpg", "jpeg", "bmp"} {
		t.Run(format, func(t *testing.T) {
			outDir := filepath.Join(t.TempDir(), "out")
			code, _, stderr := invoke(t, pdf, outDir, format)
			require.Equal(t, exitOK, code, "stderr: %s", stderr)
			assert.Equal(t, []string{
				"page1_img1." + format,
				"page2_img1." + format,
				"page2_img2." + format,
			}, dirNames(t, outDir))
		})
	}
}

func TestRun_NoImages(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "blank.pdf")
	require.NoError(t, pdffixture.Build(pdf, [][]pdffixture.Image{{}, {}}))
	outDir := filepath.Join(t.TempDir(), "out")

	code, stdout, _ := invoke(t, pdf, outDir, "png")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "No images found in the PDF.\n", stdout)
	assert.DirExists(t, outDir)
	assert.Empty(t, dirNames(t, outDir))
}

func TestRun_RerunIsStable(t *testing.T) {
	pdf := twoPagePDF(t)

	first := filepath.Join(t.TempDir(), "a")
	second := filepath.Join(t.TempDir(), "b")
	code, _, _ := invoke(t, pdf, first, "png")
	require.Equal(t, exitOK, code)
	code, _, _ = invoke(t, pdf, second, "png")
	require.Equal(t, exitOK, code)

	assert.Equal(t, dirNames(t, first), dirNames(t, second))
}

func TestRun_MalformedPDF(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("not a pdf at all"), 0o644))
	outDir := filepath.Join(t.TempDir(), "out")

	code, stdout, stderr := invoke(t, pdf, outDir, "png")

	assert.Equal(t, exitDocumentOpen, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "cannot open document")
}

func TestRun_ReportAndCatalog(t *testing.T) {
	pdf := twoPagePDF(t)
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "out")
	reportPath := filepath.Join(tmp, "reports", "run.yaml")
	dbPath := filepath.Join(tmp, "catalog.db")

	code, _, stderr := invoke(t, pdf, outDir, "png", "--report", reportPath, "--catalog", dbPath)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report catalog.Report
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, 3, report.Count)
	assert.Equal(t, catalog.RunCompleted, report.Run.Status)
	assert.NotZero(t, report.Run.ID)

	store, err := catalog.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	images, err := store.Images(context.Background(), report.Run.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, 2, images[2].Page)
	assert.Equal(t, 2, images[2].Index)
	assert.Equal(t, 3, images[2].Channels)
}

func TestRun_ConfigFile(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "absent.pdf")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("strict: true\n"), 0o644))

	code, _, _ := invoke(t, pdf, t.TempDir(), "png", "--config", cfgPath)
	assert.Equal(t, exitNotFound, code)

	code, _, _ = invoke(t, pdf, t.TempDir(), "png", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitUsage, code)
}

func TestRun_DefaultConfigLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgDir := filepath.Join(home, ".config", appName)
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, appName+".yaml"), []byte("strict: true\n"), 0o644))

	code, _, _ := invoke(t, filepath.Join(t.TempDir(), "absent.pdf"), t.TempDir(), "png")
	assert.Equal(t, exitNotFound, code)

	usage := newRootCmd(&bytes.Buffer{}).PersistentFlags().Lookup("config").Usage
	assert.Contains(t, usage, "~/.config/"+appName+"/"+appName+".yaml")
}

func TestSecretDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, secrets.KeyPDFPassword), []byte("from-file\n"), 0o600))

	v := viper.New()
	v.Set(keySecretsDir, dir)
	assert.Equal(t, "from-flag", secretDefault(v, secrets.KeyPDFPassword, "from-flag"))
	assert.Equal(t, "from-file", secretDefault(v, secrets.KeyPDFPassword, ""))

	v.Set(keySecretsDir, filepath.Join(dir, "missing"))
	assert.Equal(t, "", secretDefault(v, secrets.KeyPDFPassword, ""))
}

func readReport(t *testing.T, path string) catalog.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report catalog.Report
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRun_DrawOrderAndRepeats(t *testing.T) {
	tmp := t.TempDir()
	pdf := filepath.Join(tmp, "raw.pdf")
	red := pdffixture.Solid(2, 2, 255, 0, 0)
	require.NoError(t, pdffixture.BuildRaw(pdf, []pdffixture.RawPage{
		{
			Images: []pdffixture.RawImage{
				{Name: "A", ColorSpace: "DeviceRGB", Width: 2, Height: 2, Samples: red},
				{Name: "B", ColorSpace: "DeviceCMYK", Width: 3, Height: 1, Samples: pdffixture.Solid(3, 1, 255, 0, 255, 0)},
			},
			Draw: []string{"B", "A"},
		},
		{
			Images: []pdffixture.RawImage{
				{Name: "Im0", ColorSpace: "DeviceRGB", Width: 2, Height: 2, Samples: red},
				{Name: "Im1", ColorSpace: "DeviceRGB", Width: 2, Height: 2, Samples: red},
			},
			Draw: []string{"Im0", "Im1", "Im0"},
		},
	}))
	outDir := filepath.Join(tmp, "out")
	reportPath := filepath.Join(tmp, "report.json")

	code, stdout, stderr := invoke(t, pdf, outDir, "png", "--report", reportPath)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)

	assert.Equal(t, []string{
		"page1_img1.png", "page1_img2.png",
		"page2_img1.png", "page2_img2.png", "page2_img3.png",
	}, dirNames(t, outDir))
	assert.Contains(t, stdout, "Successfully extracted 5 images.")

	// B is drawn first although A has the lower object number.
	first := decodeFile(t, filepath.Join(outDir, "page1_img1.png"))
	assert.Equal(t, 3, first.Bounds().Dx())
	r, g, b, _ := first.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r, g, b})

	report := readReport(t, reportPath)
	require.Len(t, report.Images, 5)
	assert.Equal(t, 4, report.Images[0].SourceChannels)
	assert.Equal(t, 3, report.Images[0].Channels)
	assert.Equal(t, report.Images[2].ObjectNumber, report.Images[4].ObjectNumber)
	assert.NotEqual(t, report.Images[2].ObjectNumber, report.Images[3].ObjectNumber)
}

func TestRun_FourChannelSourcesSavedAsRGB(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "mixed.pdf")
	require.NoError(t, pdffixture.Build(pdf, [][]pdffixture.Image{{
		{Kind: pdffixture.CMYKJPEG},
		{Kind: pdffixture.AlphaPNG, Width: 5, Height: 4, Color: color.RGBA{B: 255, A: 100}},
	}}))
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "out")
	reportPath := filepath.Join(tmp, "report.json")

	for _, format := range []string{"png", "bmp"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(outDir, format)
			code, _, stderr := invoke(t, pdf, dir, format, "--report", reportPath)
			require.Equal(t, exitOK, code, "stderr: %s", stderr)

			assert.Equal(t, []string{"page1_img1." + format, "page1_img2." + format}, dirNames(t, dir))

			report := readReport(t, reportPath)
			require.Len(t, report.Images, 2)
			assert.Equal(t, types.ModelCMYK, report.Images[0].SourceModel)
			assert.Equal(t, pdffixture.CMYKJPEGWidth, report.Images[0].Width)
			assert.Equal(t, types.ModelRGBA, report.Images[1].SourceModel)
			for _, saved := range report.Images {
				assert.Equal(t, 4, saved.SourceChannels)
				assert.Equal(t, 3, saved.Channels)
			}

			// Alpha is dropped, not blended.
			img := decodeFile(t, filepath.Join(dir, "page1_img2."+format))
			r, g, b, a := img.At(0, 0).RGBA()
			assert.Equal(t, []uint32{0, 0, 0xffff, 0xffff}, []uint32{r, g, b, a})
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := invoke(t, "--version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, version)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"explicit", exitError{code: exitNotFound, err: errors.New("x")}, exitNotFound},
		{"document open", fmt.Errorf("%w: bad xref", extract.ErrDocumentOpen), exitDocumentOpen},
		{"decode", fmt.Errorf("%w: page 2", extract.ErrDecode), exitDecode},
		{"encode", fmt.Errorf("%w: disk full", extract.ErrEncode), exitEncode},
		{"output folder", fmt.Errorf("%w: read-only", extract.ErrOutput), exitIO},
		{"flag error", errors.New("unknown flag: --nope"), exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// Report is the per-run summary written by WriteReport.
type Report struct {
	Run    Run                `json:"run" yaml:"run"`
	Count  int                `json:"count" yaml:"count"`
	Images []types.SavedImage `json:"images" yaml:"images"`
}

// NewReport combines a run with the summary it produced.
func NewReport(run Run, summary types.ExtractionSummary) Report {
	images := summary.Images
	if images == nil {
		images = []types.SavedImage{}
	}
	return Report{Run: run, Count: summary.Count, Images: images}
}

// WriteReport writes r to path as JSON when path ends in .json and as YAML
// otherwise. Parent directories are created.
func WriteReport(path string, r Report) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(&r)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

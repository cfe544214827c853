package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/bfs-crawler/internal/entity"
	"gopkg.in/yaml.v3"
)

// ResultWriter writes the results of a run to a file as pretty-printed JSON,
// or YAML when the file name ends in .yaml or .yml.
type ResultWriter struct {
	path string
}

// NewResultWriter creates a writer for the given output path.
func NewResultWriter(path string) *ResultWriter {
	return &ResultWriter{path: path}
}

// Name identifies the sink in logs.
func (w *ResultWriter) Name() string {
	return "file:" + w.path
}

// Save writes output.Results in crawl order, creating the parent directory if needed.
func (w *ResultWriter) Save(_ context.Context, output *entity.CrawlOutput) error {
	results := output.Results
	if results == nil {
		results = []entity.PageResult{}
	}

	data, err := w.encode(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", w.path, err)
	}
	return nil
}

func (w *ResultWriter) encode(results []entity.PageResult) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(w.path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(results, "", "  ")
	}
}

package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/starflow/internal/tagset"
)

// descriptor is the on-disk YAML form of a dataset. It stands in for the
// instrument file reader: upstream tooling classifies a raw frame and writes
// a descriptor; this engine only consumes it.
type descriptor struct {
	Name   string         `yaml:"name"`
	Tags   []string       `yaml:"tags"`
	Header map[string]any `yaml:"header"`
	Pixels []float64      `yaml:"pixels"`
	Shape  []int          `yaml:"shape"`
	Marks  []string       `yaml:"marks"`
}

// Load reads a dataset descriptor file.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset descriptor: %w", err)
	}

	var desc descriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse dataset descriptor %s: %w", path, err)
	}

	name := desc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	d := New(name, tagset.New(desc.Tags...))
	for k, v := range desc.Header {
		d.Header[k] = v
	}
	d.Pixels = desc.Pixels
	d.Shape = desc.Shape
	for _, m := range desc.Marks {
		d.AddMark(m)
	}
	return d, nil
}

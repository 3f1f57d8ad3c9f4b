package calib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/starflow/internal/tagset"

	"github.com/avolkov/starflow/internal/dataset"
)

// indexEntry is one association rule in the calibration index file.
type indexEntry struct {
	Type   string         `yaml:"type"`
	Tags   []string       `yaml:"tags"`
	Header map[string]any `yaml:"header"`
	Path   string         `yaml:"path"`
}

// FileStore is a Manager backed by a YAML index of association rules. An
// entry applies when its type matches, its tags are a subset of the
// dataset's tags, and its header constraints equal the dataset's header
// values. Among applicable entries the one with the most required tags wins;
// a tie between distinct entries is an error rather than an ordering
// accident.
type FileStore struct {
	entries []indexEntry
}

// LoadFileStore reads a calibration index file.
func LoadFileStore(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration index: %w", err)
	}

	var entries []indexEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse calibration index %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range entries {
		e := &entries[i]
		if e.Type == "" || e.Path == "" {
			return nil, fmt.Errorf("calibration index %s: entry %d needs both type and path", path, i)
		}
		// Relative paths are relative to the index file, not the process.
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
	}
	return &FileStore{entries: entries}, nil
}

// Lookup implements Manager.
func (s *FileStore) Lookup(_ context.Context, calType string, d *dataset.Dataset) (string, error) {
	var (
		best     *indexEntry
		bestLen  = -1
		tiedWith *indexEntry
	)

	for i := range s.entries {
		e := &s.entries[i]
		if e.Type != calType || !s.applies(e, d) {
			continue
		}
		n := len(e.Tags)
		switch {
		case n > bestLen:
			best, bestLen, tiedWith = e, n, nil
		case n == bestLen:
			tiedWith = e
		}
	}

	if best == nil {
		return "", &NotFoundError{Type: calType, Dataset: d.String()}
	}
	if tiedWith != nil && tiedWith.Path != best.Path {
		return "", fmt.Errorf("calibration index has equally specific %q entries (%s, %s) for dataset %s",
			calType, best.Path, tiedWith.Path, d)
	}
	return best.Path, nil
}

func (s *FileStore) applies(e *indexEntry, d *dataset.Dataset) bool {
	if !tagset.New(e.Tags...).SubsetOf(d.Tags) {
		return false
	}
	for k, want := range e.Header {
		got, ok := d.Header[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

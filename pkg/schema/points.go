package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PointsFileName is the per-object metadata file inside an objects directory.
const PointsFileName = "points_info.json"

// ObjectPoints is one object's externally-authored point metadata.
// Malformed entries are ignored rather than rejected.
type ObjectPoints struct {
	ContactPoints    []PointEntry `json:"contact_points"    yaml:"contact_points"`
	FunctionalPoints []PointEntry `json:"functional_points" yaml:"functional_points"`
}

// PointEntry is one named reference point. IDs holds the flattened integer
// ids (the source carries either a single integer or a list); it is nil when
// the entry was malformed.
type PointEntry struct {
	IDs  []int
	Name string
}

type pointEntryDoc struct {
	ID   *RawValue `json:"id"   yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

func (e *PointEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil // non-object entry, skip
	}
	var doc pointEntryDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil
	}
	e.fill(doc)
	return nil
}

func (e *PointEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var doc pointEntryDoc
	if err := node.Decode(&doc); err != nil {
		return nil
	}
	e.fill(doc)
	return nil
}

func (e *PointEntry) fill(doc pointEntryDoc) {
	e.Name = doc.Name
	if doc.ID == nil {
		return // missing id, entry is skipped
	}
	switch id := doc.ID.Value.(type) {
	case []any:
		for _, item := range id {
			if n, ok := asPointInt(item); ok {
				e.IDs = append(e.IDs, n)
			}
		}
	default:
		if n, ok := asPointInt(id); ok {
			e.IDs = []int{n}
		}
	}
}

// asPointInt accepts integers and integral floats (JSON numbers decode as
// float64); everything else is not a point id.
func asPointInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	}
	return 0, false
}

// LoadObjectPoints reads one object's points metadata file (JSON).
func LoadObjectPoints(path string) (*ObjectPoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read points metadata: %w", err)
	}
	var op ObjectPoints
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("decode points metadata: %w", err)
	}
	return &op, nil
}

// LoadObjectsDir scans an objects directory laid out as
// <dir>/<object>/points_info.json and returns the metadata by object name.
// Objects without a points file are skipped.
func LoadObjectsDir(dir string) (map[string]ObjectPoints, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read objects dir: %w", err)
	}
	out := make(map[string]ObjectPoints)
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		path := filepath.Join(dir, ent.Name(), PointsFileName)
		op, err := LoadObjectPoints(path)
		if err != nil {
			// Missing or unreadable metadata is skipped (lenient-parse policy).
			continue
		}
		out[ent.Name()] = *op
	}
	return out, nil
}

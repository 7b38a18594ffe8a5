package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawValue is a presence-tracking loose field. Set distinguishes an absent
// key from an explicit null; Value holds whatever the document carried.
type RawValue struct {
	Set   bool
	Value any
}

func (v *RawValue) UnmarshalJSON(data []byte) error {
	v.Set = true
	return json.Unmarshal(data, &v.Value)
}

func (v *RawValue) UnmarshalYAML(node *yaml.Node) error {
	v.Set = true
	return node.Decode(&v.Value)
}

// String returns the value as a string when it is one.
func (v RawValue) String() (string, bool) {
	s, ok := v.Value.(string)
	return s, ok
}

// RawVector is a loose 6-vector field. Items is non-nil only when the
// document carried a list; individual entries may still be non-numeric.
type RawVector struct {
	Set    bool
	IsList bool
	Items  []any
}

func (v *RawVector) UnmarshalJSON(data []byte) error {
	v.Set = true
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	if err := json.Unmarshal(trimmed, &v.Items); err != nil {
		return nil
	}
	v.IsList = true
	return nil
}

func (v *RawVector) UnmarshalYAML(node *yaml.Node) error {
	v.Set = true
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	if err := node.Decode(&v.Items); err != nil {
		return nil
	}
	v.IsList = true
	return nil
}

// Vec6 returns the strict fixed-width vector: exactly 6 entries, every one
// numeric and non-NaN. ok is false otherwise.
func (v RawVector) Vec6() (out [6]float64, ok bool) {
	if !v.IsList || len(v.Items) != 6 {
		return out, false
	}
	for i, item := range v.Items {
		f, numeric := asNumber(item)
		if !numeric || math.IsNaN(f) {
			return [6]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

// Approx6 is the lenient reporting view: a 6-entry list with non-numeric
// entries coerced to 0.0, or all zeros when the value is not a 6-list.
func (v RawVector) Approx6() [6]float64 {
	var out [6]float64
	if !v.IsList || len(v.Items) != 6 {
		return out
	}
	for i, item := range v.Items {
		if f, numeric := asNumber(item); numeric && !math.IsNaN(f) {
			out[i] = f
		}
	}
	return out
}

// asNumber coerces the numeric types the JSON and YAML decoders produce.
// Booleans are not numbers.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// RawStep is one untrusted step record. Invalid is true when the document
// entry was not an object at all.
type RawStep struct {
	Invalid     bool      `json:"-" yaml:"-"`
	Subtask     RawValue  `json:"subtask"      yaml:"subtask"`
	Frame       RawValue  `json:"frame"        yaml:"frame"`
	ActorObj    RawValue  `json:"actor_obj"    yaml:"actor_obj"`
	Actor       RawValue  `json:"actor"        yaml:"actor"` // legacy key, fallback for actor_obj
	TargetObj   RawValue  `json:"target_obj"   yaml:"target_obj"`
	Target      RawValue  `json:"target"       yaml:"target"` // legacy key, fallback for target_obj
	ActorPoint  RawValue  `json:"actor_point"  yaml:"actor_point"`
	TargetPoint RawValue  `json:"target_point" yaml:"target_point"`
	V           RawVector `json:"V"            yaml:"V"`
	M           RawVector `json:"M"            yaml:"M"`
	Notes       RawValue  `json:"notes"        yaml:"notes"`
}

func (s *RawStep) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		s.Invalid = true
		return nil
	}
	type alias RawStep
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		s.Invalid = true
		return nil
	}
	*s = RawStep(a)
	return nil
}

func (s *RawStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		s.Invalid = true
		return nil
	}
	type alias RawStep
	var a alias
	if err := node.Decode(&a); err != nil {
		s.Invalid = true
		return nil
	}
	*s = RawStep(a)
	return nil
}

// RawSequence distinguishes a missing/non-list sequence from an empty one.
type RawSequence struct {
	Set    bool
	IsList bool
	Steps  []RawStep
}

func (q *RawSequence) UnmarshalJSON(data []byte) error {
	q.Set = true
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	if err := json.Unmarshal(trimmed, &q.Steps); err != nil {
		return nil
	}
	q.IsList = true
	return nil
}

func (q *RawSequence) UnmarshalYAML(node *yaml.Node) error {
	q.Set = true
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	if err := node.Decode(&q.Steps); err != nil {
		return nil
	}
	q.IsList = true
	return nil
}

// RawPlan is an untrusted task plan as produced by an external planner.
type RawPlan struct {
	Task     RawValue    `json:"task"     yaml:"task"`
	Sequence RawSequence `json:"sequence" yaml:"sequence"`
}

// LoadPlan parses an untrusted plan from JSON.
func LoadPlan(r io.Reader) (*RawPlan, error) {
	dec := json.NewDecoder(r)
	var p RawPlan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// LoadPlanYAML parses an untrusted plan from YAML.
func LoadPlanYAML(r io.Reader) (*RawPlan, error) {
	dec := yaml.NewDecoder(r)
	var p RawPlan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// LoadPlanFile loads a plan file, choosing the decoder by extension
// (.yaml/.yml for YAML, anything else is treated as JSON).
func LoadPlanFile(path string) (*RawPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadPlanYAML(f)
	default:
		return LoadPlan(f)
	}
}

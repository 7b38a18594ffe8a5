// Package schema defines the record types for manipulation task plans and
// per-object point metadata. Sanitized types are strict; the Raw* types are
// deliberately lenient because planner output is untrusted.
package schema

import "strings"

// Frame is the reference coordinate system a step's twist/wrench is
// expressed in.
type Frame string

const (
	FrameWorld      Frame = "WORLD"
	FrameContact    Frame = "CONTACT"
	FrameFunctional Frame = "FUNCTIONAL"
)

// AllowedFrames lists the legal frames in sorted order, for messages.
var AllowedFrames = []Frame{FrameContact, FrameFunctional, FrameWorld}

// ParseFrame normalizes a raw frame string (trim + uppercase) and reports
// whether it resolves to a legal frame.
func ParseFrame(s string) (Frame, bool) {
	f := Frame(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FrameWorld, FrameContact, FrameFunctional:
		return f, true
	}
	return "", false
}

// AllowedSubtasks is the fixed set of recognized subtask names. Unknown
// subtasks are tolerated as warnings unless strict mode is requested.
var AllowedSubtasks = map[string]bool{
	"grasp":                true,
	"pre_grasp":            true,
	"move_by_displacement": true,
	"move_to_pose":         true,
	"rotate":               true,
	"place":                true,
	"release":              true,
}

// HardFrameBySubtask maps subtasks that hard-require a specific frame.
var HardFrameBySubtask = map[string]Frame{
	"grasp":  FrameContact,
	"rotate": FrameFunctional,
}

// ZeroFillSubtasks are the subtasks that receive a default forward-approach
// motion when both V and M arrive all-zero and auto-fix is enabled.
var ZeroFillSubtasks = map[string]bool{
	"move_to_pose":         true,
	"place":                true,
	"move_by_displacement": true,
}

// MaxRecommendedSteps is the soft advisory bound on sequence length.
// Exceeding it is a warning, not a rejection.
const MaxRecommendedSteps = 8

// NormalizeSubtask lowercases a subtask name and replaces spaces with
// underscores, e.g. "Move To Pose" -> "move_to_pose".
func NormalizeSubtask(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Plan is a sanitized, canonical task plan.
type Plan struct {
	Task     string `json:"task,omitempty" yaml:"task,omitempty"`
	Sequence []Step `json:"sequence"       yaml:"sequence"       jsonschema:"required,minItems=1"`
}

// Step is one sanitized manipulation action. Point identifiers are canonical
// integers (nil means "no point"); V and M are fixed-width twist/wrench
// vectors in the step's declared frame.
type Step struct {
	Subtask     string     `json:"subtask"              yaml:"subtask"              jsonschema:"required"`
	Frame       Frame      `json:"frame"                yaml:"frame"                jsonschema:"required,enum=WORLD,enum=CONTACT,enum=FUNCTIONAL"`
	ActorObj    string     `json:"actor_obj,omitempty"  yaml:"actor_obj,omitempty"`
	TargetObj   string     `json:"target_obj,omitempty" yaml:"target_obj,omitempty"`
	ActorPoint  *int       `json:"actor_point"          yaml:"actor_point"          jsonschema:"oneof_type=integer;null"`
	TargetPoint *int       `json:"target_point"         yaml:"target_point"         jsonschema:"oneof_type=integer;null"`
	V           [6]float64 `json:"V"                    yaml:"V"                    jsonschema:"required"`
	M           [6]float64 `json:"M"                    yaml:"M"                    jsonschema:"required"`
	Notes       string     `json:"notes,omitempty"      yaml:"notes,omitempty"`
}

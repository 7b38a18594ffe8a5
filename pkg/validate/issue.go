// Package validate implements the plan validation & sanitization engine:
// step normalization, numeric constraint enforcement, frame/point
// consistency checking, and the ordered issue ledger.
package validate

import (
	"fmt"
	"strings"

	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// Level is an issue severity. ERROR means an invariant was violated and not
// (or could not be) auto-corrected; WARN means the violation was corrected
// or judged non-fatal by policy.
type Level string

const (
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
)

// Issue codes. Several WARN codes document a mutation that changed the
// plan's meaning — callers must never discard warnings.
const (
	CodeMissingTask       = "MISSING_TASK"
	CodeNoSequence        = "NO_SEQUENCE"
	CodeEmptySequence     = "EMPTY_SEQUENCE"
	CodeTooManySteps      = "TOO_MANY_STEPS"
	CodeStepNotObject     = "STEP_NOT_OBJECT"
	CodeBadSubtask        = "BAD_SUBTASK"
	CodeUnknownSubtask    = "UNKNOWN_SUBTASK"
	CodeSubtaskNotAllowed = "SUBTASK_NOT_ALLOWED"
	CodeBadFrame          = "BAD_FRAME"
	CodeBadActorObj       = "BAD_ACTOR_OBJ"
	CodeBadTargetObj      = "BAD_TARGET_OBJ"
	CodeMissingPointKey   = "MISSING_POINT_KEY"
	CodePointNotInt       = "POINT_NOT_INT"
	CodePointParsed       = "POINT_PARSED"
	CodeBadV              = "BAD_V"
	CodeBadM              = "BAD_M"
	CodeVMRuleFixed       = "VM_RULE_FIXED"
	CodeVMRuleViolation   = "VM_RULE_VIOLATION"
	CodeZeroStep          = "ZERO_STEP"
	CodeZeroStepFilled    = "ZERO_STEP_FILLED"
	CodeZeroStepNotAllow  = "ZERO_STEP_NOT_ALLOWED"
	CodeDenseTwist        = "DENSE_TWIST"
	CodeFrameHardFixed    = "FRAME_HARD_FIXED"
	CodeFrameHardViolated = "FRAME_HARD_VIOLATION"
	CodePointIDNotFound   = "POINT_ID_NOT_FOUND"
	CodePointIDBadObject  = "POINT_ID_INVALID_FOR_OBJECT"
	CodePointIDBadFrame   = "POINT_ID_INVALID_FOR_FRAME"
	CodeCustomRule        = "CUSTOM_RULE"
)

// Issue is one validation finding. Immutable once appended to the ledger.
type Issue struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"` // location locator, e.g. "sequence[2].frame"
}

func (i Issue) String() string {
	if i.Path != "" {
		return fmt.Sprintf("[%s] %s @ %s: %s", i.Level, i.Code, i.Path, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Level, i.Code, i.Message)
}

// Result is one validation outcome: the best-effort sanitized plan, the
// ordered issue ledger, and the overall pass/fail flag. OK is false iff at
// least one ERROR-level issue was recorded; warnings alone keep OK true.
type Result struct {
	OK        bool         `json:"ok"`
	Sanitized *schema.Plan `json:"sanitized"`
	Issues    []Issue      `json:"issues"`
}

// Errors returns the ERROR-level issues in emission order.
func (r *Result) Errors() []Issue {
	return filterLevel(r.Issues, LevelError)
}

// Warnings returns the WARN-level issues in emission order.
func (r *Result) Warnings() []Issue {
	return filterLevel(r.Issues, LevelWarn)
}

func filterLevel(issues []Issue, lvl Level) []Issue {
	var out []Issue
	for _, it := range issues {
		if it.Level == lvl {
			out = append(out, it)
		}
	}
	return out
}

// IssuesText renders issues as human-readable lines, one per issue,
// preserving emission order.
func IssuesText(issues []Issue) string {
	lines := make([]string, 0, len(issues))
	for _, it := range issues {
		lines = append(lines, it.String())
	}
	return strings.Join(lines, "\n")
}

// CodeCounts tallies issues by code, for report summaries.
func CodeCounts(issues []Issue) map[string]int {
	counts := make(map[string]int)
	for _, it := range issues {
		counts[it.Code]++
	}
	return counts
}

// ledger is the ordered, append-only issue list shared by all checks in one
// validation run.
type ledger struct {
	issues    []Issue
	hasErrors bool
}

func (l *ledger) errorf(code, path, msg string, args ...any) {
	l.issues = append(l.issues, Issue{
		Level:   LevelError,
		Code:    code,
		Message: fmt.Sprintf(msg, args...),
		Path:    path,
	})
	l.hasErrors = true
}

func (l *ledger) warnf(code, path, msg string, args ...any) {
	l.issues = append(l.issues, Issue{
		Level:   LevelWarn,
		Code:    code,
		Message: fmt.Sprintf(msg, args...),
		Path:    path,
	})
}

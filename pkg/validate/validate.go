package validate

import (
	"fmt"
	"strings"

	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// Default numeric bounds for clamping twist/wrench components.
const (
	DefaultMaxAbsV = 3.0
	DefaultMaxAbsM = 50.0
)

// epsilon below which a component counts as zero.
const eps = 1e-9

// Options controls validation policy.
type Options struct {
	// AutoFix enables in-place repair of recoverable violations; repairs are
	// recorded as warnings instead of fatal errors.
	AutoFix bool
	// StrictSubtasks upgrades unknown subtask names from WARN to ERROR.
	StrictSubtasks bool
	// MaxAbsV / MaxAbsM bound twist and wrench component magnitudes.
	// Zero means the default (3.0 / 50.0).
	MaxAbsV float64
	MaxAbsM float64
}

func (o Options) withDefaults() Options {
	if o.MaxAbsV == 0 {
		o.MaxAbsV = DefaultMaxAbsV
	}
	if o.MaxAbsM == 0 {
		o.MaxAbsM = DefaultMaxAbsM
	}
	return o
}

// stepCtx carries one step's sanitized record and parse outcomes between
// the normalizer, numeric enforcer, and consistency checker.
type stepCtx struct {
	path string
	out  schema.Step

	subtaskKnown bool // subtask parsed to a normalized string
	frameKnown   bool // frame resolved to a legal frame
	vecOK        bool // both V and M are well-formed 6-vectors
}

type validator struct {
	opts Options
	idx  *points.Index
	led  *ledger
}

// Plan validates and sanitizes an untrusted plan against the point index.
// The caller's input is never mutated; the sanitized plan is built
// field-by-field from validated (and possibly corrected) values, and is
// returned best-effort even when validation fails.
func Plan(raw *schema.RawPlan, idx *points.Index, opts Options) *Result {
	v := &validator{opts: opts.withDefaults(), idx: idx, led: &ledger{}}
	out := &schema.Plan{}

	// Top-level checks.
	if task, ok := raw.Task.String(); ok && strings.TrimSpace(task) != "" {
		out.Task = task
	}
	if out.Task == "" {
		v.led.warnf(CodeMissingTask, "task", "Top-level 'task' is missing/invalid (recommended).")
	}

	if !raw.Sequence.Set || !raw.Sequence.IsList {
		v.led.errorf(CodeNoSequence, "sequence", "Top-level 'sequence' must be a list.")
		return v.result(out)
	}
	if len(raw.Sequence.Steps) == 0 {
		v.led.errorf(CodeEmptySequence, "sequence", "Sequence must contain at least one step.")
		return v.result(out)
	}
	if len(raw.Sequence.Steps) > schema.MaxRecommendedSteps {
		v.led.warnf(CodeTooManySteps, "sequence",
			"Sequence has %d steps; recommended <= %d.", len(raw.Sequence.Steps), schema.MaxRecommendedSteps)
	}

	out.Sequence = make([]schema.Step, 0, len(raw.Sequence.Steps))
	for i := range raw.Sequence.Steps {
		rs := &raw.Sequence.Steps[i]
		path := fmt.Sprintf("sequence[%d]", i)
		if rs.Invalid {
			v.led.errorf(CodeStepNotObject, path, "Each step must be an object.")
			// Keep indices aligned with the input sequence.
			out.Sequence = append(out.Sequence, schema.Step{})
			continue
		}
		sc := &stepCtx{path: path}
		v.normalizeStep(rs, sc)
		v.enforceNumeric(rs, sc)
		v.checkConsistency(sc)
		out.Sequence = append(out.Sequence, sc.out)
	}

	return v.result(out)
}

// File loads a plan file and validates it against the point index.
func File(path string, idx *points.Index, opts Options) (*Result, error) {
	raw, err := schema.LoadPlanFile(path)
	if err != nil {
		return nil, err
	}
	return Plan(raw, idx, opts), nil
}

func (v *validator) result(out *schema.Plan) *Result {
	return &Result{
		OK:        !v.led.hasErrors,
		Sanitized: out,
		Issues:    v.led.issues,
	}
}

package validate

import (
	"math"

	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// enforceNumeric validates the step's twist/wrench pair and applies the
// numeric policy: clamping, per-axis velocity/force mutual exclusivity,
// degenerate-step handling, and the density advisory.
func (v *validator) enforceNumeric(rs *schema.RawStep, sc *stepCtx) {
	p := sc.path

	vec, vok := rs.V.Vec6()
	if !vok {
		v.led.errorf(CodeBadV, p+".V", "'V' must be a list of 6 numbers.")
	}
	wrench, mok := rs.M.Vec6()
	if !mok {
		v.led.errorf(CodeBadM, p+".M", "'M' must be a list of 6 numbers.")
	}
	if !vok || !mok {
		return // numeric checks are skipped for malformed vectors
	}
	sc.vecOK = true

	// Clamping is normalization, not a finding.
	if v.opts.AutoFix {
		for k := 0; k < 6; k++ {
			vec[k] = clamp(vec[k], -v.opts.MaxAbsV, v.opts.MaxAbsV)
			wrench[k] = clamp(wrench[k], -v.opts.MaxAbsM, v.opts.MaxAbsM)
		}
	}

	// Mutual exclusivity: a step is either a motion command or a force
	// command along a given axis, never both.
	var violated []int
	for k := 0; k < 6; k++ {
		if math.Abs(vec[k]) > eps && math.Abs(wrench[k]) > eps {
			violated = append(violated, k)
		}
	}
	if len(violated) > 0 {
		if v.opts.AutoFix {
			for _, k := range violated {
				wrench[k] = 0
			}
			v.led.warnf(CodeVMRuleFixed, p, "Auto-fixed: zeroed M at indices %v.", violated)
		} else {
			v.led.errorf(CodeVMRuleViolation, p, "Rule violated at indices %v.", violated)
		}
	}

	sc.out.V = vec
	sc.out.M = wrench

	// Degeneracy: both vectors (near-)zero after exclusivity enforcement.
	if allZero(vec) && allZero(wrench) {
		if schema.ZeroFillSubtasks[sc.out.Subtask] {
			if v.opts.AutoFix {
				if sc.frameKnown {
					// Default forward-approach motion along the declared frame's +z.
					sc.out.V[2] = 1.0
					v.led.warnf(CodeZeroStepFilled, p,
						"Filled all-zero step with default approach Vz=+1.0 in frame=%s", sc.out.Frame)
				}
			} else {
				v.led.errorf(CodeZeroStepNotAllow, p, "All-zero V/M not allowed for this subtask.")
			}
		} else {
			v.led.warnf(CodeZeroStep, p, "V and M are all zeros (step may be redundant).")
		}
		return
	}

	// Density advisory: motions should be axis-sparse.
	nz := 0
	for k := 0; k < 6; k++ {
		if math.Abs(vec[k]) > eps {
			nz++
		}
	}
	if nz > 2 {
		v.led.warnf(CodeDenseTwist, p, "V has %d non-zero components; prefer sparse.", nz)
	}
}

func allZero(v [6]float64) bool {
	for k := 0; k < 6; k++ {
		if math.Abs(v[k]) > eps {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

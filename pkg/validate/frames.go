package validate

import (
	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// checkConsistency enforces frame-to-subtask hard constraints and validates
// point-id membership. It runs after frame hard-fixing, so a corrected
// frame is what gates point-kind expectations.
func (v *validator) checkConsistency(sc *stepCtx) {
	p := sc.path

	// Hard frame binding.
	if sc.subtaskKnown && sc.frameKnown {
		if required, bound := schema.HardFrameBySubtask[sc.out.Subtask]; bound && sc.out.Frame != required {
			if v.opts.AutoFix {
				v.led.warnf(CodeFrameHardFixed, p+".frame",
					"Auto-fixed frame: %s -> %s for %q.", sc.out.Frame, required, sc.out.Subtask)
				sc.out.Frame = required
			} else {
				v.led.errorf(CodeFrameHardViolated, p+".frame",
					"Subtask %q requires frame %q.", sc.out.Subtask, required)
			}
		}
	}

	if v.idx == nil || !sc.frameKnown {
		return
	}
	v.checkPointID(sc, "actor_point", sc.out.ActorPoint, sc.out.ActorObj)
	v.checkPointID(sc, "target_point", sc.out.TargetPoint, sc.out.TargetObj)
}

// checkPointID validates one canonical point id against the index.
//
// WORLD imposes no kind constraint: the id only needs to exist somewhere in
// the merged union, and absence is a warning. CONTACT/FUNCTIONAL derive an
// expected kind; membership is checked against the named object's set when
// an object is known (authoritative, ERROR-capable), or against the
// cross-object union as an explicit lower-confidence fallback. Empty sets
// impose nothing — absent metadata never fails a plan.
func (v *validator) checkPointID(sc *stepCtx, field string, id *int, objName string) {
	if id == nil {
		return
	}
	p := sc.path + "." + field

	if sc.out.Frame == schema.FrameWorld {
		union := v.idx.Union().Any
		if union.Len() > 0 && !union.Has(*id) {
			v.led.warnf(CodePointIDNotFound, p, "%s=%d not found in any points_info id.", field, *id)
		}
		return
	}

	kind, constrained := points.KindForFrame(sc.out.Frame)
	if !constrained {
		return
	}

	if objName != "" {
		if sets, ok := v.idx.Object(objName); ok {
			allowed := sets.ByKind(kind)
			if allowed.Len() > 0 && !allowed.Has(*id) {
				v.led.errorf(CodePointIDBadObject, p, "%s=%d not in %s.%s ids.", field, *id, objName, kind)
			}
			return
		}
	}

	union := v.idx.Union().ByKind(kind)
	if union.Len() > 0 && !union.Has(*id) {
		v.led.errorf(CodePointIDBadFrame, p,
			"%s=%d not valid for frame=%s (expected %s).", field, *id, sc.out.Frame, kind)
	}
}

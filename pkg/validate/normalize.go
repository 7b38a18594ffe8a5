package validate

import (
	"math"
	"strconv"
	"strings"

	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// pointIDPrefixes are the string spellings accepted for point identifiers,
// e.g. "contact_point_3" -> 3.
var pointIDPrefixes = []string{"contact_point_", "functional_point_", "point_"}

// normalizeStep canonicalizes one step's categorical and identifier fields
// into the sanitized record. Every failure degrades to a recorded issue;
// processing always continues.
func (v *validator) normalizeStep(rs *schema.RawStep, sc *stepCtx) {
	p := sc.path

	// Subtask: lowercase + underscores.
	if s, ok := rs.Subtask.String(); ok {
		sub := schema.NormalizeSubtask(s)
		sc.out.Subtask = sub
		sc.subtaskKnown = true
		if !schema.AllowedSubtasks[sub] {
			if v.opts.StrictSubtasks {
				v.led.errorf(CodeSubtaskNotAllowed, p+".subtask", "Subtask %q not allowed.", sub)
			} else {
				v.led.warnf(CodeUnknownSubtask, p+".subtask", "Subtask %q not in allowed set (will continue).", sub)
			}
		}
	} else {
		v.led.errorf(CodeBadSubtask, p+".subtask", "Missing/invalid 'subtask'.")
	}

	// Frame: trim + uppercase, must resolve to a legal frame.
	if s, ok := rs.Frame.String(); ok {
		if f, legal := schema.ParseFrame(s); legal {
			sc.out.Frame = f
			sc.frameKnown = true
		}
	}
	if !sc.frameKnown {
		v.led.errorf(CodeBadFrame, p+".frame", "'frame' must be one of %v.", schema.AllowedFrames)
	}

	// Object names: optional strings, validated if present. The legacy
	// "actor"/"target" keys are honored as fallbacks.
	sc.out.ActorObj = v.normalizeObj(objField(rs.ActorObj, rs.Actor), CodeBadActorObj, p+".actor_obj", "'actor_obj' should be a string or null.")
	sc.out.TargetObj = v.normalizeObj(objField(rs.TargetObj, rs.Target), CodeBadTargetObj, p+".target_obj", "'target_obj' should be a string or null.")

	// Point identifiers: canonical integers.
	sc.out.ActorPoint = v.normalizePoint(rs.ActorPoint, "actor_point", p)
	sc.out.TargetPoint = v.normalizePoint(rs.TargetPoint, "target_point", p)

	// Notes: passthrough only.
	if s, ok := rs.Notes.String(); ok {
		sc.out.Notes = s
	}
}

// objField prefers the canonical key, falling back to the legacy key.
func objField(primary, legacy schema.RawValue) schema.RawValue {
	if primary.Set {
		return primary
	}
	return legacy
}

func (v *validator) normalizeObj(rv schema.RawValue, code, path, msg string) string {
	if !rv.Set || rv.Value == nil {
		return ""
	}
	s, ok := rv.Value.(string)
	if !ok {
		v.led.warnf(code, path, "%s", msg)
		return ""
	}
	return s
}

// normalizePoint canonicalizes a point identifier field. Absence of the key
// is discouraged (warning); an explicit null is legal. Integers pass
// through; numeric strings and prefixed strings are parsed, recorded as a
// POINT_PARSED coercion; anything else is a POINT_NOT_INT error.
func (v *validator) normalizePoint(rv schema.RawValue, field, stepPath string) *int {
	p := stepPath + "." + field
	if !rv.Set {
		v.led.warnf(CodeMissingPointKey, p, "Missing %q (allowed to be null).", field)
		return nil
	}
	if rv.Value == nil {
		return nil
	}
	id, wasInt, ok := parsePointID(rv.Value)
	if !ok {
		v.led.errorf(CodePointNotInt, p, "%q must be int or null.", field)
		return nil
	}
	if !wasInt {
		v.led.warnf(CodePointParsed, p, "Parsed %q string -> int (%d).", field, id)
	}
	return &id
}

// parsePointID accepts an integer (or integral float — JSON numbers decode
// as float64), a digit string, or a prefixed string like "contact_point_3".
// wasInt reports whether the input was already a numeric representation.
func parsePointID(val any) (id int, wasInt, ok bool) {
	switch n := val.(type) {
	case int:
		return n, true, true
	case int64:
		return int(n), true, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true, true
		}
		return 0, false, false
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		if parsed, err := strconv.Atoi(s); err == nil && isDigits(s) {
			return parsed, false, true
		}
		for _, prefix := range pointIDPrefixes {
			if tail, found := strings.CutPrefix(s, prefix); found && isDigits(tail) {
				parsed, err := strconv.Atoi(tail)
				if err == nil {
					return parsed, false, true
				}
			}
		}
	}
	return 0, false, false
}

// isDigits reports whether s is one or more ASCII digits (no sign).
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

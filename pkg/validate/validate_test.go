package validate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/schema"
)

func parsePlan(t *testing.T, src string) *schema.RawPlan {
	t.Helper()
	raw, err := schema.LoadPlan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	return raw
}

// testIndex builds a small two-object index: cup has contact {0,1,2} and
// functional {0,1,2}; table has contact {0} and no functional points.
func testIndex() *points.Index {
	return points.Build(map[string]schema.ObjectPoints{
		"cup": {
			ContactPoints:    []schema.PointEntry{{IDs: []int{0, 1, 2}}},
			FunctionalPoints: []schema.PointEntry{{IDs: []int{0, 1, 2}}},
		},
		"table": {
			ContactPoints: []schema.PointEntry{{IDs: []int{0}}},
		},
	})
}

func hasCode(issues []Issue, code string) bool {
	for _, it := range issues {
		if it.Code == code {
			return true
		}
	}
	return false
}

func countCode(issues []Issue, code string) int {
	n := 0
	for _, it := range issues {
		if it.Code == code {
			n++
		}
	}
	return n
}

func issueByCode(t *testing.T, issues []Issue, code string) Issue {
	t.Helper()
	for _, it := range issues {
		if it.Code == code {
			return it
		}
	}
	t.Fatalf("expected issue %s, got %v", code, issues)
	return Issue{}
}

func TestGraspStepFullNormalization(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "Pick up the cup",
		"sequence": [{
			"subtask": "Grasp", "frame": "world",
			"actor_obj": "cup", "target_obj": null,
			"actor_point": "contact_point_2", "target_point": null,
			"V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("expected OK, errors: %v", res.Errors())
	}
	st := res.Sanitized.Sequence[0]
	if st.Subtask != "grasp" {
		t.Errorf("subtask = %q, want grasp", st.Subtask)
	}
	if st.Frame != schema.FrameContact {
		t.Errorf("frame = %q, want CONTACT", st.Frame)
	}
	if !hasCode(res.Issues, CodeFrameHardFixed) {
		t.Error("expected FRAME_HARD_FIXED warning")
	}
	if st.ActorPoint == nil || *st.ActorPoint != 2 {
		t.Errorf("actor_point = %v, want 2", st.ActorPoint)
	}
	if !hasCode(res.Issues, CodePointParsed) {
		t.Error("expected POINT_PARSED warning")
	}
	// grasp is not in the zero-fill set: the zero twist stays zero.
	if st.V != ([6]float64{}) {
		t.Errorf("V = %v, want all zeros", st.V)
	}
	if !hasCode(res.Issues, CodeZeroStep) {
		t.Error("expected ZERO_STEP warning")
	}
	if hasCode(res.Issues, CodeZeroStepFilled) {
		t.Error("ZERO_STEP_FILLED must not fire for non-fill subtasks")
	}
}

func TestExclusivityAutoFix(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_by_displacement", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [1,0,0,0,0,0], "M": [5,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("expected OK, errors: %v", res.Errors())
	}
	st := res.Sanitized.Sequence[0]
	if st.M[0] != 0 {
		t.Errorf("M[0] = %v, want 0 after exclusivity fix", st.M[0])
	}
	if st.V[0] != 1 {
		t.Errorf("V[0] = %v, want 1 (velocity wins)", st.V[0])
	}
	fix := issueByCode(t, res.Issues, CodeVMRuleFixed)
	if !strings.Contains(fix.Message, "[0]") {
		t.Errorf("fix message should name index 0: %q", fix.Message)
	}
	if countCode(res.Issues, CodeVMRuleFixed) != 1 {
		t.Error("expected exactly one VM_RULE_FIXED")
	}
}

func TestExclusivityNoAutoFix(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_by_displacement", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [1,0,0,0,0,0], "M": [5,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: false})

	if res.OK {
		t.Fatal("expected validation failure")
	}
	if !hasCode(res.Errors(), CodeVMRuleViolation) {
		t.Error("expected VM_RULE_VIOLATION error")
	}
	if res.Sanitized.Sequence[0].M[0] != 5 {
		t.Errorf("M must be left unmodified without auto-fix, got %v", res.Sanitized.Sequence[0].M[0])
	}
}

func TestZeroStepFilled(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "place", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	st := res.Sanitized.Sequence[0]
	want := [6]float64{0, 0, 1, 0, 0, 0}
	if st.V != want {
		t.Errorf("V = %v, want %v", st.V, want)
	}
	if !hasCode(res.Issues, CodeZeroStepFilled) {
		t.Error("expected ZERO_STEP_FILLED warning")
	}
	if hasCode(res.Issues, CodeZeroStep) {
		t.Error("ZERO_STEP and ZERO_STEP_FILLED are mutually exclusive")
	}
}

func TestZeroStepNotAllowedWithoutAutoFix(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "place", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: false})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !hasCode(res.Errors(), CodeZeroStepNotAllow) {
		t.Error("expected ZERO_STEP_NOT_ALLOWED error")
	}
}

func TestEmptySequence(t *testing.T) {
	raw := parsePlan(t, `{"task": "t", "sequence": []}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if res.OK {
		t.Fatal("expected failure")
	}
	if len(res.Issues) != 1 || res.Issues[0].Code != CodeEmptySequence {
		t.Errorf("expected exactly one EMPTY_SEQUENCE, got %v", res.Issues)
	}
	if len(res.Sanitized.Sequence) != 0 {
		t.Errorf("sanitized sequence should be empty, got %d steps", len(res.Sanitized.Sequence))
	}
}

func TestSequenceNotAList(t *testing.T) {
	raw := parsePlan(t, `{"task": "t", "sequence": "nope"}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !hasCode(res.Errors(), CodeNoSequence) {
		t.Error("expected NO_SEQUENCE error")
	}
}

func TestPointIDInvalidForObject(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "rotate", "frame": "FUNCTIONAL",
			"actor_obj": "cup",
			"actor_point": 7, "target_point": null,
			"V": [0,0,0,1,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !hasCode(res.Errors(), CodePointIDBadObject) {
		t.Errorf("expected POINT_ID_INVALID_FOR_OBJECT, got %v", res.Issues)
	}
}

func TestPointMembershipUsesUnionFallback(t *testing.T) {
	// No object name: membership falls back to the cross-object union.
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "rotate", "frame": "FUNCTIONAL",
			"actor_point": 99, "target_point": null,
			"V": [0,0,0,1,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	if !hasCode(res.Errors(), CodePointIDBadFrame) {
		t.Errorf("expected POINT_ID_INVALID_FOR_FRAME, got %v", res.Issues)
	}
}

func TestWorldPointNotFoundIsWarning(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_to_pose", "frame": "WORLD",
			"actor_point": 42, "target_point": null,
			"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("WORLD membership misses must stay warnings, errors: %v", res.Errors())
	}
	if !hasCode(res.Warnings(), CodePointIDNotFound) {
		t.Error("expected POINT_ID_NOT_FOUND warning")
	}
}

func TestEmptySetsImposeNothing(t *testing.T) {
	// table has no functional points; an empty set must not reject ids.
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "rotate", "frame": "FUNCTIONAL",
			"actor_obj": "table",
			"actor_point": 5, "target_point": null,
			"V": [0,0,0,1,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("empty point set must impose nothing, errors: %v", res.Errors())
	}
}

func TestClampBounds(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_to_pose", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [5,-4,0,0,0,0], "M": [0,0,100,0,0,-60]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	st := res.Sanitized.Sequence[0]
	if st.V[0] != 3 || st.V[1] != -3 {
		t.Errorf("V clamp: got %v, want [3 -3 ...]", st.V)
	}
	if st.M[2] != 50 || st.M[5] != -50 {
		t.Errorf("M clamp: got %v, want [... 50 ... -50]", st.M)
	}
}

func TestMalformedVectorsSkipNumericChecks(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_to_pose", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [1,2,3], "M": "nope"
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !hasCode(res.Errors(), CodeBadV) || !hasCode(res.Errors(), CodeBadM) {
		t.Error("expected BAD_V and BAD_M errors")
	}
	// No downstream numeric findings for malformed vectors.
	for _, code := range []string{CodeVMRuleFixed, CodeVMRuleViolation, CodeZeroStep, CodeDenseTwist} {
		if hasCode(res.Issues, code) {
			t.Errorf("unexpected %s on malformed vectors", code)
		}
	}
}

func TestDenseTwistAdvisory(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{
			"subtask": "move_to_pose", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [1,1,1,0,0,0], "M": [0,0,0,0,0,0]
		}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("density is advisory, errors: %v", res.Errors())
	}
	if !hasCode(res.Warnings(), CodeDenseTwist) {
		t.Error("expected DENSE_TWIST warning")
	}
}

func TestStepNotObjectKeepsIndices(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [
			"garbage",
			{"subtask": "release", "frame": "CONTACT",
			 "actor_point": null, "target_point": null,
			 "V": [0,0,-1,0,0,0], "M": [0,0,0,0,0,0]}
		]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !hasCode(res.Errors(), CodeStepNotObject) {
		t.Error("expected STEP_NOT_OBJECT error")
	}
	if len(res.Sanitized.Sequence) != 2 {
		t.Fatalf("sanitized sequence must stay index-aligned, got %d steps", len(res.Sanitized.Sequence))
	}
	if res.Sanitized.Sequence[1].Subtask != "release" {
		t.Errorf("step 1 = %q, want release", res.Sanitized.Sequence[1].Subtask)
	}
	bad := issueByCode(t, res.Issues, CodeStepNotObject)
	if bad.Path != "sequence[0]" {
		t.Errorf("path = %q, want sequence[0]", bad.Path)
	}
}

func TestTooManyStepsAdvisory(t *testing.T) {
	step := `{"subtask": "move_to_pose", "frame": "WORLD",
		"actor_point": null, "target_point": null,
		"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]}`
	steps := make([]string, 9)
	for i := range steps {
		steps[i] = step
	}
	raw := parsePlan(t, `{"task": "t", "sequence": [`+strings.Join(steps, ",")+`]}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("length cap is advisory, errors: %v", res.Errors())
	}
	if !hasCode(res.Warnings(), CodeTooManySteps) {
		t.Error("expected TOO_MANY_STEPS warning")
	}
}

func TestMissingTaskIsWarning(t *testing.T) {
	raw := parsePlan(t, `{
		"sequence": [{"subtask": "release", "frame": "CONTACT",
			"actor_point": null, "target_point": null,
			"V": [0,0,-1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("missing task must not fail the plan, errors: %v", res.Errors())
	}
	if !hasCode(res.Warnings(), CodeMissingTask) {
		t.Error("expected MISSING_TASK warning")
	}
}

func TestStrictSubtasks(t *testing.T) {
	src := `{
		"task": "t",
		"sequence": [{"subtask": "wiggle", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`

	res := Plan(parsePlan(t, src), nil, Options{AutoFix: true})
	if !res.OK || !hasCode(res.Warnings(), CodeUnknownSubtask) {
		t.Error("lenient mode: unknown subtask should warn and pass")
	}

	res = Plan(parsePlan(t, src), nil, Options{AutoFix: true, StrictSubtasks: true})
	if res.OK || !hasCode(res.Errors(), CodeSubtaskNotAllowed) {
		t.Error("strict mode: unknown subtask should fail")
	}
}

func TestFrameHardViolationWithoutAutoFix(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "grasp", "frame": "WORLD",
			"actor_point": null, "target_point": null,
			"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: false})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !hasCode(res.Errors(), CodeFrameHardViolated) {
		t.Error("expected FRAME_HARD_VIOLATION error")
	}
	if res.Sanitized.Sequence[0].Frame != schema.FrameWorld {
		t.Error("frame must be left unmodified without auto-fix")
	}
}

// A sanitized plan revalidated with the same options must produce no new
// corrective findings.
func TestValidationIsIdempotent(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "Pick and place",
		"sequence": [
			{"subtask": "Grasp", "frame": "world", "actor_obj": "cup",
			 "actor_point": "contact_point_1", "target_point": null,
			 "V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]},
			{"subtask": "place", "frame": "WORLD",
			 "actor_point": null, "target_point": null,
			 "V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]},
			{"subtask": "move_to_pose", "frame": "WORLD",
			 "actor_point": null, "target_point": null,
			 "V": [5,0,0,0,0,0], "M": [5,0,0,0,0,0]}
		]
	}`)
	first := Plan(raw, testIndex(), Options{AutoFix: true})
	if !first.OK {
		t.Fatalf("first pass errors: %v", first.Errors())
	}

	data, err := json.Marshal(first.Sanitized)
	if err != nil {
		t.Fatal(err)
	}
	again := parsePlan(t, string(data))
	second := Plan(again, testIndex(), Options{AutoFix: true})

	if !second.OK {
		t.Fatalf("second pass errors: %v", second.Errors())
	}
	for _, code := range []string{CodeFrameHardFixed, CodeVMRuleFixed, CodePointParsed, CodeZeroStepFilled} {
		if hasCode(second.Issues, code) {
			t.Errorf("second pass emitted corrective finding %s", code)
		}
	}
	if second.Sanitized.Sequence[0].Frame != first.Sanitized.Sequence[0].Frame {
		t.Error("sanitized output changed across passes")
	}
}

// Turning auto-fix off must never make a passing plan fail less: every
// auto-fixed WARN corresponds to an ERROR (or disappears) without auto-fix.
func TestFatalityMonotonicity(t *testing.T) {
	src := `{
		"task": "t",
		"sequence": [{"subtask": "grasp", "frame": "WORLD", "actor_obj": "cup",
			"actor_point": 1, "target_point": null,
			"V": [1,0,0,0,0,0], "M": [1,0,0,0,0,0]}]
	}`

	fixed := Plan(parsePlan(t, src), testIndex(), Options{AutoFix: true})
	strict := Plan(parsePlan(t, src), testIndex(), Options{AutoFix: false})

	if !fixed.OK {
		t.Fatalf("auto-fix pass errors: %v", fixed.Errors())
	}
	if strict.OK {
		t.Fatal("no-fix pass must fail where fixes were needed")
	}
	if len(strict.Errors()) < 2 {
		t.Errorf("expected frame and exclusivity errors, got %v", strict.Errors())
	}
}

func TestPointNotIntError(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "move_to_pose", "frame": "WORLD",
			"actor_point": {"id": 3}, "target_point": 1.5,
			"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if res.OK {
		t.Fatal("expected failure")
	}
	if countCode(res.Errors(), CodePointNotInt) != 2 {
		t.Errorf("expected POINT_NOT_INT for both fields, got %v", res.Issues)
	}
	st := res.Sanitized.Sequence[0]
	if st.ActorPoint != nil || st.TargetPoint != nil {
		t.Error("unparseable points must stay nil")
	}
}

func TestMissingPointKeyWarns(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "move_to_pose", "frame": "WORLD",
			"V": [0,0,1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, nil, Options{AutoFix: true})

	if !res.OK {
		t.Fatalf("missing point keys are advisory, errors: %v", res.Errors())
	}
	if countCode(res.Warnings(), CodeMissingPointKey) != 2 {
		t.Errorf("expected two MISSING_POINT_KEY warnings, got %v", res.Issues)
	}
}

func TestLegacyObjectKeys(t *testing.T) {
	raw := parsePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "grasp", "frame": "CONTACT",
			"actor": "cup", "target": "table",
			"actor_point": 0, "target_point": null,
			"V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	st := res.Sanitized.Sequence[0]
	if st.ActorObj != "cup" || st.TargetObj != "table" {
		t.Errorf("legacy keys not honored: actor=%q target=%q", st.ActorObj, st.TargetObj)
	}
}

func TestIssueOrderWithinStep(t *testing.T) {
	raw := parsePlan(t, `{
		"sequence": [{"subtask": "Grasp", "frame": "world", "actor_obj": "cup",
			"actor_point": "contact_point_1", "target_point": null,
			"V": [0,0,0,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	res := Plan(raw, testIndex(), Options{AutoFix: true})

	var codes []string
	for _, it := range res.Issues {
		codes = append(codes, it.Code)
	}
	want := []string{CodeMissingTask, CodePointParsed, CodeZeroStep, CodeFrameHardFixed}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

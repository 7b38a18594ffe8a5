package schema

import (
	"encoding/json"
	"testing"
)

func intp(n int) *int { return &n }

func validPlan() *Plan {
	return &Plan{
		Task: "pick up the cup",
		Sequence: []Step{{
			Subtask:    "grasp",
			Frame:      FrameContact,
			ActorObj:   "cup",
			ActorPoint: intp(1),
			V:          [6]float64{0, 0, 0.5, 0, 0, 0},
		}},
	}
}

func TestGeneratePlanJSONSchema(t *testing.T) {
	data, err := GeneratePlanJSONSchema()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if doc["$id"] != "https://github.com/robotwin-lab/plancheck/schemas/plan-v0.json" {
		t.Errorf("$id = %v", doc["$id"])
	}
}

func TestCheckPlanValid(t *testing.T) {
	if errs := CheckPlan(validPlan()); len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("unexpected schema error: %s", e)
		}
	}
}

func TestCheckPlanBadFrame(t *testing.T) {
	p := validPlan()
	p.Sequence[0].Frame = Frame("SIDEWAYS")
	if errs := CheckPlan(p); len(errs) == 0 {
		t.Error("expected schema error for illegal frame enum")
	}
}

func TestCheckPlanEmptySequence(t *testing.T) {
	p := &Plan{Task: "t"}
	if errs := CheckPlan(p); len(errs) == 0 {
		t.Error("expected schema error for empty sequence")
	}
}

func TestParseFrame(t *testing.T) {
	cases := []struct {
		in   string
		want Frame
		ok   bool
	}{
		{"world", FrameWorld, true},
		{"  Contact ", FrameContact, true},
		{"FUNCTIONAL", FrameFunctional, true},
		{"object", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseFrame(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseFrame(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeSubtask(t *testing.T) {
	if got := NormalizeSubtask("  Move To Pose "); got != "move_to_pose" {
		t.Errorf("got %q", got)
	}
}

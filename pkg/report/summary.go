package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Summary is the one-row raw-vs-validated comparison consumed by the
// per-task summary CSV, the global summary.csv, and the markdown table.
type Summary struct {
	Task     string
	OK       bool
	Errors   int
	Warnings int

	StepsRaw            int
	StepsValidated      int
	FrameChangedSteps   int
	SubtaskChangedSteps int
	VIndexChanges       int
	MIndexChanges       int
	PointChangedSteps   int

	FramesWorld      int
	FramesContact    int
	FramesFunctional int
	WorldLiftSteps   int

	// Frequently-watched fix counts.
	VMRuleFixed    int
	FrameHardFixed int
	PointParsed    int
	ZeroSteps      int
}

// Summarize compares the raw plan against the validation result.
func Summarize(taskName string, raw *schema.RawPlan, res *validate.Result) *Summary {
	s := &Summary{
		Task:     taskName,
		OK:       res.OK,
		Errors:   len(res.Errors()),
		Warnings: len(res.Warnings()),
	}

	var rawSteps []schema.RawStep
	if raw.Sequence.IsList {
		rawSteps = raw.Sequence.Steps
	}
	valSteps := res.Sanitized.Sequence
	s.StepsRaw = len(rawSteps)
	s.StepsValidated = len(valSteps)

	n := min(len(rawSteps), len(valSteps))
	for i := 0; i < n; i++ {
		rs, vs := &rawSteps[i], &valSteps[i]

		if !strings.EqualFold(rawString(rs.Frame), string(vs.Frame)) {
			s.FrameChangedSteps++
		}
		if !strings.EqualFold(rawString(rs.Subtask), vs.Subtask) {
			s.SubtaskChangedSteps++
		}

		rV, rM := rs.V.Approx6(), rs.M.Approx6()
		for k := 0; k < 6; k++ {
			if math.Abs(rV[k]-vs.V[k]) > 1e-9 {
				s.VIndexChanges++
			}
			if math.Abs(rM[k]-vs.M[k]) > 1e-9 {
				s.MIndexChanges++
			}
		}

		if !pointUnchanged(rs.ActorPoint, vs.ActorPoint) || !pointUnchanged(rs.TargetPoint, vs.TargetPoint) {
			s.PointChangedSteps++
		}
	}

	for i := range valSteps {
		vs := &valSteps[i]
		switch vs.Frame {
		case schema.FrameWorld:
			s.FramesWorld++
			if vs.V[2] > 1e-9 {
				s.WorldLiftSteps++
			}
		case schema.FrameContact:
			s.FramesContact++
		case schema.FrameFunctional:
			s.FramesFunctional++
		}
	}

	counts := validate.CodeCounts(res.Issues)
	s.VMRuleFixed = counts[validate.CodeVMRuleFixed]
	s.FrameHardFixed = counts[validate.CodeFrameHardFixed]
	s.PointParsed = counts[validate.CodePointParsed]
	s.ZeroSteps = counts[validate.CodeZeroStep]

	return s
}

func rawString(v schema.RawValue) string {
	if s, ok := v.String(); ok {
		return s
	}
	return ""
}

// pointUnchanged reports whether a raw point field already carried the
// canonical integer. Strings and other representations count as changed.
func pointUnchanged(raw schema.RawValue, cur *int) bool {
	if !raw.Set || raw.Value == nil {
		return cur == nil
	}
	switch n := raw.Value.(type) {
	case int:
		return cur != nil && *cur == n
	case int64:
		return cur != nil && int64(*cur) == n
	case float64:
		return cur != nil && n == math.Trunc(n) && *cur == int(n)
	}
	return false
}

// header/values define the CSV column order; keep them in sync.
func (s *Summary) header() []string {
	return []string{
		"task", "ok", "errors", "warnings",
		"steps_raw", "steps_validated",
		"frame_changed_steps", "subtask_changed_steps",
		"V_index_changes", "M_index_changes", "point_changed_steps",
		"frames_WORLD", "frames_CONTACT", "frames_FUNCTIONAL", "world_lift_steps",
		"VM_RULE_FIXED", "FRAME_HARD_FIXED", "POINT_PARSED", "ZERO_STEP",
	}
}

func (s *Summary) values() []string {
	return []string{
		s.Task, strconv.FormatBool(s.OK), strconv.Itoa(s.Errors), strconv.Itoa(s.Warnings),
		strconv.Itoa(s.StepsRaw), strconv.Itoa(s.StepsValidated),
		strconv.Itoa(s.FrameChangedSteps), strconv.Itoa(s.SubtaskChangedSteps),
		strconv.Itoa(s.VIndexChanges), strconv.Itoa(s.MIndexChanges), strconv.Itoa(s.PointChangedSteps),
		strconv.Itoa(s.FramesWorld), strconv.Itoa(s.FramesContact), strconv.Itoa(s.FramesFunctional), strconv.Itoa(s.WorldLiftSteps),
		strconv.Itoa(s.VMRuleFixed), strconv.Itoa(s.FrameHardFixed), strconv.Itoa(s.PointParsed), strconv.Itoa(s.ZeroSteps),
	}
}

// WriteCSV writes the summary as a single-row CSV file.
func (s *Summary) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.header()); err != nil {
		return err
	}
	if err := w.Write(s.values()); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// AppendCSV appends the summary row to a shared CSV, writing the header
// only when the file is new.
func (s *Summary) AppendCSV(path string) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open global summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(s.header()); err != nil {
			return err
		}
	}
	if err := w.Write(s.values()); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Markdown renders the summary as a one-row markdown table, paste-ready
// for notes and slides.
func (s *Summary) Markdown() string {
	keys := s.header()
	vals := s.values()
	var b strings.Builder
	b.WriteString("| " + strings.Join(keys, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(keys)) + "\n")
	b.WriteString("| " + strings.Join(vals, " | ") + " |")
	return b.String()
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return data, nil
}

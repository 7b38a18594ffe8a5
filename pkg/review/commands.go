package review

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/robotwin-lab/plancheck/pkg/report"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// handleLoad loads a plan file.
func (s *Session) handleLoad(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(s.output, "Usage: load <plan file>\n")
		return
	}
	if err := s.LoadPlan(parts[1]); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	n := 0
	if s.raw.Sequence.IsList {
		n = len(s.raw.Sequence.Steps)
	}
	fmt.Fprintf(s.output, "Loaded %s (%d steps).\n", parts[1], n)
}

// handleObjects builds the point index from a directory.
func (s *Session) handleObjects(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(s.output, "Usage: objects <dir>\n")
		return
	}
	if err := s.LoadObjects(parts[1]); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.output, "Indexed %d objects.\n", s.idx.Objects())
}

// handleRules compiles an advisory rules file.
func (s *Session) handleRules(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(s.output, "Usage: rules <rules.yaml>\n")
		return
	}
	if err := s.LoadRules(parts[1]); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.output, "Compiled %d rules.\n", s.ruleSet.Len())
}

// handleValidate runs validation with the session's policy.
func (s *Session) handleValidate() {
	if s.raw == nil {
		fmt.Fprintf(s.output, "No plan loaded. Use 'load <file>' first.\n")
		return
	}
	res := validate.Plan(s.raw, s.idx, validate.Options{AutoFix: s.autoFix})
	if s.ruleSet != nil {
		extra, err := s.ruleSet.Check(res.Sanitized)
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
		res.Issues = append(res.Issues, extra...)
	}
	s.result = res

	status := "OK"
	if !res.OK {
		status = "FAILED"
	}
	fmt.Fprintf(s.output, "%s — %d errors, %d warnings.\n",
		status, len(res.Errors()), len(res.Warnings()))
}

// handleIssues lists the issue ledger in emission order.
func (s *Session) handleIssues() {
	if s.result == nil {
		fmt.Fprintf(s.output, "Not validated yet. Use 'validate'.\n")
		return
	}
	if len(s.result.Issues) == 0 {
		fmt.Fprintf(s.output, "No issues.\n")
		return
	}
	fmt.Fprintln(s.output, report.StyledIssues(s.result.Issues))
}

// handleSteps prints the sanitized step table.
func (s *Session) handleSteps() {
	if s.result == nil {
		fmt.Fprintf(s.output, "Not validated yet. Use 'validate'.\n")
		return
	}
	rows := report.PlanRows(s.result.Sanitized)
	short := make([][]string, 0, len(rows))
	for _, r := range rows {
		// idx, subtask, frame, actor_obj, actor_point, target_obj, target_point
		short = append(short, r[:7])
	}
	header := []string{"idx", "subtask", "frame", "actor_obj", "actor_point", "target_obj", "target_point"}
	fmt.Fprint(s.output, report.TextTable(header, short))
}

// handleStep shows one sanitized step in full.
func (s *Session) handleStep(parts []string) {
	if s.result == nil {
		fmt.Fprintf(s.output, "Not validated yet. Use 'validate'.\n")
		return
	}
	if len(parts) < 2 {
		fmt.Fprintf(s.output, "Usage: step <index>\n")
		return
	}
	i, err := strconv.Atoi(parts[1])
	if err != nil || i < 0 || i >= len(s.result.Sanitized.Sequence) {
		fmt.Fprintf(s.output, "Step index out of range (0..%d).\n", len(s.result.Sanitized.Sequence)-1)
		return
	}
	data, _ := json.MarshalIndent(s.result.Sanitized.Sequence[i], "", "  ")
	fmt.Fprintf(s.output, "%s\n", data)
}

// handlePlan dumps the whole sanitized plan as JSON.
func (s *Session) handlePlan() {
	if s.result == nil {
		fmt.Fprintf(s.output, "Not validated yet. Use 'validate'.\n")
		return
	}
	data, _ := json.MarshalIndent(s.result.Sanitized, "", "  ")
	fmt.Fprintf(s.output, "%s\n", data)
}

// handleReport writes the report set for the current result.
func (s *Session) handleReport(parts []string) {
	if s.result == nil {
		fmt.Fprintf(s.output, "Not validated yet. Use 'validate'.\n")
		return
	}
	dir := "."
	if len(parts) > 1 {
		dir = parts[1]
	}
	name := s.result.Sanitized.Task
	if name == "" {
		name = "untitled"
	}
	paths, err := report.Save(name, s.raw, s.result, dir)
	if err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	if s.planPath != "" {
		src, err := os.ReadFile(s.planPath)
		if err == nil {
			_, _, err = report.SavePlanDocs(name, src, s.result.Sanitized, dir)
		}
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
	}
	fmt.Fprintf(s.output, "Report written:\n  %s\n  %s\n  %s\n  %s\n",
		paths.RawStepsCSV, paths.ValidatedStepsCSV, paths.IssuesTXT, paths.SummaryCSV)
}

// handleFix toggles auto-fixing.
func (s *Session) handleFix(parts []string) {
	if len(parts) < 2 || (parts[1] != "on" && parts[1] != "off") {
		fmt.Fprintf(s.output, "Usage: fix on|off\n")
		return
	}
	s.autoFix = parts[1] == "on"
	fmt.Fprintf(s.output, "Auto-fix %s. Re-run 'validate' to apply.\n", parts[1])
}

func (s *Session) handleHelp() {
	fmt.Fprint(s.output, `Commands:
  load <file>      Load a plan (JSON or YAML)
  objects <dir>    Build the point index from per-object points_info.json files
  rules <file>     Compile an advisory rules file
  validate         Validate the loaded plan
  issues           List the issue ledger
  steps            Show the sanitized step table
  step <n>         Show one sanitized step as JSON
  plan             Dump the sanitized plan as JSON
  report [dir]     Write the CSV/issue report set
  fix on|off       Toggle auto-fixing
  quit             Exit
`)
}

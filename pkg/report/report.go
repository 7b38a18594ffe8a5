// Package report serializes validation outcomes: per-step CSV rows, the
// raw-vs-sanitized comparison summary, human-readable issue listings, and
// the per-task report files plus the append-only global summary.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// stepHeader is the fixed column order for step CSV files.
var stepHeader = []string{
	"idx", "subtask", "frame",
	"actor_obj", "actor_point", "target_obj", "target_point",
	"vx", "vy", "vz", "wx", "wy", "wz",
	"mx", "my", "mz", "mrx", "mry", "mrz",
	"notes",
}

// PlanRows renders a sanitized plan as tabular step rows.
func PlanRows(p *schema.Plan) [][]string {
	rows := make([][]string, 0, len(p.Sequence))
	for i, st := range p.Sequence {
		row := []string{
			strconv.Itoa(i),
			st.Subtask,
			string(st.Frame),
			st.ActorObj,
			pointCell(st.ActorPoint),
			st.TargetObj,
			pointCell(st.TargetPoint),
		}
		row = append(row, vecCells(st.V)...)
		row = append(row, vecCells(st.M)...)
		row = append(row, st.Notes)
		rows = append(rows, row)
	}
	return rows
}

// RawRows renders an untrusted plan as tabular step rows, coercing
// malformed vectors to zeros so raw output is always tabulable.
func RawRows(p *schema.RawPlan) [][]string {
	if !p.Sequence.IsList {
		return nil
	}
	rows := make([][]string, 0, len(p.Sequence.Steps))
	for i, rs := range p.Sequence.Steps {
		if rs.Invalid {
			continue
		}
		row := []string{
			strconv.Itoa(i),
			rawCell(rs.Subtask),
			rawCell(rs.Frame),
			rawCell(objValue(rs.ActorObj, rs.Actor)),
			rawCell(rs.ActorPoint),
			rawCell(objValue(rs.TargetObj, rs.Target)),
			rawCell(rs.TargetPoint),
		}
		row = append(row, vecCells(rs.V.Approx6())...)
		row = append(row, vecCells(rs.M.Approx6())...)
		row = append(row, rawCell(rs.Notes))
		rows = append(rows, row)
	}
	return rows
}

func objValue(primary, legacy schema.RawValue) schema.RawValue {
	if primary.Set {
		return primary
	}
	return legacy
}

func rawCell(v schema.RawValue) string {
	if !v.Set || v.Value == nil {
		return ""
	}
	return fmt.Sprint(v.Value)
}

func pointCell(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}

func vecCells(v [6]float64) []string {
	out := make([]string, 6)
	for i, x := range v {
		out[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return out
}

// WriteStepsCSV writes step rows with the standard header. An empty row set
// still produces the file, so report consumers always find it.
func WriteStepsCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stepHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// SafeFilename makes a task name safe for use as a file name: whitespace
// runs become underscores, and everything that is not a letter, digit,
// underscore or hyphen is dropped.
func SafeFilename(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	joined := strings.Join(fields, "_")
	var b strings.Builder
	for _, r := range joined {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Paths lists the files produced by Save.
type Paths struct {
	RawStepsCSV       string
	ValidatedStepsCSV string
	IssuesTXT         string
	SummaryCSV        string
	GlobalSummaryCSV  string
}

// Save writes the full per-task report set under <outputDir>/reports and
// appends the one-row summary to the global summary.csv.
func Save(taskName string, raw *schema.RawPlan, res *validate.Result, outputDir string) (*Paths, error) {
	reportsDir := filepath.Join(outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	slug := SafeFilename(taskName)
	paths := &Paths{
		RawStepsCSV:       filepath.Join(reportsDir, slug+"__steps_raw.csv"),
		ValidatedStepsCSV: filepath.Join(reportsDir, slug+"__steps_validated.csv"),
		IssuesTXT:         filepath.Join(reportsDir, slug+"__validator_issues.txt"),
		SummaryCSV:        filepath.Join(reportsDir, slug+"__validator_summary.csv"),
		GlobalSummaryCSV:  filepath.Join(reportsDir, "summary.csv"),
	}

	if err := WriteStepsCSV(paths.RawStepsCSV, RawRows(raw)); err != nil {
		return nil, err
	}
	if err := WriteStepsCSV(paths.ValidatedStepsCSV, PlanRows(res.Sanitized)); err != nil {
		return nil, err
	}

	issuesText := "[Validator] No issues.\n"
	if len(res.Issues) > 0 {
		issuesText = validate.IssuesText(res.Issues) + "\n"
	}
	if err := os.WriteFile(paths.IssuesTXT, []byte(issuesText), 0o644); err != nil {
		return nil, fmt.Errorf("write issues file: %w", err)
	}

	summary := Summarize(taskName, raw, res)
	if err := summary.WriteCSV(paths.SummaryCSV); err != nil {
		return nil, err
	}
	if err := summary.AppendCSV(paths.GlobalSummaryCSV); err != nil {
		return nil, err
	}
	return paths, nil
}

// SavePlanDocs writes the original plan document and its sanitized
// counterpart side by side under <outputDir>/reports: <slug>__raw.json holds
// the source bytes verbatim, <slug>.json the canonical plan.
func SavePlanDocs(taskName string, rawDoc []byte, p *schema.Plan, outputDir string) (rawPath, sanitizedPath string, err error) {
	reportsDir := filepath.Join(outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create reports dir: %w", err)
	}

	slug := SafeFilename(taskName)
	rawPath = filepath.Join(reportsDir, slug+"__raw.json")
	sanitizedPath = filepath.Join(reportsDir, slug+".json")

	if err := os.WriteFile(rawPath, rawDoc, 0o644); err != nil {
		return "", "", fmt.Errorf("write raw plan: %w", err)
	}
	data, err := marshalIndent(p)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(sanitizedPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write sanitized plan: %w", err)
	}
	return rawPath, sanitizedPath, nil
}

// WritePlanJSON persists a sanitized plan as indented JSON.
func WritePlanJSON(path string, p *schema.Plan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := marshalIndent(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

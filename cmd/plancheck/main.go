package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/report"
	"github.com/robotwin-lab/plancheck/pkg/review"
	"github.com/robotwin-lab/plancheck/pkg/rules"
	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/transform"
	"github.com/robotwin-lab/plancheck/pkg/tui"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "plancheck",
	Short: "Manipulation plan validator",
	Long:  "plancheck — validates and sanitizes robotic manipulation plans: frames, point ids, twist/wrench bounds, and subtask consistency.",
}

// shared flags for commands that build a point index
var (
	objectsDir string
	rulesFile  string
)

// loadIndex builds the point index from --objects. An empty flag means no
// index: membership checks are skipped, not failed.
func loadIndex() (*points.Index, error) {
	if objectsDir == "" {
		return nil, nil
	}
	infos, err := schema.LoadObjectsDir(objectsDir)
	if err != nil {
		return nil, err
	}
	return points.Build(infos), nil
}

func loadRules() (*rules.Set, error) {
	if rulesFile == "" {
		return nil, nil
	}
	return rules.LoadFile(rulesFile)
}

func taskNameFor(raw *schema.RawPlan, path string) string {
	if t, ok := raw.Task.String(); ok && strings.TrimSpace(t) != "" {
		return t
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// --- validate ---

var (
	validateNoFix  bool
	validateStrict bool
	validateJSON   bool
	validateOut    string
	validateMaxV   float64
	validateMaxM   float64
)

var validateCmd = &cobra.Command{
	Use:   "validate [plan.json]",
	Short: "Validate and sanitize a plan file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	idx, err := loadIndex()
	if err != nil {
		return err
	}
	ruleSet, err := loadRules()
	if err != nil {
		return err
	}

	raw, err := schema.LoadPlanFile(filePath)
	if err != nil {
		return err
	}
	res := validate.Plan(raw, idx, validate.Options{
		AutoFix:        !validateNoFix,
		StrictSubtasks: validateStrict,
		MaxAbsV:        validateMaxV,
		MaxAbsM:        validateMaxM,
	})
	if ruleSet != nil {
		extra, err := ruleSet.Check(res.Sanitized)
		if err != nil {
			return err
		}
		res.Issues = append(res.Issues, extra...)
	}

	if validateJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else if len(res.Issues) > 0 {
		fmt.Fprintln(os.Stderr, report.StyledIssues(res.Issues))
	}

	if validateOut != "" {
		if err := report.WritePlanJSON(validateOut, res.Sanitized); err != nil {
			return err
		}
		fmt.Printf("Sanitized plan written to %s\n", validateOut)
	}

	if !res.OK {
		return fmt.Errorf("validation failed with %d error(s)", len(res.Errors()))
	}

	// Structural cross-check: a passing sanitizer must emit canonical documents.
	if errs := schema.CheckPlan(res.Sanitized); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  schema: %s\n", e)
		}
		return fmt.Errorf("sanitized plan failed the schema cross-check")
	}

	if !validateJSON {
		fmt.Printf("✓ %s is valid (%d steps, %d warnings)\n",
			taskNameFor(raw, filePath), len(res.Sanitized.Sequence), len(res.Warnings()))
	}
	return nil
}

// --- report ---

var (
	reportOutput   string
	reportMarkdown bool
)

var reportCmd = &cobra.Command{
	Use:   "report [plan.json...]",
	Short: "Validate plans and write the CSV/issue report set",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex()
	if err != nil {
		return err
	}

	failed := 0
	for _, filePath := range args {
		raw, err := schema.LoadPlanFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", filePath, err)
			failed++
			continue
		}
		res := validate.Plan(raw, idx, validate.Options{AutoFix: true})

		name := taskNameFor(raw, filePath)
		paths, err := report.Save(name, raw, res, reportOutput)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		if _, _, err := report.SavePlanDocs(name, src, res.Sanitized, reportOutput); err != nil {
			return err
		}

		status := "✓"
		if !res.OK {
			status = "✗"
			failed++
		}
		fmt.Printf("%s %s — %d errors, %d warnings → %s\n",
			status, name, len(res.Errors()), len(res.Warnings()), filepath.Dir(paths.SummaryCSV))

		if reportMarkdown {
			md := report.Summarize(name, raw, res).Markdown()
			fmt.Println(report.RenderMarkdown(md))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d plan(s) failed validation", failed)
	}
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the plan JSON Schema to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GeneratePlanJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- transform ---

var transformHand string

var transformCmd = &cobra.Command{
	Use:   "transform [plan.json]",
	Short: "Map step-local twists into the world frame",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransform,
}

func runTransform(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	idx, err := loadIndex()
	if err != nil {
		return err
	}
	raw, err := schema.LoadPlanFile(filePath)
	if err != nil {
		return err
	}
	res := validate.Plan(raw, idx, validate.Options{AutoFix: true})
	if !res.OK {
		fmt.Fprintln(os.Stderr, report.StyledIssues(res.Errors()))
		return fmt.Errorf("plan failed validation; transform needs a sane plan")
	}

	hand := transform.Identity()
	if transformHand != "" {
		p, err := parseVec3(transformHand)
		if err != nil {
			return fmt.Errorf("invalid --hand: %w", err)
		}
		hand[0][3], hand[1][3], hand[2][3] = p[0], p[1], p[2]
	}

	tr := &transform.Transformer{ObjectsDir: objectsDir, HandPose: hand}
	twists, err := tr.PlanWorldTwists(res.Sanitized)
	if err != nil {
		return err
	}

	header := []string{"idx", "subtask", "frame", "vx", "vy", "vz", "wx", "wy", "wz"}
	rows := make([][]string, 0, len(twists))
	for i, v := range twists {
		st := res.Sanitized.Sequence[i]
		row := []string{strconv.Itoa(i), st.Subtask, string(st.Frame)}
		for _, x := range v {
			row = append(row, strconv.FormatFloat(x, 'f', 4, 64))
		}
		rows = append(rows, row)
	}
	fmt.Print(report.TextTable(header, rows))
	return nil
}

func parseVec3(s string) ([3]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]float64{}, fmt.Errorf("expected x,y,z")
	}
	var out [3]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [3]float64{}, err
		}
		out[i] = x
	}
	return out, nil
}

// --- review ---

var reviewCmd = &cobra.Command{
	Use:   "review [plan.json]",
	Short: "Interactively inspect a plan (REPL)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	s := review.New()
	if len(args) > 0 {
		if err := s.LoadPlan(args[0]); err != nil {
			return err
		}
	}
	if objectsDir != "" {
		if err := s.LoadObjects(objectsDir); err != nil {
			return err
		}
	}
	if rulesFile != "" {
		if err := s.LoadRules(rulesFile); err != nil {
			return err
		}
	}
	return s.Run()
}

// --- tui ---

var tuiCmd = &cobra.Command{
	Use:   "tui [plan.json]",
	Short: "Browse a validation result in the terminal UI",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	idx, err := loadIndex()
	if err != nil {
		return err
	}
	raw, err := schema.LoadPlanFile(filePath)
	if err != nil {
		return err
	}
	res := validate.Plan(raw, idx, validate.Options{AutoFix: true})
	return tui.Run(taskNameFor(raw, filePath), res)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plancheck %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&objectsDir, "objects", "", "Objects directory holding per-object points_info.json files")

	// validate flags
	validateCmd.Flags().BoolVar(&validateNoFix, "no-fix", false, "Report violations instead of auto-fixing them")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat unknown subtasks as errors")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output the full result as JSON")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "Write the sanitized plan to this path")
	validateCmd.Flags().Float64Var(&validateMaxV, "max-v", 0, "Max |twist| component (default 3.0)")
	validateCmd.Flags().Float64Var(&validateMaxM, "max-m", 0, "Max |wrench| component (default 50.0)")
	validateCmd.Flags().StringVar(&rulesFile, "rules", "", "Advisory rules YAML file")

	// report flags
	reportCmd.Flags().StringVar(&reportOutput, "output", ".", "Output directory (reports go under <output>/reports)")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "Print the per-plan summary as a rendered markdown table")

	// transform flags
	transformCmd.Flags().StringVar(&transformHand, "hand", "", "World-frame hand position as x,y,z (default origin)")

	// review flags
	reviewCmd.Flags().StringVar(&rulesFile, "rules", "", "Advisory rules YAML file")

	// schema subcommands
	schemaCmd.AddCommand(schemaExportCmd)

	// root subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

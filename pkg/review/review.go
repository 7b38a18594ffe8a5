// Package review implements the interactive REPL for inspecting plans:
// load a plan, validate it against a points index, browse issues and steps,
// and write the report set — without leaving the prompt.
package review

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/rules"
	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Session holds the state of one interactive review: the loaded plan, the
// point index, the last validation result, and the active policy knobs.
type Session struct {
	output io.Writer
	rl     *readline.Instance

	planPath string
	raw      *schema.RawPlan
	idx      *points.Index
	ruleSet  *rules.Set
	result   *validate.Result
	autoFix  bool
}

// New creates a review session. Plan and objects dir may be empty; they can
// be loaded from the prompt.
func New() *Session {
	return &Session{
		output:  os.Stdout,
		autoFix: true,
	}
}

// LoadPlan loads a plan file into the session.
func (s *Session) LoadPlan(path string) error {
	raw, err := schema.LoadPlanFile(path)
	if err != nil {
		return err
	}
	s.raw = raw
	s.planPath = path
	s.result = nil
	return nil
}

// LoadObjects builds the point index from an objects directory.
func (s *Session) LoadObjects(dir string) error {
	infos, err := schema.LoadObjectsDir(dir)
	if err != nil {
		return err
	}
	s.idx = points.Build(infos)
	return nil
}

// LoadRules compiles an advisory rules file into the session.
func (s *Session) LoadRules(path string) error {
	set, err := rules.LoadFile(path)
	if err != nil {
		return err
	}
	s.ruleSet = set
	return nil
}

// Run starts the interactive loop.
func (s *Session) Run() error {
	commands := []string{"load", "objects", "rules", "validate", "issues",
		"steps", "step", "plan", "report", "fix on", "fix off", "help", "quit"}

	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	s.rl = rl
	defer rl.Close()

	fmt.Fprintf(s.output, "plancheck review — type 'help' for commands.\n\n")

	for {
		rl.SetPrompt(s.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "load", "l":
			s.handleLoad(parts)
		case "objects", "o":
			s.handleObjects(parts)
		case "rules":
			s.handleRules(parts)
		case "validate", "v":
			s.handleValidate()
		case "issues", "i":
			s.handleIssues()
		case "steps":
			s.handleSteps()
		case "step":
			s.handleStep(parts)
		case "plan":
			s.handlePlan()
		case "report", "r":
			s.handleReport(parts)
		case "fix":
			s.handleFix(parts)
		case "help", "?":
			s.handleHelp()
		case "quit", "q":
			fmt.Fprintf(s.output, "Exiting review.\n")
			return nil
		default:
			fmt.Fprintf(s.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
		}
	}
}

// buildPrompt creates the prompt string: plancheck[<plan> | E:n W:m]>
func (s *Session) buildPrompt() string {
	if s.raw == nil {
		return "plancheck[no plan]> "
	}
	name := s.planPath
	if t, ok := s.raw.Task.String(); ok && strings.TrimSpace(t) != "" {
		name = t
	}
	if s.result == nil {
		return fmt.Sprintf("plancheck[%s]> ", name)
	}
	return fmt.Sprintf("plancheck[%s | E:%d W:%d]> ",
		name, len(s.result.Errors()), len(s.result.Warnings()))
}

// Package rules evaluates user-defined advisory lint rules over sanitized
// plan steps. Rules are expr-lang boolean expressions; a rule that fires
// produces a WARN-level finding, never an error — policy opinions must not
// fail a plan.
package rules

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Rule is one advisory check. When is an expr-lang expression evaluated per
// step; a true result flags the step.
type Rule struct {
	Name    string `yaml:"name"`
	When    string `yaml:"when"`
	Message string `yaml:"message,omitempty"`
}

// Set is a compiled collection of rules.
type Set struct {
	rules    []Rule
	programs []*vm.Program
}

type rulesDoc struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML rules file and compiles every expression.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var doc rulesDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return Compile(doc.Rules)
}

// Compile builds a rule set, rejecting rules that do not compile to a
// boolean expression.
func Compile(rs []Rule) (*Set, error) {
	set := &Set{rules: rs}
	for _, r := range rs {
		if r.Name == "" {
			return nil, fmt.Errorf("rule without a name")
		}
		if r.When == "" {
			return nil, fmt.Errorf("rule %q has no 'when' expression", r.Name)
		}
		program, err := expr.Compile(r.When, expr.Env(stepEnv()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		set.programs = append(set.programs, program)
	}
	return set, nil
}

// Len returns the number of compiled rules.
func (s *Set) Len() int { return len(s.rules) }

// Check evaluates every rule against every step of a sanitized plan,
// returning the advisory findings in step order.
func (s *Set) Check(p *schema.Plan) ([]validate.Issue, error) {
	var issues []validate.Issue
	for i := range p.Sequence {
		env := envFor(p, i)
		for j, program := range s.programs {
			out, err := expr.Run(program, env)
			if err != nil {
				return nil, fmt.Errorf("eval rule %q on step %d: %w", s.rules[j].Name, i, err)
			}
			fired, _ := out.(bool)
			if !fired {
				continue
			}
			msg := s.rules[j].Message
			if msg == "" {
				msg = s.rules[j].When
			}
			issues = append(issues, validate.Issue{
				Level:   validate.LevelWarn,
				Code:    validate.CodeCustomRule,
				Message: fmt.Sprintf("rule %q: %s", s.rules[j].Name, msg),
				Path:    fmt.Sprintf("sequence[%d]", i),
			})
		}
	}
	return issues, nil
}

// stepEnv declares the expression environment for compilation.
func stepEnv() map[string]any {
	return map[string]any{
		"task":         "",
		"index":        0,
		"subtask":      "",
		"frame":        "",
		"actor_obj":    "",
		"target_obj":   "",
		"actor_point":  -1,
		"target_point": -1,
		"has_actor":    false,
		"has_target":   false,
		"V":            []float64{},
		"M":            []float64{},
		"notes":        "",
	}
}

func envFor(p *schema.Plan, i int) map[string]any {
	st := &p.Sequence[i]
	env := map[string]any{
		"task":         p.Task,
		"index":        i,
		"subtask":      st.Subtask,
		"frame":        string(st.Frame),
		"actor_obj":    st.ActorObj,
		"target_obj":   st.TargetObj,
		"actor_point":  -1,
		"target_point": -1,
		"has_actor":    st.ActorPoint != nil,
		"has_target":   st.TargetPoint != nil,
		"V":            st.V[:],
		"M":            st.M[:],
		"notes":        st.Notes,
	}
	if st.ActorPoint != nil {
		env["actor_point"] = *st.ActorPoint
	}
	if st.TargetPoint != nil {
		env["target_point"] = *st.TargetPoint
	}
	return env
}

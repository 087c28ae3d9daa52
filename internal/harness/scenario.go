package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/matchdag/internal/diag"
)

// Scenario defines one construct under test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE documents, unified into one. Paths are relative to
	// the scenario file location.
	Specs []string `yaml:"specs"`

	// Construct names the construct to process.
	Construct string `yaml:"construct"`

	// Config overrides configuration keys by dotted path
	// (e.g. lower.dispatch_threshold).
	Config map[string]any `yaml:"config,omitempty"`

	// Expect checks the analysis result. If nil, nothing is checked.
	Expect *Expect `yaml:"expect,omitempty"`

	// Runs execute the lowered plan on sample inputs.
	Runs []RunStep `yaml:"runs,omitempty"`

	// Assertions check diagnostics and graph shape in detail.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies the expected analysis. Unset fields are not checked.
type Expect struct {
	// Diagnostics lists the expected codes in report order.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
	// NoDiagnostics expects a clean analysis.
	NoDiagnostics bool `yaml:"no_diagnostics,omitempty"`

	Exhaustive  *bool    `yaml:"exhaustive,omitempty"`
	Witness     *string  `yaml:"witness,omitempty"`
	Missing     []string `yaml:"missing,omitempty"`
	Unreachable []int    `yaml:"unreachable,omitempty"`
}

// RunStep executes the plan on one input.
type RunStep struct {
	// Input is the value to match.
	Input any `yaml:"input"`

	// Guards gives the value of when-clauses by arm; unlisted guards pass.
	Guards map[int]bool `yaml:"guards,omitempty"`

	// Exactly one of Arm, Fail and NoMatch states the outcome.
	Arm     *int   `yaml:"arm,omitempty"`
	Fail    string `yaml:"fail,omitempty"` // expected failure message
	NoMatch bool   `yaml:"no_match,omitempty"`

	// Bindings are expected capture values (subset match).
	Bindings map[string]any `yaml:"bindings,omitempty"`
}

// Assertion validates diagnostics or graph shape.
type Assertion struct {
	// Type specifies the assertion type (see the Assert constants).
	Type string `yaml:"type"`

	// Code, Subject, Severity and Arm select a diagnostic (diagnostic).
	Code     string `yaml:"code,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Arm      *int   `yaml:"arm,omitempty"`

	// Arms and Min configure shared_nodes.
	Arms []int `yaml:"arms,omitempty"`
	Min  int   `yaml:"min,omitempty"`

	// Text is searched for by graph_contains and plan_contains.
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of dispatches (dispatches).
	Count int `yaml:"count,omitempty"`

	// Values are extra inputs for equivalence.
	Values []any `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertDiagnostic    = "diagnostic"
	AssertSharedNodes   = "shared_nodes"
	AssertGraphContains = "graph_contains"
	AssertPlanContains  = "plan_contains"
	AssertDispatches    = "dispatches"
	AssertEquivalence   = "equivalence"
)

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// relative to the file. Returns an error if the file doesn't exist, is
// malformed, contains unknown fields (typos), or is missing required
// fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Construct == "" {
		return fmt.Errorf("construct is required")
	}

	if s.Expect == nil && len(s.Runs) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one of expect, runs or assertions is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	if s.Expect != nil && s.Expect.NoDiagnostics && len(s.Expect.Diagnostics) > 0 {
		return fmt.Errorf("expect: no_diagnostics and diagnostics are exclusive")
	}

	for i, step := range s.Runs {
		outcomes := 0
		if step.Arm != nil {
			outcomes++
		}
		if step.Fail != "" {
			outcomes++
		}
		if step.NoMatch {
			outcomes++
		}
		if outcomes != 1 {
			return fmt.Errorf("runs[%d]: exactly one of arm, fail and no_match is required", i)
		}
		if step.Arm == nil && len(step.Bindings) > 0 {
			return fmt.Errorf("runs[%d]: bindings need an arm", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
		if a.Severity != "" {
			if _, err := diag.ParseSeverity(a.Severity); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertSharedNodes:
		if len(a.Arms) < 2 {
			return fmt.Errorf("assertions[%d]: at least two arms are required for shared_nodes", index)
		}
		if a.Min < 0 {
			return fmt.Errorf("assertions[%d]: min must be non-negative for shared_nodes", index)
		}
	case AssertGraphContains, AssertPlanContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertDispatches:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for dispatches", index)
		}
	case AssertEquivalence:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

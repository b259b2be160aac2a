package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end matrix run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Platform and Suite select what to run from the declaration.
	Platform string `yaml:"platform"`
	Suite    string `yaml:"suite"`

	// Declaration is an inline YAML matrix declaration.
	Declaration string `yaml:"declaration"`

	// Fixtures maps fixture file names to their content. They are written
	// to the declaration's fixture directory inside the work directory.
	Fixtures map[string]string `yaml:"fixtures,omitempty"`

	// Commands script the executor. The first matching entry wins;
	// unmatched commands succeed with no output.
	Commands []CommandScript `yaml:"commands,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// CommandScript scripts every command whose line contains Match.
type CommandScript struct {
	Match  string `yaml:"match"`
	Exit   int    `yaml:"exit"`
	Stdout string `yaml:"stdout,omitempty"`
	Stderr string `yaml:"stderr,omitempty"`

	// Once limits the script to the first matching command.
	Once bool `yaml:"once,omitempty"`
}

// Assertion validates the run.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// Config selects configurations by axis values (used by outcome).
	Config map[string]string `yaml:"config,omitempty"`

	// Passed is the expected result (used by outcome).
	Passed *bool `yaml:"passed,omitempty"`

	// Count is the expected number (used by the *_count assertions and
	// stored_results).
	Count int `yaml:"count,omitempty"`

	// Match is a substring (used by command_count, output_contains and
	// aborted).
	Match string `yaml:"match,omitempty"`

	// Commands are substrings expected in order (used by command_order).
	Commands []string `yaml:"commands,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome        = "outcome"
	AssertPassedCount    = "passed_count"
	AssertFailedCount    = "failed_count"
	AssertCommandCount   = "command_count"
	AssertCommandOrder   = "command_order"
	AssertPurgeCount     = "purge_count"
	AssertOutputContains = "output_contains"
	AssertAborted        = "aborted"
	AssertStoredResults  = "stored_results"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Platform == "" {
		return fmt.Errorf("platform is required")
	}
	if s.Suite == "" {
		return fmt.Errorf("suite is required")
	}
	if s.Declaration == "" {
		return fmt.Errorf("declaration is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, c := range s.Commands {
		if c.Match == "" {
			return fmt.Errorf("commands[%d]: match is required", i)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
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
	case AssertOutcome:
		if len(a.Config) == 0 {
			return fmt.Errorf("assertions[%d]: config is required for outcome", index)
		}
		if a.Passed == nil {
			return fmt.Errorf("assertions[%d]: passed is required for outcome", index)
		}
	case AssertPassedCount, AssertFailedCount, AssertPurgeCount, AssertStoredResults:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertCommandCount:
		if a.Match == "" {
			return fmt.Errorf("assertions[%d]: match is required for command_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for command_count", index)
		}
	case AssertCommandOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for command_order", index)
		}
	case AssertOutputContains, AssertAborted:
		if a.Match == "" {
			return fmt.Errorf("assertions[%d]: match is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

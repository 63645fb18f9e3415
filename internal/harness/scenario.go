package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted till session.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files use it.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Menu is an optional CUE menu file replacing the default menu.
	// LoadScenario resolves it relative to the scenario file.
	Menu string `yaml:"menu,omitempty"`

	// TaxRate is a decimal string. Empty means no tax.
	TaxRate string `yaml:"tax_rate,omitempty"`

	// Payee enables UPI links on the awaiting-payment transition.
	Payee string `yaml:"payee,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation on the till.
type Step struct {
	Action string `yaml:"action"`

	// Item names the menu item the step works on.
	Item string `yaml:"item,omitempty"`

	// Name is the customer name (customer) or item name (create, update).
	Name string `yaml:"name,omitempty"`

	Price string `yaml:"price,omitempty"`
	Image string `yaml:"image,omitempty"`
	Delta int    `yaml:"delta,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks a single step.
type ExpectClause struct {
	// Error is the error kind the step must fail with. Empty means success.
	Error string `yaml:"error,omitempty"`

	// State is the checkout state required after the step.
	State string `yaml:"state,omitempty"`
}

// Assertion checks the till after all steps ran.
type Assertion struct {
	Type string `yaml:"type"`

	// cart
	Lines []LineExpect `yaml:"lines,omitempty"`

	// summary, last_sale
	Subtotal string `yaml:"subtotal,omitempty"`
	Tax      string `yaml:"tax,omitempty"`
	Total    string `yaml:"total,omitempty"`

	// state
	State string `yaml:"state,omitempty"`

	// sales_count
	Count int `yaml:"count,omitempty"`

	// last_sale
	Customer string `yaml:"customer,omitempty"`

	// menu_item
	Name   string `yaml:"name,omitempty"`
	Price  string `yaml:"price,omitempty"`
	Absent bool   `yaml:"absent,omitempty"`
}

// LineExpect is an expected cart line.
type LineExpect struct {
	Name string `yaml:"name"`
	Qty  int    `yaml:"qty"`
}

var validActions = map[string]bool{
	"add": true, "set_qty": true, "remove": true, "clear": true,
	"customer": true, "press": true, "cancel": true,
	"create": true, "update": true, "delete": true,
}

var itemActions = map[string]bool{
	"add": true, "set_qty": true, "remove": true, "update": true, "delete": true,
}

var validErrorKinds = map[string]bool{
	kindValidation: true, kindNotFound: true, kindEmptyCart: true,
}

var validStates = map[string]bool{"idle": true, "awaiting_payment": true}

// LoadScenario reads and validates a scenario file. Unknown YAML fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Menu != "" && !filepath.IsAbs(scenario.Menu) {
		scenario.Menu = filepath.Join(filepath.Dir(path), scenario.Menu)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one step")
	}

	for i, step := range s.Steps {
		if !validActions[step.Action] {
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
		if itemActions[step.Action] && step.Item == "" {
			return fmt.Errorf("steps[%d]: %s requires item", i, step.Action)
		}
		if step.Action == "set_qty" && step.Delta == 0 {
			return fmt.Errorf("steps[%d]: set_qty requires a non-zero delta", i)
		}
		if step.Expect != nil {
			if step.Expect.Error != "" && !validErrorKinds[step.Expect.Error] {
				return fmt.Errorf("steps[%d]: unknown error kind %q", i, step.Expect.Error)
			}
			if step.Expect.State != "" && !validStates[step.Expect.State] {
				return fmt.Errorf("steps[%d]: unknown state %q", i, step.Expect.State)
			}
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case "cart", "summary", "last_sale":
		case "state":
			if !validStates[a.State] {
				return fmt.Errorf("assertions[%d]: unknown state %q", i, a.State)
			}
		case "sales_count":
			if a.Count < 0 {
				return fmt.Errorf("assertions[%d]: count must not be negative", i)
			}
		case "menu_item":
			if a.Name == "" {
				return fmt.Errorf("assertions[%d]: menu_item requires name", i)
			}
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// seedSchemaURL names the embedded fixture schema resource.
const seedSchemaURL = "gantt-seed.schema.json"

// seedSchema describes a seed fixture. Dates are YYYY-MM-DD or MM-DD (current year).
const seedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tasks"],
  "additionalProperties": false,
  "properties": {
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "start", "end"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "start": {"type": "string", "pattern": "^([0-9]{4}-)?[0-9]{2}-[0-9]{2}$"},
          "end": {"type": "string", "pattern": "^([0-9]{4}-)?[0-9]{2}-[0-9]{2}$"},
          "status": {"enum": ["prioritized", "critical", "priority-change", "impacted", "external-dev", "in-development", "planned", "blocked", "completed"]},
          "completed": {"type": "boolean"},
          "details": {"type": "string"},
          "responsible": {"type": "string"}
        }
      }
    }
  }
}`

type seedDocument struct {
	Tasks []seedTask `yaml:"tasks"`
}

type seedTask struct {
	Name        string `yaml:"name"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Status      string `yaml:"status"`
	Completed   bool   `yaml:"completed"`
	Details     string `yaml:"details"`
	Responsible string `yaml:"responsible"`
}

// LoadSeedFixture reads a YAML or JSON fixture from path.
func LoadSeedFixture(path string, year int) ([]CreateTaskInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed fixture: %w", err)
	}
	return ParseSeedFixture(content, year)
}

// ParseSeedFixture validates a fixture document against the seed schema and converts it to
// create inputs. Month-day dates are placed in year.
func ParseSeedFixture(content []byte, year int) ([]CreateTaskInput, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", errors.Join(ErrInvalidSeedFixture, err))
	}
	if err := validateSeedDocument(normalizeSeedValue(raw)); err != nil {
		return nil, err
	}

	var doc seedDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", errors.Join(ErrInvalidSeedFixture, err))
	}
	out := make([]CreateTaskInput, 0, len(doc.Tasks))
	for idx, task := range doc.Tasks {
		start, err := parseSeedDate(task.Start, year)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d].start: %w", idx, err)
		}
		end, err := parseSeedDate(task.End, year)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d].end: %w", idx, err)
		}
		out = append(out, CreateTaskInput{
			Name:        task.Name,
			StartDate:   start,
			EndDate:     end,
			Status:      domain.Status(task.Status),
			Completed:   task.Completed,
			Details:     task.Details,
			Responsible: task.Responsible,
		})
	}
	return out, nil
}

// normalizeSeedValue rewrites YAML timestamps as YYYY-MM-DD strings. Unquoted dates decode to
// time.Time, which the schema would reject.
func normalizeSeedValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.DateOnly)
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeSeedValue(item)
		}
		return v
	case []any:
		for idx, item := range v {
			v[idx] = normalizeSeedValue(item)
		}
		return v
	default:
		return value
	}
}

// validateSeedDocument checks a decoded fixture against the seed schema.
func validateSeedDocument(raw any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(seedSchemaURL, strings.NewReader(seedSchema)); err != nil {
		return fmt.Errorf("load seed schema: %w", err)
	}
	schema, err := compiler.Compile(seedSchemaURL)
	if err != nil {
		return fmt.Errorf("compile seed schema: %w", err)
	}

	// Round-trip through JSON so YAML scalars take the shapes the validator expects.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode seed fixture: %w", errors.Join(ErrInvalidSeedFixture, err))
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("decode seed fixture: %w", errors.Join(ErrInvalidSeedFixture, err))
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalidSeedFixture, firstSchemaViolation(ve))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSeedFixture, err)
	}
	return nil
}

// firstSchemaViolation returns the deepest leaf message of a validation error tree.
func firstSchemaViolation(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s", location, ve.Message)
}

// parseSeedDate accepts YYYY-MM-DD or MM-DD placed in year.
func parseSeedDate(raw string, year int) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == len("01-02") {
		raw = fmt.Sprintf("%04d-%s", year, raw)
	}
	ts, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidSeedFixture, err)
	}
	return ts, nil
}

// SampleTasks returns the built-in demo schedule placed in year.
func SampleTasks(year int) []CreateTaskInput {
	d := func(month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
	return []CreateTaskInput{
		{Name: "Instant bank transfers", StartDate: d(time.January, 1), EndDate: d(time.April, 15), Status: domain.StatusExternalDev, Details: "Rollout of the instant transfer rail for outgoing payments.", Responsible: "Payments team"},
		{Name: "3-D Secure top-ups", StartDate: d(time.January, 15), EndDate: d(time.March, 15), Status: domain.StatusExternalDev, Details: "Card top-ups behind the 3-D Secure challenge flow.", Responsible: "Security team"},
		{Name: "Transactional emails with avatars", StartDate: d(time.January, 20), EndDate: d(time.March, 10), Status: domain.StatusExternalDev, Details: "Show the customer's profile picture in transactional emails.", Responsible: "UX team"},
		{Name: "Two-factor authentication, phase 1", StartDate: d(time.February, 15), EndDate: d(time.March, 25), Status: domain.StatusInDevelopment, Details: "Email and SMS codes as a second factor.", Responsible: "Security team"},
		{Name: "Support emails with avatars", StartDate: d(time.March, 1), EndDate: d(time.March, 30), Status: domain.StatusPlanned, Details: "Profile pictures for support, security and compliance emails.", Responsible: "UX team"},
		{Name: "Opening and closing balance on statements", StartDate: d(time.February, 25), EndDate: d(time.April, 5), Status: domain.StatusImpacted, Details: "Monthly statements show opening and closing balances.", Responsible: "Finance team"},
		{Name: "Staging environment", StartDate: d(time.March, 10), EndDate: d(time.April, 10), Status: domain.StatusImpacted, Details: "Pre-production environment for integration testing.", Responsible: "Platform team"},
		{Name: "Wallet fee notifications", StartDate: d(time.March, 15), EndDate: d(time.April, 1), Status: domain.StatusInDevelopment, Details: "Notify wallet owners before fees are charged.", Responsible: "Product team"},
		{Name: "Top-ups through partner networks", StartDate: d(time.March, 20), EndDate: d(time.April, 10), Status: domain.StatusInDevelopment, Details: "Integrate two partner networks for cash top-ups.", Responsible: "Integrations team"},
		{Name: "US top-up links", StartDate: d(time.February, 1), EndDate: d(time.April, 1), Status: domain.StatusExternalDev, Details: "Shareable top-up links for customers in the United States.", Responsible: "International team"},
		{Name: "US bank top-ups v1", StartDate: d(time.January, 15), EndDate: d(time.April, 15), Status: domain.StatusBlocked, Details: "First version of bank-funded top-ups for US customers.", Responsible: "International team"},
		{Name: "Card top-up orchestrator, phase 2", StartDate: d(time.April, 1), EndDate: d(time.May, 15), Status: domain.StatusPlanned, Details: "Second phase of the credit and debit card orchestrator.", Responsible: "Payments team"},
		{Name: "ID check on account upgrade", StartDate: d(time.April, 5), EndDate: d(time.May, 10), Status: domain.StatusPlanned, Details: "Tighten identity document checks when accounts are upgraded.", Responsible: "Onboarding team"},
		{Name: "AML watchlist wind-down plan", StartDate: d(time.April, 10), EndDate: d(time.May, 20), Status: domain.StatusPlanned, Details: "Move watchlist hits from immediate blocking to a gradual wind-down.", Responsible: "Compliance team"},
		{Name: "Anti-phishing security emoji", StartDate: d(time.May, 1), EndDate: d(time.May, 30), Status: domain.StatusPriorityChange, Details: "Personal emoji shown on official messages to prove authenticity.", Responsible: "Security team"},
	}
}

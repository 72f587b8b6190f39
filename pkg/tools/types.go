// pkg/tools/types.go
package tools

import (
	"encoding/json"
	"math"
	"time"
)

type Category string

const (
	CategoryCalculators Category = "calculators"
	CategoryAnalyzers   Category = "analyzers"
	CategoryGenerators  Category = "generators"
	CategoryVisualizers Category = "visualizers"
)

type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceLow      ConfidenceLevel = "low"
)

// Input describes one form field of a tool.
type Input struct {
	ID           string      `yaml:"id" json:"id"`
	Label        string      `yaml:"label" json:"label"`
	Type         string      `yaml:"type" json:"type"`
	Placeholder  string      `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	DefaultValue interface{} `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Min          *float64    `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64    `yaml:"max,omitempty" json:"max,omitempty"`
	Step         *float64    `yaml:"step,omitempty" json:"step,omitempty"`
	Required     bool        `yaml:"required,omitempty" json:"required,omitempty"`
	HelpText     string      `yaml:"helpText,omitempty" json:"helpText,omitempty"`
	Prefix       string      `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Suffix       string      `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// Tool is the public definition of a deterministic business tool.
type Tool struct {
	ID               string   `yaml:"id" json:"id"`
	Slug             string   `yaml:"slug" json:"slug"`
	Name             string   `yaml:"name" json:"name"`
	ShortDescription string   `yaml:"shortDescription" json:"shortDescription"`
	Description      string   `yaml:"description" json:"description"`
	Category         Category `yaml:"category" json:"category"`
	Industries       []string `yaml:"industries" json:"industries"`
	PainPoints       []string `yaml:"painPoints" json:"painPoints"`
	Inputs           []Input  `yaml:"inputs" json:"inputs"`
	Icon             string   `yaml:"icon" json:"icon"`
	Color            string   `yaml:"color" json:"color"`
	Featured         bool     `yaml:"featured,omitempty" json:"featured"`
	ComingSoon       bool     `yaml:"comingSoon,omitempty" json:"comingSoon"`
}

// RequiredInputs returns the ids of required inputs in definition order.
func (t *Tool) RequiredInputs() []string {
	var ids []string
	for _, in := range t.Inputs {
		if in.Required {
			ids = append(ids, in.ID)
		}
	}
	return ids
}

// Summary is the listing view of a tool, without input definitions.
type Summary struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription"`
	Category         Category `json:"category"`
	Industries       []string `json:"industries"`
	PainPoints       []string `json:"painPoints"`
	Icon             string   `json:"icon"`
	Color            string   `json:"color"`
	Featured         bool     `json:"featured"`
	ComingSoon       bool     `json:"comingSoon"`
}

func (t *Tool) Summary() Summary {
	return Summary{
		ID:               t.ID,
		Slug:             t.Slug,
		Name:             t.Name,
		ShortDescription: t.ShortDescription,
		Category:         t.Category,
		Industries:       t.Industries,
		PainPoints:       t.PainPoints,
		Icon:             t.Icon,
		Color:            t.Color,
		Featured:         t.Featured,
		ComingSoon:       t.ComingSoon,
	}
}

// Number marshals NaN and infinities as null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Output is one computed figure. Value is a Number or a string.
type Output struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Value       interface{} `json:"value"`
	Format      string      `json:"format,omitempty"`
	Trend       string      `json:"trend,omitempty"`
	Highlight   bool        `json:"highlight,omitempty"`
	Description string      `json:"description,omitempty"`
}

type Dataset struct {
	Label string   `json:"label"`
	Data  []Number `json:"data"`
	Color string   `json:"color,omitempty"`
	Type  string   `json:"type,omitempty"`
}

type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Result is the deterministic output of one tool execution.
type Result struct {
	Outputs         []Output        `json:"outputs"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
	Chart           *Chart          `json:"chart,omitempty"`
	Summary         string          `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	DecisionTrail   []string        `json:"decisionTrail"`
	Timestamp       string          `json:"timestamp"`
}

// Inputs are the sanitized request values: strings or float64s.
type Inputs map[string]interface{}

// Executor computes a Result from inputs. now fixes the timestamp and any
// calendar labels so a run is reproducible.
type Executor func(in Inputs, now time.Time) *Result

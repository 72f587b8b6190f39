// pkg/rulebook/schema.go
package rulebook

// Rulebook is the versioned rule data behind the explorer: the taxonomy,
// per-industry templates, role specific rules and pain point fallbacks.
type Rulebook struct {
	Version    string      `yaml:"version" json:"version"`
	Boundaries []string    `yaml:"boundaries" json:"boundaries"`
	Industries []Industry  `yaml:"industries" json:"industries"`
	Roles      []Role      `yaml:"roles" json:"roles"`
	PainPoints []PainPoint `yaml:"painPoints" json:"painPoints"`
	Templates  []Template  `yaml:"templates" json:"templates"`
	Rules      []Rule      `yaml:"rules" json:"rules"`
}

type Industry struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Reserved    bool   `yaml:"reserved,omitempty" json:"reserved,omitempty"`
}

type Role struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Lens     string `yaml:"lens" json:"lens"`
	Reserved bool   `yaml:"reserved,omitempty" json:"reserved,omitempty"`
}

type PainPoint struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Reserved bool     `yaml:"reserved,omitempty" json:"reserved,omitempty"`
	Fallback *Mapping `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Value is the qualitative impact estimate attached to every mapping.
type Value struct {
	TimeSaved       string `yaml:"timeSaved" json:"timeSaved"`
	LaborReduced    string `yaml:"laborReduced" json:"laborReduced"`
	ErrorsPrevented string `yaml:"errorsPrevented" json:"errorsPrevented"`
	DecisionLatency string `yaml:"decisionLatency" json:"decisionLatency"`
}

// Mapping is the recommendation body shared by templates, rules and fallbacks.
// Fallback mappings may contain {industry}, {role} and {painPoint} placeholders.
type Mapping struct {
	IdentifiedPain  string   `yaml:"identifiedPain" json:"identifiedPain"`
	Workflow        []string `yaml:"workflow" json:"workflow"`
	AutomationLogic []string `yaml:"automationLogic" json:"automationLogic"`
	Outputs         []string `yaml:"outputs" json:"outputs"`
	Value           Value    `yaml:"value" json:"value"`
}

// Template maps an (industry, pain point) pair regardless of role.
type Template struct {
	Industry   string  `yaml:"industry" json:"industry"`
	PainPoint  string  `yaml:"painPoint" json:"painPoint"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	Mapping    `yaml:",inline"`
}

// Rule maps an exact (industry, role, pain point) triple.
type Rule struct {
	Industry   string  `yaml:"industry" json:"industry"`
	Role       string  `yaml:"role" json:"role"`
	PainPoint  string  `yaml:"painPoint" json:"painPoint"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	Mapping    `yaml:",inline"`
}

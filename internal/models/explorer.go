package models

// ExplorerInput is a validated (industry, role, pain point) triple.
type ExplorerInput struct {
	Industry  string `json:"industry"`
	Role      string `json:"role"`
	PainPoint string `json:"painPoint"`
}

// Specificity records which rule layer produced a result.
type Specificity string

const (
	SpecificityExact    Specificity = "exact"
	SpecificityTemplate Specificity = "template"
	SpecificityGeneric  Specificity = "generic"
)

// Rank orders specificities; higher is more specific.
func (s Specificity) Rank() int {
	switch s {
	case SpecificityExact:
		return 3
	case SpecificityTemplate:
		return 2
	case SpecificityGeneric:
		return 1
	default:
		return 0
	}
}

type ExplorerValue struct {
	TimeSaved       string `json:"timeSaved"`
	LaborReduced    string `json:"laborReduced"`
	ErrorsPrevented string `json:"errorsPrevented"`
	DecisionLatency string `json:"decisionLatency"`
}

type ExplorerResult struct {
	Summary         string        `json:"summary"`
	Confidence      float64       `json:"confidence"`
	ConfidenceLabel string        `json:"confidenceLabel"`
	MeetsThreshold  bool          `json:"meetsThreshold"`
	Specificity     Specificity   `json:"specificity"`
	IdentifiedPain  string        `json:"identifiedPain"`
	Workflow        []string      `json:"workflow"`
	AutomationLogic []string      `json:"automationLogic"`
	Outputs         []string      `json:"outputs"`
	Value           ExplorerValue `json:"value"`
	Boundaries      []string      `json:"boundaries"`
	DecisionTrail   []string      `json:"decisionTrail"`
	UncertaintyNote string        `json:"uncertaintyNote,omitempty"`
	RulebookVersion string        `json:"rulebookVersion"`
}

// TaxonomyEntry is the public view of an industry, role or pain point.
type TaxonomyEntry struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// internal/explorer/matcher/engine.go
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"capability-explorer/internal/explorer/confidence"
	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"
)

// ErrNoMatch is returned for input outside the supported combination space.
// It is distinct from a low-confidence match.
var ErrNoMatch = errors.New("no deterministic match")

const uncertaintyNote = "Confidence is below threshold. Provide more specific constraints " +
	"(volume, timelines, or system of record) to refine the output."

// Engine maps an input triple to a recommendation. Match is a pure function
// of the input and the rulebook; an Engine is safe for concurrent use.
type Engine struct {
	book   *rulebook.Rulebook
	index  *rulebook.Index
	policy *confidence.Policy
	stats  Coverage
}

// NewEngine builds an engine and verifies that every supported triple has a
// result and that scores are monotonic in specificity.
func NewEngine(rb *rulebook.Rulebook) (*Engine, error) {
	e := &Engine{
		book:   rb,
		index:  rulebook.NewIndex(rb),
		policy: confidence.NewPolicy(rb),
	}

	if err := e.policy.CheckMonotonic(rb); err != nil {
		return nil, fmt.Errorf("confidence policy: %w", err)
	}
	cov, err := e.Coverage()
	if err != nil {
		return nil, err
	}
	e.stats = cov
	return e, nil
}

// Policy returns the confidence policy the engine scores with.
func (e *Engine) Policy() *confidence.Policy {
	return e.policy
}

// Stats returns the coverage computed when the engine was built.
func (e *Engine) Stats() Coverage {
	return e.stats
}

// RulebookVersion returns the version of the rule data in use.
func (e *Engine) RulebookVersion() string {
	return e.book.Version
}

// Match returns the recommendation for input, or ErrNoMatch when any field is
// reserved or unknown.
func (e *Engine) Match(input models.ExplorerInput) (*models.ExplorerResult, error) {
	ind, ok := e.index.Industry(input.Industry)
	if !ok || ind.Reserved {
		return nil, fmt.Errorf("%w: industry %q is not supported", ErrNoMatch, input.Industry)
	}
	role, ok := e.index.Role(input.Role)
	if !ok || role.Reserved {
		return nil, fmt.Errorf("%w: role %q is not supported", ErrNoMatch, input.Role)
	}
	pain, ok := e.index.PainPoint(input.PainPoint)
	if !ok || pain.Reserved || pain.Fallback == nil {
		return nil, fmt.Errorf("%w: pain point %q is not supported", ErrNoMatch, input.PainPoint)
	}

	var (
		mapping     rulebook.Mapping
		specificity models.Specificity
	)
	if r, ok := e.index.Rule(ind.ID, role.ID, pain.ID); ok {
		mapping, specificity = r.Mapping, models.SpecificityExact
	} else if t, ok := e.index.Template(ind.ID, pain.ID); ok {
		mapping, specificity = t.Mapping, models.SpecificityTemplate
	} else {
		mapping, specificity = fillFallback(*pain.Fallback, ind, role, pain), models.SpecificityGeneric
	}

	score := e.policy.Score(input, specificity)
	label := confidence.Label(score)
	meets := confidence.MeetsThreshold(score)

	result := &models.ExplorerResult{
		Summary:         summarize(ind, role, pain, mapping, specificity),
		Confidence:      score,
		ConfidenceLabel: label,
		MeetsThreshold:  meets,
		Specificity:     specificity,
		IdentifiedPain:  mapping.IdentifiedPain,
		Workflow:        clone(mapping.Workflow),
		AutomationLogic: clone(mapping.AutomationLogic),
		Outputs:         clone(mapping.Outputs),
		Value: models.ExplorerValue{
			TimeSaved:       mapping.Value.TimeSaved,
			LaborReduced:    mapping.Value.LaborReduced,
			ErrorsPrevented: mapping.Value.ErrorsPrevented,
			DecisionLatency: mapping.Value.DecisionLatency,
		},
		Boundaries:      clone(e.book.Boundaries),
		DecisionTrail:   decisionTrail(input, role, specificity, score, label),
		RulebookVersion: e.book.Version,
	}
	if !meets {
		result.UncertaintyNote = uncertaintyNote
	}
	return result, nil
}

// Coverage counts how every triple in the taxonomy resolves.
type Coverage struct {
	Exact    int `json:"exact"`
	Template int `json:"template"`
	Generic  int `json:"generic"`
	NoMatch  int `json:"noMatch"`
	BelowCut int `json:"belowThreshold"`
}

// Total is the number of triples counted.
func (c Coverage) Total() int {
	return c.Exact + c.Template + c.Generic + c.NoMatch
}

// Coverage walks the full industry × role × pain point space. It fails if a
// supported triple has no result or a score outside [0,1].
func (e *Engine) Coverage() (Coverage, error) {
	var cov Coverage
	for _, ind := range e.book.Industries {
		for _, role := range e.book.Roles {
			for _, pain := range e.book.PainPoints {
				in := models.ExplorerInput{Industry: ind.ID, Role: role.ID, PainPoint: pain.ID}
				res, err := e.Match(in)
				if errors.Is(err, ErrNoMatch) {
					if !ind.Reserved && !role.Reserved && !pain.Reserved {
						return cov, fmt.Errorf("triple %s/%s/%s has no result", ind.ID, role.ID, pain.ID)
					}
					cov.NoMatch++
					continue
				}
				if err != nil {
					return cov, err
				}
				if res.Confidence < 0 || res.Confidence > 1 {
					return cov, fmt.Errorf("triple %s/%s/%s scored %.2f", ind.ID, role.ID, pain.ID, res.Confidence)
				}
				switch res.Specificity {
				case models.SpecificityExact:
					cov.Exact++
				case models.SpecificityTemplate:
					cov.Template++
				default:
					cov.Generic++
				}
				if !res.MeetsThreshold {
					cov.BelowCut++
				}
			}
		}
	}
	return cov, nil
}

func fillFallback(m rulebook.Mapping, ind rulebook.Industry, role rulebook.Role, pain rulebook.PainPoint) rulebook.Mapping {
	r := strings.NewReplacer(
		"{industry}", ind.Label,
		"{role}", role.Label,
		"{painPoint}", pain.Label,
	)
	fill := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = r.Replace(s)
		}
		return out
	}
	return rulebook.Mapping{
		IdentifiedPain:  r.Replace(m.IdentifiedPain),
		Workflow:        fill(m.Workflow),
		AutomationLogic: fill(m.AutomationLogic),
		Outputs:         fill(m.Outputs),
		Value: rulebook.Value{
			TimeSaved:       r.Replace(m.Value.TimeSaved),
			LaborReduced:    r.Replace(m.Value.LaborReduced),
			ErrorsPrevented: r.Replace(m.Value.ErrorsPrevented),
			DecisionLatency: r.Replace(m.Value.DecisionLatency),
		},
	}
}

func summarize(ind rulebook.Industry, role rulebook.Role, pain rulebook.PainPoint, m rulebook.Mapping, s models.Specificity) string {
	var kind string
	switch s {
	case models.SpecificityExact:
		kind = "Role-specific playbook"
	case models.SpecificityTemplate:
		kind = "Industry playbook"
	default:
		kind = "General playbook"
	}
	return fmt.Sprintf("%s for %s (%s) addressing %s: %s",
		kind, ind.Label, role.Label, strings.ToLower(pain.Label), m.IdentifiedPain)
}

func decisionTrail(in models.ExplorerInput, role rulebook.Role, s models.Specificity, score float64, label string) []string {
	trail := []string{
		"Industry: " + in.Industry,
		"Role context: " + in.Role,
		"Primary pain: " + in.PainPoint,
	}
	switch s {
	case models.SpecificityExact:
		trail = append(trail, "Matched exact rule for industry, role, and pain point")
	case models.SpecificityTemplate:
		trail = append(trail, "Mapped to deterministic workflow template")
		if role.Lens != "" {
			trail = append(trail, "Role lens: "+role.Lens)
		}
	default:
		trail = append(trail, "No industry template for this pain point; applied generic fallback")
	}
	return append(trail,
		fmt.Sprintf("Confidence %.2f (%s) against threshold %.2f", score, label, confidence.Threshold),
		"Generated bounded outputs and value signals",
	)
}

func clone(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

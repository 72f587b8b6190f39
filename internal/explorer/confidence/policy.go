// internal/explorer/confidence/policy.go
package confidence

import (
	"fmt"
	"math"

	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"
)

const (
	// Threshold is the cut line between high-confidence and indicative results.
	// It is returned to API callers as confidenceThreshold.
	Threshold = 0.65

	// HighConfidence is the lower bound of the "High" label.
	HighConfidence = 0.80

	// GenericCeiling caps fallback results below Threshold.
	GenericCeiling = 0.60

	// GenericPenalty is subtracted from the industry floor for fallback results.
	GenericPenalty = 0.15

	// DefaultFloor applies to industries without authored templates.
	DefaultFloor = 0.50
)

const (
	LabelHigh     = "High"
	LabelModerate = "Moderate"
	LabelLow      = "Low"
)

// Policy scores matches from the authored rulebook confidences.
type Policy struct {
	index  *rulebook.Index
	floors map[string]float64
}

func NewPolicy(rb *rulebook.Rulebook) *Policy {
	p := &Policy{
		index:  rulebook.NewIndex(rb),
		floors: make(map[string]float64, len(rb.Industries)),
	}
	for _, ind := range rb.Industries {
		if floor, ok := rb.IndustryFloor(ind.ID); ok {
			p.floors[ind.ID] = floor
		}
	}
	return p
}

// Score returns the confidence for input at the given specificity. When the
// input has no entry at that level the next less specific level is scored,
// so the result is always defined and never exceeds what was authored.
func (p *Policy) Score(input models.ExplorerInput, specificity models.Specificity) float64 {
	switch specificity {
	case models.SpecificityExact:
		if r, ok := p.index.Rule(input.Industry, input.Role, input.PainPoint); ok {
			return normalize(r.Confidence)
		}
		return p.Score(input, models.SpecificityTemplate)
	case models.SpecificityTemplate:
		if t, ok := p.index.Template(input.Industry, input.PainPoint); ok {
			return normalize(t.Confidence)
		}
		return p.Score(input, models.SpecificityGeneric)
	default:
		return p.GenericScore(input.Industry)
	}
}

// GenericScore is min(GenericCeiling, industry floor - GenericPenalty).
func (p *Policy) GenericScore(industry string) float64 {
	floor, ok := p.floors[industry]
	if !ok {
		floor = DefaultFloor
	}
	return normalize(math.Min(GenericCeiling, floor-GenericPenalty))
}

// MeetsThreshold reports whether score is at or above Threshold.
func MeetsThreshold(score float64) bool {
	return score >= Threshold
}

// Label maps a score to High, Moderate or Low.
func Label(score float64) string {
	switch {
	case score >= HighConfidence:
		return LabelHigh
	case score >= Threshold:
		return LabelModerate
	default:
		return LabelLow
	}
}

// CheckMonotonic verifies exact >= template >= generic for every authored
// rule and template in rb.
func (p *Policy) CheckMonotonic(rb *rulebook.Rulebook) error {
	for _, r := range rb.Rules {
		in := models.ExplorerInput{Industry: r.Industry, Role: r.Role, PainPoint: r.PainPoint}
		exact := p.Score(in, models.SpecificityExact)
		tpl := p.Score(in, models.SpecificityTemplate)
		generic := p.Score(in, models.SpecificityGeneric)
		if exact < tpl || exact < generic {
			return fmt.Errorf("rule %s/%s/%s: exact %.2f below template %.2f or generic %.2f",
				r.Industry, r.Role, r.PainPoint, exact, tpl, generic)
		}
	}
	for _, t := range rb.Templates {
		in := models.ExplorerInput{Industry: t.Industry, PainPoint: t.PainPoint}
		if tpl, generic := p.Score(in, models.SpecificityTemplate), p.GenericScore(t.Industry); tpl < generic {
			return fmt.Errorf("template %s/%s: %.2f below generic %.2f", t.Industry, t.PainPoint, tpl, generic)
		}
	}
	return nil
}

func normalize(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return math.Round(score*100) / 100
}

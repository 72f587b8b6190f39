// pkg/rulebook/validate.go
package rulebook

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError collects every problem found in a rulebook.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rulebook invalid: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the structural invariants the matching engine relies on:
// unique taxonomy ids, references to known non-reserved ids, confidences in
// [0,1], exact rules at least as confident as their template, and a fallback
// for every non-reserved pain point so no triple is left without a result.
func (rb *Rulebook) Validate() error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(rb.Version) == "" {
		addf("version is required")
	}

	industries := map[string]Industry{}
	for _, ind := range rb.Industries {
		if ind.ID == "" || ind.Label == "" {
			addf("industry %q needs an id and a label", ind.ID)
		}
		if _, dup := industries[ind.ID]; dup {
			addf("duplicate industry %q", ind.ID)
		}
		industries[ind.ID] = ind
	}
	roles := map[string]Role{}
	for _, r := range rb.Roles {
		if r.ID == "" || r.Label == "" {
			addf("role %q needs an id and a label", r.ID)
		}
		if _, dup := roles[r.ID]; dup {
			addf("duplicate role %q", r.ID)
		}
		roles[r.ID] = r
	}
	pains := map[string]PainPoint{}
	for _, p := range rb.PainPoints {
		if p.ID == "" || p.Label == "" {
			addf("pain point %q needs an id and a label", p.ID)
		}
		if _, dup := pains[p.ID]; dup {
			addf("duplicate pain point %q", p.ID)
		}
		pains[p.ID] = p
		if !p.Reserved {
			if p.Fallback == nil {
				addf("pain point %q has no fallback", p.ID)
			} else if err := checkMapping(*p.Fallback); err != nil {
				addf("pain point %q fallback: %v", p.ID, err)
			}
		}
	}
	if len(industries) == 0 || len(roles) == 0 || len(pains) == 0 {
		addf("industries, roles and painPoints must all be non-empty")
	}

	templates := map[[2]string]float64{}
	for _, t := range rb.Templates {
		key := [2]string{t.Industry, t.PainPoint}
		where := fmt.Sprintf("template %s/%s", t.Industry, t.PainPoint)
		if ind, ok := industries[t.Industry]; !ok || ind.Reserved {
			addf("%s: unknown or reserved industry", where)
		}
		if p, ok := pains[t.PainPoint]; !ok || p.Reserved {
			addf("%s: unknown or reserved pain point", where)
		}
		if _, dup := templates[key]; dup {
			addf("%s: duplicate", where)
		}
		if t.Confidence < 0 || t.Confidence > 1 {
			addf("%s: confidence %.2f outside [0,1]", where, t.Confidence)
		}
		if err := checkMapping(t.Mapping); err != nil {
			addf("%s: %v", where, err)
		}
		templates[key] = t.Confidence
	}

	seen := map[[3]string]bool{}
	for _, r := range rb.Rules {
		key := [3]string{r.Industry, r.Role, r.PainPoint}
		where := fmt.Sprintf("rule %s/%s/%s", r.Industry, r.Role, r.PainPoint)
		if ind, ok := industries[r.Industry]; !ok || ind.Reserved {
			addf("%s: unknown or reserved industry", where)
		}
		if role, ok := roles[r.Role]; !ok || role.Reserved {
			addf("%s: unknown or reserved role", where)
		}
		if p, ok := pains[r.PainPoint]; !ok || p.Reserved {
			addf("%s: unknown or reserved pain point", where)
		}
		if seen[key] {
			addf("%s: duplicate", where)
		}
		seen[key] = true
		if r.Confidence < 0 || r.Confidence > 1 {
			addf("%s: confidence %.2f outside [0,1]", where, r.Confidence)
		}
		if tc, ok := templates[[2]string{r.Industry, r.PainPoint}]; ok && r.Confidence < tc {
			addf("%s: confidence %.2f below template confidence %.2f", where, r.Confidence, tc)
		}
		if err := checkMapping(r.Mapping); err != nil {
			addf("%s: %v", where, err)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func checkMapping(m Mapping) error {
	switch {
	case strings.TrimSpace(m.IdentifiedPain) == "":
		return errors.New("identifiedPain is empty")
	case len(m.Workflow) == 0:
		return errors.New("workflow is empty")
	case len(m.Outputs) == 0:
		return errors.New("outputs is empty")
	}
	return nil
}

// IndustryFloor returns the lowest template confidence authored for an industry.
func (rb *Rulebook) IndustryFloor(industry string) (float64, bool) {
	floor, found := 0.0, false
	for _, t := range rb.Templates {
		if t.Industry != industry {
			continue
		}
		if !found || t.Confidence < floor {
			floor = t.Confidence
			found = true
		}
	}
	return floor, found
}

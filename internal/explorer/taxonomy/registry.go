// internal/explorer/taxonomy/registry.go
package taxonomy

import (
	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"
)

// Registry holds the closed industry, role and pain point sets. It is built
// once at startup and is read-only afterwards.
type Registry struct {
	industries []models.TaxonomyEntry
	roles      []models.TaxonomyEntry
	painPoints []models.TaxonomyEntry

	industryIdx  map[string]int
	roleIdx      map[string]int
	painPointIdx map[string]int
}

func NewRegistry(rb *rulebook.Rulebook) *Registry {
	r := &Registry{
		industryIdx:  make(map[string]int, len(rb.Industries)),
		roleIdx:      make(map[string]int, len(rb.Roles)),
		painPointIdx: make(map[string]int, len(rb.PainPoints)),
	}
	for _, ind := range rb.Industries {
		r.industryIdx[ind.ID] = len(r.industries)
		r.industries = append(r.industries, models.TaxonomyEntry{ID: ind.ID, Label: ind.Label, Description: ind.Description})
	}
	for _, role := range rb.Roles {
		r.roleIdx[role.ID] = len(r.roles)
		r.roles = append(r.roles, models.TaxonomyEntry{ID: role.ID, Label: role.Label})
	}
	for _, p := range rb.PainPoints {
		r.painPointIdx[p.ID] = len(r.painPoints)
		r.painPoints = append(r.painPoints, models.TaxonomyEntry{ID: p.ID, Label: p.Label})
	}
	return r
}

// ListIndustries returns industries in rulebook order. The slice is a copy.
func (r *Registry) ListIndustries() []models.TaxonomyEntry {
	return append([]models.TaxonomyEntry(nil), r.industries...)
}

func (r *Registry) ListRoles() []models.TaxonomyEntry {
	return append([]models.TaxonomyEntry(nil), r.roles...)
}

func (r *Registry) ListPainPoints() []models.TaxonomyEntry {
	return append([]models.TaxonomyEntry(nil), r.painPoints...)
}

func (r *Registry) IsValidIndustry(id string) bool {
	_, ok := r.industryIdx[id]
	return ok
}

func (r *Registry) IsValidRole(id string) bool {
	_, ok := r.roleIdx[id]
	return ok
}

func (r *Registry) IsValidPainPoint(id string) bool {
	_, ok := r.painPointIdx[id]
	return ok
}

// InvalidFields returns the input fields whose values are not in the taxonomy,
// in request field order.
func (r *Registry) InvalidFields(in models.ExplorerInput) []string {
	var fields []string
	if !r.IsValidIndustry(in.Industry) {
		fields = append(fields, "industry")
	}
	if !r.IsValidRole(in.Role) {
		fields = append(fields, "role")
	}
	if !r.IsValidPainPoint(in.PainPoint) {
		fields = append(fields, "painPoint")
	}
	return fields
}

// IDs returns the ids of entries in order.
func IDs(entries []models.TaxonomyEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

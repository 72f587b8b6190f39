// pkg/rulebook/index.go
package rulebook

// Index gives O(1) access to taxonomy entries, templates and rules. It is
// read-only once built and safe for concurrent use.
type Index struct {
	industries map[string]Industry
	roles      map[string]Role
	painPoints map[string]PainPoint
	templates  map[[2]string]*Template
	rules      map[[3]string]*Rule
}

func NewIndex(rb *Rulebook) *Index {
	idx := &Index{
		industries: make(map[string]Industry, len(rb.Industries)),
		roles:      make(map[string]Role, len(rb.Roles)),
		painPoints: make(map[string]PainPoint, len(rb.PainPoints)),
		templates:  make(map[[2]string]*Template, len(rb.Templates)),
		rules:      make(map[[3]string]*Rule, len(rb.Rules)),
	}
	for _, ind := range rb.Industries {
		idx.industries[ind.ID] = ind
	}
	for _, r := range rb.Roles {
		idx.roles[r.ID] = r
	}
	for _, p := range rb.PainPoints {
		idx.painPoints[p.ID] = p
	}
	for i := range rb.Templates {
		t := &rb.Templates[i]
		idx.templates[[2]string{t.Industry, t.PainPoint}] = t
	}
	for i := range rb.Rules {
		r := &rb.Rules[i]
		idx.rules[[3]string{r.Industry, r.Role, r.PainPoint}] = r
	}
	return idx
}

func (idx *Index) Industry(id string) (Industry, bool) {
	ind, ok := idx.industries[id]
	return ind, ok
}

func (idx *Index) Role(id string) (Role, bool) {
	r, ok := idx.roles[id]
	return r, ok
}

func (idx *Index) PainPoint(id string) (PainPoint, bool) {
	p, ok := idx.painPoints[id]
	return p, ok
}

// Rule returns the exact rule for a triple.
func (idx *Index) Rule(industry, role, painPoint string) (*Rule, bool) {
	r, ok := idx.rules[[3]string{industry, role, painPoint}]
	return r, ok
}

// Template returns the (industry, pain point) template.
func (idx *Index) Template(industry, painPoint string) (*Template, bool) {
	t, ok := idx.templates[[2]string{industry, painPoint}]
	return t, ok
}

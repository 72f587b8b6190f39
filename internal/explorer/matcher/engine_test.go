// internal/explorer/matcher/engine_test.go
package matcher

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"capability-explorer/internal/explorer/confidence"
	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newEngine(t *testing.T) *Engine {
	t.Helper()
	rb, err := rulebook.Default()
	require.NoError(t, err)
	e, err := NewEngine(rb)
	require.NoError(t, err)
	return e
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

var scenario = models.ExplorerInput{
	Industry:  "construction",
	Role:      "operations-manager",
	PainPoint: "scheduling-delays",
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_ExactRuleScenario(t *testing.T) {
	e := newEngine(t)

	res, err := e.Match(scenario)
	require.NoError(t, err)

	assert.Equal(t, 0.82, res.Confidence)
	assert.Equal(t, confidence.LabelHigh, res.ConfidenceLabel)
	assert.True(t, res.MeetsThreshold)
	assert.Equal(t, models.SpecificityExact, res.Specificity)
	assert.NotEmpty(t, res.Summary)
	assert.NotEmpty(t, res.Workflow)
	assert.NotEmpty(t, res.Outputs)
	assert.Len(t, res.Boundaries, 3)
	assert.Empty(t, res.UncertaintyNote)
	assert.Equal(t, e.RulebookVersion(), res.RulebookVersion)
	assert.Contains(t, res.DecisionTrail, "Matched exact rule for industry, role, and pain point")
}

func TestEngine_Deterministic(t *testing.T) {
	e := newEngine(t)
	other := newEngine(t)

	inputs := []models.ExplorerInput{
		scenario,
		{Industry: "retail", Role: "owner", PainPoint: "money"},
		{Industry: "education", Role: "analyst", PainPoint: "scheduling-delays"},
	}
	for _, in := range inputs {
		first, err := e.Match(in)
		require.NoError(t, err)
		second, err := e.Match(in)
		require.NoError(t, err)
		fresh, err := other.Match(in)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, mustJSON(t, first), mustJSON(t, second))
		assert.Equal(t, mustJSON(t, first), mustJSON(t, fresh))
	}
}

func TestEngine_ConcurrentCallsAgree(t *testing.T) {
	e := newEngine(t)
	want, err := e.Match(scenario)
	require.NoError(t, err)
	wantJSON := mustJSON(t, want)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Match(scenario)
			if err == nil {
				b, _ := json.Marshal(res)
				results[i] = string(b)
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, wantJSON, got)
	}
}

func TestEngine_ResultsDoNotAliasRulebook(t *testing.T) {
	e := newEngine(t)

	res, err := e.Match(scenario)
	require.NoError(t, err)
	res.Workflow[0] = "mutated"
	res.Boundaries[0] = "mutated"

	again, err := e.Match(scenario)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Workflow[0])
	assert.NotEqual(t, "mutated", again.Boundaries[0])
}

func TestEngine_TemplateAppliesRoleLens(t *testing.T) {
	e := newEngine(t)

	owner, err := e.Match(models.ExplorerInput{Industry: "construction", Role: "owner", PainPoint: "money"})
	require.NoError(t, err)
	analyst, err := e.Match(models.ExplorerInput{Industry: "construction", Role: "analyst", PainPoint: "money"})
	require.NoError(t, err)

	assert.Equal(t, models.SpecificityTemplate, owner.Specificity)
	assert.Equal(t, owner.Confidence, analyst.Confidence)
	assert.Equal(t, owner.Workflow, analyst.Workflow)
	assert.NotEqual(t, owner.Summary, analyst.Summary)
	assert.NotEqual(t, owner.DecisionTrail, analyst.DecisionTrail)
}

func TestEngine_GenericFallbackIsContextAware(t *testing.T) {
	e := newEngine(t)

	a, err := e.Match(models.ExplorerInput{Industry: "education", Role: "analyst", PainPoint: "scheduling-delays"})
	require.NoError(t, err)
	b, err := e.Match(models.ExplorerInput{Industry: "retail", Role: "owner", PainPoint: "scheduling-delays"})
	require.NoError(t, err)

	for _, res := range []*models.ExplorerResult{a, b} {
		assert.Equal(t, models.SpecificityGeneric, res.Specificity)
		assert.False(t, res.MeetsThreshold)
		assert.Equal(t, confidence.LabelLow, res.ConfidenceLabel)
		assert.NotEmpty(t, res.UncertaintyNote)
		assert.NotContains(t, mustJSON(t, res), "{industry}")
		assert.NotContains(t, mustJSON(t, res), "{role}")
	}
	assert.Contains(t, a.IdentifiedPain+strings.Join(a.Workflow, " "), "Education")
	assert.NotEqual(t, a.IdentifiedPain+strings.Join(a.Workflow, " "), b.IdentifiedPain+strings.Join(b.Workflow, " "))
}

func TestEngine_ExactAtLeastGenericForSameIndustry(t *testing.T) {
	e := newEngine(t)
	rb := rulebook.MustDefault()

	for _, r := range rb.Rules {
		exact, err := e.Match(models.ExplorerInput{Industry: r.Industry, Role: r.Role, PainPoint: r.PainPoint})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, exact.Confidence, e.Policy().GenericScore(r.Industry), "%s/%s/%s", r.Industry, r.Role, r.PainPoint)
	}
}

// ==========================
// NoMatch
// ==========================

func TestEngine_NoMatch(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		input models.ExplorerInput
	}{
		{"reserved industry", models.ExplorerInput{Industry: "other", Role: "owner", PainPoint: "money"}},
		{"unknown industry", models.ExplorerInput{Industry: "space-mining", Role: "owner", PainPoint: "money"}},
		{"unknown role", models.ExplorerInput{Industry: "retail", Role: "intern", PainPoint: "money"}},
		{"unknown pain point", models.ExplorerInput{Industry: "retail", Role: "owner", PainPoint: "weather"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Match(tt.input)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrNoMatch))
		})
	}
}

// ==========================
// Coverage
// ==========================

func TestEngine_Coverage(t *testing.T) {
	e := newEngine(t)

	cov, err := e.Coverage()
	require.NoError(t, err)

	assert.Equal(t, 13*4*7, cov.Total())
	assert.Equal(t, 7, cov.Exact)
	assert.Equal(t, 285, cov.Template)
	assert.Equal(t, 44, cov.Generic)
	assert.Equal(t, 28, cov.NoMatch)
	assert.Equal(t, cov.Generic, cov.BelowCut)
}

func TestEngine_StatsMatchesBuildTimeCoverage(t *testing.T) {
	e := newEngine(t)

	cov, err := e.Coverage()
	require.NoError(t, err)
	assert.Equal(t, cov, e.Stats())
	assert.Equal(t, 13*4*7, e.Stats().Total())
}

func TestNewEngine_RejectsNonMonotonicRules(t *testing.T) {
	fallback := &rulebook.Mapping{IdentifiedPain: "p", Workflow: []string{"w"}, Outputs: []string{"o"}}
	rb := &rulebook.Rulebook{
		Version:    "t",
		Industries: []rulebook.Industry{{ID: "retail", Label: "Retail"}},
		Roles:      []rulebook.Role{{ID: "owner", Label: "Owner"}},
		PainPoints: []rulebook.PainPoint{{ID: "money", Label: "Money", Fallback: fallback}},
		Templates: []rulebook.Template{{Industry: "retail", PainPoint: "money", Confidence: 0.9,
			Mapping: rulebook.Mapping{IdentifiedPain: "p", Workflow: []string{"w"}, Outputs: []string{"o"}}}},
		Rules: []rulebook.Rule{{Industry: "retail", Role: "owner", PainPoint: "money", Confidence: 0.7,
			Mapping: rulebook.Mapping{IdentifiedPain: "p", Workflow: []string{"w"}, Outputs: []string{"o"}}}},
	}

	_, err := NewEngine(rb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence policy")
}

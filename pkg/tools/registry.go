// pkg/tools/registry.go
package tools

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed data/tools.yaml
var defaultCatalog []byte

var (
	ErrNotFound        = errors.New("tool not found")
	ErrComingSoon      = errors.New("tool is not yet available")
	ErrExecutionFailed = errors.New("tool execution failed")
)

// executors binds tool ids to their implementations.
var executors = map[string]Executor{
	"roi-calculator":       ROICalculator,
	"break-even-analyzer":  BreakEvenAnalyzer,
	"cash-flow-forecaster": CashFlowForecaster,
}

type catalog struct {
	Version string `yaml:"version"`
	Tools   []Tool `yaml:"tools"`
}

// Registry is the read-only catalog of tools and their executors.
type Registry struct {
	version   string
	tools     []*Tool
	byID      map[string]*Tool
	executors map[string]Executor
	now       func() time.Time
}

type Option func(*Registry)

// WithClock fixes the time used for result timestamps and calendar labels.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the embedded catalog, parsed once per process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load()
	})
	return defaultReg, defaultErr
}

// Load parses the embedded catalog into a new registry.
func Load(opts ...Option) (*Registry, error) {
	return Parse(defaultCatalog, opts...)
}

// Parse decodes a YAML catalog and binds every available tool to its executor.
func Parse(data []byte, opts ...Option) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse tool catalog: %w", err)
	}

	r := &Registry{
		version:   c.Version,
		byID:      make(map[string]*Tool, len(c.Tools)),
		executors: make(map[string]Executor, len(c.Tools)),
		now:       time.Now,
	}
	for i := range c.Tools {
		t := &c.Tools[i]
		if err := validateTool(t); err != nil {
			return nil, err
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("tool %q defined twice", t.ID)
		}
		exec, ok := executors[t.ID]
		if !ok && !t.ComingSoon {
			return nil, fmt.Errorf("tool %q has no executor", t.ID)
		}
		if ok {
			r.executors[t.ID] = exec
		}
		r.byID[t.ID] = t
		r.tools = append(r.tools, t)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func validateTool(t *Tool) error {
	if t.ID == "" || t.Name == "" {
		return fmt.Errorf("tool %q: id and name are required", t.ID)
	}
	switch t.Category {
	case CategoryCalculators, CategoryAnalyzers, CategoryGenerators, CategoryVisualizers:
	default:
		return fmt.Errorf("tool %q: unknown category %q", t.ID, t.Category)
	}
	seen := make(map[string]bool, len(t.Inputs))
	for _, in := range t.Inputs {
		if in.ID == "" || seen[in.ID] {
			return fmt.Errorf("tool %q: input ids must be unique and non-empty", t.ID)
		}
		seen[in.ID] = true
	}
	return nil
}

func (r *Registry) Version() string {
	return r.version
}

// All returns every tool in catalog order.
func (r *Registry) All() []*Tool {
	return append([]*Tool(nil), r.tools...)
}

func (r *Registry) Featured() []*Tool {
	var out []*Tool
	for _, t := range r.tools {
		if t.Featured {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) ByCategory(c Category) []*Tool {
	var out []*Tool
	for _, t := range r.tools {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) Get(id string) (*Tool, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Execute runs a tool. A panicking executor is reported as ErrExecutionFailed.
func (r *Registry) Execute(id string, in Inputs) (res *Result, err error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	exec, ok := r.executors[id]
	if t.ComingSoon || !ok {
		return nil, fmt.Errorf("%w: %s", ErrComingSoon, id)
	}

	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("%w: %s: %v", ErrExecutionFailed, id, p)
		}
	}()
	return exec(in, r.now()), nil
}

// pkg/rulebook/rulebook.go
package rulebook

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/rulebook.yaml
var defaultRulebook []byte

var (
	defaultOnce sync.Once
	defaultBook *Rulebook
	defaultErr  error
)

// Default returns the embedded rulebook. It is parsed and validated once per process.
func Default() (*Rulebook, error) {
	defaultOnce.Do(func() {
		defaultBook, defaultErr = Parse(defaultRulebook)
	})
	return defaultBook, defaultErr
}

// MustDefault is Default for callers that cannot continue without rules.
func MustDefault() *Rulebook {
	rb, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded rulebook is invalid: %v", err))
	}
	return rb
}

// Load reads and validates a rulebook from disk.
func Load(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML rulebook and validates it. Unknown fields are rejected
// so typos in rule data fail loudly instead of silently dropping content.
func Parse(data []byte) (*Rulebook, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rb Rulebook
	if err := dec.Decode(&rb); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return &rb, nil
}

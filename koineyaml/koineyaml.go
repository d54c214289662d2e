// Package koineyaml provides compose.Loader implementations that read
// grammar files off disk as YAML or JSON, the way ava12-llx's own
// langdef package reads its EBNF source files off disk. YAML is
// the primary format (grounded on gopkg.in/yaml.v3, already part of
// the pack's dependency stack); JSON rides on encoding/json, since no
// example in the pack reaches for a third-party JSON library and
// spec.md treats JSON as a convenience alternate, not a primary format
// requiring deeper tooling.
package koineyaml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads path and decodes it as YAML or JSON, chosen by
// extension (.json loads as JSON; everything else as YAML). It
// satisfies compose.Loader.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("koineyaml: reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(data, path)
	}
	return decodeYAML(data, path)
}

// LoadYAML decodes YAML bytes into the nested-map form compose.Compile
// expects. yaml.v3 already decodes string-keyed mappings as
// map[string]interface{}; mappings with non-string keys are left as
// yaml.v3 decodes them and are not converted.
func LoadYAML(data []byte) (map[string]any, error) {
	return decodeYAML(data, "")
}

// LoadJSON decodes JSON bytes into the same nested-map form.
func LoadJSON(data []byte) (map[string]any, error) {
	return decodeJSON(data, "")
}

func decodeYAML(data []byte, path string) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("koineyaml: parsing %s: %w", displayPath(path), err)
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("koineyaml: %s does not decode to a map", displayPath(path))
	}
	return m, nil
}

func decodeJSON(data []byte, path string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("koineyaml: parsing %s: %w", displayPath(path), err)
	}
	return m, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<input>"
	}
	return path
}

// normalize walks a decoded YAML value, converting any
// map[string]interface{} produced by yaml.v3 for mapping nodes into
// the map[string]any the rest of koine standardizes on (the two types
// are identical under Go's any alias, so this is a recursive identity
// walk whose only real job is to recurse into []any elements).
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return t
	}
}

package koineyaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadYAMLDecodesNestedMaps(t *testing.T) {
	data := []byte(`
start_rule: greeting
rules:
  greeting:
    sequence:
      - literal: "hi"
      - literal: "!"
`)
	m, err := LoadYAML(data)
	require.NoError(t, err)
	require.Equal(t, "greeting", m["start_rule"])

	rules, ok := m["rules"].(map[string]any)
	require.True(t, ok)
	greeting, ok := rules["greeting"].(map[string]any)
	require.True(t, ok)
	seq, ok := greeting["sequence"].([]any)
	require.True(t, ok)
	require.Len(t, seq, 2)

	first, ok := seq[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hi", first["literal"])
}

func TestLoadJSONDecodesNestedMaps(t *testing.T) {
	data := []byte(`{"start_rule":"greeting","rules":{"greeting":{"literal":"hi"}}}`)
	m, err := LoadJSON(data)
	require.NoError(t, err)
	require.Equal(t, "greeting", m["start_rule"])

	rules := m["rules"].(map[string]any)
	greeting := rules["greeting"].(map[string]any)
	require.Equal(t, "hi", greeting["literal"])
}

func TestLoadYAMLRejectsNonMapRoot(t *testing.T) {
	_, err := LoadYAML([]byte(`- just a list`))
	require.Error(t, err)
}

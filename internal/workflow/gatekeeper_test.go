package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInput(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"title":       "Topic",
				"description": "The subject to cover",
			},
			"language": map[string]any{
				"type":  "string",
				"label": "Target language",
			},
			"tone": map[string]any{"type": "string"},
		},
		"required": []any{"topic", "language", "tone"},
	}

	t.Run("complete input passes", func(t *testing.T) {
		check := CheckInput(schema, map[string]any{
			"topic":    "go",
			"language": "fr",
			"tone":     "formal",
		})
		assert.True(t, check.Complete())
		assert.Empty(t, check.MissingFields)
		assert.Empty(t, check.Questions)
		assert.Empty(t, check.Message)
	})

	t.Run("absent, nil and empty values all count as missing", func(t *testing.T) {
		check := CheckInput(schema, map[string]any{
			"language": nil,
			"tone":     "",
		})
		assert.False(t, check.Complete())
		// missing fields keep the schema's required order
		assert.Equal(t, []string{"topic", "language", "tone"}, check.MissingFields)
	})

	t.Run("question labels fall back title, label, key", func(t *testing.T) {
		check := CheckInput(schema, map[string]any{})
		require.Len(t, check.Questions, 3)
		assert.Equal(t, "Please provide: Topic (The subject to cover)", check.Questions[0])
		assert.Equal(t, "Please provide: Target language", check.Questions[1])
		assert.Equal(t, "Please provide: tone", check.Questions[2])
	})

	t.Run("message lists fields and questions", func(t *testing.T) {
		check := CheckInput(schema, map[string]any{"language": "fr", "tone": "formal"})
		assert.Contains(t, check.Message, "**Missing fields:**")
		assert.Contains(t, check.Message, "- topic")
		assert.Contains(t, check.Message, "1. Please provide: Topic (The subject to cover)")
		assert.Contains(t, check.Message, "Please complete the missing fields to continue.")
	})

	t.Run("nil schema accepts anything", func(t *testing.T) {
		check := CheckInput(nil, map[string]any{})
		assert.True(t, check.Complete())
	})

	t.Run("zero but present values are not missing", func(t *testing.T) {
		check := CheckInput(map[string]any{
			"required": []any{"count", "enabled"},
		}, map[string]any{"count": 0, "enabled": false})
		assert.True(t, check.Complete())
	})

	t.Run("handles a schema decoded from JSON", func(t *testing.T) {
		raw := `{"type":"object","properties":{"name":{"type":"string","title":"Name"}},"required":["name"]}`
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))

		check := CheckInput(decoded, map[string]any{})
		assert.Equal(t, []string{"name"}, check.MissingFields)
		assert.Equal(t, []string{"Please provide: Name"}, check.Questions)
	})
}

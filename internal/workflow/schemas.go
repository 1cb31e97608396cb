package workflow

// The per-stage output schemas are part of the wire contract with the AI
// backend: field names and required lists must stay exactly as declared here
// for response parsing to succeed.

func planningSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"plan":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"methodology":   map[string]any{"type": "string"},
			"estimatedTime": map[string]any{"type": "string"},
			"risks":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"plan", "methodology", "estimatedTime", "risks"},
	}
}

func processingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result":  map[string]any{"type": "string"},
			"details": map[string]any{"type": "string"},
			"quality": map[string]any{"type": "string"},
			"notes":   map[string]any{"type": "string"},
		},
		"required": []string{"result", "details", "quality", "notes"},
	}
}

func finalizationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"finalResult":     map[string]any{"type": "string"},
			"summary":         map[string]any{"type": "string"},
			"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"nextSteps":       map[string]any{"type": "string"},
		},
		"required": []string{"finalResult", "summary", "recommendations", "nextSteps"},
	}
}

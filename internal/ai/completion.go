package ai

import (
	"encoding/json"
	"strings"
)

// ErrorKind classifies a gateway failure.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindBackend   ErrorKind = "backend"
	KindTransport ErrorKind = "transport"
	KindEmpty     ErrorKind = "empty"
)

// Error is a normalized gateway failure: a kind plus a message suitable for
// attaching to a workflow step.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Completion is the two-variant result of a generation call. Text always
// holds the raw completion; Structured is non-nil only when the completion
// parsed as a JSON object. Callers must tolerate either shape.
type Completion struct {
	Structured map[string]any
	Text       string
}

// IsStructured reports whether the completion parsed as JSON.
func (c *Completion) IsStructured() bool {
	return c.Structured != nil
}

// String returns the named field as a string, or "" when absent or not
// structured.
func (c *Completion) String(key string) string {
	if c.Structured == nil {
		return ""
	}
	s, _ := c.Structured[key].(string)
	return s
}

// Strings returns the named field as a string slice, tolerating the
// []any shape produced by JSON decoding.
func (c *Completion) Strings(key string) []string {
	if c.Structured == nil {
		return nil
	}
	switch v := c.Structured[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseCompletion attempts to interpret the completion text as JSON,
// tolerating fenced-code-block wrapping. When parsing fails the raw text is
// kept as-is rather than treated as an error.
func parseCompletion(content string) *Completion {
	c := &Completion{Text: content}
	candidate := stripFences(content)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		c.Structured = parsed
	}
	return c
}

// stripFences removes leading/trailing triple-backtick markers (with an
// optional language tag on the opening fence).
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

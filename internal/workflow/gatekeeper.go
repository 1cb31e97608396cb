package workflow

import (
	"fmt"
	"strings"
)

// InputCheck is the outcome of the shallow required-field validation run
// against a service's input schema.
type InputCheck struct {
	MissingFields []string
	Questions     []string
	Message       string
}

// Complete reports whether every required field was present.
func (c *InputCheck) Complete() bool {
	return len(c.MissingFields) == 0
}

// CheckInput validates raw input against the schema's required-field list.
// A field counts as missing when it is absent, nil or the empty string. The
// check is intentionally shallow: type conformance, nested objects and
// enum/range constraints are the strict validator's concern, not this one's.
// When fields are missing, one clarifying question is produced per field so
// the caller can re-collect input instead of failing hard.
func CheckInput(schema map[string]any, input map[string]any) *InputCheck {
	required := stringSlice(schema["required"])
	properties, _ := schema["properties"].(map[string]any)

	var missing []string
	for _, key := range required {
		v, ok := input[key]
		if !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}

	check := &InputCheck{MissingFields: missing}
	if len(missing) == 0 {
		return check
	}

	for _, key := range missing {
		prop, _ := properties[key].(map[string]any)
		label := stringField(prop, "title")
		if label == "" {
			label = stringField(prop, "label")
		}
		if label == "" {
			label = key
		}
		q := "Please provide: " + label
		if desc := stringField(prop, "description"); desc != "" {
			q += " (" + desc + ")"
		}
		check.Questions = append(check.Questions, q)
	}
	check.Message = composeMessage(missing, check.Questions)
	return check
}

// composeMessage builds the human-readable clarification message shown to
// the end user when input is incomplete.
func composeMessage(missing, questions []string) string {
	var b strings.Builder
	b.WriteString("**Input validation**\n\nSome information is missing to execute the task.\n\n**Missing fields:**\n")
	for _, f := range missing {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n**Questions to clarify:**\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\nPlease complete the missing fields to continue.")
	return b.String()
}

// stringSlice tolerates both the []any shape produced by JSON decoding and
// the []string shape used by in-process callers.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

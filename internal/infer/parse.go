package infer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/onikuma-games/prowler/internal/game"
)

// ParseDecision parses a decide response into a complete Decision. Models
// habitually wrap JSON in code fences or prose, so the parser extracts the
// outermost object before unmarshalling. Anything that does not validate
// against the schema is ErrMalformedDecision.
func ParseDecision(text string) (*game.Decision, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedDecision)
	}

	var d game.Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	return &d, nil
}

// extractJSON returns the outermost {...} span of the text, or "".
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

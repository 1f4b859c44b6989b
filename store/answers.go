package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeAnswers serializes a correct-answer set as a JSON array.
func EncodeAnswers(answers []string) (string, error) {
	if answers == nil {
		answers = []string{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAnswers reads a stored answer set. Values that are not a JSON array
// come from the single-answer layout and decode to a one-element set.
func DecodeAnswers(raw sql.NullString) ([]string, error) {
	if !raw.Valid {
		return []string{}, nil
	}
	if !strings.HasPrefix(strings.TrimSpace(raw.String), "[") {
		return []string{raw.String}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil, fmt.Errorf("decode correct answers %q: %w", raw.String, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

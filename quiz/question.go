package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

var ErrInvalidQuestion = errors.New("invalid question")

type Question struct {
	ID             int64               `json:"id"`
	CategoryID     int64               `json:"categoryId"`
	Category       string              `json:"category"`
	Text           string              `json:"question"`
	Options        [OptionCount]string `json:"options"`
	CorrectAnswers []string            `json:"answers"`
	MultipleChoice bool                `json:"isMultipleChoice"`
	Feedback       string              `json:"feedback"`
}

// Validate reports the first broken invariant. The store trusts its callers,
// so anything that writes questions should call this first.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuestion)
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %s is empty", ErrInvalidQuestion, OptionLetter(i))
		}
	}
	answers := distinct(q.CorrectAnswers)
	if len(answers) == 0 {
		return fmt.Errorf("%w: no correct answer selected", ErrInvalidQuestion)
	}
	for _, a := range answers {
		if !q.HasOption(a) {
			return fmt.Errorf("%w: correct answer %q is not one of the options", ErrInvalidQuestion, a)
		}
	}
	if !q.MultipleChoice && len(answers) > 1 {
		return fmt.Errorf("%w: single choice questions can only have one correct answer", ErrInvalidQuestion)
	}
	return nil
}

func (q Question) HasOption(text string) bool {
	for _, opt := range q.Options {
		if opt == text {
			return true
		}
	}
	return false
}

// IsCorrectOption reports whether the option at index i is in the answer set.
func (q Question) IsCorrectOption(i int) bool {
	if i < 0 || i >= OptionCount {
		return false
	}
	for _, a := range q.CorrectAnswers {
		if a == q.Options[i] {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with q.
func (q Question) Clone() Question {
	out := q
	if q.CorrectAnswers != nil {
		out.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	}
	return out
}

// OptionLetter maps 0..3 to A..D.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// OptionIndex maps a letter (either case) to 0..3, or -1.
func OptionIndex(letter string) int {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 {
		return -1
	}
	idx := int(letter[0] - 'A')
	if idx < 0 || idx >= OptionCount {
		return -1
	}
	return idx
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

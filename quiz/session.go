package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"
)

var (
	ErrNoQuestions       = errors.New("no questions available")
	ErrSelectionRequired = errors.New("selection required")
	ErrSingleSelection   = errors.New("single choice question accepts exactly one answer")
	ErrSessionFinished   = errors.New("quiz already completed")
)

// QuestionSource is read once per quiz start.
type QuestionSource interface {
	QuestionsByCategory(ctx context.Context, category string) ([]Question, error)
}

type Answer struct {
	Question Question `json:"question"`
	Selected []string `json:"selected"`
	Correct  bool     `json:"correct"`
}

type Outcome struct {
	Correct        bool     `json:"correct"`
	CorrectAnswers []string `json:"correctAnswers"`
	Feedback       string   `json:"feedback"`
}

type Result struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

func (r Result) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", r.Score, r.Total, r.Percentage)
}

// Session is one quiz attempt. It is a value: Submit returns the next state
// and leaves the receiver untouched, so callers can hold on to old states.
type Session struct {
	category  string
	questions []Question
	index     int
	score     int
	answers   []Answer
}

func (s Session) Category() string { return s.category }

func (s Session) Current() (Question, bool) {
	if s.Finished() {
		return Question{}, false
	}
	return s.questions[s.index].Clone(), true
}

// Position is the zero-based index of the current question.
func (s Session) Position() int { return s.index }

func (s Session) Submit(selected []string) (Session, Outcome, error) {
	if s.Finished() {
		return s, Outcome{}, ErrSessionFinished
	}
	picked := normalizeSelection(selected)
	if len(picked) == 0 {
		return s, Outcome{}, ErrSelectionRequired
	}
	q := s.questions[s.index]
	if !q.MultipleChoice && len(picked) > 1 {
		return s, Outcome{}, ErrSingleSelection
	}

	correct := Grade(q, picked)
	out := Outcome{
		Correct:        correct,
		CorrectAnswers: append([]string(nil), q.CorrectAnswers...),
		Feedback:       q.Feedback,
	}

	next := s
	next.index++
	if correct {
		next.score++
	}
	next.answers = make([]Answer, len(s.answers), len(s.answers)+1)
	copy(next.answers, s.answers)
	next.answers = append(next.answers, Answer{
		Question: q.Clone(),
		Selected: picked,
		Correct:  correct,
	})
	return next, out, nil
}

func (s Session) Finished() bool {
	return s.index >= len(s.questions)
}

func (s Session) Progress() (answered, total int) {
	return s.index, len(s.questions)
}

func (s Session) Score() int { return s.score }

func (s Session) Answers() []Answer {
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// NewResult scores score out of total. A zero total scores 0%.
func NewResult(score, total int) Result {
	res := Result{Score: score, Total: total}
	if total > 0 {
		res.Percentage = float64(score) * 100 / float64(total)
	}
	return res
}

func (s Session) Result() Result {
	return NewResult(s.score, len(s.questions))
}

// Questions returns the shuffled order fixed at start.
func (s Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

// NewSession builds a session over qs in the given order.
func NewSession(category string, qs []Question) Session {
	snap := make([]Question, len(qs))
	for i, q := range qs {
		snap[i] = q.Clone()
	}
	return Session{category: category, questions: snap}
}

type EngineOption func(*Engine)

// WithRand replaces the time-seeded random source.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = r }
}

type Engine struct {
	src QuestionSource
	rng *rand.Rand
	mu  sync.Mutex
}

func NewEngine(src QuestionSource, opts ...EngineOption) *Engine {
	e := &Engine{
		src: src,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start loads the category and returns a uniformly shuffled session, or
// ErrNoQuestions when there is nothing to ask.
func (e *Engine) Start(ctx context.Context, category string) (Session, error) {
	qs, err := e.src.QuestionsByCategory(ctx, category)
	if err != nil {
		return Session{}, fmt.Errorf("load questions for %q: %w", category, err)
	}
	if len(qs) == 0 {
		return Session{}, ErrNoQuestions
	}
	s := NewSession(category, qs)
	e.mu.Lock()
	e.rng.Shuffle(len(s.questions), func(i, j int) {
		s.questions[i], s.questions[j] = s.questions[j], s.questions[i]
	})
	e.mu.Unlock()
	return s, nil
}

type importedQuestion struct {
	Category       string   `json:"category"`
	Text           string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"answers"`
	MultipleChoice bool     `json:"isMultipleChoice"`
	Feedback       string   `json:"feedback"`
}

// LoadQuestions reads a JSON array of questions. Entries must have exactly
// four options; other invariants are left to Question.Validate.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []importedQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	qs := make([]Question, 0, len(raw))
	for i, r := range raw {
		if len(r.Options) != OptionCount {
			return nil, fmt.Errorf("%w: entry %d has %d options, want %d", ErrInvalidQuestion, i+1, len(r.Options), OptionCount)
		}
		q := Question{
			Category:       r.Category,
			Text:           r.Text,
			CorrectAnswers: r.CorrectAnswers,
			MultipleChoice: r.MultipleChoice,
			Feedback:       r.Feedback,
		}
		copy(q.Options[:], r.Options)
		qs = append(qs, q)
	}
	return qs, nil
}

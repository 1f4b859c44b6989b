// Package admin holds the authoring side: the shared-passphrase gate and a
// service that validates questions before they reach the store.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"quizdesk/quiz"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrEmptyCategory    = errors.New("category name cannot be empty")
	ErrAdminDisabled    = errors.New("admin access is disabled, set QUIZ_ADMIN_PASSPHRASE")
	ErrAccessDenied     = errors.New("incorrect password")
)

// Gate checks the single shared admin passphrase. An empty passphrase
// disables admin access entirely.
type Gate struct {
	passphrase []byte
}

func NewGate(passphrase string) Gate {
	return Gate{passphrase: []byte(passphrase)}
}

func (g Gate) Enabled() bool { return len(g.passphrase) > 0 }

func (g Gate) Allow(candidate string) bool {
	if !g.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare(g.passphrase, []byte(candidate)) == 1
}

// Check is Allow with the reason for a refusal.
func (g Gate) Check(candidate string) error {
	if !g.Enabled() {
		return ErrAdminDisabled
	}
	if !g.Allow(candidate) {
		return ErrAccessDenied
	}
	return nil
}

// Store is the persistence the admin service needs.
type Store interface {
	ListCategories(ctx context.Context) ([]string, error)
	AddCategory(ctx context.Context, name string) (bool, error)
	AddQuestion(ctx context.Context, category string, q quiz.Question) (int64, error)
	AllQuestions(ctx context.Context) ([]quiz.Question, error)
	Question(ctx context.Context, id int64) (quiz.Question, bool, error)
	UpdateQuestion(ctx context.Context, id int64, q quiz.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// AddCategory returns false when the category already exists.
func (s *Service) AddCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyCategory
	}
	return s.store.AddCategory(ctx, name)
}

func (s *Service) AddQuestion(ctx context.Context, category string, q quiz.Question) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, ErrEmptyCategory
	}
	q = tidy(q)
	if err := q.Validate(); err != nil {
		return 0, err
	}
	return s.store.AddQuestion(ctx, category, q)
}

func (s *Service) Questions(ctx context.Context) ([]quiz.Question, error) {
	return s.store.AllQuestions(ctx)
}

func (s *Service) Question(ctx context.Context, id int64) (quiz.Question, error) {
	q, ok, err := s.store.Question(ctx, id)
	if err != nil {
		return quiz.Question{}, err
	}
	if !ok {
		return quiz.Question{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return q, nil
}

// UpdateQuestion replaces question id. Unlike the store it reports unknown
// ids with ErrQuestionNotFound.
func (s *Service) UpdateQuestion(ctx context.Context, id int64, q quiz.Question) error {
	q = tidy(q)
	if err := q.Validate(); err != nil {
		return err
	}
	if _, err := s.Question(ctx, id); err != nil {
		return err
	}
	return s.store.UpdateQuestion(ctx, id, q)
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.store.DeleteQuestion(ctx, id)
}

// Import validates every question in the file before adding any. Entries
// without a category go to fallback.
func (s *Service) Import(ctx context.Context, path, fallback string) (int, error) {
	qs, err := quiz.LoadQuestions(path)
	if err != nil {
		return 0, err
	}
	fallback = strings.TrimSpace(fallback)
	for i := range qs {
		qs[i] = tidy(qs[i])
		if strings.TrimSpace(qs[i].Category) == "" {
			if fallback == "" {
				return 0, fmt.Errorf("entry %d: %w", i+1, ErrEmptyCategory)
			}
			qs[i].Category = fallback
		}
		if err := qs[i].Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	for i, q := range qs {
		if _, err := s.store.AddQuestion(ctx, strings.TrimSpace(q.Category), q); err != nil {
			return i, err
		}
	}
	return len(qs), nil
}

// tidy trims the free-text fields the way the authoring forms do.
func tidy(q quiz.Question) quiz.Question {
	q = q.Clone()
	q.Text = strings.TrimSpace(q.Text)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	for i := range q.CorrectAnswers {
		q.CorrectAnswers[i] = strings.TrimSpace(q.CorrectAnswers[i])
	}
	q.Feedback = strings.TrimSpace(q.Feedback)
	return q
}

// Package store keeps categories and questions in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizdesk/quiz"

	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "quiz_database.db"

type Store struct {
	db *sql.DB
}

var _ quiz.QuestionSource = (*Store)(nil)

// Open opens (creating if needed) the database file at path. Call
// Initialize before using the store.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer, one connection; keeps PRAGMA state and transactions simple
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddCategory returns false when the name is already taken.
func (s *Store) AddCategory(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("add category %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) CategoryID(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup category %q: %w", name, err)
	}
	return id, true, nil
}

// EnsureCategory returns the id of name, creating the category if needed.
func (s *Store) EnsureCategory(ctx context.Context, name string) (int64, error) {
	if _, err := s.AddCategory(ctx, name); err != nil {
		return 0, err
	}
	id, ok, err := s.CategoryID(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("category %q missing after insert", name)
	}
	return id, nil
}

// InsertQuestion stores q under categoryID as given; it does not validate.
func (s *Store) InsertQuestion(ctx context.Context, categoryID int64, q quiz.Question) (int64, error) {
	answers, err := EncodeAnswers(q.CorrectAnswers)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (category_id, question_text, option_a, option_b, option_c, option_d,
			correct_answers, is_multiple_choice, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		categoryID, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		answers, q.MultipleChoice, q.Feedback)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return res.LastInsertId()
}

// AddQuestion files q under category, creating the category when it is new.
func (s *Store) AddQuestion(ctx context.Context, category string, q quiz.Question) (int64, error) {
	categoryID, err := s.EnsureCategory(ctx, category)
	if err != nil {
		return 0, err
	}
	return s.InsertQuestion(ctx, categoryID, q)
}

const selectQuestions = `
	SELECT q.id, q.category_id, c.name, q.question_text,
		q.option_a, q.option_b, q.option_c, q.option_d,
		q.correct_answers, q.is_multiple_choice, q.feedback
	FROM questions q JOIN categories c ON q.category_id = c.id`

// QuestionsByCategory returns an empty slice for an unknown category.
func (s *Store) QuestionsByCategory(ctx context.Context, category string) ([]quiz.Question, error) {
	return s.queryQuestions(ctx, selectQuestions+` WHERE c.name = ? ORDER BY q.id`, category)
}

func (s *Store) AllQuestions(ctx context.Context) ([]quiz.Question, error) {
	return s.queryQuestions(ctx, selectQuestions+` ORDER BY q.id`)
}

func (s *Store) Question(ctx context.Context, id int64) (quiz.Question, bool, error) {
	qs, err := s.queryQuestions(ctx, selectQuestions+` WHERE q.id = ?`, id)
	if err != nil || len(qs) == 0 {
		return quiz.Question{}, false, err
	}
	return qs[0], true, nil
}

// UpdateQuestion replaces everything but the category. Unknown ids are
// ignored.
func (s *Store) UpdateQuestion(ctx context.Context, id int64, q quiz.Question) error {
	answers, err := EncodeAnswers(q.CorrectAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE questions
		SET question_text = ?, option_a = ?, option_b = ?, option_c = ?, option_d = ?,
			correct_answers = ?, is_multiple_choice = ?, feedback = ?
		WHERE id = ?`,
		q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		answers, q.MultipleChoice, q.Feedback, id)
	if err != nil {
		return fmt.Errorf("update question %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	return nil
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	qs := []quiz.Question{}
	for rows.Next() {
		var (
			q        quiz.Question
			answers  sql.NullString
			feedback sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Category, &q.Text,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&answers, &q.MultipleChoice, &feedback); err != nil {
			return nil, err
		}
		if q.CorrectAnswers, err = DecodeAnswers(answers); err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		q.Feedback = feedback.String
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

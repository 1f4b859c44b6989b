package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Schema versions, kept in PRAGMA user_version.
const (
	versionEmpty        = 0
	versionSingleAnswer = 1
	versionMultiAnswer  = 2

	CurrentVersion = versionMultiAnswer
)

var ErrSchemaTooNew = errors.New("database schema is newer than this build")

const categoriesTable = `CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
)`

const questionsColumns = `(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	option_a TEXT NOT NULL,
	option_b TEXT NOT NULL,
	option_c TEXT NOT NULL,
	option_d TEXT NOT NULL,
	correct_answers TEXT NOT NULL,
	is_multiple_choice BOOLEAN NOT NULL DEFAULT 0,
	feedback TEXT,
	FOREIGN KEY (category_id) REFERENCES categories (id)
)`

type migration struct {
	from, to int
	name     string
	apply    func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{from: versionEmpty, to: versionMultiAnswer, name: "create tables", apply: createTables},
	{from: versionSingleAnswer, to: versionMultiAnswer, name: "multi-answer questions", apply: migrateMultiAnswer},
}

// columnPatch adds a current-schema column that an older build may not have
// created. Only additive changes belong here.
type columnPatch struct {
	column string
	ddl    string
}

var columnPatches = []columnPatch{
	{"correct_answers", `ALTER TABLE questions ADD COLUMN correct_answers TEXT NOT NULL DEFAULT '[]'`},
	{"is_multiple_choice", `ALTER TABLE questions ADD COLUMN is_multiple_choice BOOLEAN NOT NULL DEFAULT 0`},
	{"feedback", `ALTER TABLE questions ADD COLUMN feedback TEXT`},
}

// Initialize brings the database to CurrentVersion. The whole chain runs in
// one transaction together with the version marker, so an interrupted run
// leaves the previous layout and marker in place and the next start retries.
func (s *Store) Initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	stored, err := userVersion(ctx, tx)
	if err != nil {
		return err
	}
	if stored > CurrentVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, stored, CurrentVersion)
	}
	version := stored
	if version == versionEmpty {
		if version, err = detectVersion(ctx, tx); err != nil {
			return err
		}
	}

	for version < CurrentVersion {
		m, ok := findMigration(version)
		if !ok {
			return fmt.Errorf("no migration from schema version %d", version)
		}
		if err := m.apply(ctx, tx); err != nil {
			return fmt.Errorf("migrate %d->%d (%s): %w", m.from, m.to, m.name, err)
		}
		log.Printf("quizdesk: schema migrated %d -> %d (%s)", m.from, m.to, m.name)
		version = m.to
	}

	if err := patchColumns(ctx, tx); err != nil {
		return err
	}
	if stored != version {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// SchemaVersion returns the stored version marker.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return userVersion(ctx, s.db)
}

func findMigration(from int) (migration, bool) {
	for _, m := range migrations {
		if m.from == from {
			return m, true
		}
	}
	return migration{}, false
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userVersion(ctx context.Context, q querier) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// detectVersion classifies a database that predates the version marker.
func detectVersion(ctx context.Context, q querier) (int, error) {
	cols, err := tableColumns(ctx, q, "questions")
	if err != nil {
		return 0, err
	}
	switch {
	case len(cols) == 0:
		return versionEmpty, nil
	case cols["correct_answer"] && !cols["correct_answers"]:
		return versionSingleAnswer, nil
	default:
		return versionMultiAnswer, nil
	}
}

func tableColumns(ctx context.Context, q querier, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func createTables(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		categoriesTable,
		"CREATE TABLE IF NOT EXISTS questions " + questionsColumns,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateMultiAnswer rebuilds questions without the legacy correct_answer
// column. SQLite cannot drop it in place.
func migrateMultiAnswer(ctx context.Context, tx *sql.Tx) error {
	cols, err := tableColumns(ctx, tx, "questions")
	if err != nil {
		return err
	}

	answers := "CASE WHEN correct_answer IS NULL THEN '[]' ELSE json_array(correct_answer) END"
	multiple := "0"
	if cols["is_multiple_choice"] {
		multiple = "COALESCE(is_multiple_choice, 0)"
	}
	feedback := "NULL"
	if cols["feedback"] {
		feedback = "feedback"
	}

	stmts := []string{
		categoriesTable,
		"DROP TABLE IF EXISTS questions_v2",
		"CREATE TABLE questions_v2 " + questionsColumns,
		`INSERT INTO questions_v2 (id, category_id, question_text, option_a, option_b, option_c, option_d,
			correct_answers, is_multiple_choice, feedback)
		SELECT id, category_id, question_text, option_a, option_b, option_c, option_d, ` +
			strings.Join([]string{answers, multiple, feedback}, ", ") + ` FROM questions`,
		"DROP TABLE questions",
		"ALTER TABLE questions_v2 RENAME TO questions",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func patchColumns(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, categoriesTable); err != nil {
		return fmt.Errorf("ensure categories: %w", err)
	}
	cols, err := tableColumns(ctx, tx, "questions")
	if err != nil {
		return err
	}
	for _, p := range columnPatches {
		if cols[p.column] {
			continue
		}
		if _, err := tx.ExecContext(ctx, p.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", p.column, err)
		}
		log.Printf("quizdesk: added missing column questions.%s", p.column)
	}
	return nil
}

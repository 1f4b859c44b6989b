package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

const legacySchema = `
CREATE TABLE categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);
CREATE TABLE questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	option_a TEXT NOT NULL,
	option_b TEXT NOT NULL,
	option_c TEXT NOT NULL,
	option_d TEXT NOT NULL,
	correct_answer TEXT NOT NULL,
	FOREIGN KEY (category_id) REFERENCES categories (id)
);
INSERT INTO categories (name) VALUES ('History'), ('Science');
INSERT INTO questions (category_id, question_text, option_a, option_b, option_c, option_d, correct_answer) VALUES
	(1, 'First emperor of Rome?', 'Nero', 'Augustus', 'Caesar', 'Trajan', 'Augustus'),
	(2, 'H2O is?', 'Water', 'Salt', 'Air', 'Gold', 'Water'),
	(2, 'Odd one', '[x]', 'y', 'z', 'w', '[x]');
`

func seedDatabase(t *testing.T, ddl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path
}

func openRaw(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitializeFreshDatabase(t *testing.T) {
	ctx := context.Background()
	s := openRaw(t, filepath.Join(t.TempDir(), "fresh.db"))
	for i := 0; i < 2; i++ {
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("initialize #%d: %v", i, err)
		}
	}
	v, err := s.SchemaVersion(ctx)
	if err != nil || v != CurrentVersion {
		t.Fatalf("version = %d, %v", v, err)
	}
	cols, err := tableColumns(ctx, s.db, "questions")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []string{"correct_answers", "is_multiple_choice", "feedback"} {
		if !cols[c] {
			t.Fatalf("missing column %s", c)
		}
	}
}

func TestMigrateLegacySchema(t *testing.T) {
	ctx := context.Background()
	s := openRaw(t, seedDatabase(t, legacySchema))

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	cols, _ := tableColumns(ctx, s.db, "questions")
	if cols["correct_answer"] {
		t.Fatalf("legacy column survived the migration")
	}

	first, err := s.AllQuestions(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d rows, want 3", len(first))
	}
	want := [][]string{{"Augustus"}, {"Water"}, {"[x]"}}
	for i, q := range first {
		if !reflect.DeepEqual(q.CorrectAnswers, want[i]) {
			t.Fatalf("row %d answers = %v, want %v", i, q.CorrectAnswers, want[i])
		}
		if q.MultipleChoice || q.Feedback != "" {
			t.Fatalf("row %d migrated flags: %+v", i, q)
		}
	}
	if first[0].ID != 1 || first[0].Category != "History" {
		t.Fatalf("ids or categories not preserved: %+v", first[0])
	}

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	second, _ := s.AllQuestions(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second initialize changed rows:\n%+v\n%+v", first, second)
	}
	if v, _ := s.SchemaVersion(ctx); v != CurrentVersion {
		t.Fatalf("version = %d", v)
	}

	// new questions get fresh ids after the rebuild
	id, err := s.AddQuestion(ctx, "History", first[0])
	if err != nil || id != 4 {
		t.Fatalf("add after migration = %d, %v", id, err)
	}
}

func TestInitializeLeavesLegacyColumnOnceNewColumnsExist(t *testing.T) {
	ctx := context.Background()
	ddl := legacySchema + `
ALTER TABLE questions ADD COLUMN correct_answers TEXT;
UPDATE questions SET correct_answers = '["Nero","Augustus"]' WHERE id = 1;
`
	s := openRaw(t, seedDatabase(t, ddl))
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	cols, _ := tableColumns(ctx, s.db, "questions")
	if !cols["correct_answer"] {
		t.Fatalf("legacy column dropped although correct_answers already existed")
	}
	if !cols["is_multiple_choice"] || !cols["feedback"] {
		t.Fatalf("missing columns not added: %v", cols)
	}

	var legacy string
	var answers sql.NullString
	if err := s.db.QueryRowContext(ctx,
		"SELECT correct_answer, correct_answers FROM questions WHERE id = 2").Scan(&legacy, &answers); err != nil {
		t.Fatal(err)
	}
	if legacy != "Water" || answers.Valid {
		t.Fatalf("stored values changed: correct_answer=%q correct_answers=%v", legacy, answers)
	}

	qs, _ := s.AllQuestions(ctx)
	if !reflect.DeepEqual(qs[0].CorrectAnswers, []string{"Nero", "Augustus"}) {
		t.Fatalf("existing correct_answers changed: %v", qs[0].CorrectAnswers)
	}
	if len(qs[1].CorrectAnswers) != 0 {
		t.Fatalf("correct_answers filled from legacy column: %v", qs[1].CorrectAnswers)
	}
	if v, _ := s.SchemaVersion(ctx); v != CurrentVersion {
		t.Fatalf("version marker = %d", v)
	}
}

func TestInitializeAddsMissingFeedbackColumn(t *testing.T) {
	ctx := context.Background()
	ddl := `
CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE NOT NULL);
CREATE TABLE questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	option_a TEXT NOT NULL, option_b TEXT NOT NULL, option_c TEXT NOT NULL, option_d TEXT NOT NULL,
	correct_answers TEXT NOT NULL,
	is_multiple_choice BOOLEAN NOT NULL DEFAULT 0
);
INSERT INTO categories (name) VALUES ('Math');
INSERT INTO questions (category_id, question_text, option_a, option_b, option_c, option_d, correct_answers, is_multiple_choice)
VALUES (1, 'Primes?', '2', '4', '5', '6', '["2","5"]', 1);
`
	s := openRaw(t, seedDatabase(t, ddl))
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	cols, _ := tableColumns(ctx, s.db, "questions")
	if !cols["feedback"] {
		t.Fatalf("feedback column not added")
	}
	qs, _ := s.AllQuestions(ctx)
	if len(qs) != 1 || !qs[0].MultipleChoice || len(qs[0].CorrectAnswers) != 2 {
		t.Fatalf("existing data damaged: %+v", qs)
	}
	if v, _ := s.SchemaVersion(ctx); v != CurrentVersion {
		t.Fatalf("version marker not written: %d", v)
	}
}

func TestInitializeCurrentSchemaIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if _, err := s.AddQuestion(ctx, "Astronomy", sampleQuestion()); err != nil {
		t.Fatal(err)
	}
	before, _ := s.AllQuestions(ctx)
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	after, _ := s.AllQuestions(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rows changed")
	}
}

func TestMarkerWinsOverLegacyColumn(t *testing.T) {
	ctx := context.Background()
	// a current-version marker must stop the rebuild even if a column named
	// correct_answer shows up later
	ddl := `
CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE NOT NULL);
CREATE TABLE questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	option_a TEXT NOT NULL, option_b TEXT NOT NULL, option_c TEXT NOT NULL, option_d TEXT NOT NULL,
	correct_answers TEXT NOT NULL,
	is_multiple_choice BOOLEAN NOT NULL DEFAULT 0,
	feedback TEXT,
	correct_answer TEXT
);
PRAGMA user_version = 2;
`
	s := openRaw(t, seedDatabase(t, ddl))
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	cols, _ := tableColumns(ctx, s.db, "questions")
	if !cols["correct_answer"] {
		t.Fatalf("migration ran despite current marker")
	}
}

func TestInitializeRejectsNewerSchema(t *testing.T) {
	s := openRaw(t, seedDatabase(t, `PRAGMA user_version = 9;`))
	if err := s.Initialize(context.Background()); !errors.Is(err, ErrSchemaTooNew) {
		t.Fatalf("err = %v, want ErrSchemaTooNew", err)
	}
}

package quiz

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubSource map[string][]Question

func (s stubSource) QuestionsByCategory(_ context.Context, category string) ([]Question, error) {
	return s[category], nil
}

type failingSource struct{}

func (failingSource) QuestionsByCategory(context.Context, string) ([]Question, error) {
	return nil, errors.New("disk on fire")
}

func single(text, answer string) Question {
	return Question{
		Text:           text,
		Options:        [4]string{"A", "B", "C", "D"},
		CorrectAnswers: []string{answer},
	}
}

func TestStartUnknownOrEmptyCategory(t *testing.T) {
	e := NewEngine(stubSource{"Empty": nil})
	for _, name := range []string{"Nonexistent", "Empty"} {
		if _, err := e.Start(context.Background(), name); !errors.Is(err, ErrNoQuestions) {
			t.Fatalf("Start(%q) err = %v, want ErrNoQuestions", name, err)
		}
	}
}

func TestStartPropagatesSourceError(t *testing.T) {
	e := NewEngine(failingSource{})
	_, err := e.Start(context.Background(), "History")
	if err == nil || errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestStartShufflesAcrossSessions(t *testing.T) {
	var qs []Question
	for _, text := range []string{"q1", "q2", "q3", "q4", "q5"} {
		qs = append(qs, single(text, "A"))
	}
	e := NewEngine(stubSource{"History": qs}, WithRand(rand.New(rand.NewSource(42))))

	orders := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		s, err := e.Start(context.Background(), "History")
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		var texts []string
		for _, q := range s.Questions() {
			texts = append(texts, q.Text)
		}
		if len(texts) != 5 {
			t.Fatalf("session has %d questions, want 5", len(texts))
		}
		orders[strings.Join(texts, ",")] = struct{}{}
	}
	if len(orders) < 2 {
		t.Fatalf("expected more than one ordering, got %d", len(orders))
	}
}

func TestStartDoesNotMutateSource(t *testing.T) {
	qs := []Question{single("q1", "A"), single("q2", "B"), single("q3", "C")}
	e := NewEngine(stubSource{"History": qs}, WithRand(rand.New(rand.NewSource(7))))
	for i := 0; i < 20; i++ {
		if _, err := e.Start(context.Background(), "History"); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	if qs[0].Text != "q1" || qs[1].Text != "q2" || qs[2].Text != "q3" {
		t.Fatalf("source slice was reordered: %v %v %v", qs[0].Text, qs[1].Text, qs[2].Text)
	}
}

func TestSubmitRejectsEmptySelection(t *testing.T) {
	s := NewSession("History", []Question{single("q1", "A")})
	for _, sel := range [][]string{nil, {}, {"", "  "}} {
		next, _, err := s.Submit(sel)
		if !errors.Is(err, ErrSelectionRequired) {
			t.Fatalf("Submit(%q) err = %v, want ErrSelectionRequired", sel, err)
		}
		if next.Position() != 0 || next.Score() != 0 {
			t.Fatalf("empty submission changed the session")
		}
	}
}

func TestSubmitSingleChoiceRejectsSeveralSelections(t *testing.T) {
	s := NewSession("History", []Question{single("q1", "A")})
	if _, _, err := s.Submit([]string{"A", "B"}); !errors.Is(err, ErrSingleSelection) {
		t.Fatalf("err = %v, want ErrSingleSelection", err)
	}
	// duplicates collapse to one selection
	if _, out, err := s.Submit([]string{"A", "A"}); err != nil || !out.Correct {
		t.Fatalf("duplicate single selection: out=%+v err=%v", out, err)
	}
}

func TestSubmitAdvancesAndScores(t *testing.T) {
	mc := Question{
		Text:           "primes",
		Options:        [4]string{"2", "4", "5", "9"},
		CorrectAnswers: []string{"2", "5"},
		MultipleChoice: true,
		Feedback:       "4 and 9 are squares",
	}
	s := NewSession("Math", []Question{single("q1", "B"), mc, single("q3", "C")})

	s1, out, err := s.Submit([]string{"B"})
	if err != nil || !out.Correct {
		t.Fatalf("first answer: out=%+v err=%v", out, err)
	}
	s2, out, err := s1.Submit([]string{"2"})
	if err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if out.Correct {
		t.Fatalf("subset should not be correct")
	}
	if out.Feedback != "4 and 9 are squares" || len(out.CorrectAnswers) != 2 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if s2.Finished() {
		t.Fatalf("session finished early")
	}
	s3, _, err := s2.Submit([]string{"C"})
	if err != nil {
		t.Fatalf("third answer: %v", err)
	}
	if !s3.Finished() {
		t.Fatalf("expected finished session")
	}
	if _, ok := s3.Current(); ok {
		t.Fatalf("finished session should have no current question")
	}
	if _, _, err := s3.Submit([]string{"A"}); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("submit after finish err = %v", err)
	}

	res := s3.Result()
	if res.Score != 2 || res.Total != 3 {
		t.Fatalf("result = %+v, want 2/3", res)
	}
	if math.Abs(res.Percentage-66.7) > 0.05 {
		t.Fatalf("percentage = %f, want ~66.7", res.Percentage)
	}
	if got := res.String(); got != "2/3 (66.7%)" {
		t.Fatalf("String() = %q", got)
	}

	// earlier states are untouched
	if s.Position() != 0 || s.Score() != 0 || len(s.Answers()) != 0 {
		t.Fatalf("initial session mutated: pos=%d score=%d", s.Position(), s.Score())
	}
	if s1.Score() != 1 || len(s1.Answers()) != 1 {
		t.Fatalf("intermediate session mutated: score=%d answers=%d", s1.Score(), len(s1.Answers()))
	}
	answers := s3.Answers()
	if len(answers) != 3 || !answers[0].Correct || answers[1].Correct || !answers[2].Correct {
		t.Fatalf("unexpected answers: %+v", answers)
	}
}

func TestSubmitBranchesDoNotShareHistory(t *testing.T) {
	s := NewSession("History", []Question{single("q1", "A"), single("q2", "A")})
	s1, _, _ := s.Submit([]string{"A"})
	left, _, _ := s1.Submit([]string{"A"})
	right, _, _ := s1.Submit([]string{"B"})
	if !left.Answers()[1].Correct || right.Answers()[1].Correct {
		t.Fatalf("branches share answer history")
	}
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	s := NewSession("History", []Question{single("q1", "A")})
	q, ok := s.Current()
	if !ok {
		t.Fatalf("expected current question")
	}
	q.CorrectAnswers[0] = "D"
	q2, _ := s.Current()
	if q2.CorrectAnswers[0] != "A" {
		t.Fatalf("Current leaked internal state")
	}
}

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	body := `[{"category":"Geo","question":"Capital of France?","options":["Paris","Rome","Oslo","Bern"],"answers":["Paris"],"feedback":"It is Paris."}]`
	if err := os.WriteFile(good, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	qs, err := LoadQuestions(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 1 || qs[0].Options[3] != "Bern" || qs[0].Category != "Geo" {
		t.Fatalf("unexpected questions: %+v", qs)
	}
	if err := qs[0].Validate(); err != nil {
		t.Fatalf("loaded question invalid: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"question":"x","options":["a","b"],"answers":["a"]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadQuestions(bad); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("err = %v, want ErrInvalidQuestion", err)
	}
}

func TestNewResult(t *testing.T) {
	if got := NewResult(0, 0); got.Percentage != 0 || got.String() != "0/0 (0.0%)" {
		t.Fatalf("empty result = %+v", got)
	}
	if got := NewResult(1, 4); got.Percentage != 25 {
		t.Fatalf("1/4 = %+v", got)
	}
}

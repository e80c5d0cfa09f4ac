package questionnaire

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hackmate/hackathon-console/internal/model"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func textQ(id string, order int, required bool) model.Question {
	return model.Question{ID: id, Key: id, Label: id, Order: order, Required: required, Kind: model.QuestionKindShortText}
}

func sliderQ(id string, min, max float64) model.Question {
	return model.Question{
		ID: id, Key: id, Kind: model.QuestionKindSlider, Required: true,
		Min: floatPtr(min), Max: floatPtr(max), Step: floatPtr(1),
	}
}

func multiQ(id string, order int, cap *int) model.Question {
	return model.Question{
		ID: id, Key: id, Order: order, Kind: model.QuestionKindMultiChoice, MaxSelections: cap,
		Options: []model.Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}},
	}
}

func mustNew(t *testing.T, qs []model.Question, opts ...Option) *Engine {
	t.Helper()
	e, err := New(qs, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func noSubmit(t *testing.T) SubmitFunc {
	return func(context.Context, []model.SubmissionRow) error {
		t.Fatal("submit function must not be called")
		return nil
	}
}

func TestNewSortsStablyByOrder(t *testing.T) {
	qs := []model.Question{
		textQ("c", 2, false),
		textQ("a", 1, false),
		textQ("d", 2, false),
		textQ("b", 1, false),
		textQ("z", 0, false),
	}
	e := mustNew(t, qs)

	var got []string
	for _, q := range e.Questions() {
		got = append(got, q.ID)
	}
	want := "z,a,b,c,d"
	if strings.Join(got, ",") != want {
		t.Fatalf("order = %v, want %s", got, want)
	}
}

func TestNewRejectsUnknownKindAndDuplicates(t *testing.T) {
	_, err := New([]model.Question{{ID: "x", Kind: "rating"}})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}

	_, err = New([]model.Question{textQ("x", 0, false), textQ("x", 1, false)})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}

func TestSliderSeedsMidpointAndCountsAsAnswered(t *testing.T) {
	e := mustNew(t, []model.Question{sliderQ("s", 1, 5)})

	a, _ := e.Answer("s")
	if a.Number == nil || *a.Number != 3 {
		t.Fatalf("seed = %v, want 3", a.Number)
	}
	if !e.IsAnswered("s") {
		t.Fatal("seeded slider should be answered")
	}
	if !e.CanSubmit() {
		t.Fatal("single answered slider should be submittable")
	}
}

func TestSliderMidpointRoundsHalfUp(t *testing.T) {
	e := mustNew(t, []model.Question{sliderQ("s", 1, 4), sliderQ("n", -3, 0)})

	if a, _ := e.Answer("s"); *a.Number != 3 {
		t.Fatalf("1..4 seed = %v, want 3", *a.Number)
	}
	if a, _ := e.Answer("n"); *a.Number != -1 {
		t.Fatalf("-3..0 seed = %v, want -1", *a.Number)
	}
}

func TestAnsweredPredicatePerKind(t *testing.T) {
	matrix := model.Question{
		ID: "m", Kind: model.QuestionKindMatrix,
		Rows: []model.MatrixRow{{Key: "r1"}, {Key: "r2"}},
	}
	single := model.Question{
		ID: "one", Kind: model.QuestionKindSingleChoice,
		Options: []model.Option{{ID: "x"}},
	}
	tests := []struct {
		name   string
		q      model.Question
		answer model.Answer
		want   bool
	}{
		{"slider at min", sliderQ("q", 0, 10), model.NumberAnswer(0), true},
		{"slider without value", sliderQ("q", 0, 10), model.Answer{}, false},
		{"multi empty", multiQ("q", 0, nil), model.ChoicesAnswer(), false},
		{"multi one", multiQ("q", 0, nil), model.ChoicesAnswer("a"), true},
		{"text whitespace", textQ("q", 0, true), model.TextAnswer("   "), false},
		{"text value", textQ("q", 0, true), model.TextAnswer(" hi "), true},
		{"number zero", model.Question{ID: "q", Kind: model.QuestionKindNumber}, model.TextAnswer("0"), true},
		{"single empty", single, model.TextAnswer(""), false},
		{"single chosen", single, model.TextAnswer("x"), true},
		{"matrix partial", matrix, model.Answer{Matrix: map[string]float64{"r1": 1}}, false},
		{"matrix full", matrix, model.Answer{Matrix: map[string]float64{"r1": 1, "r2": 0}}, true},
		{"boolean false", model.Question{ID: "q", Kind: model.QuestionKindBoolean}, model.BoolAnswer(false), true},
		{"boolean unset", model.Question{ID: "q", Kind: model.QuestionKindBoolean}, model.Answer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustNew(t, []model.Question{tt.q})
			if err := e.SetAnswer(tt.q.ID, tt.answer); err != nil {
				t.Fatalf("SetAnswer: %v", err)
			}
			if got := e.IsAnswered(tt.q.ID); got != tt.want {
				t.Fatalf("IsAnswered = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNavigationClamps(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, false), textQ("b", 1, false)})

	e.Prev()
	if e.Index() != 0 {
		t.Fatalf("Prev at start: index = %d", e.Index())
	}
	e.Next()
	e.Next()
	if e.Index() != 1 || !e.IsLast() {
		t.Fatalf("Next past end: index = %d", e.Index())
	}
	e.GoTo(-5)
	if e.Index() != 0 {
		t.Fatalf("GoTo(-5): index = %d", e.Index())
	}
}

func TestReplaceClampsIndexAndKeepsAnswers(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, false), textQ("b", 1, false), textQ("c", 2, false)})
	_ = e.SetAnswer("a", model.TextAnswer("kept"))
	e.GoTo(2)

	if err := e.Replace([]model.Question{textQ("a", 0, false)}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if e.Index() != 0 {
		t.Fatalf("index = %d, want 0", e.Index())
	}
	if a, _ := e.Answer("a"); a.Text != "kept" {
		t.Fatalf("answer = %q, want kept", a.Text)
	}
}

func TestValidateShortCircuitsOnRequired(t *testing.T) {
	q := textQ("t", 0, true)
	q.MaxLength = intPtr(3)
	e := mustNew(t, []model.Question{q})
	_ = e.SetAnswer("t", model.TextAnswer("     "))

	errs := e.Validate()
	if len(errs) != 1 || errs[0].Kind != ErrorRequired {
		t.Fatalf("errs = %+v, want single required error", errs)
	}
}

func TestValidateNumberInput(t *testing.T) {
	q := model.Question{ID: "n", Kind: model.QuestionKindNumber, Min: floatPtr(1), Max: floatPtr(10)}
	tests := []struct {
		value string
		want  ErrorKind
	}{
		{"", ""},
		{"abc", ErrorNumeric},
		{"Inf", ErrorNumeric},
		{"0", ErrorBelowMin},
		{"11", ErrorAboveMax},
		{"10", ""},
		{" 5 ", ""},
	}
	for _, tt := range tests {
		e := mustNew(t, []model.Question{q})
		_ = e.SetAnswer("n", model.TextAnswer(tt.value))
		errs := e.Validate()
		var got ErrorKind
		if len(errs) > 0 {
			got = errs[0].Kind
		}
		if got != tt.want {
			t.Errorf("value %q: kind = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestLengthErrorBlocksSubmitAndJumps(t *testing.T) {
	long := textQ("bio", 0, true)
	long.MaxLength = intPtr(10)
	e := mustNew(t, []model.Question{long, textQ("last", 1, false)})
	_ = e.SetAnswer("bio", model.TextAnswer("01234567890"))
	e.Next()

	err := e.Submit(context.Background(), noSubmit(t))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Errors) != 1 || ve.Errors[0].Kind != ErrorTooLong {
		t.Fatalf("errors = %+v", ve.Errors)
	}
	if e.Index() != 0 {
		t.Fatalf("index = %d, want jump to 0", e.Index())
	}
	if v := e.View(); v.Question.Error == nil || v.Question.Error.Kind != ErrorTooLong {
		t.Fatalf("view error = %+v", v.Question.Error)
	}
}

func TestLengthCountsCharactersNotBytes(t *testing.T) {
	q := textQ("t", 0, false)
	q.MaxLength = intPtr(3)
	e := mustNew(t, []model.Question{q})
	_ = e.SetAnswer("t", model.TextAnswer("äöü"))
	if errs := e.Validate(); len(errs) != 0 {
		t.Fatalf("errs = %+v, want none", errs)
	}
}

func TestSelectionCap(t *testing.T) {
	e := mustNew(t, []model.Question{multiQ("m", 0, intPtr(2))})

	for _, id := range []string{"a", "b"} {
		if err := e.ToggleOption("m", id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}
	if err := e.ToggleOption("m", "c"); !errors.Is(err, ErrSelectionCap) {
		t.Fatalf("third toggle err = %v, want ErrSelectionCap", err)
	}

	v := e.View()
	for _, o := range v.Question.Options {
		if o.ID == "c" && !o.Disabled {
			t.Fatal("option c should be disabled once the cap is reached")
		}
		if o.Selected && o.Disabled {
			t.Fatalf("selected option %s must stay enabled", o.ID)
		}
	}

	// Forced past the cap through direct state injection.
	_ = e.SetAnswer("m", model.ChoicesAnswer("a", "b", "c"))
	err := e.Submit(context.Background(), noSubmit(t))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Errors[0].Kind != ErrorTooManyChoices {
		t.Fatalf("err = %v, want too_many_choices", err)
	}
}

func TestToggleDeselects(t *testing.T) {
	e := mustNew(t, []model.Question{multiQ("m", 0, intPtr(1))})
	_ = e.ToggleOption("m", "a")
	if err := e.ToggleOption("m", "a"); err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if e.IsAnswered("m") {
		t.Fatal("multi choice should be empty after deselect")
	}
}

func TestSubmitGuard(t *testing.T) {
	qs := []model.Question{textQ("a", 0, true), textQ("b", 1, false)}

	t.Run("not on last question", func(t *testing.T) {
		e := mustNew(t, qs)
		_ = e.SetAnswer("a", model.TextAnswer("x"))
		if err := e.Submit(context.Background(), noSubmit(t)); !errors.Is(err, ErrNotReady) {
			t.Fatalf("err = %v, want ErrNotReady", err)
		}
	})

	t.Run("required unanswered", func(t *testing.T) {
		e := mustNew(t, qs)
		e.GoTo(1)
		if err := e.Submit(context.Background(), noSubmit(t)); !errors.Is(err, ErrNotReady) {
			t.Fatalf("err = %v, want ErrNotReady", err)
		}
		if e.Index() != 1 {
			t.Fatalf("guard must not move the cursor, index = %d", e.Index())
		}
	})

	t.Run("reentrant call while submitting", func(t *testing.T) {
		e := mustNew(t, qs)
		_ = e.SetAnswer("a", model.TextAnswer("x"))
		e.GoTo(1)

		calls := 0
		var inner error
		err := e.Submit(context.Background(), func(ctx context.Context, _ []model.SubmissionRow) error {
			calls++
			inner = e.Submit(ctx, noSubmit(t))
			return nil
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if !errors.Is(inner, ErrSubmitInProgress) {
			t.Fatalf("inner err = %v, want ErrSubmitInProgress", inner)
		}
		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
	})

	t.Run("after success", func(t *testing.T) {
		e := mustNew(t, qs)
		_ = e.SetAnswer("a", model.TextAnswer("x"))
		e.GoTo(1)
		if err := e.Submit(context.Background(), func(context.Context, []model.SubmissionRow) error { return nil }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if err := e.Submit(context.Background(), noSubmit(t)); !errors.Is(err, ErrAlreadySubmitted) {
			t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
		}
		if e.View().CanSubmit {
			t.Fatal("view offers submit after success")
		}
	})
}

func TestSubmitSuccessBannerExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	e := mustNew(t, []model.Question{textQ("a", 0, true)}, WithClock(clock), WithSuccessTTL(3*time.Second))
	_ = e.SetAnswer("a", model.TextAnswer("hello"))

	var got []model.SubmissionRow
	err := e.Submit(context.Background(), func(_ context.Context, rows []model.SubmissionRow) error {
		if e.Status() != StatusSubmitting {
			t.Errorf("status during submit = %s", e.Status())
		}
		got = rows
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(got) != 1 || got[0].Text == nil || *got[0].Text != "hello" {
		t.Fatalf("rows = %+v", got)
	}
	if e.Status() != StatusSuccess || e.Message() != MessageSubmitSuccess {
		t.Fatalf("status = %s, message = %q", e.Status(), e.Message())
	}

	now = now.Add(3 * time.Second)
	if msg := e.Message(); msg != "" {
		t.Fatalf("message after TTL = %q, want empty", msg)
	}
}

func TestSubmitFailureKeepsStateForRetry(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, true), textQ("b", 1, true)})
	_ = e.SetAnswer("a", model.TextAnswer("one"))
	_ = e.SetAnswer("b", model.TextAnswer("two"))
	e.GoTo(1)

	err := e.Submit(context.Background(), func(context.Context, []model.SubmissionRow) error {
		return errors.New("backend unavailable")
	})
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	if e.Status() != StatusError || e.Message() != MessageSubmitError {
		t.Fatalf("status = %s, message = %q", e.Status(), e.Message())
	}
	if e.Index() != 1 {
		t.Fatalf("index = %d, want 1", e.Index())
	}
	if a, _ := e.Answer("a"); a.Text != "one" {
		t.Fatalf("answer a = %q", a.Text)
	}

	calls := 0
	if err := e.Submit(context.Background(), func(context.Context, []model.SubmissionRow) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 1 || e.Status() != StatusSuccess {
		t.Fatalf("calls = %d, status = %s", calls, e.Status())
	}
}

func TestErrorBannerClearsOnNextChange(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, false)})
	_ = e.Submit(context.Background(), func(context.Context, []model.SubmissionRow) error {
		return errors.New("boom")
	})
	if e.Message() != MessageSubmitError {
		t.Fatalf("message = %q", e.Message())
	}
	_ = e.SetAnswer("a", model.TextAnswer("edit"))
	if e.Status() != StatusIdle || e.Message() != "" {
		t.Fatalf("status = %s, message = %q", e.Status(), e.Message())
	}
}

func TestErrorBannerSurvivesClampedNavigation(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, false), textQ("b", 1, false)})
	e.GoTo(1)
	_ = e.Submit(context.Background(), func(context.Context, []model.SubmissionRow) error {
		return errors.New("boom")
	})

	e.Next()
	e.GoTo(5)
	if e.Status() != StatusError || e.Message() != MessageSubmitError {
		t.Fatalf("banner cleared without moving: status = %s, message = %q", e.Status(), e.Message())
	}

	e.Prev()
	if e.Index() != 0 || e.Status() != StatusIdle || e.Message() != "" {
		t.Fatalf("index = %d, status = %s, message = %q", e.Index(), e.Status(), e.Message())
	}
}

func TestInterrupt(t *testing.T) {
	e := mustNew(t, []model.Question{textQ("a", 0, false)})
	e.status = StatusSubmitting
	e.Interrupt()
	if e.Status() != StatusError {
		t.Fatalf("status = %s, want error", e.Status())
	}
}

func TestProgress(t *testing.T) {
	e := mustNew(t, []model.Question{
		textQ("a", 0, true),
		textQ("b", 1, true),
		multiQ("c", 2, nil),
	})
	_ = e.SetAnswer("a", model.TextAnswer("x"))

	p := e.Progress()
	want := Progress{Answered: 1, Total: 3, Required: 2, RequiredAnswered: 1, Percent: 33}
	if p != want {
		t.Fatalf("progress = %+v, want %+v", p, want)
	}

	_ = e.ToggleOption("c", "a")
	if p := e.Progress(); p.Percent != 67 {
		t.Fatalf("percent = %d, want 67", p.Percent)
	}
}

func TestRowsRoundTripAnsweredStatus(t *testing.T) {
	qs := []model.Question{
		textQ("text", 0, false),
		{ID: "long", Kind: model.QuestionKindLongText, Order: 1},
		{ID: "num", Kind: model.QuestionKindNumber, Order: 2},
		sliderQ("slider", 0, 4),
		{ID: "single", Kind: model.QuestionKindSingleChoice, Order: 4, Options: []model.Option{{ID: "o1"}}},
		multiQ("multi", 5, nil),
		{ID: "matrix", Kind: model.QuestionKindMatrix, Order: 6, Rows: []model.MatrixRow{{Key: "r"}}},
		{ID: "bool", Kind: model.QuestionKindBoolean, Order: 7},
	}
	answers := map[string]model.Answer{
		"text":   model.TextAnswer("hi"),
		"long":   model.TextAnswer("a longer story"),
		"num":    model.TextAnswer("42.5"),
		"slider": model.NumberAnswer(0),
		"single": model.TextAnswer("o1"),
		"multi":  model.ChoicesAnswer("b"),
		"matrix": {Matrix: map[string]float64{"r": 3}},
		"bool":   model.BoolAnswer(false),
	}

	for _, filled := range []bool{true, false} {
		e := mustNew(t, qs)
		if filled {
			for id, a := range answers {
				if err := e.SetAnswer(id, a); err != nil {
					t.Fatalf("SetAnswer %s: %v", id, err)
				}
			}
		}
		rows := e.BuildRows()
		if len(rows) != len(qs) {
			t.Fatalf("rows = %d, want %d", len(rows), len(qs))
		}
		for i, row := range rows {
			q := e.Questions()[i]
			if row.QuestionID != q.ID || row.Kind != q.Kind || row.Key != q.Key {
				t.Fatalf("row %d identity = %+v", i, row)
			}
			if got, want := AnsweredFromRow(q, row), e.IsAnswered(q.ID); got != want {
				t.Errorf("filled=%v %s: answered from row = %v, from engine = %v", filled, q.ID, got, want)
			}
		}
	}
}

func TestRandomizedOptionsAreStablePerSeed(t *testing.T) {
	q := multiQ("m", 0, nil)
	q.Randomize = true
	q.Options = append(q.Options, model.Option{ID: "d"}, model.Option{ID: "e"}, model.Option{ID: "f"})

	order := func(e *Engine) string {
		var ids []string
		for _, o := range e.View().Question.Options {
			ids = append(ids, o.ID)
		}
		return strings.Join(ids, "")
	}

	a := mustNew(t, []model.Question{q}, WithSeed(7))
	b := mustNew(t, []model.Question{q}, WithSeed(7))
	if order(a) != order(b) {
		t.Fatalf("same seed produced %s and %s", order(a), order(b))
	}
	if len(order(a)) != 6 {
		t.Fatalf("shuffle lost options: %s", order(a))
	}
}

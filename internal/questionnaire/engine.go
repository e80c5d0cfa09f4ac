// Package questionnaire drives a paginated, one-question-at-a-time
// registration questionnaire: it seeds and tracks answers, validates them on
// final submission, and hands a normalized row set to an injected submit
// function.
package questionnaire

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/model"
)

// Status is the submission state of a questionnaire session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// User-facing submission banners.
const (
	MessageSubmitSuccess = "Thank you! Your answers have been submitted."
	MessageSubmitError   = "We could not submit your answers. Please try again."
)

// DefaultSuccessTTL is how long the success banner stays visible.
const DefaultSuccessTTL = 5 * time.Second

// SubmitFunc persists the normalized submission rows. It is called at most
// once per successful Submit.
type SubmitFunc func(ctx context.Context, rows []model.SubmissionRow) error

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for banner expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSuccessTTL overrides how long the success banner stays visible.
func WithSuccessTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.successTTL = ttl }
}

// WithSeed fixes the seed used to shuffle randomized option lists.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is the answer state of one participant's questionnaire session.
// It is not safe for concurrent use; callers serialize access per session.
type Engine struct {
	questions []model.Question
	answers   map[string]model.Answer
	errors    map[string]FieldError
	index     int

	status    Status
	message   string
	successAt time.Time

	seed       uint64
	now        func() time.Time
	successTTL time.Duration
	log        zerolog.Logger
}

// New builds an engine over questions, ordered by their Order field. Questions
// sharing an order keep their input order.
func New(questions []model.Question, opts ...Option) (*Engine, error) {
	e := &Engine{
		answers:    make(map[string]model.Answer),
		errors:     make(map[string]FieldError),
		status:     StatusIdle,
		now:        time.Now,
		successTTL: DefaultSuccessTTL,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seed == 0 {
		id := uuid.New()
		for _, b := range id[:8] {
			e.seed = e.seed<<8 | uint64(b)
		}
	}
	if err := e.Replace(questions); err != nil {
		return nil, err
	}
	return e, nil
}

// Replace swaps in a refreshed question list. Answers of questions that keep
// their id and kind survive; new questions get their default; the current
// index is clamped to the new bounds.
func (e *Engine) Replace(questions []model.Question) error {
	sorted, err := sortQuestions(questions)
	if err != nil {
		return err
	}

	answers := make(map[string]model.Answer, len(sorted))
	errs := make(map[string]FieldError)
	for i := range sorted {
		q := &sorted[i]
		if prev, ok := e.find(q.ID); ok && prev.Kind == q.Kind {
			answers[q.ID] = e.answers[q.ID]
			if fe, ok := e.errors[q.ID]; ok {
				errs[q.ID] = fe
			}
			continue
		}
		answers[q.ID] = kinds[q.Kind].seed(q)
	}

	e.questions = sorted
	e.answers = answers
	e.errors = errs
	e.clampIndex()
	return nil
}

func sortQuestions(questions []model.Question) ([]model.Question, error) {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)

	seen := make(map[string]struct{}, len(sorted))
	for i := range sorted {
		if _, err := specFor(&sorted[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[sorted[i].ID]; dup {
			return nil, fmt.Errorf("%w %q", ErrDuplicateID, sorted[i].ID)
		}
		seen[sorted[i].ID] = struct{}{}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted, nil
}

// ─── Lookup ─────────────────────────────────────────────────────────────

// Questions returns the questions in display order.
func (e *Engine) Questions() []model.Question {
	out := make([]model.Question, len(e.questions))
	copy(out, e.questions)
	return out
}

// Len returns the number of questions.
func (e *Engine) Len() int { return len(e.questions) }

// Index returns the current question index.
func (e *Engine) Index() int { return e.index }

// Current returns the question under the cursor.
func (e *Engine) Current() (model.Question, bool) {
	if len(e.questions) == 0 {
		return model.Question{}, false
	}
	return e.questions[e.index], true
}

// Answer returns a copy of the live answer for a question.
func (e *Engine) Answer(questionID string) (model.Answer, bool) {
	a, ok := e.answers[questionID]
	return a.Clone(), ok
}

// Answers returns a copy of the whole answer map.
func (e *Engine) Answers() map[string]model.Answer {
	out := make(map[string]model.Answer, len(e.answers))
	for id, a := range e.answers {
		out[id] = a.Clone()
	}
	return out
}

// Errors returns the stored validation errors in question order.
func (e *Engine) Errors() []FieldError {
	var out []FieldError
	for _, q := range e.questions {
		if fe, ok := e.errors[q.ID]; ok {
			out = append(out, fe)
		}
	}
	return out
}

func (e *Engine) find(id string) (*model.Question, bool) {
	for i := range e.questions {
		if e.questions[i].ID == id {
			return &e.questions[i], true
		}
	}
	return nil, false
}

func (e *Engine) position(id string) int {
	for i := range e.questions {
		if e.questions[i].ID == id {
			return i
		}
	}
	return -1
}

// ─── Navigation ─────────────────────────────────────────────────────────

// Next moves one question forward. It stops at the last question.
func (e *Engine) Next() { e.GoTo(e.index + 1) }

// Prev moves one question back. It stops at the first question.
func (e *Engine) Prev() { e.GoTo(e.index - 1) }

// GoTo jumps to index i, clamped to the question range. The error banner
// clears only when the cursor actually moves.
func (e *Engine) GoTo(i int) {
	prev := e.index
	e.index = i
	e.clampIndex()
	if e.index != prev {
		e.clearErrorBanner()
	}
}

// IsFirst reports whether the cursor is on the first question.
func (e *Engine) IsFirst() bool { return e.index == 0 }

// IsLast reports whether the cursor is on the last question.
func (e *Engine) IsLast() bool { return len(e.questions) > 0 && e.index == len(e.questions)-1 }

func (e *Engine) clampIndex() {
	if e.index > len(e.questions)-1 {
		e.index = len(e.questions) - 1
	}
	if e.index < 0 {
		e.index = 0
	}
}

// ─── Answers ────────────────────────────────────────────────────────────

// SetAnswer stores a value for a question as is. It does not enforce the
// selection cap; validation reports violations at submit time.
func (e *Engine) SetAnswer(questionID string, a model.Answer) error {
	if _, ok := e.find(questionID); !ok {
		return fmt.Errorf("%w %q", ErrUnknownQuestion, questionID)
	}
	e.store(questionID, a.Clone())
	return nil
}

// SetAnswerJSON decodes a client supplied JSON value according to the
// question kind and stores it.
func (e *Engine) SetAnswerJSON(questionID string, raw []byte) error {
	q, ok := e.find(questionID)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownQuestion, questionID)
	}
	a, err := kinds[q.Kind].decode(q, raw)
	if err != nil {
		return fmt.Errorf("question %q: %w", questionID, err)
	}
	e.store(questionID, a)
	return nil
}

// ToggleOption flips an option of a choice question. On single choice it
// selects the option. On multi choice it refuses to add a selection past the
// cap, which is how the option control behaves when disabled.
func (e *Engine) ToggleOption(questionID, optionID string) error {
	q, ok := e.find(questionID)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownQuestion, questionID)
	}
	if !q.HasOption(optionID) {
		return fmt.Errorf("%w %q", ErrUnknownOption, optionID)
	}

	switch q.Kind {
	case model.QuestionKindSingleChoice:
		e.store(questionID, model.TextAnswer(optionID))
		return nil
	case model.QuestionKindMultiChoice:
		current := e.answers[questionID].Choices
		next := make([]string, 0, len(current)+1)
		removed := false
		for _, id := range current {
			if id == optionID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if !removed {
			if q.MaxSelections != nil && len(current) >= *q.MaxSelections {
				return ErrSelectionCap
			}
			next = append(next, optionID)
		}
		e.store(questionID, model.ChoicesAnswer(next...))
		return nil
	default:
		return fmt.Errorf("question %q: %w", questionID, ErrNotChoice)
	}
}

func (e *Engine) store(questionID string, a model.Answer) {
	e.answers[questionID] = a
	delete(e.errors, questionID)
	e.clearErrorBanner()
}

// IsAnswered applies the kind-specific answered predicate.
func (e *Engine) IsAnswered(questionID string) bool {
	q, ok := e.find(questionID)
	if !ok {
		return false
	}
	return kinds[q.Kind].answered(q, e.answers[questionID])
}

// AllRequiredAnswered reports whether every required question is answered.
func (e *Engine) AllRequiredAnswered() bool {
	for i := range e.questions {
		q := &e.questions[i]
		if q.Required && !kinds[q.Kind].answered(q, e.answers[q.ID]) {
			return false
		}
	}
	return true
}

// CanSubmit is the submission gate: the cursor is on the last question and
// every required question has an answer.
func (e *Engine) CanSubmit() bool {
	return e.IsLast() && e.AllRequiredAnswered()
}

// Progress summarizes answer completion.
type Progress struct {
	Answered         int `json:"answered"`
	Total            int `json:"total"`
	Required         int `json:"required"`
	RequiredAnswered int `json:"required_answered"`
	Percent          int `json:"percent"`
}

// Progress derives completion numbers from the live answers.
func (e *Engine) Progress() Progress {
	p := Progress{Total: len(e.questions)}
	for i := range e.questions {
		q := &e.questions[i]
		answered := kinds[q.Kind].answered(q, e.answers[q.ID])
		if answered {
			p.Answered++
		}
		if q.Required {
			p.Required++
			if answered {
				p.RequiredAnswered++
			}
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Floor(float64(p.Answered)*100/float64(p.Total) + 0.5))
	}
	return p
}

// ─── Validation & submission ────────────────────────────────────────────

// Validate checks every question in display order and returns at most one
// error per question. The required check runs before any kind rule.
func (e *Engine) Validate() []FieldError {
	var errs []FieldError
	for i := range e.questions {
		q := &e.questions[i]
		if fe := validateQuestion(q, e.answers[q.ID]); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

func validateQuestion(q *model.Question, a model.Answer) *FieldError {
	spec := kinds[q.Kind]
	if q.Required && !spec.answered(q, a) {
		return requiredError(q.ID)
	}
	return spec.check(q, a)
}

// BuildRows converts the live answers into one submission row per question,
// in display order.
func (e *Engine) BuildRows() []model.SubmissionRow {
	rows := make([]model.SubmissionRow, 0, len(e.questions))
	for i := range e.questions {
		q := &e.questions[i]
		row := model.SubmissionRow{QuestionID: q.ID, Kind: q.Kind, Key: q.Key}
		kinds[q.Kind].fill(q, e.answers[q.ID], &row)
		rows = append(rows, row)
	}
	return rows
}

// AnsweredFromRow re-derives the answered predicate from a submission row.
func AnsweredFromRow(q model.Question, row model.SubmissionRow) bool {
	spec, ok := kinds[q.Kind]
	if !ok {
		return false
	}
	return spec.answered(&q, spec.fromRow(&q, row))
}

// Submit validates the answers and, if they pass, calls submit exactly once
// with the submission rows.
//
// On validation failure the errors are stored, the cursor jumps to the first
// failing question and a *ValidationError is returned. If submit fails the
// original error is logged, the session moves to StatusError with answers
// and cursor intact, and ErrSubmitFailed is returned. A session submits at
// most once; later calls return ErrAlreadySubmitted.
func (e *Engine) Submit(ctx context.Context, submit SubmitFunc) error {
	switch e.status {
	case StatusSubmitting:
		return ErrSubmitInProgress
	case StatusSuccess:
		return ErrAlreadySubmitted
	}
	if !e.CanSubmit() {
		return ErrNotReady
	}

	errs := e.Validate()
	if len(errs) > 0 {
		e.errors = make(map[string]FieldError, len(errs))
		for _, fe := range errs {
			e.errors[fe.QuestionID] = fe
		}
		e.index = e.position(errs[0].QuestionID)
		return &ValidationError{Errors: errs}
	}

	e.errors = make(map[string]FieldError)
	rows := e.BuildRows()
	e.status = StatusSubmitting
	e.message = ""

	if err := submit(ctx, rows); err != nil {
		e.log.Error().Err(err).Int("rows", len(rows)).Msg("Questionnaire submission failed")
		e.status = StatusError
		e.message = MessageSubmitError
		return ErrSubmitFailed
	}

	e.status = StatusSuccess
	e.message = MessageSubmitSuccess
	e.successAt = e.now()
	return nil
}

// Interrupt moves a session stuck in StatusSubmitting to StatusError so the
// participant can retry. Used when the process handling the submission went
// away before it completed.
func (e *Engine) Interrupt() {
	if e.status != StatusSubmitting {
		return
	}
	e.status = StatusError
	e.message = MessageSubmitError
}

// Status returns the submission state.
func (e *Engine) Status() Status { return e.status }

// Message returns the banner text. The success banner disappears once the
// success TTL has elapsed; the error banner stays until the next change.
func (e *Engine) Message() string {
	if e.status == StatusSuccess && e.message != "" && !e.now().Before(e.successAt.Add(e.successTTL)) {
		e.message = ""
	}
	return e.message
}

func (e *Engine) clearErrorBanner() {
	if e.status == StatusError {
		e.status = StatusIdle
		e.message = ""
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/questionnaire"
	"github.com/hackmate/hackathon-console/internal/repository"
)

type fakeSource struct {
	questions []model.Question
	listErr   error
	submitErr error
	submitted [][]model.SubmissionRow
	submitFor []string
	onSubmit  func(ctx context.Context)
}

func (f *fakeSource) ListQuestions(context.Context, string) ([]model.Question, error) {
	return f.questions, f.listErr
}

func (f *fakeSource) SubmitResponses(ctx context.Context, _ string, participantID string, rows []model.SubmissionRow) error {
	if f.onSubmit != nil {
		f.onSubmit(ctx)
	}
	f.submitted = append(f.submitted, rows)
	f.submitFor = append(f.submitFor, participantID)
	return f.submitErr
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[int]questionnaire.Snapshot
	locks    map[int]string
	saves    []questionnaire.Status
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int]questionnaire.Snapshot{}, locks: map[int]string{}}
}

func (f *fakeStore) Load(_ context.Context, _ string, pid int) (*questionnaire.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[pid]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeStore) Save(_ context.Context, _ string, pid int, snap questionnaire.Snapshot, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[pid] = snap
	f.saves = append(f.saves, snap.Status)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, _ string, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, pid)
	return nil
}

func (f *fakeStore) AcquireSubmitLock(_ context.Context, _ string, pid int, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locks[pid]; held {
		return "", nil
	}
	f.locks[pid] = "token"
	return "token", nil
}

func (f *fakeStore) ReleaseSubmitLock(_ context.Context, _ string, pid int, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[pid] == token {
		delete(f.locks, pid)
	}
	return nil
}

func (f *fakeStore) SubmitLocked(_ context.Context, _ string, pid int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, held := f.locks[pid]
	return held, nil
}

func participant() *Claims {
	return &Claims{TokenType: TokenTypeParticipant, UserID: 5, ParticipantID: "p-5"}
}

func wizardQuestions() []model.Question {
	limit := 3
	return []model.Question{
		{ID: "name", Kind: model.QuestionKindShortText, Order: 1, Required: true},
		{ID: "langs", Kind: model.QuestionKindMultiChoice, Order: 2, MaxSelections: &limit,
			Options: []model.Option{{ID: "go"}, {ID: "ts"}, {ID: "py"}, {ID: "rs"}}},
	}
}

func newQuestionnaireService(src *fakeSource, store *fakeStore) *QuestionnaireService {
	return NewQuestionnaireService(src, store, QuestionnaireConfig{
		SessionTTL:    time.Hour,
		SubmitTimeout: time.Second,
	}, zerolog.Nop())
}

func TestStartCreatesThenResumes(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	store := newFakeStore()
	svc := newQuestionnaireService(src, store)
	ctx := context.Background()

	v, err := svc.Start(ctx, "h1", participant())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if v.Total != 2 || v.Index != 0 {
		t.Fatalf("view = %+v", v)
	}

	if _, err := svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`)); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	src.questions = nil
	v, err = svc.Start(ctx, "h1", participant())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if v.Total != 2 || v.Progress.Answered != 1 {
		t.Fatalf("resume lost state: %+v", v)
	}
}

func TestGetWithoutSession(t *testing.T) {
	svc := newQuestionnaireService(&fakeSource{}, newFakeStore())
	if _, err := svc.Get(context.Background(), "h1", participant()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestStartBackendFailure(t *testing.T) {
	boom := errors.New("backend down")
	svc := newQuestionnaireService(&fakeSource{listErr: boom}, newFakeStore())
	if _, err := svc.Start(context.Background(), "h1", participant()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestToggleAndNavigate(t *testing.T) {
	store := newFakeStore()
	svc := newQuestionnaireService(&fakeSource{questions: wizardQuestions()}, store)
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())

	if _, err := svc.Toggle(ctx, "h1", participant(), "langs", "go"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if _, err := svc.Toggle(ctx, "h1", participant(), "langs", "cobol"); !errors.Is(err, questionnaire.ErrUnknownOption) {
		t.Fatalf("err = %v, want ErrUnknownOption", err)
	}

	v, err := svc.Navigate(ctx, "h1", participant(), model.NavigateRequest{Direction: "next"})
	if err != nil || v.Index != 1 {
		t.Fatalf("Navigate next = %d, %v", v.Index, err)
	}
	v, _ = svc.Navigate(ctx, "h1", participant(), model.NavigateRequest{Direction: "next"})
	if v.Index != 1 {
		t.Fatalf("next past the end moved to %d", v.Index)
	}
	zero := 0
	v, _ = svc.Navigate(ctx, "h1", participant(), model.NavigateRequest{Index: &zero})
	if v.Index != 0 {
		t.Fatalf("GoTo(0) = %d", v.Index)
	}
}

func TestRefreshKeepsMatchingAnswers(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	svc := newQuestionnaireService(src, newFakeStore())
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))

	src.questions = append(wizardQuestions(), model.Question{ID: "bio", Kind: model.QuestionKindLongText, Order: 3})
	v, err := svc.Refresh(ctx, "h1", participant())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v.Total != 3 || v.Progress.Answered != 1 {
		t.Fatalf("view = %+v", v)
	}
}

func TestSubmitSuccess(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	store := newFakeStore()
	svc := newQuestionnaireService(src, store)
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))
	store.saves = nil

	v, err := svc.Submit(ctx, "h1", participant())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Status != questionnaire.StatusSuccess || v.Message != questionnaire.MessageSubmitSuccess {
		t.Fatalf("view = %+v", v)
	}
	if len(src.submitted) != 1 || len(src.submitted[0]) != 2 || src.submitFor[0] != "p-5" {
		t.Fatalf("submitted = %+v for %v", src.submitted, src.submitFor)
	}
	want := []questionnaire.Status{questionnaire.StatusSubmitting, questionnaire.StatusSuccess}
	if len(store.saves) != 2 || store.saves[0] != want[0] || store.saves[1] != want[1] {
		t.Fatalf("saved statuses = %v, want %v", store.saves, want)
	}
	if locked, _ := store.SubmitLocked(ctx, "h1", 5); locked {
		t.Fatal("submit lock not released")
	}
}

func TestSubmitOnlyOnce(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	svc := newQuestionnaireService(src, newFakeStore())
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))
	if _, err := svc.Submit(ctx, "h1", participant()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	v, err := svc.Submit(ctx, "h1", participant())
	if !errors.Is(err, questionnaire.ErrAlreadySubmitted) {
		t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
	}
	if v.Status != questionnaire.StatusSuccess || v.CanSubmit {
		t.Fatalf("view = %+v", v)
	}
	if len(src.submitted) != 1 {
		t.Fatalf("backend received %d submissions, want 1", len(src.submitted))
	}
}

func TestSubmitNotReady(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	svc := newQuestionnaireService(src, newFakeStore())
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())

	if _, err := svc.Submit(ctx, "h1", participant()); !errors.Is(err, questionnaire.ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if len(src.submitted) != 0 {
		t.Fatal("backend called for an incomplete questionnaire")
	}
}

func TestSubmitFailureKeepsAnswers(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions(), submitErr: errors.New("500")}
	svc := newQuestionnaireService(src, newFakeStore())
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))

	v, err := svc.Submit(ctx, "h1", participant())
	if !errors.Is(err, questionnaire.ErrSubmitFailed) {
		t.Fatalf("err = %v", err)
	}
	if v.Status != questionnaire.StatusError || v.Progress.Answered != 1 {
		t.Fatalf("view = %+v", v)
	}

	src.submitErr = nil
	if _, err := svc.Submit(ctx, "h1", participant()); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	store := newFakeStore()
	svc := newQuestionnaireService(&fakeSource{questions: wizardQuestions()}, store)
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))

	_, _ = store.AcquireSubmitLock(ctx, "h1", 5, time.Minute)
	if _, err := svc.Submit(ctx, "h1", participant()); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("err = %v, want ErrSubmitInProgress", err)
	}
}

func TestSubmitTimeout(t *testing.T) {
	src := &fakeSource{questions: wizardQuestions()}
	src.onSubmit = func(ctx context.Context) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("submit call has no deadline")
		}
	}
	svc := newQuestionnaireService(src, newFakeStore())
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())
	_, _ = svc.Answer(ctx, "h1", participant(), "name", []byte(`"Ada"`))
	if _, err := svc.Submit(ctx, "h1", participant()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestStalledSubmissionIsRecovered(t *testing.T) {
	store := newFakeStore()
	svc := newQuestionnaireService(&fakeSource{questions: wizardQuestions()}, store)
	ctx := context.Background()
	_, _ = svc.Start(ctx, "h1", participant())

	snap := store.sessions[5]
	snap.Status = questionnaire.StatusSubmitting
	store.sessions[5] = snap

	v, err := svc.Get(ctx, "h1", participant())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Status != questionnaire.StatusError {
		t.Fatalf("status = %s, want error", v.Status)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/questionnaire"
	"github.com/hackmate/hackathon-console/internal/repository"
)

// Questionnaire service errors.
var (
	ErrNoSession        = errors.New("questionnaire not started")
	ErrSubmitInProgress = errors.New("questionnaire submission already in progress")
)

// DefaultSubmitTimeout bounds a submission when none is configured.
const DefaultSubmitTimeout = 30 * time.Second

// lockGrace keeps the submit lock alive slightly past the submit timeout.
const lockGrace = 5 * time.Second

// QuestionSource is the part of the hackathon backend the wizard needs.
type QuestionSource interface {
	ListQuestions(ctx context.Context, hackathonID string) ([]model.Question, error)
	SubmitResponses(ctx context.Context, hackathonID, participantID string, rows []model.SubmissionRow) error
}

// SessionStore persists wizard snapshots and the per-participant submit lock.
type SessionStore interface {
	Load(ctx context.Context, hackathonID string, participantID int) (*questionnaire.Snapshot, error)
	Save(ctx context.Context, hackathonID string, participantID int, snap questionnaire.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, hackathonID string, participantID int) error
	AcquireSubmitLock(ctx context.Context, hackathonID string, participantID int, ttl time.Duration) (string, error)
	ReleaseSubmitLock(ctx context.Context, hackathonID string, participantID int, token string) error
	SubmitLocked(ctx context.Context, hackathonID string, participantID int) (bool, error)
}

// QuestionnaireConfig tunes session lifetime and submission timing.
type QuestionnaireConfig struct {
	SessionTTL    time.Duration
	SubmitTimeout time.Duration
	SuccessTTL    time.Duration
}

// QuestionnaireService drives the answer engine for one participant at a time.
// Engine state lives in the session store between requests.
type QuestionnaireService struct {
	source QuestionSource
	store  SessionStore
	cfg    QuestionnaireConfig
	now    func() time.Time
	log    zerolog.Logger
}

// NewQuestionnaireService creates a new QuestionnaireService.
func NewQuestionnaireService(source QuestionSource, store SessionStore, cfg QuestionnaireConfig, log zerolog.Logger) *QuestionnaireService {
	if cfg.SuccessTTL <= 0 {
		cfg.SuccessTTL = questionnaire.DefaultSuccessTTL
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &QuestionnaireService{
		source: source,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		log:    log.With().Str("component", "questionnaire_service").Logger(),
	}
}

func (s *QuestionnaireService) engineOptions() []questionnaire.Option {
	return []questionnaire.Option{
		questionnaire.WithClock(s.now),
		questionnaire.WithSuccessTTL(s.cfg.SuccessTTL),
		questionnaire.WithLogger(s.log),
	}
}

// Start resumes the participant's stored session or opens a new one from the
// backend's current questionnaire.
func (s *QuestionnaireService) Start(ctx context.Context, hackathonID string, claims *Claims) (questionnaire.View, error) {
	e, err := s.load(ctx, hackathonID, claims)
	if err == nil {
		return e.View(), s.save(ctx, hackathonID, claims, e)
	}
	if !errors.Is(err, ErrNoSession) {
		return questionnaire.View{}, err
	}

	questions, err := s.source.ListQuestions(ctx, hackathonID)
	if err != nil {
		return questionnaire.View{}, fmt.Errorf("list questions: %w", err)
	}
	e, err = questionnaire.New(questions, s.engineOptions()...)
	if err != nil {
		return questionnaire.View{}, err
	}

	s.log.Info().
		Str("hackathon_id", hackathonID).
		Int("user_id", claims.UserID).
		Int("questions", e.Len()).
		Msg("Questionnaire started")

	return e.View(), s.save(ctx, hackathonID, claims, e)
}

// Get returns the current view of the participant's session.
func (s *QuestionnaireService) Get(ctx context.Context, hackathonID string, claims *Claims) (questionnaire.View, error) {
	e, err := s.load(ctx, hackathonID, claims)
	if err != nil {
		return questionnaire.View{}, err
	}
	return e.View(), nil
}

// Answer stores a JSON-encoded answer for one question.
func (s *QuestionnaireService) Answer(ctx context.Context, hackathonID string, claims *Claims, questionID string, value []byte) (questionnaire.View, error) {
	return s.mutate(ctx, hackathonID, claims, func(e *questionnaire.Engine) error {
		return e.SetAnswerJSON(questionID, value)
	})
}

// Toggle flips one option of a choice question.
func (s *QuestionnaireService) Toggle(ctx context.Context, hackathonID string, claims *Claims, questionID, optionID string) (questionnaire.View, error) {
	return s.mutate(ctx, hackathonID, claims, func(e *questionnaire.Engine) error {
		return e.ToggleOption(questionID, optionID)
	})
}

// Navigate moves the cursor by direction or to an explicit index.
func (s *QuestionnaireService) Navigate(ctx context.Context, hackathonID string, claims *Claims, req model.NavigateRequest) (questionnaire.View, error) {
	return s.mutate(ctx, hackathonID, claims, func(e *questionnaire.Engine) error {
		switch {
		case req.Index != nil:
			e.GoTo(*req.Index)
		case req.Direction == "next":
			e.Next()
		case req.Direction == "prev":
			e.Prev()
		}
		return nil
	})
}

// Refresh reloads the question list from the backend, keeping answers to
// questions that still exist with the same kind.
func (s *QuestionnaireService) Refresh(ctx context.Context, hackathonID string, claims *Claims) (questionnaire.View, error) {
	questions, err := s.source.ListQuestions(ctx, hackathonID)
	if err != nil {
		return questionnaire.View{}, fmt.Errorf("list questions: %w", err)
	}
	return s.mutate(ctx, hackathonID, claims, func(e *questionnaire.Engine) error {
		return e.Replace(questions)
	})
}

// Submit validates and sends the participant's answers. Only one submission
// per participant runs at a time across all server instances. The returned
// view is valid even when err is a *questionnaire.ValidationError or
// questionnaire.ErrSubmitFailed.
func (s *QuestionnaireService) Submit(ctx context.Context, hackathonID string, claims *Claims) (questionnaire.View, error) {
	token, err := s.store.AcquireSubmitLock(ctx, hackathonID, claims.UserID, s.cfg.SubmitTimeout+lockGrace)
	if err != nil {
		return questionnaire.View{}, err
	}
	if token == "" {
		return questionnaire.View{}, ErrSubmitInProgress
	}
	defer func() {
		if err := s.store.ReleaseSubmitLock(context.WithoutCancel(ctx), hackathonID, claims.UserID, token); err != nil {
			s.log.Warn().Err(err).Str("hackathon_id", hackathonID).Int("user_id", claims.UserID).Msg("Failed to release submit lock")
		}
	}()

	e, err := s.load(ctx, hackathonID, claims)
	if err != nil {
		return questionnaire.View{}, err
	}
	// Holding the lock means any earlier submitter is gone.
	e.Interrupt()

	submitErr := e.Submit(ctx, func(ctx context.Context, rows []model.SubmissionRow) error {
		if err := s.save(ctx, hackathonID, claims, e); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
		defer cancel()
		return s.source.SubmitResponses(callCtx, hackathonID, claims.Participant(), rows)
	})

	if err := s.save(context.WithoutCancel(ctx), hackathonID, claims, e); err != nil {
		return e.View(), err
	}

	if submitErr == nil {
		s.log.Info().Str("hackathon_id", hackathonID).Int("user_id", claims.UserID).Msg("Questionnaire submitted")
	}
	return e.View(), submitErr
}

// Discard drops the participant's stored session.
func (s *QuestionnaireService) Discard(ctx context.Context, hackathonID string, claims *Claims) error {
	return s.store.Delete(ctx, hackathonID, claims.UserID)
}

func (s *QuestionnaireService) mutate(ctx context.Context, hackathonID string, claims *Claims, fn func(*questionnaire.Engine) error) (questionnaire.View, error) {
	e, err := s.load(ctx, hackathonID, claims)
	if err != nil {
		return questionnaire.View{}, err
	}
	if err := fn(e); err != nil {
		return e.View(), err
	}
	return e.View(), s.save(ctx, hackathonID, claims, e)
}

// load restores the stored engine. A session left in submitting without a
// live lock belongs to a request that died mid-flight and is interrupted.
func (s *QuestionnaireService) load(ctx context.Context, hackathonID string, claims *Claims) (*questionnaire.Engine, error) {
	snap, err := s.store.Load(ctx, hackathonID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	e, err := questionnaire.Restore(*snap, s.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	if e.Status() == questionnaire.StatusSubmitting {
		locked, err := s.store.SubmitLocked(ctx, hackathonID, claims.UserID)
		if err != nil {
			return nil, err
		}
		if !locked {
			s.log.Warn().Str("hackathon_id", hackathonID).Int("user_id", claims.UserID).Msg("Recovering stalled submission")
			e.Interrupt()
		}
	}
	return e, nil
}

func (s *QuestionnaireService) save(ctx context.Context, hackathonID string, claims *Claims, e *questionnaire.Engine) error {
	return s.store.Save(ctx, hackathonID, claims.UserID, e.Snapshot(), s.cfg.SessionTTL)
}

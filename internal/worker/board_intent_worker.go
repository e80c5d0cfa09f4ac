package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/backend"
	"github.com/hackmate/hackathon-console/internal/model"
)

const (
	defaultRetryDelay  = 5 * time.Second
	defaultMaxAttempts = 10
	popTimeout         = time.Second
	drainTimeout       = 10 * time.Second
)

// IntentQueue is the board intent queue as seen by the worker.
type IntentQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.BoardIntent, error)
	Requeue(ctx context.Context, intent model.BoardIntent) error
	Publish(ctx context.Context, event model.BoardEvent) error
}

// TeamWriter applies board intents on the hackathon backend.
type TeamWriter interface {
	MoveMember(ctx context.Context, hackathonID string, intent model.MoveIntent) error
	RenameTeam(ctx context.Context, hackathonID, teamID, name string) error
	DeleteTeam(ctx context.Context, hackathonID, teamID string) error
	RemoveMember(ctx context.Context, hackathonID, teamID, participantID string) error
}

// ActivityRecorder stores delivered intents.
type ActivityRecorder interface {
	Record(ctx context.Context, intent model.BoardIntent) error
}

// BoardIntentWorker consumes board_intents_queue, applies each intent on the
// backend and records it in the activity log.
type BoardIntentWorker struct {
	queue       IntentQueue
	teams       TeamWriter
	activity    ActivityRecorder
	retryDelay  time.Duration
	maxAttempts int
	log         zerolog.Logger
}

// Option configures a BoardIntentWorker.
type Option func(*BoardIntentWorker)

// WithRetryDelay sets the pause after a failed delivery.
func WithRetryDelay(d time.Duration) Option {
	return func(w *BoardIntentWorker) { w.retryDelay = d }
}

// WithMaxAttempts sets how often an intent is tried before it is dropped.
func WithMaxAttempts(n int) Option {
	return func(w *BoardIntentWorker) { w.maxAttempts = n }
}

// NewBoardIntentWorker creates a new BoardIntentWorker.
func NewBoardIntentWorker(queue IntentQueue, teams TeamWriter, activity ActivityRecorder, log zerolog.Logger, opts ...Option) *BoardIntentWorker {
	w := &BoardIntentWorker{
		queue:       queue,
		teams:       teams,
		activity:    activity,
		retryDelay:  defaultRetryDelay,
		maxAttempts: defaultMaxAttempts,
		log:         log.With().Str("component", "board_intent_worker").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *BoardIntentWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			w.drain(drainCtx)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *BoardIntentWorker) processNext(ctx context.Context) {
	intent, err := w.queue.Pop(ctx, popTimeout)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Pop error")
		}
		return
	}
	if intent == nil {
		return
	}

	if !w.handle(ctx, intent) {
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle delivers one intent. It returns false when the intent went back on
// the queue for another attempt.
func (w *BoardIntentWorker) handle(ctx context.Context, intent *model.BoardIntent) bool {
	intent.Attempts++
	log := w.log.With().
		Str("intent_id", intent.ID.String()).
		Str("type", string(intent.Type)).
		Str("hackathon_id", intent.HackathonID).
		Int("attempt", intent.Attempts).
		Logger()

	err := w.deliver(ctx, *intent)
	if err == nil {
		if err := w.activity.Record(ctx, *intent); err != nil {
			log.Error().Err(err).Msg("Intent delivered but not recorded")
		}
		log.Info().Msg("Intent delivered")
		w.publish(ctx, model.BoardEvent{Type: model.BoardEventReconcile, HackathonID: intent.HackathonID, Intent: intent})
		return true
	}

	if permanent(err) || intent.Attempts >= w.maxAttempts {
		log.Error().Err(err).Msg("Intent rejected, dropping")
		w.publish(ctx, model.BoardEvent{Type: model.BoardEventReconcile, HackathonID: intent.HackathonID, Intent: intent, Error: err.Error()})
		return true
	}

	log.Warn().Err(err).Dur("retry_in", w.retryDelay).Msg("Delivery failed, retrying")
	if err := w.queue.Requeue(ctx, *intent); err != nil {
		log.Error().Err(err).Msg("Requeue failed, intent lost")
		w.publish(ctx, model.BoardEvent{Type: model.BoardEventReconcile, HackathonID: intent.HackathonID, Intent: intent, Error: err.Error()})
		return true
	}
	w.publish(ctx, model.BoardEvent{Type: model.BoardEventRetrying, HackathonID: intent.HackathonID, Intent: intent, Error: err.Error()})
	return false
}

func (w *BoardIntentWorker) deliver(ctx context.Context, in model.BoardIntent) error {
	switch in.Type {
	case model.IntentMoveMember:
		return w.teams.MoveMember(ctx, in.HackathonID, model.MoveIntent{
			FromTeamID:    in.TeamID,
			ToTeamID:      in.ToTeamID,
			ParticipantID: in.ParticipantID,
		})
	case model.IntentRenameTeam:
		return w.teams.RenameTeam(ctx, in.HackathonID, in.TeamID, in.Name)
	case model.IntentDeleteTeam:
		return w.teams.DeleteTeam(ctx, in.HackathonID, in.TeamID)
	case model.IntentRemoveMember:
		return w.teams.RemoveMember(ctx, in.HackathonID, in.TeamID, in.ParticipantID)
	default:
		return errUnknownIntent{in.Type}
	}
}

type errUnknownIntent struct{ t model.IntentType }

func (e errUnknownIntent) Error() string { return fmt.Sprintf("unknown intent type %q", e.t) }

// permanent reports failures that a retry cannot fix: client errors from
// the backend other than timeouts and throttling, and unknown intents.
func permanent(err error) bool {
	var unknown errUnknownIntent
	if errors.As(err, &unknown) {
		return true
	}
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500
}

func (w *BoardIntentWorker) publish(ctx context.Context, event model.BoardEvent) {
	event.At = time.Now().UTC()
	if err := w.queue.Publish(ctx, event); err != nil {
		w.log.Warn().Err(err).Str("hackathon_id", event.HackathonID).Msg("Failed to publish board event")
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *BoardIntentWorker) drain(ctx context.Context) {
	drained := 0
	for ctx.Err() == nil {
		intent, err := w.queue.Pop(ctx, popTimeout)
		if err != nil || intent == nil {
			break
		}
		if !w.handle(ctx, intent) {
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining intents")
	}
}

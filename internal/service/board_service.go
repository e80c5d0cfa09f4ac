package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/teamboard"
)

// ErrIntentNotQueued wraps failures to hand a board intent to the queue.
var ErrIntentNotQueued = errors.New("board intent not queued")

// TeamSource returns the authoritative team list of a hackathon.
type TeamSource interface {
	ListTeams(ctx context.Context, hackathonID string) ([]model.Team, error)
}

// IntentQueue accepts board intents for delivery and fans out board events.
type IntentQueue interface {
	Enqueue(ctx context.Context, intent model.BoardIntent) error
	Publish(ctx context.Context, event model.BoardEvent) error
}

// ActivityStore lists delivered board intents.
type ActivityStore interface {
	ListByHackathon(ctx context.Context, hackathonID string, limit, offset int) ([]model.BoardActivity, int, error)
}

// BoardView is the organizer's board as rendered by the console.
type BoardView struct {
	HackathonID  string                  `json:"hackathon_id"`
	Teams        []model.Team            `json:"teams"`
	Layout       teamboard.Grid          `json:"layout"`
	Capabilities teamboard.Capabilities  `json:"capabilities"`
	Pending      *teamboard.Confirmation `json:"pending,omitempty"`
}

// MoveResult reports a drop and the board after the optimistic move.
type MoveResult struct {
	Outcome teamboard.DropOutcome `json:"outcome"`
	Board   BoardView             `json:"board"`
}

// DeleteResult is returned by the confirm-guarded board actions. Executed is
// false when the caller still has to confirm.
type DeleteResult struct {
	Confirmation teamboard.Confirmation `json:"confirmation"`
	Executed     bool                   `json:"executed"`
}

// BoardService builds a team board per request over the backend's current
// teams. Board mutations become intents on the delivery queue.
type BoardService struct {
	teams    TeamSource
	queue    IntentQueue
	activity ActivityStore
	now      func() time.Time
	log      zerolog.Logger
}

// NewBoardService creates a new BoardService.
func NewBoardService(teams TeamSource, queue IntentQueue, activity ActivityStore, log zerolog.Logger) *BoardService {
	return &BoardService{
		teams:    teams,
		queue:    queue,
		activity: activity,
		now:      time.Now,
		log:      log.With().Str("component", "board_service").Logger(),
	}
}

// open fetches the snapshot and builds a board whose callbacks enqueue intents
// on behalf of the caller. Callers without write permission get a read-only
// board.
func (s *BoardService) open(ctx context.Context, hackathonID string, claims *Claims) (*teamboard.Board, error) {
	teams, err := s.teams.ListTeams(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	var h teamboard.Handlers
	if claims.HasPermission(model.PermissionTeamsWrite) {
		emit := func(ctx context.Context, intent model.BoardIntent) error {
			return s.emit(ctx, hackathonID, claims, intent)
		}
		h = teamboard.Handlers{
			OnMoveMember: func(ctx context.Context, in model.MoveIntent) error {
				return emit(ctx, model.BoardIntent{
					Type:          model.IntentMoveMember,
					TeamID:        in.FromTeamID,
					ToTeamID:      in.ToTeamID,
					ParticipantID: in.ParticipantID,
				})
			},
			OnRenameTeam: func(ctx context.Context, teamID, name string) error {
				return emit(ctx, model.BoardIntent{Type: model.IntentRenameTeam, TeamID: teamID, Name: name})
			},
			OnDeleteTeam: func(ctx context.Context, teamID string) error {
				return emit(ctx, model.BoardIntent{Type: model.IntentDeleteTeam, TeamID: teamID})
			},
			OnRemoveMember: func(ctx context.Context, teamID, participantID string) error {
				return emit(ctx, model.BoardIntent{Type: model.IntentRemoveMember, TeamID: teamID, ParticipantID: participantID})
			},
		}
	}

	return teamboard.New(teams, h, s.log.With().Str("hackathon_id", hackathonID).Logger()), nil
}

func (s *BoardService) emit(ctx context.Context, hackathonID string, claims *Claims, intent model.BoardIntent) error {
	intent.ID = uuid.New()
	intent.HackathonID = hackathonID
	intent.ActorID = claims.UserID
	intent.QueuedAt = s.now().UTC()

	if err := s.queue.Enqueue(ctx, intent); err != nil {
		return fmt.Errorf("%w: %w", ErrIntentNotQueued, err)
	}

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("type", string(intent.Type)).
		Str("hackathon_id", hackathonID).
		Int("actor_id", claims.UserID).
		Msg("Board intent queued")

	event := model.BoardEvent{Type: model.BoardEventQueued, HackathonID: hackathonID, Intent: &intent, At: intent.QueuedAt}
	if err := s.queue.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("intent_id", intent.ID.String()).Msg("Failed to publish board event")
	}
	return nil
}

func view(hackathonID string, b *teamboard.Board, vp teamboard.Viewport) BoardView {
	v := BoardView{
		HackathonID:  hackathonID,
		Teams:        b.Teams(),
		Layout:       b.Layout(vp),
		Capabilities: b.Capabilities(),
	}
	if p, ok := b.Pending(); ok {
		v.Pending = &p
	}
	return v
}

// Board returns the current board laid out for the viewport.
func (s *BoardService) Board(ctx context.Context, hackathonID string, claims *Claims, vp teamboard.Viewport) (BoardView, error) {
	b, err := s.open(ctx, hackathonID, claims)
	if err != nil {
		return BoardView{}, err
	}
	return view(hackathonID, b, vp), nil
}

// Move applies a drop of a member card on destTeamID. The returned board
// carries the optimistic move until the backend confirms it.
func (s *BoardService) Move(ctx context.Context, hackathonID string, claims *Claims, destTeamID, payload string, vp teamboard.Viewport) (MoveResult, error) {
	b, err := s.open(ctx, hackathonID, claims)
	if err != nil {
		return MoveResult{}, err
	}
	outcome, err := b.Drop(ctx, destTeamID, payload)
	return MoveResult{Outcome: outcome, Board: view(hackathonID, b, vp)}, err
}

// Rename commits a team rename. It reports whether a rename was queued; blank
// names and escape leave the team untouched.
func (s *BoardService) Rename(ctx context.Context, hackathonID string, claims *Claims, teamID, name string, trigger teamboard.CommitTrigger) (bool, error) {
	b, err := s.open(ctx, hackathonID, claims)
	if err != nil {
		return false, err
	}
	if err := b.BeginRename(teamID); err != nil {
		return false, err
	}
	b.SetDraft(name)
	if trigger == "" {
		trigger = teamboard.TriggerEnter
	}
	return b.CommitRename(ctx, trigger)
}

// DeleteTeam deletes a team once confirmed. Without confirmation it only
// returns the prompt to show.
func (s *BoardService) DeleteTeam(ctx context.Context, hackathonID string, claims *Claims, teamID string, confirmed bool) (DeleteResult, error) {
	b, err := s.open(ctx, hackathonID, claims)
	if err != nil {
		return DeleteResult{}, err
	}
	c, err := b.RequestTeamDeletion(teamID)
	if err != nil {
		return DeleteResult{}, err
	}
	return s.confirm(ctx, b, c, confirmed)
}

// RemoveMember detaches a participant from a team once confirmed.
func (s *BoardService) RemoveMember(ctx context.Context, hackathonID string, claims *Claims, teamID, participantID string, confirmed bool) (DeleteResult, error) {
	b, err := s.open(ctx, hackathonID, claims)
	if err != nil {
		return DeleteResult{}, err
	}
	c, err := b.RequestMemberRemoval(teamID, participantID)
	if err != nil {
		return DeleteResult{}, err
	}
	return s.confirm(ctx, b, c, confirmed)
}

func (s *BoardService) confirm(ctx context.Context, b *teamboard.Board, c teamboard.Confirmation, confirmed bool) (DeleteResult, error) {
	if !confirmed {
		b.CancelConfirmation()
		return DeleteResult{Confirmation: c}, nil
	}
	if err := b.Confirm(ctx); err != nil {
		return DeleteResult{Confirmation: c}, err
	}
	return DeleteResult{Confirmation: c, Executed: true}, nil
}

// NormalizePage clamps paging parameters to the supported range.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

// Activity returns a page of delivered board intents, newest first.
func (s *BoardService) Activity(ctx context.Context, hackathonID string, page, perPage int) ([]model.BoardActivity, int, error) {
	page, perPage = NormalizePage(page, perPage)
	items, total, err := s.activity.ListByHackathon(ctx, hackathonID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	if items == nil {
		items = []model.BoardActivity{}
	}
	return items, total, nil
}

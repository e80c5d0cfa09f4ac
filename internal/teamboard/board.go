// Package teamboard is the in-memory model behind the organizer's team board:
// members are dragged between team columns, teams are renamed in place, and
// teams or members are deleted after confirmation. Every mutation is local and
// provisional; the next snapshot passed to Replace is authoritative.
package teamboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/model"
)

// ErrUnavailable is returned when the callback backing an action was not
// supplied, i.e. the affordance does not exist on this board.
var ErrUnavailable = errors.New("board action unavailable")

// ErrUnknownTeam is returned when an action names a team not on the board.
var ErrUnknownTeam = errors.New("unknown team")

// ErrUnknownMember is returned when an action names a participant that is not
// a member of the given team.
var ErrUnknownMember = errors.New("unknown team member")

// ErrNothingPending is returned by Confirm when no confirmation is open.
var ErrNothingPending = errors.New("no pending confirmation")

// Handlers are the optional outbound callbacks of a board. A nil callback
// removes the matching affordance.
type Handlers struct {
	OnMoveMember   func(ctx context.Context, intent model.MoveIntent) error
	OnRenameTeam   func(ctx context.Context, teamID, name string) error
	OnDeleteTeam   func(ctx context.Context, teamID string) error
	OnRemoveMember func(ctx context.Context, teamID, participantID string) error

	// SetTeams receives the team list after each optimistic mutation.
	SetTeams func(teams []model.Team)
}

// Capabilities lists which affordances a board exposes.
type Capabilities struct {
	Drop         bool `json:"drop"`
	Rename       bool `json:"rename"`
	DeleteTeam   bool `json:"delete_team"`
	RemoveMember bool `json:"remove_member"`
}

// Board holds a provisional local copy of a hackathon's teams.
// It is not safe for concurrent use.
type Board struct {
	teams    []model.Team
	handlers Handlers
	log      zerolog.Logger

	editing *Edit
	pending *Confirmation
}

// New builds a board over a copy of teams.
func New(teams []model.Team, handlers Handlers, log zerolog.Logger) *Board {
	return &Board{
		teams:    model.CloneTeams(teams),
		handlers: handlers,
		log:      log,
	}
}

// Teams returns a copy of the local team list.
func (b *Board) Teams() []model.Team {
	return model.CloneTeams(b.teams)
}

// Capabilities reports the affordances backed by a callback.
func (b *Board) Capabilities() Capabilities {
	return Capabilities{
		Drop:         b.handlers.OnMoveMember != nil,
		Rename:       b.handlers.OnRenameTeam != nil,
		DeleteTeam:   b.handlers.OnDeleteTeam != nil,
		RemoveMember: b.handlers.OnRemoveMember != nil,
	}
}

// Replace installs an authoritative snapshot. Local state is discarded, not
// merged. An open edit or confirmation whose target vanished is dropped.
func (b *Board) Replace(teams []model.Team) {
	b.teams = model.CloneTeams(teams)

	if b.editing != nil && b.teamIndex(b.editing.TeamID) < 0 {
		b.editing = nil
	}
	if p := b.pending; p != nil {
		ti := b.teamIndex(p.TeamID)
		if ti < 0 || (p.Action == ActionRemoveMember && memberIndex(&b.teams[ti], p.ParticipantID) < 0) {
			b.pending = nil
		}
	}
}

func (b *Board) teamIndex(teamID string) int {
	for i := range b.teams {
		if b.teams[i].ID == teamID {
			return i
		}
	}
	return -1
}

func memberIndex(t *model.Team, participantID string) int {
	for i := range t.Members {
		if t.Members[i].Participant.ID == participantID {
			return i
		}
	}
	return -1
}

// ─── Drag and drop ──────────────────────────────────────────────────────

// DropOutcome describes what a drop did.
type DropOutcome string

const (
	DropMoved       DropOutcome = "moved"
	DropSameTeam    DropOutcome = "same_team"
	DropIgnored     DropOutcome = "ignored"
	DropUnavailable DropOutcome = "unavailable"
)

type dragPayload struct {
	SourceTeamID  string `json:"sourceTeamId"`
	ParticipantID string `json:"participantId"`
}

// DragPayload encodes the data a member card attaches when dragged.
func DragPayload(sourceTeamID, participantID string) string {
	raw, _ := json.Marshal(dragPayload{SourceTeamID: sourceTeamID, ParticipantID: participantID})
	return string(raw)
}

// Drop handles a member card dropped on the destTeamID column.
//
// Dropping on the source column is a no-op. Otherwise the member is moved
// locally from the source team to the end of the destination team, SetTeams
// receives the new list, and OnMoveMember is called once. Malformed payloads
// and unknown teams or members are logged and ignored without mutation.
// An error from OnMoveMember is returned as is; the local move stays until
// the next Replace.
func (b *Board) Drop(ctx context.Context, destTeamID, raw string) (DropOutcome, error) {
	if b.handlers.OnMoveMember == nil {
		return DropUnavailable, nil
	}

	var p dragPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.SourceTeamID == "" || p.ParticipantID == "" {
		b.log.Warn().Err(err).Str("dest_team_id", destTeamID).Msg("Ignoring malformed drag payload")
		return DropIgnored, nil
	}

	if p.SourceTeamID == destTeamID {
		return DropSameTeam, nil
	}

	src, dst := b.teamIndex(p.SourceTeamID), b.teamIndex(destTeamID)
	if src < 0 || dst < 0 {
		b.log.Warn().
			Str("source_team_id", p.SourceTeamID).
			Str("dest_team_id", destTeamID).
			Msg("Ignoring drop for unknown team")
		return DropIgnored, nil
	}

	mi := memberIndex(&b.teams[src], p.ParticipantID)
	if mi < 0 {
		b.log.Warn().
			Str("source_team_id", p.SourceTeamID).
			Str("participant_id", p.ParticipantID).
			Msg("Ignoring drop for member not in source team")
		return DropIgnored, nil
	}

	member := b.teams[src].Members[mi]
	srcMembers := b.teams[src].Members
	b.teams[src].Members = append(srcMembers[:mi:mi], srcMembers[mi+1:]...)
	b.teams[dst].Members = append(b.teams[dst].Members, member)

	if b.handlers.SetTeams != nil {
		b.handlers.SetTeams(b.Teams())
	}

	intent := model.MoveIntent{
		FromTeamID:    p.SourceTeamID,
		ToTeamID:      destTeamID,
		ParticipantID: p.ParticipantID,
	}
	if err := b.handlers.OnMoveMember(ctx, intent); err != nil {
		return DropMoved, fmt.Errorf("move member: %w", err)
	}
	return DropMoved, nil
}

// ─── Rename ─────────────────────────────────────────────────────────────

// CommitTrigger is the user action ending an edit.
type CommitTrigger string

const (
	TriggerEnter  CommitTrigger = "enter"
	TriggerBlur   CommitTrigger = "blur"
	TriggerEscape CommitTrigger = "escape"
)

// Edit is the in-place rename state of a team header.
type Edit struct {
	TeamID string `json:"team_id"`
	Draft  string `json:"draft"`
}

// Editing returns the open edit, if any.
func (b *Board) Editing() (Edit, bool) {
	if b.editing == nil {
		return Edit{}, false
	}
	return *b.editing, true
}

// BeginRename puts a team header in edit mode seeded with the current name.
// Only one team is edited at a time; an open edit elsewhere is discarded.
func (b *Board) BeginRename(teamID string) error {
	if b.handlers.OnRenameTeam == nil {
		return ErrUnavailable
	}
	i := b.teamIndex(teamID)
	if i < 0 {
		return fmt.Errorf("%w %q", ErrUnknownTeam, teamID)
	}
	b.editing = &Edit{TeamID: teamID, Draft: b.teams[i].Name}
	return nil
}

// SetDraft updates the text of the open edit.
func (b *Board) SetDraft(draft string) {
	if b.editing != nil {
		b.editing.Draft = draft
	}
}

// CommitRename ends the open edit. Enter and blur call OnRenameTeam with the
// trimmed draft unless it is blank; escape and blank drafts only leave edit
// mode. It reports whether the callback was called.
func (b *Board) CommitRename(ctx context.Context, trigger CommitTrigger) (bool, error) {
	edit := b.editing
	b.editing = nil
	if edit == nil || trigger == TriggerEscape {
		return false, nil
	}

	name := strings.TrimSpace(edit.Draft)
	if name == "" {
		return false, nil
	}
	if err := b.handlers.OnRenameTeam(ctx, edit.TeamID, name); err != nil {
		return true, fmt.Errorf("rename team: %w", err)
	}
	return true, nil
}

// CancelRename leaves edit mode without calling back.
func (b *Board) CancelRename() {
	b.editing = nil
}

// ─── Deletion ───────────────────────────────────────────────────────────

// ConfirmAction names the destructive action awaiting confirmation.
type ConfirmAction string

const (
	ActionDeleteTeam   ConfirmAction = "delete_team"
	ActionRemoveMember ConfirmAction = "remove_member"
)

// Confirmation is the prompt shown before a destructive action runs.
type Confirmation struct {
	Action        ConfirmAction `json:"action"`
	TeamID        string        `json:"team_id"`
	ParticipantID string        `json:"participant_id,omitempty"`
	Message       string        `json:"message"`
}

// Pending returns the open confirmation, if any.
func (b *Board) Pending() (Confirmation, bool) {
	if b.pending == nil {
		return Confirmation{}, false
	}
	return *b.pending, true
}

// RequestTeamDeletion opens the confirmation for deleting a team.
func (b *Board) RequestTeamDeletion(teamID string) (Confirmation, error) {
	if b.handlers.OnDeleteTeam == nil {
		return Confirmation{}, ErrUnavailable
	}
	i := b.teamIndex(teamID)
	if i < 0 {
		return Confirmation{}, fmt.Errorf("%w %q", ErrUnknownTeam, teamID)
	}
	c := Confirmation{
		Action: ActionDeleteTeam,
		TeamID: teamID,
		Message: fmt.Sprintf(
			"Delete team %q? Its %d member(s) will be detached from the team, not deleted from the hackathon.",
			b.teams[i].Name, len(b.teams[i].Members)),
	}
	b.pending = &c
	return c, nil
}

// RequestMemberRemoval opens the confirmation for removing a member from a team.
func (b *Board) RequestMemberRemoval(teamID, participantID string) (Confirmation, error) {
	if b.handlers.OnRemoveMember == nil {
		return Confirmation{}, ErrUnavailable
	}
	i := b.teamIndex(teamID)
	if i < 0 {
		return Confirmation{}, fmt.Errorf("%w %q", ErrUnknownTeam, teamID)
	}
	mi := memberIndex(&b.teams[i], participantID)
	if mi < 0 {
		return Confirmation{}, fmt.Errorf("%w %q", ErrUnknownMember, participantID)
	}
	c := Confirmation{
		Action:        ActionRemoveMember,
		TeamID:        teamID,
		ParticipantID: participantID,
		Message: fmt.Sprintf(
			"Remove %s from team %q? They remain a participant of the hackathon.",
			b.teams[i].Members[mi].Participant.FullName(), b.teams[i].Name),
	}
	b.pending = &c
	return c, nil
}

// Confirm runs the pending destructive action's callback.
func (b *Board) Confirm(ctx context.Context) error {
	c := b.pending
	if c == nil {
		return ErrNothingPending
	}
	b.pending = nil

	switch c.Action {
	case ActionDeleteTeam:
		if err := b.handlers.OnDeleteTeam(ctx, c.TeamID); err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
	case ActionRemoveMember:
		if err := b.handlers.OnRemoveMember(ctx, c.TeamID, c.ParticipantID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
	}
	return nil
}

// CancelConfirmation closes the pending confirmation without acting.
func (b *Board) CancelConfirmation() {
	b.pending = nil
}

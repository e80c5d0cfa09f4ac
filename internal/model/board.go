package model

import (
	"time"

	"github.com/google/uuid"
)

// MoveIntent describes a member reassignment emitted by the team board.
type MoveIntent struct {
	FromTeamID    string `json:"fromTeamId"`
	ToTeamID      string `json:"toTeamId"`
	ParticipantID string `json:"participantId"`
}

// IntentType enumerates the board actions forwarded to the hackathon backend.
type IntentType string

const (
	IntentMoveMember   IntentType = "move_member"
	IntentRenameTeam   IntentType = "rename_team"
	IntentDeleteTeam   IntentType = "delete_team"
	IntentRemoveMember IntentType = "remove_member"
)

// BoardIntent is a queued board action awaiting delivery to the backend.
type BoardIntent struct {
	ID            uuid.UUID  `json:"id"`
	Type          IntentType `json:"type"`
	HackathonID   string     `json:"hackathon_id"`
	ActorID       int        `json:"actor_id"`
	TeamID        string     `json:"team_id,omitempty"`
	ToTeamID      string     `json:"to_team_id,omitempty"`
	ParticipantID string     `json:"participant_id,omitempty"`
	Name          string     `json:"name,omitempty"`
	Attempts      int        `json:"attempts"`
	QueuedAt      time.Time  `json:"queued_at"`
}

// BoardEventType enumerates the events published on a hackathon's board channel.
type BoardEventType string

const (
	// BoardEventQueued follows an optimistic mutation accepted by the console.
	BoardEventQueued BoardEventType = "intent_queued"
	// BoardEventReconcile tells boards to refetch the authoritative team list.
	BoardEventReconcile BoardEventType = "reconcile"
	// BoardEventRetrying reports a failed delivery that will be retried.
	BoardEventRetrying BoardEventType = "intent_retrying"
)

// BoardEvent is the pub/sub message fanned out to open boards.
type BoardEvent struct {
	Type        BoardEventType `json:"type"`
	HackathonID string         `json:"hackathon_id"`
	Intent      *BoardIntent   `json:"intent,omitempty"`
	Error       string         `json:"error,omitempty"`
	At          time.Time      `json:"at"`
}

// BoardActivity is a delivered board intent as recorded in the activity log.
type BoardActivity struct {
	ID            int64      `json:"id"`
	IntentID      uuid.UUID  `json:"intent_id"`
	HackathonID   string     `json:"hackathon_id"`
	Type          IntentType `json:"type"`
	ActorID       int        `json:"actor_id"`
	TeamID        string     `json:"team_id,omitempty"`
	ToTeamID      string     `json:"to_team_id,omitempty"`
	ParticipantID string     `json:"participant_id,omitempty"`
	Name          string     `json:"name,omitempty"`
	Attempts      int        `json:"attempts"`
	QueuedAt      time.Time  `json:"queued_at"`
	DeliveredAt   time.Time  `json:"delivered_at"`
}

// ─── Request payloads ─────────────────────────────────────────────────────

// MoveMemberRequest carries a drop event: the destination team and the raw
// drag payload attached by the member card.
type MoveMemberRequest struct {
	TeamID  string `json:"team_id" binding:"required,notblank,max=100"`
	Payload string `json:"payload" binding:"required,max=1000"`
}

// RenameTeamRequest commits an in-place team rename.
type RenameTeamRequest struct {
	Name    string `json:"name" binding:"max=200"`
	Trigger string `json:"trigger" binding:"omitempty,oneof=enter blur escape"`
}

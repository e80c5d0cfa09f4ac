package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackmate/hackathon-console/internal/model"
)

// BoardActivityRepository provides data access for the board activity log.
type BoardActivityRepository struct {
	pool *pgxpool.Pool
}

// NewBoardActivityRepository creates a new BoardActivityRepository.
func NewBoardActivityRepository(pool *pgxpool.Pool) *BoardActivityRepository {
	return &BoardActivityRepository{pool: pool}
}

// Record inserts a delivered intent. Redelivery of the same intent is a no-op.
func (r *BoardActivityRepository) Record(ctx context.Context, intent model.BoardIntent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_activity
		   (intent_id, hackathon_id, type, actor_id, team_id, to_team_id, participant_id, name, attempts, queued_at, delivered_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, NOW())
		 ON CONFLICT (intent_id) DO NOTHING`,
		intent.ID, intent.HackathonID, intent.Type, intent.ActorID,
		intent.TeamID, intent.ToTeamID, intent.ParticipantID, intent.Name,
		intent.Attempts, intent.QueuedAt,
	)
	return err
}

// ListByHackathon returns a page of activity, newest first, and the total count.
func (r *BoardActivityRepository) ListByHackathon(ctx context.Context, hackathonID string, limit, offset int) ([]model.BoardActivity, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM board_activity WHERE hackathon_id = $1`, hackathonID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, intent_id, hackathon_id, type, actor_id,
		        COALESCE(team_id, ''), COALESCE(to_team_id, ''), COALESCE(participant_id, ''), COALESCE(name, ''),
		        attempts, queued_at, delivered_at
		 FROM board_activity
		 WHERE hackathon_id = $1
		 ORDER BY delivered_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		hackathonID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BoardActivity, error) {
		var a model.BoardActivity
		err := row.Scan(&a.ID, &a.IntentID, &a.HackathonID, &a.Type, &a.ActorID,
			&a.TeamID, &a.ToTeamID, &a.ParticipantID, &a.Name,
			&a.Attempts, &a.QueuedAt, &a.DeliveredAt)
		return a, err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

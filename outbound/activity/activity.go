// Package activity stores the admin activity log in Postgres.
package activity

import (
	"booth-queue/common/contract"
	"booth-queue/model"
	"context"
	_ "embed"
	"fmt"
	"time"
)

//go:embed schema.sql
var Schema string

type Queries struct {
	db contract.DbConn
}

func New(db contract.DbConn) *Queries {
	return &Queries{db: db}
}

func (q *Queries) Migrate(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate queue_activities: %w", err)
	}
	return nil
}

const insertActivity = `INSERT INTO queue_activities (booth_id, action, subject, number, detail, actor, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

type InsertActivityParams struct {
	BoothID    string
	Action     string
	Subject    string
	Number     int64
	Detail     string
	Actor      string
	OccurredAt time.Time
}

func (q *Queries) InsertActivity(ctx context.Context, arg InsertActivityParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertActivity,
		arg.BoothID,
		arg.Action,
		arg.Subject,
		arg.Number,
		arg.Detail,
		arg.Actor,
		arg.OccurredAt,
	)

	var id int64
	err := row.Scan(&id)
	return id, err
}

const listRecentActivities = `SELECT id, booth_id, action, subject, number, detail, actor, occurred_at
FROM queue_activities
WHERE booth_id = $1
ORDER BY occurred_at DESC, id DESC
LIMIT $2`

func (q *Queries) ListRecentActivities(ctx context.Context, boothID string, limit int32) ([]model.Activity, error) {
	rows, err := q.db.Query(ctx, listRecentActivities, boothID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Activity{}
	for rows.Next() {
		var i model.Activity
		if err := rows.Scan(
			&i.ID,
			&i.BoothID,
			&i.Action,
			&i.Subject,
			&i.Number,
			&i.Detail,
			&i.Actor,
			&i.OccurredAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

package sqlite

import (
	"context"
	"time"
)

type sessionRepo struct {
	db dbtx
}

func (r *sessionRepo) GetActiveUserID(ctx context.Context) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM session WHERE id = 1`).Scan(&userID)
	if err != nil {
		return "", mapNotFound(err)
	}
	return userID, nil
}

func (r *sessionRepo) SetActiveUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, user_id, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, updated_at = excluded.updated_at`,
		userID, time.Now().UTC(),
	)
	return err
}

func (r *sessionRepo) ClearActiveUser(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	return err
}

package postgres

import "context"

type sessionRepo struct {
	q querier
}

func (r *sessionRepo) GetActiveUserID(ctx context.Context) (string, error) {
	var userID string
	if err := r.q.QueryRow(ctx, `SELECT user_id FROM session WHERE id = 1`).Scan(&userID); err != nil {
		return "", mapNotFound(err)
	}
	return userID, nil
}

func (r *sessionRepo) SetActiveUserID(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO session (id, user_id, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, updated_at = EXCLUDED.updated_at`,
		userID,
	)
	return err
}

func (r *sessionRepo) ClearActiveUser(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DELETE FROM session WHERE id = 1`)
	return err
}

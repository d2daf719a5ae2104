package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"

	"github.com/jackc/pgx/v5"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, name, picture, password_hash, role, is_approved, approved_tools, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u     domain.User
		role  string
		tools []string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Picture, &u.PasswordHash,
		&role, &u.IsApproved, &tools, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.ApprovedTools = make([]domain.Tool, len(tools))
	for i, t := range tools {
		u.ApprovedTools[i] = domain.Tool(t)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Name, u.Picture, u.PasswordHash,
		string(u.Role), u.IsApproved, domain.ToolStrings(u.ApprovedTools), u.CreatedAt, u.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, picture string) error {
	return requireAffected(r.q.Exec(ctx,
		`UPDATE users SET name = $1, picture = $2, updated_at = NOW() WHERE id = $3`,
		name, picture, userID,
	))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return requireAffected(r.q.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		newHash, userID,
	))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return requireAffected(r.q.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`,
		string(role), userID,
	))
}

func (r *usersRepo) UpdateApproval(ctx context.Context, userID string, approved bool) error {
	return requireAffected(r.q.Exec(ctx,
		`UPDATE users SET is_approved = $1, updated_at = NOW() WHERE id = $2`,
		approved, userID,
	))
}

func (r *usersRepo) UpdateApprovedTools(ctx context.Context, userID string, tools []domain.Tool) error {
	return requireAffected(r.q.Exec(ctx,
		`UPDATE users SET approved_tools = $1, updated_at = NOW() WHERE id = $2`,
		domain.ToolStrings(tools), userID,
	))
}

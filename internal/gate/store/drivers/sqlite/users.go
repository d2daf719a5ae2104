package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, picture, password_hash, role, is_approved, approved_tools, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u     domain.User
		role  string
		tools string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Picture, &u.PasswordHash,
		&role, &u.IsApproved, &tools, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.ApprovedTools = splitTools(tools)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Picture, u.PasswordHash,
		string(u.Role), u.IsApproved, joinTools(u.ApprovedTools), u.CreatedAt, u.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, picture string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, picture = ?, updated_at = ? WHERE id = ?`,
		name, picture, time.Now().UTC(), userID,
	))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID,
	))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), userID,
	))
}

func (r *usersRepo) UpdateApproval(ctx context.Context, userID string, approved bool) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET is_approved = ?, updated_at = ? WHERE id = ?`,
		approved, time.Now().UTC(), userID,
	))
}

func (r *usersRepo) UpdateApprovedTools(ctx context.Context, userID string, tools []domain.Tool) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET approved_tools = ?, updated_at = ? WHERE id = ?`,
		joinTools(tools), time.Now().UTC(), userID,
	))
}

package postgres

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/internal/gate/store/drivers/postgres/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewStore(mock), mock
}

var userRowColumns = []string{
	"id", "email", "name", "picture", "password_hash", "role", "is_approved", "approved_tools", "created_at", "updated_at",
}

func TestUsers_GetUserByEmail(t *testing.T) {
	st, mock := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	rows := pgxmock.NewRows(userRowColumns).
		AddRow("01ID", "alice@example.com", "Alice", "", "hash", "user", true, []string{"SERP_PREVIEW"}, now, now)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "01ID", u.ID)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.IsApproved)
	assert.Equal(t, []domain.Tool{domain.ToolSERPPreview}, u.ApprovedTools)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_GetUserByID_NotFound(t *testing.T) {
	st, mock := setupStore(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.Users().GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_ListUsers(t *testing.T) {
	st, mock := setupStore(t)
	now := time.Now()

	rows := pgxmock.NewRows(userRowColumns).
		AddRow("01A", "admin@example.com", "", "", "hash", "admin", true, []string{}, now, now).
		AddRow("01B", "bob@example.com", "Bob", "", "", "user", false, []string{}, now, now)

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at, id`).WillReturnRows(rows)

	users, err := st.Users().ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "bob@example.com", users[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_CreateUser(t *testing.T) {
	u := domain.User{
		ID:            "01NEW",
		Email:         "new@example.com",
		Role:          domain.RoleUser,
		ApprovedTools: []domain.Tool{domain.ToolMetaTags},
	}

	t.Run("inserts", func(t *testing.T) {
		st, mock := setupStore(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(u.ID, u.Email, "", "", "", "user", false, []string{"META_TAGS"}, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, st.Users().CreateUser(context.Background(), u))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		st, mock := setupStore(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

		err := st.Users().CreateUser(context.Background(), u)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUsers_UpdateApproval(t *testing.T) {
	st, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE users SET is_approved = \$1`).
		WithArgs(true, "01A").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET is_approved = \$1`).
		WithArgs(true, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, st.Users().UpdateApproval(ctx, "01A", true))
	require.ErrorIs(t, st.Users().UpdateApproval(ctx, "missing", true), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession(t *testing.T) {
	st, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT user_id FROM session`).WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO session`).
		WithArgs("01A").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT user_id FROM session`).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("01A"))
	mock.ExpectExec(`DELETE FROM session`).WillReturnResult(pgxmock.NewResult("DELETE", 1))

	_, err := st.Session().GetActiveUserID(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Session().SetActiveUserID(ctx, "01A"))

	id, err := st.Session().GetActiveUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "01A", id)

	require.NoError(t, st.Session().ClearActiveUser(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		st, mock := setupStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET role = \$1`).
			WithArgs("admin", "01A").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := st.WithTx(context.Background(), func(tx store.Tx) error {
			return tx.Users().UpdateRole(context.Background(), "01A", domain.RoleAdmin)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		st, mock := setupStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := st.WithTx(context.Background(), func(tx store.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplyMigrations(t *testing.T) {
	t.Run("needs an opened pool", func(t *testing.T) {
		st, mock := setupStore(t)

		require.ErrorIs(t, st.ApplyMigrations(), ErrMigrationsNeedPool)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("embedded files pair up", func(t *testing.T) {
		entries, err := fs.ReadDir(migrations.Migrations, ".")
		require.NoError(t, err)

		var ups, downs []string
		for _, e := range entries {
			name := e.Name()
			switch {
			case strings.HasSuffix(name, ".up.sql"):
				ups = append(ups, strings.TrimSuffix(name, ".up.sql"))
			case strings.HasSuffix(name, ".down.sql"):
				downs = append(downs, strings.TrimSuffix(name, ".down.sql"))
			}
		}
		require.NotEmpty(t, ups)
		require.Equal(t, ups, downs)
	})
}

//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupContainerStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "toolgate_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/toolgate_test?sslmode=disable", host, port.Port())
	st, err := Open(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = st.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestIntegration_UsersAndSession(t *testing.T) {
	st := setupContainerStore(t)
	ctx := context.Background()

	// migrations are idempotent
	require.NoError(t, st.ApplyMigrations())

	u := domain.User{
		ID:            idx.New().String(),
		Email:         "alice@example.com",
		Role:          domain.RoleUser,
		ApprovedTools: []domain.Tool{domain.ToolContentBrief},
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateApproval(ctx, u.ID, true); err != nil {
			return err
		}
		return tx.Session().SetActiveUserID(ctx, u.ID)
	}))

	got, err := st.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, got.IsApproved)
	require.Equal(t, u.ApprovedTools, got.ApprovedTools)

	id, err := st.Session().GetActiveUserID(ctx)
	require.NoError(t, err)
	require.Equal(t, u.ID, id)

	require.NoError(t, st.Session().ClearActiveUser(ctx))
	_, err = st.Session().GetActiveUserID(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

//go:build e2e

package toolgate_test

import (
	"testing"

	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/stretchr/testify/require"
)

// TestApprovalLifecycle walks a new account from sign-up to using a granted
// tool, with the admin approving it in between.
func TestApprovalLifecycle(t *testing.T) {
	client := setupContainer(t)
	ctx := t.Context()

	sess, err := client.Signup(ctx, "worker@toolgate.test", "pw")
	require.NoError(t, err)
	require.Equal(t, gatesdk.ViewPendingApproval, sess.View)

	d, err := client.Decision(ctx, "META_TAGS")
	require.NoError(t, err)
	require.Equal(t, gatesdk.DecisionDeniedUnapproved, d.Decision)

	require.NoError(t, client.Logout(ctx))

	_, err = client.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	_, err = client.SetApproval(ctx, "worker@toolgate.test", true)
	require.NoError(t, err)
	granted, err := client.SetTools(ctx, "worker@toolgate.test", []string{"META_TAGS", "SERP_PREVIEW"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"META_TAGS", "SERP_PREVIEW"}, granted.ApprovedTools)

	require.NoError(t, client.Logout(ctx))

	sess, err = client.Login(ctx, "worker@toolgate.test", "pw")
	require.NoError(t, err)
	require.Equal(t, gatesdk.ViewAuthorized, sess.View)
	require.Equal(t, "META_TAGS", sess.Tool)

	sess, err = client.SelectTool(ctx, "CONTENT_GAP")
	require.NoError(t, err)
	require.Equal(t, gatesdk.ViewDenied, sess.View)

	_, err = client.ListUsers(ctx)
	require.ErrorIs(t, err, gatesdk.ErrAccessDenied)
}

func TestLogoutClearsSession(t *testing.T) {
	client := setupContainer(t)
	ctx := t.Context()

	_, err := client.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))

	sess, err := client.Session(ctx)
	require.NoError(t, err)
	require.Equal(t, gatesdk.ViewAnonymous, sess.View)
	require.Nil(t, sess.User)
}

func TestDuplicateSignup(t *testing.T) {
	client := setupContainer(t)
	ctx := t.Context()

	_, err := client.Signup(ctx, "dup@toolgate.test", "first")
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))

	_, err = client.Signup(ctx, "DUP@toolgate.test", "second")
	require.ErrorIs(t, err, gatesdk.ErrDuplicateAccount)

	_, err = client.Login(ctx, "dup@toolgate.test", "first")
	require.NoError(t, err)
}

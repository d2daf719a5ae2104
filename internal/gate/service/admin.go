package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// Admin panel operations. Callers are expected to have checked that the
// signed-in user is an admin.

func (s *IdentityService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

// SetApproval grants or revokes access to every tool for the account. The
// bootstrap admin cannot be unapproved.
func (s *IdentityService) SetApproval(ctx context.Context, email string, approved bool) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if !approved && email == domain.NormalizeEmail(s.Admin.Email) {
		return domain.User{}, ErrProtectedAccount
	}

	return s.updateUser(ctx, email, func(tx store.Tx, u domain.User) error {
		return tx.Users().UpdateApproval(ctx, u.ID, approved)
	}, slog.Bool("approved", approved))
}

// SetApprovedTools replaces the account's tool grants. Unknown ids reject
// the whole request.
func (s *IdentityService) SetApprovedTools(ctx context.Context, email string, ids []string) (domain.User, error) {
	tools, err := domain.ParseTools(ids)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrUnknownTool, err)
	}

	return s.updateUser(ctx, domain.NormalizeEmail(email), func(tx store.Tx, u domain.User) error {
		return tx.Users().UpdateApprovedTools(ctx, u.ID, tools)
	}, slog.Any("tools", domain.ToolStrings(tools)))
}

func (s *IdentityService) updateUser(
	ctx context.Context,
	email string,
	apply func(tx store.Tx, u domain.User) error,
	attrs ...any,
) (domain.User, error) {
	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if err := apply(tx, u); err != nil {
			return err
		}
		updated, err = tx.Users().GetUserByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, passThrough(err)
	}

	slogx.FromContext(ctx).Info("account updated by admin",
		append([]any{slog.String("user_id", updated.ID)}, attrs...)...,
	)
	return updated, nil
}

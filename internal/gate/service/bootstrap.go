package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

var errAdminEmailMissing = errors.New("bootstrap admin email is not configured")

// BootstrapAdmin makes sure the configured admin account exists with the
// admin role, is approved and, when a password is configured, verifies
// against it. It runs on every start and only writes what drifted.
//
// An account with the admin email that was created by ordinary sign-up is
// adopted and promoted.
func (s *IdentityService) BootstrapAdmin(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	email := domain.NormalizeEmail(s.Admin.Email)
	if email == "" {
		return errAdminEmailMissing
	}

	// Password hashing failures are not store failures and must not be
	// reported as one.
	var credErr error
	hashAdminPassword := func() (string, error) {
		hash, err := cryptox.HashPassword(s.Admin.Password)
		if err != nil {
			credErr = fmt.Errorf("hash admin password: %w", err)
			return "", credErr
		}
		return hash, nil
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return s.createAdmin(ctx, tx, email, hashAdminPassword)
		}
		if err != nil {
			return err
		}

		if !u.IsAdmin() {
			l.Warn("promoting existing account to bootstrap admin",
				slog.String("user_id", u.ID),
				slog.String("email", email),
			)
			if err := tx.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin); err != nil {
				return err
			}
		}

		if !u.IsApproved {
			l.Warn("reconciled bootstrap admin", slog.String("field", "is_approved"))
			if err := tx.Users().UpdateApproval(ctx, u.ID, true); err != nil {
				return err
			}
		}

		if s.Admin.Password == "" {
			return nil
		}
		err = cryptox.VerifyPassword(s.Admin.Password, u.PasswordHash)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, cryptox.ErrPasswordMismatch), errors.Is(err, cryptox.ErrMalformedHash):
			// stale, missing or unreadable hash: replace it below
		default:
			credErr = fmt.Errorf("verify admin password: %w", err)
			return credErr
		}

		hash, err := hashAdminPassword()
		if err != nil {
			return err
		}
		l.Warn("reconciled bootstrap admin", slog.String("field", "password_hash"))
		return tx.Users().UpdatePasswordHash(ctx, u.ID, hash)
	})
	if credErr != nil {
		l.Error("bootstrap admin password could not be processed", slog.Any("error", credErr))
		return credErr
	}
	if err != nil {
		l.Error("bootstrap admin reconciliation failed", slog.Any("error", err))
		return storageErr(err)
	}
	return nil
}

func (s *IdentityService) createAdmin(
	ctx context.Context,
	tx store.Tx,
	email string,
	hashPassword func() (string, error),
) error {
	var hash string
	if s.Admin.Password != "" {
		var err error
		if hash, err = hashPassword(); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:            idx.New().String(),
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleAdmin,
		IsApproved:    true,
		ApprovedTools: []domain.Tool{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Users().CreateUser(ctx, u); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("created bootstrap admin",
		slog.String("user_id", u.ID),
		slog.String("email", email),
		slog.Bool("password_login", hash != ""),
	)
	return nil
}

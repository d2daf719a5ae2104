package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/oauth"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// IdentityService is the only writer of the credential store. It turns
// sign-up, sign-in and external identities into User records and keeps the
// active session pointer current.
type IdentityService struct {
	Store   store.Store
	Admin   domain.AdminConfig
	Decoder oauth.Decoder // nil disables external sign-in
}

func (s *IdentityService) Signup(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:            idx.New().String(),
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleUser,
		ApprovedTools: []domain.Tool{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return ErrDuplicateAccount
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateAccount
			}
			return err
		}
		return tx.Session().SetActiveUserID(ctx, u.ID)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			l.Info("signup rejected, email taken", slog.String("email", email))
		} else {
			l.Error("signup failed", slog.String("email", email), slog.Any("error", err))
		}
		return domain.User{}, passThrough(err)
	}

	l.Info("account created", slog.String("user_id", u.ID), slog.String("email", email))
	return u, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		l.Error("failed to load account", slog.Any("error", err))
		return domain.User{}, storageErr(err)
	}

	// external-identity accounts have no password to check
	if !u.HasPassword() {
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("password verification failed",
				slog.String("user_id", u.ID),
				slog.Any("error", err),
			)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	if err := s.Store.Session().SetActiveUserID(ctx, u.ID); err != nil {
		l.Error("failed to set session", slog.Any("error", err))
		return domain.User{}, storageErr(err)
	}

	l.Info("signed in", slog.String("user_id", u.ID))
	return u, nil
}

// UpsertFromExternalIdentity signs in the subject of an identity provider
// token, creating a pending account on first sight. Returning users only get
// their display name and picture refreshed; role, approval and tool grants
// are never touched here.
func (s *IdentityService) UpsertFromExternalIdentity(ctx context.Context, token string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if s.Decoder == nil {
		return domain.User{}, fmt.Errorf("%w: external sign-in is not configured", ErrInvalidExternalToken)
	}

	ident, err := s.Decoder.Decode(ctx, token)
	if err != nil {
		l.Info("external token rejected", slog.Any("error", err))
		return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidExternalToken, err)
	}

	email := domain.NormalizeEmail(ident.Email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: no email", ErrInvalidExternalToken)
	}

	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			now := time.Now().UTC()
			u = domain.User{
				ID:            idx.New().String(),
				Email:         email,
				Name:          ident.Name,
				Picture:       ident.Picture,
				Role:          domain.RoleUser,
				ApprovedTools: []domain.Tool{},
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
			l.Info("account created from external identity",
				slog.String("user_id", u.ID),
				slog.String("email", email),
			)

		case err != nil:
			return err

		default:
			u = existing
			name, picture := u.Name, u.Picture
			if ident.Name != "" {
				name = ident.Name
			}
			if ident.Picture != "" {
				picture = ident.Picture
			}
			if name != u.Name || picture != u.Picture {
				if err := tx.Users().UpdateProfile(ctx, u.ID, name, picture); err != nil {
					return err
				}
				u.Name, u.Picture = name, picture
			}
		}

		return tx.Session().SetActiveUserID(ctx, u.ID)
	})
	if err != nil {
		l.Error("external sign-in failed", slog.String("email", email), slog.Any("error", err))
		return domain.User{}, passThrough(err)
	}

	l.Info("signed in with external identity", slog.String("user_id", u.ID))
	return u, nil
}

// Logout clears the session pointer. It is a no-op when nobody is signed in.
func (s *IdentityService) Logout(ctx context.Context) error {
	if err := s.Store.Session().ClearActiveUser(ctx); err != nil {
		slogx.FromContext(ctx).Error("failed to clear session", slog.Any("error", err))
		return storageErr(err)
	}
	return nil
}

// CurrentUser resolves the session pointer. A malformed pointer, or one to a
// record that no longer exists, reads as signed out.
func (s *IdentityService) CurrentUser(ctx context.Context) (domain.User, bool, error) {
	l := slogx.FromContext(ctx)

	userID, err := s.Store.Session().GetActiveUserID(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, storageErr(err)
	}

	// every account is keyed by a ULID, anything else is a corrupt row
	id, err := idx.Parse(userID)
	if err != nil {
		l.Warn("session pointer is not an account id", slog.String("user_id", userID))
		return domain.User{}, false, nil
	}

	u, err := s.Store.Users().GetUserByID(ctx, id.String())
	if errors.Is(err, store.ErrNotFound) {
		l.Warn("session points at a missing account", slog.String("user_id", userID))
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, storageErr(err)
	}
	return u, true, nil
}

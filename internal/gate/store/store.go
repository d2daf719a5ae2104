package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so that code
// holding a Tx cannot accidentally open a second transaction.
type Store interface {
	Users() Users
	Session() Session

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every account ordered by creation time.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A
	// duplicate email returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// The update methods bump updated_at and return ErrNotFound when no row
	// matches userID.
	UpdateProfile(ctx context.Context, userID, name, picture string) error
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	UpdateApproval(ctx context.Context, userID string, approved bool) error
	UpdateApprovedTools(ctx context.Context, userID string, tools []domain.Tool) error
}

// Session persists the single active-user pointer.
type Session interface {
	// GetActiveUserID returns ErrNotFound when nobody is signed in.
	GetActiveUserID(ctx context.Context) (string, error)
	SetActiveUserID(ctx context.Context, userID string) error
	ClearActiveUser(ctx context.Context) error
}

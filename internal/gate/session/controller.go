// Package session holds the signed-in user and active tool for the process
// and derives what the front-end should render from them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/toolgate/internal/gate/authz"
	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

var (
	ErrOperationInProgress = errors.New("another sign-in or sign-out is in progress")
	ErrNoSession           = errors.New("no user is signed in")
)

type State string

const (
	Anonymous       State = "anonymous"
	PendingApproval State = "pending_approval"
	Authorized      State = "authorized"
	Denied          State = "denied"
)

// View is what the front-end renders. User is nil when Anonymous.
type View struct {
	State State
	Tool  domain.Tool
	User  *domain.User
}

// Identity is the part of service.IdentityService the controller drives.
type Identity interface {
	BootstrapAdmin(ctx context.Context) error
	Signup(ctx context.Context, email, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	UpsertFromExternalIdentity(ctx context.Context, token string) (domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.User, bool, error)
}

// Controller owns the view state. Auth commands are not re-entrant: one
// issued while another is running fails with ErrOperationInProgress rather
// than queueing behind it.
type Controller struct {
	identity Identity

	op sync.Mutex // held for the duration of an auth command

	mu   sync.RWMutex
	user *domain.User
	tool domain.Tool
}

func NewController(identity Identity) *Controller {
	return &Controller{
		identity: identity,
		tool:     domain.DefaultTool(),
	}
}

// Start reconciles the bootstrap admin and restores the persisted session.
// Any error is fatal to startup.
func (c *Controller) Start(ctx context.Context) error {
	return c.exclusive(func() error {
		if err := c.identity.BootstrapAdmin(ctx); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}

		u, ok, err := c.identity.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		if ok {
			c.signedIn(u)
			slogx.FromContext(ctx).Info("restored session", slog.String("user_id", u.ID))
		} else {
			c.signedOut()
		}
		return nil
	})
}

func (c *Controller) Signup(ctx context.Context, email, password string) (View, error) {
	return c.signIn(func() (domain.User, error) {
		return c.identity.Signup(ctx, email, password)
	})
}

func (c *Controller) Login(ctx context.Context, email, password string) (View, error) {
	return c.signIn(func() (domain.User, error) {
		return c.identity.Login(ctx, email, password)
	})
}

func (c *Controller) LoginWithExternalIdentity(ctx context.Context, token string) (View, error) {
	return c.signIn(func() (domain.User, error) {
		return c.identity.UpsertFromExternalIdentity(ctx, token)
	})
}

// Logout clears the session and resets the active tool to the default.
func (c *Controller) Logout(ctx context.Context) (View, error) {
	err := c.exclusive(func() error {
		if err := c.identity.Logout(ctx); err != nil {
			return err
		}
		c.signedOut()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return c.View(), nil
}

// Refresh reloads the signed-in user, picking up admin edits to the record.
// The active tool is kept.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	err := c.exclusive(func() error {
		u, ok, err := c.identity.CurrentUser(ctx)
		if err != nil {
			return err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if ok {
			c.user = &u
		} else {
			c.user = nil
			c.tool = domain.DefaultTool()
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return c.View(), nil
}

// SelectTool records t as the active tool and returns the resulting view.
// Selection is allowed whatever the decision; the view reports the denial.
func (c *Controller) SelectTool(t domain.Tool) (View, error) {
	if !t.Valid() {
		return View{}, fmt.Errorf("%w: %w", service.ErrUnknownTool, &domain.UnknownToolError{ID: string(t)})
	}

	c.mu.Lock()
	c.tool = t
	c.mu.Unlock()

	return c.View(), nil
}

// CanRenderTool is the render-time check for t.
func (c *Controller) CanRenderTool(t domain.Tool) (authz.Decision, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %w", service.ErrUnknownTool, &domain.UnknownToolError{ID: string(t)})
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return "", ErrNoSession
	}
	return decide(*c.user, t), nil
}

// CurrentUser returns a copy of the signed-in user.
func (c *Controller) CurrentUser() (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

func (c *Controller) ActiveTool() domain.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tool
}

func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{Tool: c.tool}
	if c.user == nil {
		v.State = Anonymous
		return v
	}

	u := *c.user
	v.User = &u

	switch decide(u, c.tool) {
	case authz.DeniedUnapproved:
		v.State = PendingApproval
	case authz.Allowed:
		v.State = Authorized
	default:
		v.State = Denied
	}
	return v
}

// decide wraps the evaluator with the render-boundary rule that the admin
// panel is only ever shown to admins.
func decide(u domain.User, t domain.Tool) authz.Decision {
	d := authz.Evaluate(u, t)
	if t == domain.ToolAdminPanel && d == authz.Allowed && !u.IsAdmin() {
		return authz.DeniedNoPermission
	}
	return d
}

func (c *Controller) signIn(fn func() (domain.User, error)) (View, error) {
	err := c.exclusive(func() error {
		u, err := fn()
		if err != nil {
			return err
		}
		c.signedIn(u)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return c.View(), nil
}

// exclusive runs fn unless another auth command holds the lock.
func (c *Controller) exclusive(fn func() error) error {
	if !c.op.TryLock() {
		return ErrOperationInProgress
	}
	defer c.op.Unlock()
	return fn()
}

// signedIn lands admins on the admin panel and everyone else on the default
// tool.
func (c *Controller) signedIn(u domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = &u
	if u.IsAdmin() {
		c.tool = domain.ToolAdminPanel
	} else {
		c.tool = domain.DefaultTool()
	}
}

func (c *Controller) signedOut() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = nil
	c.tool = domain.DefaultTool()
}

// Package session owns the published session and user state. Nothing else
// in the SDK mutates it: presentation collaborators call the orchestrator's
// surface and subscribe to the user-state stream, data collaborators only
// ever observe the token store it maintains.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/progalaxyelabs/stonescript-auth-go/backend"
	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
	"github.com/progalaxyelabs/stonescript-auth-go/tokens"
)

// Orchestrator is the sole mutator of session state. It moves between two
// states, signed out (initial) and signed in, and sets the flag explicitly
// on every transition.
type Orchestrator struct {
	mu       sync.Mutex
	user     *domain.User
	signedIn bool

	backend backend.AuthBackend
	tokens  *tokens.Store
	durable storage.Store
	state   *UserState
	logger  log.Logger
}

// NewOrchestrator builds the orchestrator and rehydrates the last-known
// user snapshot from durable storage. The snapshot is published but the
// session stays signed out until CheckSession or an auth operation
// confirms it.
func NewOrchestrator(ab backend.AuthBackend, ts *tokens.Store, durable storage.Store, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	o := &Orchestrator{
		backend: ab,
		tokens:  ts,
		durable: durable,
		state:   NewUserState(),
		logger:  logger,
	}
	if snapshot, ok := durable.Get(storage.KeyUser); ok {
		var u domain.User
		if err := json.Unmarshal([]byte(snapshot), &u); err == nil {
			o.user = &u
			o.state.Set(o.user)
		} else {
			logger.Warn(context.Background(), "discarding corrupt persisted user snapshot", map[string]any{"error": err.Error()})
		}
	}
	return o
}

// LoginWithEmail authenticates with email and password.
func (o *Orchestrator) LoginWithEmail(ctx context.Context, email, password string) domain.AuthResult {
	res := o.backend.Login(ctx, email, password)
	if res.Success {
		o.applySuccess(ctx, res)
	}
	return res
}

// LoginWithProvider runs a social login flow through the backend's popup
// capability.
func (o *Orchestrator) LoginWithProvider(ctx context.Context, provider string, opts backend.ProviderOptions) domain.AuthResult {
	res := o.backend.LoginWithProvider(ctx, provider, opts)
	if res.Success {
		o.applySuccess(ctx, res)
	}
	return res
}

// Register creates an account. When registration signs the user straight
// in, the session transitions like a login; a verification-pending result
// leaves the session signed out.
func (o *Orchestrator) Register(ctx context.Context, email, password, displayName string) domain.AuthResult {
	res := o.backend.Register(ctx, email, password, displayName)
	if res.Success && res.AccessToken != "" {
		o.applySuccess(ctx, res)
	}
	return res
}

// Signout tells the backend to invalidate the session and clears local
// state regardless of the server outcome.
func (o *Orchestrator) Signout(ctx context.Context) {
	refresh := o.tokens.Refresh()
	o.backend.Logout(ctx, refresh)
	o.signOut(ctx, "signout")
}

// CheckSession establishes the session state on startup. A held token
// short-circuits to signed in without a network call; otherwise the
// backend's credential-bearing probe decides. It never fails hard: a
// failing probe just leaves the session signed out.
func (o *Orchestrator) CheckSession(ctx context.Context) bool {
	if o.tokens.HasValid() {
		o.mu.Lock()
		o.signedIn = true
		user := o.user
		o.mu.Unlock()
		o.state.Set(user)
		return true
	}

	res := o.backend.CheckSession(ctx)
	if !res.Success {
		o.signOut(ctx, "session probe failed")
		return false
	}
	o.applySuccess(ctx, res)
	return true
}

// Refresh exchanges the held credentials for a fresh access token. It is
// called by the request executor after a 401. Failure is terminal for the
// session: tokens and user are cleared and the state transitions to signed
// out, so the false return must be treated as authentication required.
//
// Concurrent callers each trigger their own backend refresh; calls are not
// coalesced. Each either succeeds with an equivalent-or-newer token or
// fails safely.
func (o *Orchestrator) Refresh(ctx context.Context) bool {
	newToken, ok := o.backend.Refresh(ctx, o.tokens.Access(), o.tokens.Refresh())
	if !ok {
		o.signOut(ctx, "refresh failed")
		return false
	}
	o.tokens.SetAccess(newToken)
	o.mu.Lock()
	o.signedIn = true
	o.mu.Unlock()
	return true
}

// SelectTenant exchanges the session's access token for a tenant-scoped
// one.
func (o *Orchestrator) SelectTenant(ctx context.Context, tenantID string) domain.AuthResult {
	res := o.backend.SelectTenant(ctx, o.tokens.Access(), tenantID)
	if res.Success && res.AccessToken != "" {
		o.tokens.SetAccess(res.AccessToken)
	}
	return res
}

// Memberships lists the tenants the signed-in user belongs to.
func (o *Orchestrator) Memberships(ctx context.Context) ([]domain.TenantMembership, error) {
	return o.backend.ListMemberships(ctx, o.tokens.Access())
}

// IsAuthenticated reports the current session state.
func (o *Orchestrator) IsAuthenticated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.signedIn
}

// CurrentUser returns the published user, nil when signed out.
func (o *Orchestrator) CurrentUser() *domain.User {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.user
}

// Subscribe returns the published user-state stream. A nil user signals
// signed out, which is also the sign-out broadcast route guards react to.
func (o *Orchestrator) Subscribe() (<-chan *domain.User, func()) {
	return o.state.Subscribe()
}

// applySuccess is the signed-in transition: seed tokens, replace the user
// wholesale, persist the snapshot, publish.
func (o *Orchestrator) applySuccess(ctx context.Context, res domain.AuthResult) {
	if res.AccessToken != "" {
		o.tokens.SetAccess(res.AccessToken)
	}
	if res.RefreshToken != "" {
		o.tokens.SetRefresh(res.RefreshToken)
	}

	o.mu.Lock()
	o.user = res.User
	o.signedIn = true
	user := o.user
	o.mu.Unlock()

	if user != nil {
		if snapshot, err := json.Marshal(user); err == nil {
			if err := o.durable.Set(storage.KeyUser, string(snapshot)); err != nil {
				o.logger.Warn(ctx, "failed to persist user snapshot", map[string]any{"error": err.Error()})
			}
		}
	}
	o.state.Set(user)
}

// signOut is the signed-out transition: clear everything, publish nil.
func (o *Orchestrator) signOut(ctx context.Context, reason string) {
	o.tokens.Clear()

	o.mu.Lock()
	o.user = nil
	o.signedIn = false
	o.mu.Unlock()

	if err := o.durable.Delete(storage.KeyUser); err != nil {
		o.logger.Warn(ctx, "failed to clear persisted user snapshot", map[string]any{"error": err.Error()})
	}
	o.logger.Debug(ctx, "session signed out", map[string]any{"reason": reason})
	o.state.Set(nil)
}

// Package backend defines the capability contract a backend adapter must
// satisfy and ships the built-in REST implementation. Everything above this
// package sees normalized results only; wire formats stay in here.
package backend

import (
	"context"

	"github.com/progalaxyelabs/stonescript-auth-go/domain"
)

// Capabilities flags the optional operations an adapter supports. Callers
// presence-check these instead of probing; an unsupported call returns a
// graceful failure value, never an error.
type Capabilities struct {
	OAuthPopup         bool
	Tenants            bool
	TenantRegistration bool
	SlugAvailability   bool
	Onboarding         bool
	MultiServer        bool
}

// ProviderOptions parameterizes a social login flow.
type ProviderOptions struct {
	// ServerName targets a specific declared server; empty uses the
	// resolution chain.
	ServerName string
	// Action, when set to "register_tenant", asks the provider flow to
	// create a tenant named TenantName on completion.
	Action     string
	TenantName string
}

// TenantRegistration carries the fields for registering a new tenant
// together with its owning user.
type TenantRegistration struct {
	TenantName  string `json:"tenant_name"`
	TenantSlug  string `json:"tenant_slug"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// OnboardingStatus reports where a freshly registered user is in the
// onboarding funnel.
type OnboardingStatus struct {
	NeedsOnboarding bool   `json:"needs_onboarding"`
	Step            string `json:"step,omitempty"`
}

// PopupFlow is the cross-window OAuth correlation mechanism. The popup
// bridge implements it; adapters that support social login hold one.
type PopupFlow interface {
	Authorize(ctx context.Context, provider string, opts ProviderOptions) domain.AuthResult
}

// AuthBackend hides one backend's wire semantics behind a fixed surface.
//
// The first five operations are required. The rest are optional: consult
// Capabilities before relying on them, and expect an "unsupported" result
// value (or empty data) from adapters that do not implement them.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) domain.AuthResult
	Register(ctx context.Context, email, password, displayName string) domain.AuthResult
	Logout(ctx context.Context, refreshToken string) domain.AuthResult
	CheckSession(ctx context.Context) domain.AuthResult
	// Refresh exchanges the held credentials for a new access token. The
	// boolean is false when no token could be obtained; callers must treat
	// that as authentication required.
	Refresh(ctx context.Context, accessToken, refreshToken string) (string, bool)

	Capabilities() Capabilities

	LoginWithProvider(ctx context.Context, provider string, opts ProviderOptions) domain.AuthResult
	SelectTenant(ctx context.Context, accessToken, tenantID string) domain.AuthResult
	ListMemberships(ctx context.Context, accessToken string) ([]domain.TenantMembership, error)
	RegisterTenant(ctx context.Context, reg TenantRegistration) domain.AuthResult
	SlugAvailable(ctx context.Context, slug string) (bool, error)
	CheckOnboarding(ctx context.Context, accessToken string) (OnboardingStatus, error)
	SwitchServer(name string) error
	ActiveServer() string
}

// UnsupportedBackend supplies graceful stubs for every optional operation.
// Adapters embed it and override what they actually support.
type UnsupportedBackend struct{}

func (UnsupportedBackend) Capabilities() Capabilities { return Capabilities{} }

func (UnsupportedBackend) LoginWithProvider(context.Context, string, ProviderOptions) domain.AuthResult {
	return domain.UnsupportedResult("social login")
}

func (UnsupportedBackend) SelectTenant(context.Context, string, string) domain.AuthResult {
	return domain.UnsupportedResult("tenant selection")
}

func (UnsupportedBackend) ListMemberships(context.Context, string) ([]domain.TenantMembership, error) {
	return nil, nil
}

func (UnsupportedBackend) RegisterTenant(context.Context, TenantRegistration) domain.AuthResult {
	return domain.UnsupportedResult("tenant registration")
}

func (UnsupportedBackend) SlugAvailable(context.Context, string) (bool, error) {
	return false, nil
}

func (UnsupportedBackend) CheckOnboarding(context.Context, string) (OnboardingStatus, error) {
	return OnboardingStatus{}, nil
}

func (UnsupportedBackend) SwitchServer(string) error { return nil }

func (UnsupportedBackend) ActiveServer() string { return "" }

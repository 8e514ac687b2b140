package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/progalaxyelabs/stonescript-auth-go/browser"
	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
)

// Paths are the endpoint paths the built-in adapter calls, relative to the
// resolved server base URL.
type Paths struct {
	Login         string
	Register      string
	Logout        string
	Session       string
	SelectTenant  string
	Memberships   string
	SlugAvailable string
	Onboarding    string
}

func (p Paths) withDefaults() Paths {
	if p.Login == "" {
		p.Login = "/api/auth/login"
	}
	if p.Register == "" {
		p.Register = "/api/auth/register"
	}
	if p.Logout == "" {
		p.Logout = "/api/auth/logout"
	}
	if p.Session == "" {
		p.Session = "/api/auth/session"
	}
	if p.SelectTenant == "" {
		p.SelectTenant = "/api/auth/select-tenant"
	}
	if p.Memberships == "" {
		p.Memberships = "/api/auth/memberships"
	}
	if p.SlugAvailable == "" {
		p.SlugAvailable = "/api/auth/slug-available"
	}
	if p.Onboarding == "" {
		p.Onboarding = "/api/auth/onboarding-status"
	}
	return p
}

// RESTConfig configures the built-in adapter.
type RESTConfig struct {
	Mode     domain.AuthModeConfig
	FieldMap FieldMap
	Paths    Paths
	// Platform is sent with login and register bodies so the backend can
	// tell client families apart.
	Platform string
	// PlatformAPIURL is the absolute base for tenant registration; tenant
	// registration is unsupported when empty.
	PlatformAPIURL string
}

// RESTBackend is the built-in AuthBackend over a JSON/REST dialect. All
// response fields are located through the FieldMap, so one implementation
// serves differently shaped envelopes.
type RESTBackend struct {
	http     *http.Client
	registry *registry.Registry
	csrf     *browser.CsrfReader
	popup    PopupFlow
	mode     domain.AuthModeConfig
	fields   FieldMap
	paths    Paths
	platform string
	platAPI  string
	logger   log.Logger
}

// NewRESTBackend builds the adapter. httpClient should carry a cookie jar
// when cookie-mode refresh is used; popup may be nil for hosts without a
// popup-capable environment.
func NewRESTBackend(
	httpClient *http.Client,
	reg *registry.Registry,
	csrf *browser.CsrfReader,
	popup PopupFlow,
	cfg RESTConfig,
	logger log.Logger,
) *RESTBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &RESTBackend{
		http:     httpClient,
		registry: reg,
		csrf:     csrf,
		popup:    popup,
		mode:     cfg.Mode.WithDefaults(),
		fields:   cfg.FieldMap.withDefaults(),
		paths:    cfg.Paths.withDefaults(),
		platform: cfg.Platform,
		platAPI:  cfg.PlatformAPIURL,
		logger:   logger,
	}
}

// Capabilities implements AuthBackend.
func (b *RESTBackend) Capabilities() Capabilities {
	return Capabilities{
		OAuthPopup:         b.popup != nil,
		Tenants:            true,
		TenantRegistration: b.platAPI != "",
		SlugAvailability:   true,
		Onboarding:         true,
		MultiServer:        len(b.registry.Servers()) > 1,
	}
}

// Login implements AuthBackend.
func (b *RESTBackend) Login(ctx context.Context, email, password string) domain.AuthResult {
	body := map[string]string{"email": email, "password": password, "platform": b.platform}
	resp, err := b.call(ctx, http.MethodPost, b.paths.Login, body, "", nil)
	if err != nil {
		return domain.FailedResult(err.Error())
	}
	return b.parseAuthResult(resp, "login failed")
}

// Register implements AuthBackend.
func (b *RESTBackend) Register(ctx context.Context, email, password, displayName string) domain.AuthResult {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
		"platform":     b.platform,
	}
	resp, err := b.call(ctx, http.MethodPost, b.paths.Register, body, "", nil)
	if err != nil {
		return domain.FailedResult(err.Error())
	}
	return b.parseAuthResult(resp, "registration failed")
}

// Logout implements AuthBackend. A transport failure still reports success
// to the caller's session teardown; the server session will age out.
func (b *RESTBackend) Logout(ctx context.Context, refreshToken string) domain.AuthResult {
	body := map[string]string{}
	if refreshToken != "" {
		body["refresh_token"] = refreshToken
	}
	if _, err := b.call(ctx, http.MethodPost, b.paths.Logout, body, "", nil); err != nil {
		b.logger.Warn(ctx, "server logout failed, clearing local session anyway", map[string]any{"error": err.Error()})
	}
	return domain.AuthResult{Success: true}
}

// CheckSession implements AuthBackend: a credential-bearing probe that
// reports whether the ambient session is still live.
func (b *RESTBackend) CheckSession(ctx context.Context) domain.AuthResult {
	resp, err := b.call(ctx, http.MethodGet, b.paths.Session, nil, "", nil)
	if err != nil {
		return domain.FailedResult(err.Error())
	}
	return b.parseAuthResult(resp, "no active session")
}

// Refresh implements AuthBackend. In cookie mode the refresh token rides as
// an httpOnly cookie and only a CSRF header is sent; in body mode the held
// tokens are sent explicitly. Both modes abort before any network call when
// their precondition is missing.
func (b *RESTBackend) Refresh(ctx context.Context, accessToken, refreshToken string) (string, bool) {
	switch b.mode.Mode {
	case domain.AuthModeCookie:
		return b.refreshCookie(ctx)
	case domain.AuthModeBody:
		return b.refreshBody(ctx, accessToken, refreshToken)
	default:
		return "", false
	}
}

func (b *RESTBackend) refreshCookie(ctx context.Context) (string, bool) {
	headers := map[string]string{}
	if b.mode.CSRFRequired() {
		token, ok := b.csrfToken()
		if !ok {
			b.logger.Warn(ctx, "refresh aborted: csrf token required but not present", map[string]any{
				"cookie": b.mode.CSRFCookieName,
			})
			return "", false
		}
		headers[b.mode.CSRFHeaderName] = token
	}

	resp, err := b.call(ctx, http.MethodPost, b.mode.RefreshPath, nil, "", headers)
	if err != nil {
		b.logger.Warn(ctx, "cookie refresh call failed", map[string]any{"error": err.Error()})
		return "", false
	}
	return b.extractRefreshedToken(resp)
}

func (b *RESTBackend) refreshBody(ctx context.Context, accessToken, refreshToken string) (string, bool) {
	if refreshToken == "" {
		b.logger.Debug(ctx, "refresh aborted: no refresh token held")
		return "", false
	}
	body := map[string]string{"access_token": accessToken, "refresh_token": refreshToken}
	resp, err := b.call(ctx, http.MethodPost, b.mode.RefreshPath, body, "", nil)
	if err != nil {
		b.logger.Warn(ctx, "body refresh call failed", map[string]any{"error": err.Error()})
		return "", false
	}
	return b.extractRefreshedToken(resp)
}

func (b *RESTBackend) extractRefreshedToken(resp *callResult) (string, bool) {
	if resp.status < 200 || resp.status >= 300 || !b.fields.IsSuccess(resp.body) {
		return "", false
	}
	token := b.fields.GetAccessToken(resp.body)
	if token == "" {
		return "", false
	}
	return token, true
}

func (b *RESTBackend) csrfToken() (string, bool) {
	if b.csrf == nil {
		return "", false
	}
	return b.csrf.Read(b.mode.CSRFCookieName)
}

// LoginWithProvider implements AuthBackend by delegating to the popup flow.
func (b *RESTBackend) LoginWithProvider(ctx context.Context, provider string, opts ProviderOptions) domain.AuthResult {
	if b.popup == nil {
		return domain.UnsupportedResult("social login")
	}
	return b.popup.Authorize(ctx, provider, opts)
}

// SelectTenant implements AuthBackend.
func (b *RESTBackend) SelectTenant(ctx context.Context, accessToken, tenantID string) domain.AuthResult {
	body := map[string]string{"tenant_id": tenantID}
	resp, err := b.call(ctx, http.MethodPost, b.paths.SelectTenant, body, accessToken, nil)
	if err != nil {
		return domain.FailedResult(err.Error())
	}
	return b.parseAuthResult(resp, "tenant selection failed")
}

// ListMemberships implements AuthBackend.
func (b *RESTBackend) ListMemberships(ctx context.Context, accessToken string) ([]domain.TenantMembership, error) {
	resp, err := b.call(ctx, http.MethodGet, b.paths.Memberships, nil, accessToken, nil)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, fmt.Errorf("memberships request failed with status %d", resp.status)
	}

	var memberships []domain.TenantMembership
	for _, item := range gjson.GetBytes(resp.body, b.fields.Memberships).Array() {
		m := domain.TenantMembership{Role: item.Get("role").String()}
		if tenant := item.Get("tenant"); tenant.IsObject() {
			m.Tenant = domain.Tenant{
				ID:   tenant.Get("id").String(),
				Name: tenant.Get("name").String(),
				Slug: tenant.Get("slug").String(),
			}
		} else {
			m.Tenant = domain.Tenant{
				ID:   item.Get("tenant_id").String(),
				Name: item.Get("tenant_name").String(),
				Slug: item.Get("tenant_slug").String(),
			}
		}
		memberships = append(memberships, m)
	}
	return memberships, nil
}

// RegisterTenant implements AuthBackend. The call goes to the platform API
// rather than the resolved auth server.
func (b *RESTBackend) RegisterTenant(ctx context.Context, reg TenantRegistration) domain.AuthResult {
	if b.platAPI == "" {
		return domain.UnsupportedResult("tenant registration")
	}
	resp, err := b.callAbsolute(ctx, http.MethodPost, b.platAPI+"/auth/register-tenant", reg, "", nil)
	if err != nil {
		return domain.FailedResult(err.Error())
	}
	return b.parseAuthResult(resp, "tenant registration failed")
}

// SlugAvailable implements AuthBackend.
func (b *RESTBackend) SlugAvailable(ctx context.Context, slug string) (bool, error) {
	path := b.paths.SlugAvailable + "?slug=" + url.QueryEscape(slug)
	resp, err := b.call(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return false, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return false, fmt.Errorf("slug availability request failed with status %d", resp.status)
	}
	return gjson.GetBytes(resp.body, b.fields.SlugAvailable).Bool(), nil
}

// CheckOnboarding implements AuthBackend.
func (b *RESTBackend) CheckOnboarding(ctx context.Context, accessToken string) (OnboardingStatus, error) {
	resp, err := b.call(ctx, http.MethodGet, b.paths.Onboarding, nil, accessToken, nil)
	if err != nil {
		return OnboardingStatus{}, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return OnboardingStatus{}, fmt.Errorf("onboarding request failed with status %d", resp.status)
	}
	node := gjson.GetBytes(resp.body, b.fields.Onboarding)
	return OnboardingStatus{
		NeedsOnboarding: node.Get("needs_onboarding").Bool(),
		Step:            node.Get("step").String(),
	}, nil
}

// SwitchServer implements AuthBackend.
func (b *RESTBackend) SwitchServer(name string) error {
	return b.registry.SwitchServer(name)
}

// ActiveServer implements AuthBackend.
func (b *RESTBackend) ActiveServer() string {
	return b.registry.Active()
}

// --- wire plumbing ---

type callResult struct {
	status int
	body   []byte
}

func (b *RESTBackend) call(ctx context.Context, method, path string, body any, bearer string, headers map[string]string) (*callResult, error) {
	base, err := b.registry.BaseURL("")
	if err != nil {
		return nil, err
	}
	return b.callAbsolute(ctx, method, base+path, body, bearer, headers)
}

func (b *RESTBackend) callAbsolute(ctx context.Context, method, absoluteURL string, body any, bearer string, headers map[string]string) (*callResult, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, absoluteURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &callResult{status: resp.StatusCode, body: data}, nil
}

// parseAuthResult maps a wire response onto the normalized AuthResult.
func (b *RESTBackend) parseAuthResult(resp *callResult, fallbackMsg string) domain.AuthResult {
	if resp.status >= 200 && resp.status < 300 && b.fields.IsSuccess(resp.body) {
		result := domain.AuthResult{
			Success:           true,
			AccessToken:       b.fields.GetAccessToken(resp.body),
			RefreshToken:      b.fields.GetRefreshToken(resp.body),
			NeedsVerification: b.fields.GetNeedsVerification(resp.body),
		}
		if userJSON := b.fields.GetUserJSON(resp.body); userJSON != nil {
			if user, err := domain.ParseUser(userJSON); err == nil {
				result.User = &user
			}
		}
		return result
	}
	return domain.FailedResult(b.fields.GetErrorMessage(resp.body, fallbackMsg))
}

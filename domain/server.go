package domain

// AuthServerDescriptor declares one named backend the client can talk to.
type AuthServerDescriptor struct {
	Name         string `json:"name" mapstructure:"name"`
	BaseURL      string `json:"base_url" mapstructure:"base_url"`
	JWKSEndpoint string `json:"jwks_endpoint,omitempty" mapstructure:"jwks_endpoint"`
	IsDefault    bool   `json:"is_default" mapstructure:"is_default"`
}

// AuthMode selects how the refresh token travels on refresh calls.
type AuthMode string

const (
	// AuthModeCookie keeps the refresh token in an httpOnly cookie; refresh
	// is a credentialed call carrying only a CSRF header.
	AuthModeCookie AuthMode = "cookie"
	// AuthModeBody sends access and refresh tokens in the request body.
	AuthModeBody AuthMode = "body"
	// AuthModeNone disables refresh entirely.
	AuthModeNone AuthMode = "none"
)

// AuthModeConfig configures the refresh transport for the built-in backend.
type AuthModeConfig struct {
	Mode           AuthMode `json:"mode" mapstructure:"mode"`
	RefreshPath    string   `json:"refresh_path,omitempty" mapstructure:"refresh_path"`
	CSRFEnabled    *bool    `json:"csrf_enabled,omitempty" mapstructure:"csrf_enabled"`
	CSRFCookieName string   `json:"csrf_cookie_name,omitempty" mapstructure:"csrf_cookie_name"`
	CSRFHeaderName string   `json:"csrf_header_name,omitempty" mapstructure:"csrf_header_name"`
}

// WithDefaults returns a copy with the mode-dependent defaults applied.
// Cookie mode refreshes via /auth/refresh with CSRF enabled; body mode via
// /user/refresh_access with CSRF off.
func (c AuthModeConfig) WithDefaults() AuthModeConfig {
	out := c
	if out.Mode == "" {
		out.Mode = AuthModeCookie
	}
	if out.RefreshPath == "" {
		switch out.Mode {
		case AuthModeCookie:
			out.RefreshPath = "/auth/refresh"
		case AuthModeBody:
			out.RefreshPath = "/user/refresh_access"
		}
	}
	if out.CSRFEnabled == nil {
		enabled := out.Mode == AuthModeCookie
		out.CSRFEnabled = &enabled
	}
	if out.CSRFCookieName == "" {
		out.CSRFCookieName = "csrf_token"
	}
	if out.CSRFHeaderName == "" {
		out.CSRFHeaderName = "X-CSRF-Token"
	}
	return out
}

// CSRFRequired reports whether refresh calls must carry a CSRF header.
func (c AuthModeConfig) CSRFRequired() bool {
	return c.CSRFEnabled != nil && *c.CSRFEnabled
}

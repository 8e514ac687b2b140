package backend

import "github.com/tidwall/gjson"

// FieldMap is a declarative description of where the interesting fields
// live inside a backend's JSON envelope, as gjson dot-paths. One REST
// adapter serves every dialect that can be described this way; no
// per-backend branching.
type FieldMap struct {
	Success           string
	AccessToken       string
	RefreshToken      string
	User              string
	ErrorMessage      string
	NeedsVerification string
	Memberships       string
	SlugAvailable     string
	Onboarding        string
}

// DefaultFieldMap matches the stock `{status:"ok", data:{...}}` envelope.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Success:           "status",
		AccessToken:       "data.access_token",
		RefreshToken:      "data.refresh_token",
		User:              "data.user",
		ErrorMessage:      "message",
		NeedsVerification: "data.needs_verification",
		Memberships:       "memberships",
		SlugAvailable:     "data.available",
		Onboarding:        "data",
	}
}

// withDefaults fills unset paths from the stock map so partial overrides
// stay usable.
func (m FieldMap) withDefaults() FieldMap {
	def := DefaultFieldMap()
	if m.Success == "" {
		m.Success = def.Success
	}
	if m.AccessToken == "" {
		m.AccessToken = def.AccessToken
	}
	if m.RefreshToken == "" {
		m.RefreshToken = def.RefreshToken
	}
	if m.User == "" {
		m.User = def.User
	}
	if m.ErrorMessage == "" {
		m.ErrorMessage = def.ErrorMessage
	}
	if m.NeedsVerification == "" {
		m.NeedsVerification = def.NeedsVerification
	}
	if m.Memberships == "" {
		m.Memberships = def.Memberships
	}
	if m.SlugAvailable == "" {
		m.SlugAvailable = def.SlugAvailable
	}
	if m.Onboarding == "" {
		m.Onboarding = def.Onboarding
	}
	return m
}

// IsSuccess evaluates the success flag. A boolean true, the strings "ok"
// and "success", and a numeric 1 all count as success, covering the
// dialects seen in the wild.
func (m FieldMap) IsSuccess(body []byte) bool {
	r := gjson.GetBytes(body, m.Success)
	switch r.Type {
	case gjson.True:
		return true
	case gjson.String:
		return r.Str == "ok" || r.Str == "success"
	case gjson.Number:
		return r.Num == 1
	default:
		return false
	}
}

// GetAccessToken extracts the access token, empty when absent.
func (m FieldMap) GetAccessToken(body []byte) string {
	return gjson.GetBytes(body, m.AccessToken).String()
}

// GetRefreshToken extracts the refresh token, empty when absent.
func (m FieldMap) GetRefreshToken(body []byte) string {
	return gjson.GetBytes(body, m.RefreshToken).String()
}

// GetUserJSON returns the raw user object, nil when absent.
func (m FieldMap) GetUserJSON(body []byte) []byte {
	r := gjson.GetBytes(body, m.User)
	if !r.Exists() || !r.IsObject() {
		return nil
	}
	return []byte(r.Raw)
}

// GetErrorMessage extracts the error message, falling back to the given
// default when the envelope carries none.
func (m FieldMap) GetErrorMessage(body []byte, fallback string) string {
	if msg := gjson.GetBytes(body, m.ErrorMessage).String(); msg != "" {
		return msg
	}
	return fallback
}

// GetNeedsVerification reports whether the envelope flags a pending email
// verification.
func (m FieldMap) GetNeedsVerification(body []byte) bool {
	return gjson.GetBytes(body, m.NeedsVerification).Bool()
}

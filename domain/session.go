package domain

// Session is the published authentication state. SignedIn is set explicitly
// on every transition by the session orchestrator rather than derived from
// the token fields.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
	SignedIn     bool   `json:"signed_in"`
}

package domain

// AuthResult is the normalized outcome of every auth operation. Failures
// are values: a false Success with a Message, never a panic or a Go error.
type AuthResult struct {
	Success           bool    `json:"success"`
	AccessToken       string  `json:"access_token,omitempty"`
	RefreshToken      string  `json:"refresh_token,omitempty"`
	User              *User   `json:"user,omitempty"`
	Tenant            *Tenant `json:"tenant,omitempty"`
	Message           string  `json:"message,omitempty"`
	NeedsVerification bool    `json:"needs_verification,omitempty"`
}

// Tenant is an organization-scoped context a user can select into.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// TenantMembership pairs a tenant with the caller's role in it.
type TenantMembership struct {
	Tenant Tenant `json:"tenant"`
	Role   string `json:"role,omitempty"`
}

// FailedResult builds a failure outcome with the given message.
func FailedResult(message string) AuthResult {
	return AuthResult{Success: false, Message: message}
}

// UnsupportedResult is the graceful outcome for optional operations the
// active backend does not implement.
func UnsupportedResult(operation string) AuthResult {
	return AuthResult{Success: false, Message: operation + " is not supported by this auth backend"}
}

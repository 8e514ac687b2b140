package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// User is the normalized account identity published to the application.
// All fields are populated after normalization, even when the backend
// omitted some of them.
type User struct {
	NumericID     int    `json:"numeric_id"`
	StringID      string `json:"string_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	PhotoURL      string `json:"photo_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// RawUser mirrors the user object as backends send it. Optional fields are
// pointers so absence can be told apart from the zero value.
//
//nolint:tagliatelle
type RawUser struct {
	UserID        *int64  `json:"user_id,omitempty"`
	ID            *string `json:"id,omitempty"`
	Email         string  `json:"email"`
	DisplayName   *string `json:"display_name,omitempty"`
	PhotoURL      *string `json:"photo_url,omitempty"`
	EmailVerified *bool   `json:"is_email_verified,omitempty"`
}

// HashUUID maps a string id onto a stable non-negative number. The exact
// arithmetic is load-bearing: identities synthesized from string ids must
// hash identically across sessions and across client implementations.
func HashUUID(s string) int {
	var acc int32
	for _, c := range s {
		acc = acc*31 - acc + int32(c)
	}
	h := int(acc)
	if h < 0 {
		h = -h
	}
	return h
}

// NormalizeUser fills every User field from whatever subset the backend
// provided. Missing numeric and string ids are synthesized from each other,
// a missing display name falls back to the email's local part, and a
// missing verification flag defaults to false.
func NormalizeUser(raw RawUser) User {
	u := User{Email: raw.Email}

	switch {
	case raw.UserID != nil:
		u.NumericID = int(*raw.UserID)
	case raw.ID != nil:
		u.NumericID = HashUUID(*raw.ID)
	default:
		u.NumericID = 0
	}

	if raw.ID != nil {
		u.StringID = *raw.ID
	} else {
		var numeric int64
		if raw.UserID != nil {
			numeric = *raw.UserID
		}
		u.StringID = strconv.FormatInt(numeric, 10)
	}

	if raw.DisplayName != nil && *raw.DisplayName != "" {
		u.DisplayName = *raw.DisplayName
	} else {
		u.DisplayName = emailLocalPart(raw.Email)
	}

	if raw.PhotoURL != nil {
		u.PhotoURL = *raw.PhotoURL
	}
	if raw.EmailVerified != nil {
		u.EmailVerified = *raw.EmailVerified
	}

	return u
}

// ParseUser decodes a backend user object and normalizes it.
func ParseUser(data []byte) (User, error) {
	var raw RawUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return User{}, err
	}
	return NormalizeUser(raw), nil
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldMapSuccessFlag(t *testing.T) {
	m := DefaultFieldMap()

	assert.True(t, m.IsSuccess([]byte(`{"status":"ok"}`)))
	assert.True(t, m.IsSuccess([]byte(`{"status":"success"}`)))
	assert.True(t, m.IsSuccess([]byte(`{"status":true}`)))
	assert.True(t, m.IsSuccess([]byte(`{"status":1}`)))
	assert.False(t, m.IsSuccess([]byte(`{"status":"error"}`)))
	assert.False(t, m.IsSuccess([]byte(`{"status":0}`)))
	assert.False(t, m.IsSuccess([]byte(`{}`)))
	assert.False(t, m.IsSuccess([]byte(`not json`)))
}

func TestFieldMapExtraction(t *testing.T) {
	m := DefaultFieldMap()
	body := []byte(`{"status":"ok","data":{"access_token":"T1","refresh_token":"R1","user":{"id":"u1","email":"a@b.com"},"needs_verification":true}}`)

	assert.Equal(t, "T1", m.GetAccessToken(body))
	assert.Equal(t, "R1", m.GetRefreshToken(body))
	assert.True(t, m.GetNeedsVerification(body))
	assert.JSONEq(t, `{"id":"u1","email":"a@b.com"}`, string(m.GetUserJSON(body)))
}

func TestFieldMapCustomEnvelope(t *testing.T) {
	m := FieldMap{
		Success:     "result.ok",
		AccessToken: "result.tokens.jwt",
		User:        "result.profile",
	}.withDefaults()
	body := []byte(`{"result":{"ok":true,"tokens":{"jwt":"T9"},"profile":{"user_id":7,"email":"x@y.z"}}}`)

	assert.True(t, m.IsSuccess(body))
	assert.Equal(t, "T9", m.GetAccessToken(body))
	assert.JSONEq(t, `{"user_id":7,"email":"x@y.z"}`, string(m.GetUserJSON(body)))
	// unset paths got the stock defaults
	assert.Equal(t, "message", m.ErrorMessage)
}

func TestFieldMapErrorMessage(t *testing.T) {
	m := DefaultFieldMap()

	assert.Equal(t, "nope", m.GetErrorMessage([]byte(`{"message":"nope"}`), "fallback"))
	assert.Equal(t, "fallback", m.GetErrorMessage([]byte(`{}`), "fallback"))
	assert.Equal(t, "fallback", m.GetErrorMessage([]byte(`garbage`), "fallback"))
}

func TestFieldMapUserMustBeObject(t *testing.T) {
	m := DefaultFieldMap()
	assert.Nil(t, m.GetUserJSON([]byte(`{"data":{"user":"not-an-object"}}`)))
	assert.Nil(t, m.GetUserJSON([]byte(`{}`)))
}

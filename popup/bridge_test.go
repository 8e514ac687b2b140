package popup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progalaxyelabs/stonescript-auth-go/backend"
	"github.com/progalaxyelabs/stonescript-auth-go/browser"
	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
)

const testOrigin = "https://auth.example.com"

type fakeWindow struct {
	mu     sync.Mutex
	closed bool
}

func (w *fakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

type fakeOpener struct {
	window  *fakeWindow
	err     error
	lastURL string
}

func (o *fakeOpener) Open(url string, _, _ int) (browser.Window, error) {
	o.lastURL = url
	if o.err != nil {
		return nil, o.err
	}
	return o.window, nil
}

type fakeChannel struct {
	ch            chan browser.Message
	subscriptions atomic.Int32
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{ch: make(chan browser.Message, 8)}
}

func (c *fakeChannel) Subscribe() (<-chan browser.Message, func()) {
	c.subscriptions.Add(1)
	return c.ch, func() {}
}

func newTestBridge(opener browser.PopupOpener, channel browser.MessageChannel) *Bridge {
	reg := registry.New([]domain.AuthServerDescriptor{
		{Name: "main", BaseURL: testOrigin, IsDefault: true},
	}, "", storage.NewMemoryStore(), nil)

	b := NewBridge(opener, channel, reg, "desktop", nil)
	b.pollInterval = 5 * time.Millisecond
	return b
}

func TestBlockedPopupResolvesImmediately(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{err: errors.New("denied by host")}, channel)

	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "blocked")
	assert.Equal(t, int32(0), channel.subscriptions.Load(), "no listener may be registered")
}

func TestSuccessMessageResolves(t *testing.T) {
	win := &fakeWindow{}
	opener := &fakeOpener{window: win}
	channel := newFakeChannel()
	b := newTestBridge(opener, channel)

	channel.ch <- browser.Message{
		Origin: testOrigin,
		Data:   []byte(`{"type":"oauth_success","access_token":"T1","user":{"id":"u1","email":"a@b.com"}}`),
	}

	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{})
	require.True(t, res.Success)
	assert.Equal(t, "T1", res.AccessToken)
	require.NotNil(t, res.User)
	assert.Equal(t, "a@b.com", res.User.Email)
	assert.True(t, win.Closed(), "popup is closed on resolution")
	assert.Equal(t, testOrigin+"/oauth/google?platform=desktop&mode=popup", opener.lastURL)
}

func TestTenantRegistrationURL(t *testing.T) {
	win := &fakeWindow{}
	opener := &fakeOpener{window: win}
	channel := newFakeChannel()
	b := newTestBridge(opener, channel)

	channel.ch <- browser.Message{
		Origin: testOrigin,
		Data:   []byte(`{"type":"oauth_success","tenant":{"id":"t1","name":"Acme"},"user":{"id":"u1","email":"a@b.com"}}`),
	}

	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{
		Action:     "register_tenant",
		TenantName: "Acme Co",
	})
	require.True(t, res.Success)
	require.NotNil(t, res.Tenant)
	assert.Equal(t, "Acme", res.Tenant.Name)
	assert.Equal(t, testOrigin+"/oauth/google?platform=desktop&mode=popup&action=register_tenant&tenant_name=Acme+Co", opener.lastURL)
}

func TestErrorMessageResolves(t *testing.T) {
	win := &fakeWindow{}
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{window: win}, channel)

	channel.ch <- browser.Message{
		Origin: testOrigin,
		Data:   []byte(`{"type":"oauth_error","message":"access denied"}`),
	}

	res := b.Authorize(context.Background(), "github", backend.ProviderOptions{})
	assert.False(t, res.Success)
	assert.Equal(t, "access denied", res.Message)
	assert.True(t, win.Closed())
}

func TestMismatchedOriginIsIgnored(t *testing.T) {
	win := &fakeWindow{}
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{window: win}, channel)

	// a well-formed success payload from the wrong origin must not resolve
	channel.ch <- browser.Message{
		Origin: "https://evil.example.com",
		Data:   []byte(`{"type":"oauth_success","access_token":"STOLEN","user":{"id":"u1","email":"a@b.com"}}`),
	}

	// manual close is then the only resolution path
	go func() {
		time.Sleep(20 * time.Millisecond)
		win.Close()
	}()

	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{})
	assert.False(t, res.Success)
	assert.NotEqual(t, "STOLEN", res.AccessToken)
	assert.Contains(t, res.Message, "cancelled")
}

func TestManualCloseCancels(t *testing.T) {
	win := &fakeWindow{}
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{window: win}, channel)

	go func() {
		time.Sleep(15 * time.Millisecond)
		win.Close()
	}()

	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "cancelled")
}

func TestUnrecognizedPayloadLeavesExchangePending(t *testing.T) {
	win := &fakeWindow{}
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{window: win}, channel)

	channel.ch <- browser.Message{Origin: testOrigin, Data: []byte(`{"hello":"world"}`)}
	channel.ch <- browser.Message{Origin: testOrigin, Data: []byte(`not json`)}
	channel.ch <- browser.Message{
		Origin: testOrigin,
		Data:   []byte(`{"access_token":"T1","user":{"id":"u1","email":"a@b.com"}}`),
	}

	// the third message has no type tag but matches the success shape
	res := b.Authorize(context.Background(), "google", backend.ProviderOptions{})
	require.True(t, res.Success)
	assert.Equal(t, "T1", res.AccessToken)
}

func TestContextCancellation(t *testing.T) {
	win := &fakeWindow{}
	channel := newFakeChannel()
	b := newTestBridge(&fakeOpener{window: win}, channel)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := b.Authorize(ctx, "google", backend.ProviderOptions{})
	assert.False(t, res.Success)
	assert.True(t, win.Closed())
}

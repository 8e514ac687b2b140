package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/errors"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
	"github.com/progalaxyelabs/stonescript-auth-go/tokens"
)

// fakeRefresher swaps the stored token on refresh, or fails.
type fakeRefresher struct {
	mu    sync.Mutex
	store *tokens.Store
	next  string
	ok    bool
	calls int
}

func (f *fakeRefresher) Refresh(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.ok {
		f.store.SetAccess(f.next)
		return true
	}
	f.store.Clear()
	return false
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestExecutor(t *testing.T, handler http.Handler) (*Executor, *tokens.Store, *fakeRefresher) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := registry.New([]domain.AuthServerDescriptor{
		{Name: "test", BaseURL: srv.URL, IsDefault: true},
	}, "", storage.NewMemoryStore(), nil)

	store := tokens.NewStore(storage.NewMemoryStore(), nil)
	refresher := &fakeRefresher{store: store, next: "T2", ok: true}
	return NewExecutor(srv.Client(), reg, store, refresher, Envelope{}, nil), store, refresher
}

func TestRefreshRetryOn401(t *testing.T) {
	var mu sync.Mutex
	var bearers []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		bearers = append(bearers, r.Header.Get("Authorization"))
		count := len(bearers)
		mu.Unlock()

		if count == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":"error","message":"token expired"}`))
			return
		}
		w.Write([]byte(`{"status":"ok","data":[{"id":1},{"id":2}]}`))
	})
	e, store, refresher := newTestExecutor(t, handler)
	store.SetAccess("T1")

	res, err := e.Get(context.Background(), "/projects")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(res.Data))

	assert.Equal(t, 1, refresher.callCount(), "exactly one refresh")
	require.Len(t, bearers, 2, "original call plus exactly one retry")
	assert.Equal(t, "Bearer T1", bearers[0])
	assert.Equal(t, "Bearer T2", bearers[1], "retry carries the refreshed token")
	assert.Equal(t, "T2", store.Access())
}

func TestNoTokenMeansNoRefresh(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"login required"}`))
	})
	e, _, refresher := newTestExecutor(t, handler)

	res, err := e.Get(context.Background(), "/projects")
	require.NoError(t, err)
	assert.Equal(t, KindNotOK, res.Kind)
	assert.Equal(t, "login required", res.Message)
	assert.False(t, res.AuthRequired)
	assert.Equal(t, 0, refresher.callCount(), "401 without prior attachment never refreshes")
	assert.Equal(t, 1, calls)
}

func TestFailedRefreshReturnsAuthRequired(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{}`))
	})
	e, store, refresher := newTestExecutor(t, handler)
	store.SetAccess("T1")
	refresher.ok = false

	res, err := e.Get(context.Background(), "/projects")
	require.NoError(t, err)
	assert.Equal(t, KindNotOK, res.Kind)
	assert.True(t, res.AuthRequired)
	assert.Equal(t, "authentication required", res.Message)
	assert.Equal(t, 1, calls, "no second network attempt after a failed refresh")
}

func TestRetryOutcomeIsReturnedUnconditionally(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"still no"}`))
	})
	e, store, refresher := newTestExecutor(t, handler)
	store.SetAccess("T1")

	res, err := e.Get(context.Background(), "/projects")
	require.NoError(t, err)
	assert.Equal(t, KindNotOK, res.Kind)
	assert.Equal(t, "still no", res.Message)
	assert.Equal(t, 2, calls, "one retry, never a third attempt")
	assert.Equal(t, 1, refresher.callCount())
}

func TestTransportErrorCollapsesToError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	reg := registry.New([]domain.AuthServerDescriptor{
		{Name: "test", BaseURL: srv.URL, IsDefault: true},
	}, "", storage.NewMemoryStore(), nil)
	store := tokens.NewStore(storage.NewMemoryStore(), nil)
	e := NewExecutor(srv.Client(), reg, store, nil, Envelope{}, nil)
	srv.Close()

	res, err := e.Get(context.Background(), "/projects")
	require.NoError(t, err)
	assert.Equal(t, KindError, res.Kind)
	assert.False(t, res.OK())
}

func TestValidationFailureSurfacesMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":"error","message":"name is required","data":{"field":"name"}}`))
	})
	e, _, _ := newTestExecutor(t, handler)

	res, err := e.Post(context.Background(), "/projects", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, KindNotOK, res.Kind)
	assert.Equal(t, "name is required", res.Message)
	assert.JSONEq(t, `{"field":"name"}`, string(res.Data))
}

func TestOkWithoutEnvelopeReturnsWholeBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	})
	e, _, _ := newTestExecutor(t, handler)

	res, err := e.Get(context.Background(), "/raw")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.JSONEq(t, `[1,2,3]`, string(res.Data))
}

func TestPostMarshalsPayload(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"ok","data":{"created":true}}`))
	})
	e, _, _ := newTestExecutor(t, handler)

	res, err := e.Post(context.Background(), "/projects", map[string]string{"name": "demo"})
	require.NoError(t, err)
	require.True(t, res.OK())

	var out struct {
		Created bool `json:"created"`
	}
	require.NoError(t, res.Decode(&out))
	assert.True(t, out.Created)
}

func TestNoServerIsConfigurationError(t *testing.T) {
	reg := registry.New(nil, "", storage.NewMemoryStore(), nil)
	store := tokens.NewStore(storage.NewMemoryStore(), nil)
	e := NewExecutor(nil, reg, store, nil, Envelope{}, nil)

	_, err := e.Get(context.Background(), "/projects")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

// Package client executes API calls with transparent bearer attachment and
// a single refresh-and-retry on 401. It is the data-access surface of the
// SDK; auth flows live in the session and backend packages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
)

// TokenSource yields the current access token. *tokens.Store satisfies it.
type TokenSource interface {
	Access() string
}

// Refresher attempts to renew the session after a 401. The session
// orchestrator satisfies it; false means authentication is required and
// the sign-out has already been broadcast.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Envelope locates the standard fields in API responses, as gjson paths.
type Envelope struct {
	Success string
	Data    string
	Message string
}

func (e Envelope) withDefaults() Envelope {
	if e.Success == "" {
		e.Success = "status"
	}
	if e.Data == "" {
		e.Data = "data"
	}
	if e.Message == "" {
		e.Message = "message"
	}
	return e
}

// Executor performs API calls against the resolved server.
type Executor struct {
	http     *http.Client
	registry *registry.Registry
	tokens   TokenSource
	refresh  Refresher
	envelope Envelope
	logger   log.Logger
}

// NewExecutor wires an executor. refresh may be nil, in which case a 401 is
// never retried.
func NewExecutor(httpClient *http.Client, reg *registry.Registry, tokens TokenSource, refresh Refresher, envelope Envelope, logger log.Logger) *Executor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Executor{
		http:     httpClient,
		registry: reg,
		tokens:   tokens,
		refresh:  refresh,
		envelope: envelope.withDefaults(),
		logger:   logger,
	}
}

// Get performs a GET request.
func (e *Executor) Get(ctx context.Context, path string) (Result, error) {
	return e.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON payload.
func (e *Executor) Post(ctx context.Context, path string, payload any) (Result, error) {
	return e.Do(ctx, http.MethodPost, path, payload)
}

// Put performs a PUT request with a JSON payload.
func (e *Executor) Put(ctx context.Context, path string, payload any) (Result, error) {
	return e.Do(ctx, http.MethodPut, path, payload)
}

// Patch performs a PATCH request with a JSON payload.
func (e *Executor) Patch(ctx context.Context, path string, payload any) (Result, error) {
	return e.Do(ctx, http.MethodPatch, path, payload)
}

// Delete performs a DELETE request.
func (e *Executor) Delete(ctx context.Context, path string) (Result, error) {
	return e.Do(ctx, http.MethodDelete, path, nil)
}

// Do runs one call. A held token is attached as a bearer credential; a 401
// with a prior attachment triggers exactly one refresh and one retry, whose
// outcome is returned unconditionally. A 401 without an attachment is
// returned as-is: "never authenticated" is not "token expired". The error
// return is non-nil only for configuration mistakes (no resolvable server).
func (e *Executor) Do(ctx context.Context, method, path string, payload any) (Result, error) {
	base, err := e.registry.BaseURL("")
	if err != nil {
		return Result{}, err
	}

	token := e.tokens.Access()
	attached := token != ""

	resp, sendErr := e.send(ctx, method, base+path, payload, token)
	if sendErr != nil {
		return errorResult(sendErr.Error()), nil
	}

	if resp.status == http.StatusUnauthorized && attached && e.refresh != nil {
		if !e.refresh.Refresh(ctx) {
			e.logger.Debug(ctx, "refresh failed after 401, authentication required", map[string]any{"path": path})
			result := notOkResult(resp.status, "authentication required", nil)
			result.AuthRequired = true
			return result, nil
		}

		retry, retryErr := e.send(ctx, method, base+path, payload, e.tokens.Access())
		if retryErr != nil {
			return errorResult(retryErr.Error()), nil
		}
		return e.normalize(retry), nil
	}

	return e.normalize(resp), nil
}

type response struct {
	status int
	body   []byte
}

func (e *Executor) send(ctx context.Context, method, url string, payload any, bearer string) (*response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

// normalize maps a wire response onto the tri-state result.
func (e *Executor) normalize(resp *response) Result {
	data := json.RawMessage(nil)
	if node := gjson.GetBytes(resp.body, e.envelope.Data); node.Exists() {
		data = json.RawMessage(node.Raw)
	} else if json.Valid(resp.body) {
		data = json.RawMessage(resp.body)
	}

	if resp.status >= 200 && resp.status < 300 {
		return okResult(resp.status, data)
	}

	message := gjson.GetBytes(resp.body, e.envelope.Message).String()
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", resp.status)
	}
	return notOkResult(resp.status, message, data)
}

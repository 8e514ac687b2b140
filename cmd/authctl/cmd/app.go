package cmd

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/progalaxyelabs/stonescript-auth-go/backend"
	"github.com/progalaxyelabs/stonescript-auth-go/browser"
	"github.com/progalaxyelabs/stonescript-auth-go/client"
	"github.com/progalaxyelabs/stonescript-auth-go/config"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
	"github.com/progalaxyelabs/stonescript-auth-go/session"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
	"github.com/progalaxyelabs/stonescript-auth-go/tokens"
)

// App holds the wired SDK components for one CLI invocation.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Tokens   *tokens.Store
	Backend  backend.AuthBackend
	Session  *session.Orchestrator
	API      *client.Executor
}

// jarAdapter exposes an http cookie jar's cookies for the resolved server
// as a raw Cookie header, satisfying the browser.CookieJar capability.
type jarAdapter struct {
	jar  http.CookieJar
	base *url.URL
}

func (a *jarAdapter) CookieHeader() string {
	if a.base == nil {
		return ""
	}
	var parts []string
	for _, c := range a.jar.Cookies(a.base) {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// buildApp loads configuration and wires the full client stack.
func buildApp(cfg *config.Config, logger log.Logger) (*App, error) {
	durable, err := storage.NewFileStore(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.Servers, cfg.LegacyServerURL, durable, logger)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Jar: jar}

	var cookieCapability browser.CookieJar = &browser.HeaderJar{}
	if base, err := reg.BaseURL(""); err == nil {
		if baseURL, err := url.Parse(base); err == nil {
			cookieCapability = &jarAdapter{jar: jar, base: baseURL}
		}
	}

	ts := tokens.NewStore(durable, logger)
	ab := backend.NewRESTBackend(httpClient, reg, browser.NewCsrfReader(cookieCapability), nil, backend.RESTConfig{
		Mode:           cfg.Mode,
		Platform:       cfg.Platform,
		PlatformAPIURL: cfg.PlatformAPIURL,
	}, logger)
	orch := session.NewOrchestrator(ab, ts, durable, logger)
	api := client.NewExecutor(httpClient, reg, ts, orch, client.Envelope{}, logger)

	return &App{
		Config:   cfg,
		Registry: reg,
		Tokens:   ts,
		Backend:  ab,
		Session:  orch,
		API:      api,
	}, nil
}

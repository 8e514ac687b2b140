// Package popup implements the cross-window OAuth correlation protocol: it
// opens a provider flow in a separate window and resolves exactly one
// result per invocation, via an origin-checked message or manual closure.
package popup

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/progalaxyelabs/stonescript-auth-go/backend"
	"github.com/progalaxyelabs/stonescript-auth-go/browser"
	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
)

const (
	defaultWidth        = 500
	defaultHeight       = 650
	defaultPollInterval = 250 * time.Millisecond
)

// Bridge drives one provider flow at a time. Concurrent invocations must be
// serialized by the caller; each invocation owns exactly one subscription
// and one closed-poll loop.
type Bridge struct {
	opener   browser.PopupOpener
	channel  browser.MessageChannel
	registry *registry.Registry
	platform string
	logger   log.Logger

	width        int
	height       int
	pollInterval time.Duration
}

// NewBridge wires a bridge over the host's popup and messaging capabilities.
func NewBridge(opener browser.PopupOpener, channel browser.MessageChannel, reg *registry.Registry, platform string, logger log.Logger) *Bridge {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Bridge{
		opener:       opener,
		channel:      channel,
		registry:     reg,
		platform:     platform,
		logger:       logger,
		width:        defaultWidth,
		height:       defaultHeight,
		pollInterval: defaultPollInterval,
	}
}

// pendingExchange is the ephemeral state for one popup invocation.
type pendingExchange struct {
	id       string
	provider string
	origin   string
	window   browser.Window
}

// Authorize implements backend.PopupFlow. It resolves exactly once: with
// the provider's posted result, with a "blocked" failure when the popup
// cannot open, or with a "cancelled" failure when the window is closed
// before any message arrives. Messages from any origin other than the
// resolved server's are silently ignored.
func (b *Bridge) Authorize(ctx context.Context, provider string, opts backend.ProviderOptions) domain.AuthResult {
	origin, err := b.registry.Origin(opts.ServerName)
	if err != nil {
		return domain.FailedResult(err.Error())
	}

	target := origin + "/oauth/" + provider + "?platform=" + url.QueryEscape(b.platform) + "&mode=popup"
	if opts.Action == "register_tenant" {
		target += "&action=register_tenant&tenant_name=" + url.QueryEscape(opts.TenantName)
	}

	// Open before subscribing: a blocked popup must resolve without ever
	// registering a listener.
	win, err := b.opener.Open(target, b.width, b.height)
	if err != nil || win == nil {
		return domain.FailedResult("popup blocked: allow popups for this site and try again")
	}

	exchange := &pendingExchange{
		id:       uuid.NewString(),
		provider: provider,
		origin:   origin,
		window:   win,
	}
	b.logger.Debug(ctx, "oauth popup opened", map[string]any{
		"exchange": exchange.id,
		"provider": provider,
		"origin":   origin,
	})

	msgs, unsubscribe := b.channel.Subscribe()
	defer unsubscribe()

	return b.await(ctx, exchange, msgs)
}

func (b *Bridge) await(ctx context.Context, exchange *pendingExchange, msgs <-chan browser.Message) domain.AuthResult {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				exchange.window.Close()
				return domain.FailedResult("oauth flow cancelled")
			}
			if msg.Origin != exchange.origin {
				// hard security boundary: wrong-origin messages are dropped,
				// not logged
				continue
			}
			result, recognized := parsePayload(msg.Data)
			if !recognized {
				continue
			}
			exchange.window.Close()
			b.logger.Debug(ctx, "oauth popup resolved", map[string]any{
				"exchange": exchange.id,
				"success":  result.Success,
			})
			return result

		case <-ticker.C:
			if exchange.window.Closed() {
				b.logger.Debug(ctx, "oauth popup closed by user", map[string]any{"exchange": exchange.id})
				return domain.FailedResult("oauth flow cancelled")
			}

		case <-ctx.Done():
			exchange.window.Close()
			return domain.FailedResult("oauth flow cancelled")
		}
	}
}

// oauthPayload is the message shape providers post back to the opener.
//
//nolint:tagliatelle
type oauthPayload struct {
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
	Tenant      *domain.Tenant  `json:"tenant"`
	Message     string          `json:"message"`
}

// parsePayload recognizes a success payload ({access_token,user} or
// {tenant,user}) and an error payload ({message}). Anything else is not a
// resolution and leaves the exchange pending.
func parsePayload(data []byte) (domain.AuthResult, bool) {
	var p oauthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.AuthResult{}, false
	}

	if p.Type == "oauth_error" {
		msg := p.Message
		if msg == "" {
			msg = "oauth provider reported an error"
		}
		return domain.FailedResult(msg), true
	}

	isSuccess := p.Type == "oauth_success" ||
		(p.Type == "" && len(p.User) > 0 && (p.AccessToken != "" || p.Tenant != nil))
	if !isSuccess {
		return domain.AuthResult{}, false
	}

	result := domain.AuthResult{
		Success:     true,
		AccessToken: p.AccessToken,
		Tenant:      p.Tenant,
	}
	if len(p.User) > 0 {
		if user, err := domain.ParseUser(p.User); err == nil {
			result.User = &user
		}
	}
	return result, true
}

// Package auth wraps the hosted identity service: password sign-in,
// sign-out, cached session retrieval and session-change notifications.
// No token refresh, retry or offline-session logic lives here.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Session is the authenticated state returned by the identity service.
type Session struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Email        string
}

// Config locates the identity service endpoints.
type Config struct {
	TokenURL  string
	RevokeURL string
	ClientID  string
	// SignInRate limits sign-in attempts per second; zero disables
	// the limiter.
	SignInRate  float64
	SignInBurst int
}

// SessionHandler receives the new session, or nil on sign-out, on
// every session change.
type SessionHandler func(*Session)

// Gateway is the session gateway. All methods are safe for concurrent
// use.
type Gateway struct {
	oauth     oauth2.Config
	revokeURL string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zerolog.Logger

	mu      sync.Mutex
	session *Session
	subs    map[int]SessionHandler
	nextSub int
}

// New constructs a gateway for the configured identity service.
func New(cfg Config, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		oauth: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		revokeURL: cfg.RevokeURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
		subs:      make(map[int]SessionHandler),
	}
	if cfg.SignInRate > 0 {
		burst := cfg.SignInBurst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.SignInRate), burst)
	}
	return g
}

// SignIn exchanges the credential pair for a session via the password
// grant. Provider failures propagate unchanged.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	token, err := g.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session := &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Email:        email,
	}
	g.setSession(session)
	return session, nil
}

// SignOut revokes the current session at the identity service and
// clears the cached session. Without a cached session it only
// notifies subscribers of the absent state.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()

	if session != nil && g.revokeURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.revokeURL, http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("sign out: http %d", resp.StatusCode)
		}
	}

	g.setSession(nil)
	return nil
}

// CurrentSession returns the cached session, or nil when signed out.
func (g *Gateway) CurrentSession() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	s := *g.session
	return &s
}

// OnSessionChange subscribes to session changes. The handler runs
// synchronously on every change with the new session, or nil on
// sign-out. The returned func removes the subscription.
func (g *Gateway) OnSessionChange(fn SessionHandler) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) setSession(session *Session) {
	g.mu.Lock()
	g.session = session
	handlers := make([]SessionHandler, 0, len(g.subs))
	for _, fn := range g.subs {
		handlers = append(handlers, fn)
	}
	g.mu.Unlock()

	for _, fn := range handlers {
		fn(session)
	}
}

// ABOUTME: Credential provider owning acquire, cache and invalidate for the bearer token
// ABOUTME: Passed explicitly into the gateway; there is no process-wide token singleton

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CredentialProvider supplies the bearer credential for backend calls
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Source acquires a raw credential from wherever the session stored it
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// Clearer is implemented by sources that can forget a rejected credential
type Clearer interface {
	Clear() error
}

// StaticSource returns a fixed token, typically from config or environment
type StaticSource string

// Fetch returns the token or ErrNoCredential when empty
func (s StaticSource) Fetch(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// FileSource reads a token saved by the sign-in flow
type FileSource struct {
	Path string
}

// Fetch reads and trims the token file
func (s FileSource) Fetch(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// Clear removes the token file so the next run forces sign-in
func (s FileSource) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Save writes token to the file with owner-only permissions
func (s FileSource) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoCredential
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// ChainSource tries each source in order and returns the first credential found
type ChainSource []Source

// Fetch implements Source
func (c ChainSource) Fetch(ctx context.Context) (string, error) {
	for _, s := range c {
		token, err := s.Fetch(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			return "", err
		}
	}
	return "", ErrNoCredential
}

// Clear clears every clearable source in the chain
func (c ChainSource) Clear() error {
	var errs []error
	for _, s := range c {
		if cl, ok := s.(Clearer); ok {
			errs = append(errs, cl.Clear())
		}
	}
	return errors.Join(errs...)
}

// DefaultExpirySkew treats tokens this close to expiry as already expired
const DefaultExpirySkew = 30 * time.Second

// Provider caches a credential from a Source until it expires or is invalidated.
// Once invalidated it stays empty until the source yields a new token.
type Provider struct {
	source Source
	skew   time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	token  string
	claims TokenClaims
}

// NewProvider creates a provider over the given source
func NewProvider(source Source) *Provider {
	return &Provider{
		source: source,
		skew:   DefaultExpirySkew,
		now:    time.Now,
		logger: slog.Default().With("component", "auth"),
	}
}

// Token returns the cached credential, acquiring it from the source when needed.
// Expired JWTs are rejected with ErrExpiredToken and invalidated.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == "" {
		token, err := p.source.Fetch(ctx)
		if err != nil {
			return "", err
		}
		p.token = token

		// Opaque tokens have no readable expiry; the backend is the judge
		claims, err := InspectToken(token)
		if err != nil {
			claims = TokenClaims{}
		}
		p.claims = claims
	}

	if p.claims.Expired(p.now(), p.skew) {
		p.logger.Warn("cached credential expired", "subject", p.claims.Subject, "expired_at", p.claims.ExpiresAt)
		p.invalidateLocked()
		return "", ErrExpiredToken
	}
	return p.token, nil
}

// Subject returns the token's subject claim, or "" if unknown
func (p *Provider) Subject(ctx context.Context) string {
	if _, err := p.Token(ctx); err != nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claims.Subject
}

// Invalidate drops the cached credential and clears the source if it can be cleared
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked()
}

func (p *Provider) invalidateLocked() {
	p.token = ""
	p.claims = TokenClaims{}
	if cl, ok := p.source.(Clearer); ok {
		if err := cl.Clear(); err != nil {
			p.logger.Error("failed to clear credential source", "error", err)
		}
	}
}

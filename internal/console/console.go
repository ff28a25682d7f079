// ABOUTME: Console wires configuration, credentials, gateway, journal and the workflows
// ABOUTME: One Console per process; workflows are created per operator action

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/verify-console/internal/attempts"
	"github.com/2389/verify-console/internal/auth"
	"github.com/2389/verify-console/internal/config"
	"github.com/2389/verify-console/internal/deletion"
	"github.com/2389/verify-console/internal/directory"
	"github.com/2389/verify-console/internal/entitlements"
	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/onboarding"
	"github.com/2389/verify-console/internal/plans"
	"github.com/2389/verify-console/internal/store"
)

// ErrTokenConfigured is returned by SignIn when auth.token (or VERIFY_TOKEN)
// is set; that token takes precedence over the stored one.
var ErrTokenConfigured = errors.New("a configured token overrides the stored token; unset auth.token or VERIFY_TOKEN to sign in")

// DefaultActor names the operator in the journal when the credential has no subject
const DefaultActor = "operator"

// Options carries the collaborators the caller supplies
type Options struct {
	// Notifier receives plan catalog notices
	Notifier plans.Notifier
	// OnUnauthorized runs after the gateway invalidated the credential
	OnUnauthorized func()
	// HTTPClient overrides the transport (tests)
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Console is the composed application
type Console struct {
	cfg         *config.Config
	credentials *auth.Provider
	tokenFile   auth.FileSource
	gw          *gateway.Gateway
	journal     *store.SQLiteStore
	limiter     *attempts.Counter
	directory   *directory.Directory
	catalog     *plans.Catalog
	logger      *slog.Logger
}

// New builds a console from cfg. The journal database is opened here and
// released by Close.
func New(cfg *config.Config, opts Options) (*Console, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	journal, err := store.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	tokenFile := auth.FileSource{Path: cfg.Auth.TokenFile}
	credentials := auth.NewProvider(auth.ChainSource{
		auth.StaticSource(cfg.Auth.Token),
		tokenFile,
	})

	c := &Console{
		cfg:         cfg,
		credentials: credentials,
		tokenFile:   tokenFile,
		journal:     journal,
		limiter:     attempts.New(cfg.Deletion.MaxFailedConfirmations, cfg.Deletion.LockoutWindow),
		logger:      logger.With("component", "console"),
	}

	c.gw = gateway.New(gateway.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		Credentials:    credentials,
		OnUnauthorized: opts.OnUnauthorized,
		HTTPClient:     opts.HTTPClient,
		Logger:         logger,
	})

	c.directory = directory.New(c.gw, directory.Options{
		PageSize: cfg.Directory.PageSize,
		Journal:  journal,
		Actor:    c.Actor,
		Logger:   logger,
	})

	c.catalog = plans.New(c.gw, plans.Options{
		Notifier: opts.Notifier,
		Journal:  journal,
		Actor:    c.Actor,
		Logger:   logger,
	})

	c.logger.Debug("console ready", "api", cfg.API.BaseURL, "journal", cfg.Journal.Path)
	return c, nil
}

// Actor returns the signed-in operator's subject, or DefaultActor
func (c *Console) Actor(ctx context.Context) string {
	if sub := c.credentials.Subject(ctx); sub != "" {
		return sub
	}
	return DefaultActor
}

// Config returns the configuration the console was built from
func (c *Console) Config() *config.Config { return c.cfg }

// Gateway returns the backend gateway
func (c *Console) Gateway() *gateway.Gateway { return c.gw }

// Directory returns the client directory
func (c *Console) Directory() *directory.Directory { return c.directory }

// Plans returns the plan catalog
func (c *Console) Plans() *plans.Catalog { return c.catalog }

// NewOnboarding starts an onboarding session that reloads the directory on success
func (c *Console) NewOnboarding() *onboarding.Workflow {
	return onboarding.New(c.gw, c.directory, onboarding.Options{
		Journal: c.journal,
		Actor:   c.Actor,
		Logger:  c.logger,
	})
}

// NewDeletion creates a deletion dialog sharing the console's confirmation limiter
func (c *Console) NewDeletion() *deletion.Workflow {
	return deletion.New(c.gw, c.directory, deletion.Options{
		Limiter: c.limiter,
		Journal: c.journal,
		Actor:   c.Actor,
		Logger:  c.logger,
	})
}

// Entitlements fetches a client and projects its feature map
func (c *Console) Entitlements(ctx context.Context, id string) (*model.Client, []entitlements.Entitlement, error) {
	client, err := c.directory.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return client, entitlements.Project(client.ActiveFeatures), nil
}

// Journal lists local journal entries, newest first
func (c *Console) Journal(ctx context.Context, f store.AuditFilter) ([]store.AuditEntry, error) {
	return c.journal.ListAuditLog(ctx, f)
}

// SignIn stores a token for later runs and drops any cached credential.
// Returns the operator name the token resolves to.
func (c *Console) SignIn(ctx context.Context, token string) (string, error) {
	if c.cfg.Auth.Token != "" {
		return "", ErrTokenConfigured
	}
	if claims, err := auth.InspectToken(token); err == nil && claims.Expired(time.Now(), auth.DefaultExpirySkew) {
		return "", auth.ErrExpiredToken
	}
	// Invalidate clears the token file, so save afterwards
	c.credentials.Invalidate()
	if err := c.tokenFile.Save(token); err != nil {
		return "", err
	}
	return c.Actor(ctx), nil
}

// SignOut forgets the stored credential
func (c *Console) SignOut() {
	c.credentials.Invalidate()
}

// Close releases the journal and the limiter
func (c *Console) Close() error {
	c.limiter.Close()
	return c.journal.Close()
}

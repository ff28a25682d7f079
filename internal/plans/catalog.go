// ABOUTME: PlanCatalog: CRUD over plan definitions with local validation
// ABOUTME: Local state is only ever replaced by a reload; failures surface through a Notifier

package plans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/store"
)

var (
	// ErrNotConfirmed is returned by Delete without explicit confirmation
	ErrNotConfirmed = errors.New("plan deletion not confirmed")
	// ErrPlanInUse is returned when the backend refuses to delete an assigned plan
	ErrPlanInUse = errors.New("plan is assigned to clients")
	// ErrBusy is returned while another catalog mutation is in flight
	ErrBusy = errors.New("plan catalog busy")
)

// Gateway is the subset of the backend the catalog uses
type Gateway interface {
	ListPlans(ctx context.Context) ([]model.Plan, error)
	CreatePlan(ctx context.Context, p model.Plan) (*model.Plan, error)
	UpdatePlan(ctx context.Context, id string, p model.Plan) (*model.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// Options configures a Catalog
type Options struct {
	Notifier Notifier
	Journal  store.Journal
	Actor    func(ctx context.Context) string
	Logger   *slog.Logger
}

// Catalog is the operator's copy of the plan list
type Catalog struct {
	gw       Gateway
	notifier Notifier
	journal  store.Journal
	actor    func(ctx context.Context) string
	logger   *slog.Logger

	mu    sync.Mutex
	plans []model.Plan
	busy  bool
}

// New creates an empty catalog; call Reload to populate it
func New(gw Gateway, opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	actor := opts.Actor
	if actor == nil {
		actor = func(context.Context) string { return "operator" }
	}
	return &Catalog{
		gw:       gw,
		notifier: notifier,
		journal:  opts.Journal,
		actor:    actor,
		logger:   logger.With("component", "plans"),
		plans:    []model.Plan{},
	}
}

// Plans returns a copy of the loaded plans
func (c *Catalog) Plans() []model.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Find returns the loaded plan with the given id or name
func (c *Catalog) Find(idOrName string) (model.Plan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.plans {
		if p.ID == idOrName || strings.EqualFold(p.Name, idOrName) {
			return p, true
		}
	}
	return model.Plan{}, false
}

// Reload replaces the local list with the backend's
func (c *Catalog) Reload(ctx context.Context) error {
	list, err := c.gw.ListPlans(ctx)
	if err != nil {
		c.notifyError(err, "Failed to load plans")
		return fmt.Errorf("loading plans: %w", err)
	}
	c.mu.Lock()
	c.plans = list
	c.mu.Unlock()
	return nil
}

// Create validates and creates a plan, then reloads
func (c *Catalog) Create(ctx context.Context, p model.Plan) (*model.Plan, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	created, err := c.create(ctx, p)
	if err != nil {
		return nil, err
	}
	c.notify(NoticeSuccess, fmt.Sprintf("Plan %q created", created.Name))
	c.reloadQuietly(ctx)
	return created, nil
}

// Update validates and replaces a plan, then reloads
func (c *Catalog) Update(ctx context.Context, id string, p model.Plan) (*model.Plan, error) {
	if id == "" {
		return nil, &model.ValidationError{Field: "id", Reason: "is required"}
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	updated, err := c.update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	c.notify(NoticeSuccess, fmt.Sprintf("Plan %q updated", updated.Name))
	c.reloadQuietly(ctx)
	return updated, nil
}

// Delete removes a plan. The caller must pass confirmed=true; clients are
// never touched here and the backend refuses plans still assigned.
func (c *Catalog) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if err := c.gw.DeletePlan(ctx, id); err != nil {
		if gateway.StatusOf(err) == http.StatusConflict {
			err = fmt.Errorf("%w: %w", ErrPlanInUse, err)
		}
		c.notifyError(err, "Failed to delete plan")
		return fmt.Errorf("deleting plan: %w", err)
	}
	c.journalAction(ctx, store.AuditDeletePlan, id, nil)
	c.notify(NoticeSuccess, "Plan deleted")
	c.reloadQuietly(ctx)
	return nil
}

// ApplyResult counts what Apply changed
type ApplyResult struct {
	Created int
	Updated int
}

// Apply creates or updates each definition, matching existing plans by id and
// then by name, and reloads once at the end. It stops at the first failure.
func (c *Catalog) Apply(ctx context.Context, defs []model.Plan) (ApplyResult, error) {
	var res ApplyResult
	for i, p := range defs {
		if err := Validate(p); err != nil {
			return res, fmt.Errorf("plan %d (%s): %w", i+1, p.Name, err)
		}
	}
	if err := c.acquire(); err != nil {
		return res, err
	}
	defer c.release()

	for _, p := range defs {
		id := p.ID
		if id == "" {
			if existing, ok := c.Find(p.Name); ok {
				id = existing.ID
			}
		}
		if id != "" {
			if _, err := c.update(ctx, id, p); err != nil {
				c.reloadQuietly(ctx)
				return res, err
			}
			res.Updated++
			continue
		}
		if _, err := c.create(ctx, p); err != nil {
			c.reloadQuietly(ctx)
			return res, err
		}
		res.Created++
	}

	c.notify(NoticeSuccess, fmt.Sprintf("Applied %d plan definitions (%d created, %d updated)", len(defs), res.Created, res.Updated))
	c.reloadQuietly(ctx)
	return res, nil
}

func (c *Catalog) create(ctx context.Context, p model.Plan) (*model.Plan, error) {
	p.ID = ""
	created, err := c.gw.CreatePlan(ctx, p)
	if err != nil {
		c.notifyError(err, "Failed to create plan")
		return nil, fmt.Errorf("creating plan: %w", err)
	}
	c.journalAction(ctx, store.AuditCreatePlan, created.ID, map[string]any{"name": p.Name})
	return created, nil
}

func (c *Catalog) update(ctx context.Context, id string, p model.Plan) (*model.Plan, error) {
	p.ID = ""
	updated, err := c.gw.UpdatePlan(ctx, id, p)
	if err != nil {
		c.notifyError(err, "Failed to update plan")
		return nil, fmt.Errorf("updating plan: %w", err)
	}
	c.journalAction(ctx, store.AuditUpdatePlan, id, map[string]any{"name": p.Name})
	return updated, nil
}

func (c *Catalog) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Catalog) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Catalog) reloadQuietly(ctx context.Context) {
	if err := c.Reload(ctx); err != nil {
		c.logger.Warn("reload after mutation failed", "error", err)
	}
}

func (c *Catalog) journalAction(ctx context.Context, action store.AuditAction, id string, detail map[string]any) {
	store.Append(ctx, c.journal, c.logger, &store.AuditEntry{
		Actor:      c.actor(ctx),
		Action:     action,
		TargetType: store.TargetPlan,
		TargetID:   id,
		Detail:     detail,
	})
}

func (c *Catalog) notify(kind NoticeKind, msg string) {
	c.notifier.Notify(Notice{Kind: kind, Message: msg})
}

func (c *Catalog) notifyError(err error, fallback string) {
	c.notify(NoticeError, gateway.MessageOf(err, fallback))
}

// Validate checks a plan definition before it is sent
func Validate(p model.Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "is required"}
	}
	if len(p.Modules) == 0 {
		return &model.ValidationError{Field: "modules", Reason: "must include at least one module"}
	}
	seen := make(map[model.Module]bool, len(p.Modules))
	for _, m := range p.Modules {
		if !m.Valid() {
			return &model.ValidationError{Field: "modules", Reason: fmt.Sprintf("unknown module %q", m)}
		}
		if seen[m] {
			return &model.ValidationError{Field: "modules", Reason: fmt.Sprintf("duplicate module %q", m)}
		}
		seen[m] = true
	}
	if price := p.PricePerVerification; math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return &model.ValidationError{Field: "pricePerVerification", Reason: "must be a finite, non-negative number"}
	}
	if !p.RiskLevel.Valid() {
		return &model.ValidationError{Field: "riskLevel", Reason: "must be 0, 1 or 2"}
	}
	if !p.SanctionsLevel.Valid() {
		return &model.ValidationError{Field: "sanctionsLevel", Reason: "must be 0, 1 or 2"}
	}
	return nil
}

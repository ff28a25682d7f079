// ABOUTME: ClientDirectory: paginated, filterable view of tenants backed by the admin API
// ABOUTME: Discards stale responses by generation and reloads after every successful mutation

package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/store"
)

// DefaultPageSize is used when the config leaves directory.page_size unset
const DefaultPageSize = 25

// ErrStale is returned by Load when a newer fetch was issued before this one
// completed. The response has been discarded.
var ErrStale = errors.New("directory response superseded")

// Gateway is the subset of the backend the directory uses
type Gateway interface {
	ListClients(ctx context.Context, p gateway.ListClientsParams) (*gateway.ClientList, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	CreateClient(ctx context.Context, c model.NewClient) (*model.Client, error)
	UpdateClient(ctx context.Context, id string, u model.ClientUpdate) (*model.Client, error)
	SetClientActive(ctx context.Context, id string, active bool) error
	AssignPlans(ctx context.Context, id string, planIDs []string) error
}

// Options configures a Directory
type Options struct {
	PageSize int
	Journal  store.Journal
	// Actor names the operator in journal entries
	Actor  func(ctx context.Context) string
	Logger *slog.Logger
}

// Directory holds the currently displayed page. Rows are only ever replaced
// by a fetch, never patched from a mutation response.
type Directory struct {
	gw      Gateway
	journal store.Journal
	actor   func(ctx context.Context) string
	logger  *slog.Logger

	mu       sync.Mutex
	page     int
	pageSize int
	search   string
	status   model.StatusFilter
	items    []model.Client
	total    int
	gen      uint64
}

// New creates a directory positioned at page 1 with no filters
func New(gw Gateway, opts Options) *Directory {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	actor := opts.Actor
	if actor == nil {
		actor = func(context.Context) string { return "operator" }
	}
	return &Directory{
		gw:       gw,
		journal:  opts.Journal,
		actor:    actor,
		logger:   logger.With("component", "directory"),
		page:     1,
		pageSize: pageSize,
		status:   model.StatusAll,
		items:    []model.Client{},
	}
}

// ClampPage returns page forced into [1, max(1, ceil(total/pageSize))]
func ClampPage(page, total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPage := (total + pageSize - 1) / pageSize
	if maxPage < 1 {
		maxPage = 1
	}
	switch {
	case page < 1:
		return 1
	case page > maxPage:
		return maxPage
	default:
		return page
	}
}

// Load sets every view parameter at once and fetches that page
func (d *Directory) Load(ctx context.Context, page, pageSize int, search string, status model.StatusFilter) (model.ClientPage, error) {
	if status == "" {
		status = model.StatusAll
	}
	d.mu.Lock()
	if pageSize > 0 {
		d.pageSize = pageSize
	}
	d.page = max(page, 1)
	d.search = strings.TrimSpace(search)
	d.status = status
	d.mu.Unlock()

	return d.fetch(ctx, true)
}

// Reload re-fetches the current page. A superseded response is not an error.
func (d *Directory) Reload(ctx context.Context) error {
	_, err := d.fetch(ctx, true)
	if errors.Is(err, ErrStale) {
		return nil
	}
	return err
}

// SetSearch changes the search text, resets to page 1 and fetches
func (d *Directory) SetSearch(ctx context.Context, search string) (model.ClientPage, error) {
	d.mu.Lock()
	d.search = strings.TrimSpace(search)
	d.page = 1
	d.mu.Unlock()
	return d.fetch(ctx, true)
}

// SetStatus changes the status filter, resets to page 1 and fetches
func (d *Directory) SetStatus(ctx context.Context, status model.StatusFilter) (model.ClientPage, error) {
	if status == "" {
		status = model.StatusAll
	}
	d.mu.Lock()
	d.status = status
	d.page = 1
	d.mu.Unlock()
	return d.fetch(ctx, true)
}

// SetPage moves to page, clamped against the last known total, and fetches
func (d *Directory) SetPage(ctx context.Context, page int) (model.ClientPage, error) {
	d.mu.Lock()
	d.page = ClampPage(page, d.total, d.pageSize)
	d.mu.Unlock()
	return d.fetch(ctx, true)
}

// Page returns a snapshot of the loaded page
func (d *Directory) Page() model.ClientPage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Filters returns the active search text and status filter
func (d *Directory) Filters() (string, model.StatusFilter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search, d.status
}

func (d *Directory) snapshotLocked() model.ClientPage {
	items := make([]model.Client, len(d.items))
	copy(items, d.items)
	return model.ClientPage{
		Items:    items,
		Total:    d.total,
		Page:     d.page,
		PageSize: d.pageSize,
	}
}

// fetch loads the current parameters. When the result shows the page fell
// past the end (total shrank) and refetch is set, the clamped page is
// fetched once more.
func (d *Directory) fetch(ctx context.Context, refetch bool) (model.ClientPage, error) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	params := gateway.ListClientsParams{
		Page:   d.page,
		Limit:  d.pageSize,
		Search: d.search,
		Status: d.status,
	}
	d.mu.Unlock()

	list, err := d.gw.ListClients(ctx, params)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.logger.Debug("discarding stale page", "generation", gen, "page", params.Page)
		return model.ClientPage{}, ErrStale
	}
	if err != nil {
		// keep the page within the last known total
		d.page = ClampPage(d.page, d.total, d.pageSize)
		d.mu.Unlock()
		return model.ClientPage{}, fmt.Errorf("loading clients: %w", err)
	}

	d.items = list.Clients
	d.total = list.Total
	clamped := ClampPage(params.Page, list.Total, params.Limit)
	if clamped == params.Page {
		snap := d.snapshotLocked()
		d.mu.Unlock()
		return snap, nil
	}

	d.page = clamped
	if !refetch || len(list.Clients) > 0 {
		snap := d.snapshotLocked()
		d.mu.Unlock()
		return snap, nil
	}
	d.mu.Unlock()

	d.logger.Debug("page past end, refetching", "requested", params.Page, "clamped", clamped, "total", list.Total)
	return d.fetch(ctx, false)
}

// Get fetches a single client with stats and feature flags. It does not
// change the loaded page.
func (d *Directory) Get(ctx context.Context, id string) (*model.Client, error) {
	c, err := d.gw.GetClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading client %s: %w", id, err)
	}
	return c, nil
}

// Create provisions a database-only client record
func (d *Directory) Create(ctx context.Context, c model.NewClient) (*model.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	created, err := d.gw.CreateClient(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	d.afterMutation(ctx, store.AuditCreateClient, created.ID, map[string]any{
		"companyName": c.CompanyName,
		"email":       c.Email,
	})
	return created, nil
}

// Update applies a partial edit
func (d *Directory) Update(ctx context.Context, id string, u model.ClientUpdate) error {
	if u.IsEmpty() {
		return &model.ValidationError{Field: "update", Reason: "has no fields"}
	}
	if _, err := d.gw.UpdateClient(ctx, id, u); err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	d.afterMutation(ctx, store.AuditUpdateClient, id, nil)
	return nil
}

// ToggleActive flips the active flag from the value the operator saw
func (d *Directory) ToggleActive(ctx context.Context, id string, current bool) error {
	if err := d.gw.SetClientActive(ctx, id, !current); err != nil {
		return fmt.Errorf("changing client status: %w", err)
	}
	d.afterMutation(ctx, store.AuditToggleClient, id, map[string]any{"isActive": !current})
	return nil
}

// AssignPlans replaces the client's plans. Feature flags follow on the
// server; they are visible after the reload.
func (d *Directory) AssignPlans(ctx context.Context, id string, planIDs []string) error {
	if err := d.gw.AssignPlans(ctx, id, planIDs); err != nil {
		return fmt.Errorf("assigning plans: %w", err)
	}
	d.afterMutation(ctx, store.AuditAssignPlans, id, map[string]any{"planIds": planIDs})
	return nil
}

// afterMutation journals a confirmed change and reloads the page once.
// Neither failure undoes the change, so both are logged rather than returned.
func (d *Directory) afterMutation(ctx context.Context, action store.AuditAction, id string, detail map[string]any) {
	store.Append(ctx, d.journal, d.logger, &store.AuditEntry{
		Actor:      d.actor(ctx),
		Action:     action,
		TargetType: store.TargetClient,
		TargetID:   id,
		Detail:     detail,
	})
	if err := d.Reload(ctx); err != nil {
		d.logger.Warn("reload after mutation failed", "action", action, "client", id, "error", err)
	}
}

// ABOUTME: Client lifecycle endpoints: list, read, create, edit, status, plans, onboard, delete
// ABOUTME: Each method is a single request; no method retries or composes calls

package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2389/verify-console/internal/model"
)

// ListClientsParams selects one page of the client collection
type ListClientsParams struct {
	Page   int
	Limit  int
	Search string
	Status model.StatusFilter
}

// ClientList is one page as returned by the backend
type ClientList struct {
	Clients []model.Client `json:"clients"`
	Total   int            `json:"total"`
}

func clientPath(id string) string {
	return "/super-admin/clients/" + url.PathEscape(id)
}

// ListClients fetches a page of clients. StatusAll sends no status filter.
func (g *Gateway) ListClients(ctx context.Context, p ListClientsParams) (*ClientList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Status != "" && p.Status != model.StatusAll {
		q.Set("status", string(p.Status))
	}

	var out ClientList
	if err := g.do(ctx, call{op: "list clients", method: http.MethodGet, path: "/super-admin/clients", query: q, out: &out}); err != nil {
		return nil, err
	}
	if out.Clients == nil {
		out.Clients = []model.Client{}
	}
	return &out, nil
}

// GetClient fetches a single client with stats and feature flags
func (g *Gateway) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var out model.Client
	if err := g.do(ctx, call{op: "get client", method: http.MethodGet, path: clientPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient is the direct create path: database record only
func (g *Gateway) CreateClient(ctx context.Context, c model.NewClient) (*model.Client, error) {
	var out model.Client
	if err := g.do(ctx, call{op: "create client", method: http.MethodPost, path: "/super-admin/clients", body: c, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClient applies a partial update and returns the updated client
func (g *Gateway) UpdateClient(ctx context.Context, id string, u model.ClientUpdate) (*model.Client, error) {
	var out model.Client
	if err := g.do(ctx, call{op: "update client", method: http.MethodPatch, path: clientPath(id), body: u, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetClientActive sets the client's active flag
func (g *Gateway) SetClientActive(ctx context.Context, id string, active bool) error {
	body := map[string]bool{"isActive": active}
	return g.do(ctx, call{op: "set client status", method: http.MethodPatch, path: clientPath(id) + "/status", body: body})
}

// AssignPlans replaces the client's plan assignment. Feature flags are
// recomputed by the backend.
func (g *Gateway) AssignPlans(ctx context.Context, id string, planIDs []string) error {
	if planIDs == nil {
		planIDs = []string{}
	}
	body := map[string][]string{"planIds": planIDs}
	return g.do(ctx, call{op: "assign plans", method: http.MethodPatch, path: clientPath(id) + "/plans", body: body})
}

// PreviewDeletion asks the backend what deleting the client would remove.
// A 2xx body carrying an error field is reported as a Rejection.
func (g *Gateway) PreviewDeletion(ctx context.Context, id string) (*model.DeletionPreview, error) {
	var out struct {
		model.DeletionPreview
		Error string `json:"error"`
	}
	if err := g.do(ctx, call{op: "preview deletion", method: http.MethodGet, path: clientPath(id) + "/deletion-preview", out: &out}); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &Rejection{Op: "preview deletion", Status: http.StatusOK, Message: out.Error}
	}
	return &out.DeletionPreview, nil
}

// DeleteClient executes the cascading deletion. A 2xx response may still
// report success=false; callers must check the result.
func (g *Gateway) DeleteClient(ctx context.Context, id string) (*model.DeletionResult, error) {
	var out model.DeletionResult
	if err := g.do(ctx, call{op: "delete client", method: http.MethodDelete, path: clientPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// OnboardClient provisions a tenant end to end on the backend
func (g *Gateway) OnboardClient(ctx context.Context, r model.OnboardingRequest) (*model.OnboardingResult, error) {
	var out model.OnboardingResult
	if err := g.do(ctx, call{op: "onboard client", method: http.MethodPost, path: "/admin/onboard-client", body: r, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ABOUTME: Plan definition endpoints: list, create, update, delete
// ABOUTME: Plan deletion never touches clients; the backend decides whether to allow it

package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/2389/verify-console/internal/model"
)

func planPath(id string) string {
	return "/super-admin/plans/" + url.PathEscape(id)
}

// ListPlans returns every plan definition
func (g *Gateway) ListPlans(ctx context.Context) ([]model.Plan, error) {
	var out struct {
		Plans []model.Plan `json:"plans"`
	}
	if err := g.do(ctx, call{op: "list plans", method: http.MethodGet, path: "/super-admin/plans", out: &out}); err != nil {
		return nil, err
	}
	if out.Plans == nil {
		out.Plans = []model.Plan{}
	}
	return out.Plans, nil
}

// CreatePlan creates a plan definition
func (g *Gateway) CreatePlan(ctx context.Context, p model.Plan) (*model.Plan, error) {
	var out model.Plan
	if err := g.do(ctx, call{op: "create plan", method: http.MethodPost, path: "/super-admin/plans", body: p, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlan replaces a plan definition
func (g *Gateway) UpdatePlan(ctx context.Context, id string, p model.Plan) (*model.Plan, error) {
	var out model.Plan
	if err := g.do(ctx, call{op: "update plan", method: http.MethodPatch, path: planPath(id), body: p, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlan deletes a plan definition
func (g *Gateway) DeletePlan(ctx context.Context, id string) error {
	return g.do(ctx, call{op: "delete plan", method: http.MethodDelete, path: planPath(id)})
}

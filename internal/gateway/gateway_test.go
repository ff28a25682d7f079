// ABOUTME: Tests for the admin API gateway against an httptest backend
// ABOUTME: Covers credential attachment, query building, error mapping and the unauthorized hook

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/verify-console/internal/auth"
	"github.com/2389/verify-console/internal/model"
)

// mockCredentials is a CredentialProvider that records invalidations.
type mockCredentials struct {
	mu          sync.Mutex
	token       string
	err         error
	invalidated int
}

func (m *mockCredentials) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func (m *mockCredentials) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
}

func (m *mockCredentials) Invalidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated
}

// recordedRequest captures what the fake backend received.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     any
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	status, payload := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func (f *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "backend received no requests")
	return f.requests[len(f.requests)-1]
}

func newTestGateway(t *testing.T, backend *fakeBackend, creds auth.CredentialProvider, onUnauthorized func()) *Gateway {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		Credentials:    creds,
		OnUnauthorized: onUnauthorized,
	})
}

func TestGateway_AttachesBearerAndRequestID(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{"status": "ok", "services": map[string]string{"db": "up"}}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "tok-123"}, nil)

	health, err := gw.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Services["db"])

	req := backend.last(t)
	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
	assert.Equal(t, "/super-admin/health", req.Path)
}

func TestGateway_ListClientsQuery(t *testing.T) {
	tests := []struct {
		name       string
		params     ListClientsParams
		wantSearch string
		wantStatus string
		hasStatus  bool
	}{
		{
			name:   "all sends no status",
			params: ListClientsParams{Page: 1, Limit: 25, Status: model.StatusAll},
		},
		{
			name:       "active with search",
			params:     ListClientsParams{Page: 2, Limit: 10, Search: "acme", Status: model.StatusActive},
			wantSearch: "acme",
			wantStatus: "active",
			hasStatus:  true,
		},
		{
			name:       "inactive",
			params:     ListClientsParams{Page: 1, Limit: 25, Status: model.StatusInactive},
			wantStatus: "inactive",
			hasStatus:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{body: map[string]any{
				"clients": []map[string]any{{"_id": "c1", "companyName": "Acme", "isActive": true}},
				"total":   1,
			}}
			gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

			list, err := gw.ListClients(context.Background(), tt.params)
			require.NoError(t, err)
			require.Len(t, list.Clients, 1)
			assert.Equal(t, "c1", list.Clients[0].ID)
			assert.Equal(t, 1, list.Total)

			req := backend.last(t)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/super-admin/clients", req.Path)
			assert.Equal(t, []string{strconv.Itoa(tt.params.Page)}, req.Query["page"])
			assert.Equal(t, []string{strconv.Itoa(tt.params.Limit)}, req.Query["limit"])
			if tt.wantSearch != "" {
				assert.Equal(t, tt.wantSearch, req.Query["search"][0])
			} else {
				assert.NotContains(t, req.Query, "search")
			}
			if tt.hasStatus {
				assert.Equal(t, tt.wantStatus, req.Query["status"][0])
			} else {
				assert.NotContains(t, req.Query, "status")
			}
		})
	}
}

func TestGateway_ListClientsNullClients(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{"clients": nil, "total": 0}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	list, err := gw.ListClients(context.Background(), ListClientsParams{Page: 1, Limit: 25})
	require.NoError(t, err)
	assert.NotNil(t, list.Clients)
	assert.Empty(t, list.Clients)
}

func TestGateway_UnauthorizedInvalidatesAndFiresHook(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized, body: map[string]string{"message": "jwt expired"}}
	creds := &mockCredentials{token: "stale"}
	fired := 0
	gw := newTestGateway(t, backend, creds, func() { fired++ })

	_, err := gw.GetClient(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsAuth(err))
	assert.False(t, errors.Is(err, ErrRejected))
	assert.Equal(t, 1, creds.Invalidations())
	assert.Equal(t, 1, fired)
}

func TestGateway_MissingCredentialIsAuthError(t *testing.T) {
	backend := &fakeBackend{}
	fired := 0
	gw := newTestGateway(t, backend, &mockCredentials{err: auth.ErrNoCredential}, func() { fired++ })

	_, err := gw.ListPlans(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, auth.ErrNoCredential))
	assert.Equal(t, 1, fired)
	assert.Empty(t, backend.requests, "no request should be sent without a credential")
}

func TestGateway_RejectionCarriesServerMessage(t *testing.T) {
	backend := &fakeBackend{status: http.StatusBadRequest, body: map[string]string{"message": "Email already exists"}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	_, err := gw.OnboardClient(context.Background(), model.OnboardingRequest{CompanyName: "Acme"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "Email already exists", MessageOf(err, "Onboarding failed"))
}

func TestGateway_RejectionWithoutMessageUsesFallback(t *testing.T) {
	backend := &fakeBackend{status: http.StatusInternalServerError}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	err := gw.SetClientActive(context.Background(), "c1", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Equal(t, "Request failed", MessageOf(err, "Request failed"))
}

func TestGateway_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := New(Options{BaseURL: url, Timeout: time.Second, Credentials: &mockCredentials{token: "t"}})
	_, err := gw.ListPlans(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, IsAuth(err))
	assert.Equal(t, "Failed to load plans", MessageOf(err, "Failed to load plans"))
}

func TestGateway_PreviewDeletionErrorField(t *testing.T) {
	backend := &fakeBackend{body: map[string]string{"error": "Client not found"}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	_, err := gw.PreviewDeletion(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Equal(t, "Client not found", MessageOf(err, "Failed to load deletion preview"))
	assert.Equal(t, "/super-admin/clients/missing/deletion-preview", backend.last(t).Path)
}

func TestGateway_PreviewDeletion(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{
		"client": map[string]any{"id": "c1", "companyName": "Acme Corp", "email": "ops@acme.test"},
		"willDelete": map[string]any{
			"applicants": 12, "verifications": 30, "auditEvents": 4, "identityUsers": 2, "identityOrg": true,
		},
	}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	preview, err := gw.PreviewDeletion(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", preview.Client.CompanyName)
	assert.Equal(t, 12, preview.WillDelete.Applicants)
	assert.True(t, preview.WillDelete.IdentityOrg)
}

func TestGateway_AssignPlansBody(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{"success": true}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	require.NoError(t, gw.AssignPlans(context.Background(), "c1", nil))

	req := backend.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/super-admin/clients/c1/plans", req.Path)
	assert.JSONEq(t, `{"planIds":[]}`, string(req.Body))
}

func TestGateway_OnboardOmitsEmptyPhoneAndPortal(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{
		"message": "Client onboarded",
		"client":  map[string]any{"id": "c9", "companyName": "Acme", "email": "a@acme.test", "apiKey": "key-1"},
	}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	req := model.NewOnboardingRequest()
	req.FirstName = "Ada"
	req.LastName = "Lovelace"
	req.Email = "a@acme.test"
	req.CompanyName = "Acme"
	req.Password = "hunter22!"
	req.PortalDomain = model.PortalSandbox

	res, err := gw.OnboardClient(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "key-1", res.Client.APIKey)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(backend.last(t).Body, &sent))
	assert.NotContains(t, sent, "phone")
	assert.NotContains(t, sent, "portalDomain")
	assert.Equal(t, "Acme", sent["companyName"])
}

func TestGateway_DeleteClientFailureResult(t *testing.T) {
	backend := &fakeBackend{body: map[string]any{"success": false, "message": "Identity org removal failed"}}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	res, err := gw.DeleteClient(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Identity org removal failed", res.Message)
	assert.Equal(t, http.MethodDelete, backend.last(t).Method)
}

func TestGateway_PlanPathsEscaped(t *testing.T) {
	backend := &fakeBackend{}
	gw := newTestGateway(t, backend, &mockCredentials{token: "t"}, nil)

	require.NoError(t, gw.DeletePlan(context.Background(), "basic plan"))
	assert.Equal(t, "/super-admin/plans/basic plan", backend.last(t).Path)
}

// ABOUTME: Onboarding request/result types and the portal domain enumeration
// ABOUTME: Validation here gates the only network call the onboarding workflow makes

package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted for a new client user
const MinPasswordLength = 8

// DefaultMaxApplicants is used when the operator leaves the limit blank or invalid
const DefaultMaxApplicants = 1000

// PortalDomain is the client portal a new tenant is pointed at
type PortalDomain string

const (
	PortalProduction PortalDomain = "app.getnobis.com"
	PortalSandbox    PortalDomain = "sandbox.getnobis.com"
	PortalStaging    PortalDomain = "staging.getnobis.com"
)

// PortalDomains lists the selectable portals; the first is the default.
var PortalDomains = []PortalDomain{PortalProduction, PortalSandbox, PortalStaging}

// ParsePortalDomain accepts one of PortalDomains; empty selects the default
func ParsePortalDomain(s string) (PortalDomain, error) {
	if s == "" {
		return PortalDomains[0], nil
	}
	for _, d := range PortalDomains {
		if PortalDomain(s) == d {
			return d, nil
		}
	}
	return "", &ValidationError{Field: "portalDomain", Reason: fmt.Sprintf("unknown portal %q", s)}
}

// ParseMaxApplicants mirrors the form behaviour: blank or unparsable input
// falls back to DefaultMaxApplicants.
func ParseMaxApplicants(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultMaxApplicants
	}
	return n
}

// OnboardingRequest is everything the operator enters to provision a tenant.
// PortalDomain is local only and never sent to the backend.
type OnboardingRequest struct {
	CompanyName   string       `json:"companyName"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Email         string       `json:"email"`
	Password      string       `json:"password"`
	Phone         string       `json:"phone,omitempty"`
	MaxApplicants int          `json:"maxApplicants"`
	PortalDomain  PortalDomain `json:"-"`
}

// NewOnboardingRequest returns an empty form with defaults applied
func NewOnboardingRequest() OnboardingRequest {
	return OnboardingRequest{
		MaxApplicants: DefaultMaxApplicants,
		PortalDomain:  PortalDomains[0],
	}
}

// Validate enforces the local submission gate
func (r OnboardingRequest) Validate() error {
	switch {
	case r.CompanyName == "":
		return &ValidationError{Field: "companyName", Reason: "is required"}
	case r.FirstName == "":
		return &ValidationError{Field: "firstName", Reason: "is required"}
	case r.LastName == "":
		return &ValidationError{Field: "lastName", Reason: "is required"}
	case r.Email == "":
		return &ValidationError{Field: "email", Reason: "is required"}
	case utf8.RuneCountInString(r.Password) < MinPasswordLength:
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if r.PortalDomain != "" {
		if _, err := ParsePortalDomain(string(r.PortalDomain)); err != nil {
			return err
		}
	}
	return nil
}

// OnboardedClient is the created database record
type OnboardedClient struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	APIKey      string `json:"apiKey"`
}

// IdentitySummary describes what the identity provider created
type IdentitySummary struct {
	OrgID      string `json:"orgId"`
	OrgName    string `json:"orgName"`
	UserID     string `json:"userId"`
	UserStatus string `json:"userStatus"`
}

// OnboardingResult is the backend's report of a completed onboarding.
// PortalDomain is echoed from the request by the workflow.
type OnboardingResult struct {
	Message      string          `json:"message"`
	Client       OnboardedClient `json:"client"`
	Identity     IdentitySummary `json:"identity"`
	PortalDomain PortalDomain    `json:"-"`
}

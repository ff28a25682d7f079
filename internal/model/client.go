// ABOUTME: Client (tenant) records as exchanged with the admin API
// ABOUTME: These are transient copies; the backend is the only source of truth

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// ClientStats holds server-reported usage statistics for a client
type ClientStats struct {
	ApplicantCount         int            `json:"applicantCount"`
	VerificationCount      int            `json:"verificationCount"`
	VerificationsBreakdown map[string]int `json:"verificationsBreakdown,omitempty"`
}

// Client is a tenant account on the verification platform.
// ActiveFeatures is computed by the backend from SubscriptionPlans and is never
// written by this module.
type Client struct {
	ID                string          `json:"_id"`
	FirstName         string          `json:"firstName"`
	LastName          string          `json:"lastName"`
	Email             string          `json:"email"`
	CompanyName       string          `json:"companyName"`
	Phone             string          `json:"phone,omitempty"`
	IsActive          bool            `json:"isActive"`
	MaxApplicants     int             `json:"maxApplicants"`
	RateLimit         int             `json:"rateLimit"`
	SubscriptionPlans PlanRefs        `json:"subscriptionPlans"`
	ActiveFeatures    map[string]bool `json:"activeFeatures,omitempty"`
	Stats             ClientStats     `json:"stats"`
	IdentityOrgID     string          `json:"auth0OrgId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// DisplayName returns the company name, falling back to the contact's full name
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.FirstName + " " + c.LastName
}

// Summary returns the short form of the client used by the deletion workflow
func (c *Client) Summary() ClientSummary {
	return ClientSummary{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
	}
}

// PlanRefs is the list of plan ids assigned to a client. The backend sends
// either bare ids or populated plan objects; both decode to ids.
type PlanRefs []string

// UnmarshalJSON accepts ["id", ...] and [{"_id": "id", ...}, ...]
func (p *PlanRefs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding plan refs: %w", err)
	}

	refs := make(PlanRefs, 0, len(raw))
	for _, item := range raw {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			refs = append(refs, id)
			continue
		}
		var obj struct {
			ID  string `json:"_id"`
			Alt string `json:"id"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("decoding plan ref %s: %w", string(item), err)
		}
		if obj.ID == "" {
			obj.ID = obj.Alt
		}
		refs = append(refs, obj.ID)
	}
	*p = refs
	return nil
}

// ClientUpdate is a partial update. Nil fields are left untouched by the backend.
type ClientUpdate struct {
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	Email         *string `json:"email,omitempty"`
	CompanyName   *string `json:"companyName,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	MaxApplicants *int    `json:"maxApplicants,omitempty"`
	RateLimit     *int    `json:"rateLimit,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u ClientUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.CompanyName == nil && u.Phone == nil && u.MaxApplicants == nil && u.RateLimit == nil
}

// NewClient is the payload for the direct create path, which provisions only
// the database record (no identity-provider organization).
type NewClient struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	CompanyName   string `json:"companyName,omitempty"`
	Password      string `json:"password"`
	Phone         string `json:"phone,omitempty"`
	MaxApplicants int    `json:"maxApplicants,omitempty"`
}

// Validate checks the required fields of a direct create
func (n NewClient) Validate() error {
	if n.FirstName == "" {
		return &ValidationError{Field: "firstName", Reason: "is required"}
	}
	if n.LastName == "" {
		return &ValidationError{Field: "lastName", Reason: "is required"}
	}
	if n.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if utf8.RuneCountInString(n.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// StatusFilter restricts a directory listing by the active flag
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter converts user input into a StatusFilter. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive, StatusInactive:
		return StatusFilter(s), nil
	default:
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown filter %q (use all, active, inactive)", s)}
	}
}

// ClientPage is one page of the client directory
type ClientPage struct {
	Items    []Client
	Total    int
	Page     int
	PageSize int
}

// Health is the backend's self-reported service status
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

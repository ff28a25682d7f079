// ABOUTME: Deletion preview and result types for cascading client removal
// ABOUTME: ExpectedConfirmation defines the literal an operator must type

package model

// ClientSummary is the minimal identification of a client in deletion payloads
type ClientSummary struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

// ExpectedConfirmation returns the company name, or the email when the client
// has no company name.
func (s ClientSummary) ExpectedConfirmation() string {
	if s.CompanyName != "" {
		return s.CompanyName
	}
	return s.Email
}

// DeletionImpact counts the dependent records a deletion would remove
type DeletionImpact struct {
	Applicants    int  `json:"applicants"`
	Verifications int  `json:"verifications"`
	AuditEvents   int  `json:"auditEvents"`
	IdentityUsers int  `json:"identityUsers"`
	IdentityOrg   bool `json:"identityOrg"`
}

// DeletionPreview is the read-only impact report fetched before confirmation
type DeletionPreview struct {
	Client     ClientSummary  `json:"client"`
	WillDelete DeletionImpact `json:"willDelete"`
}

// DeletionCleanup is what the backend reports it actually removed
type DeletionCleanup struct {
	IdentityOrgRemoved bool `json:"identityOrgRemoved"`
	Applicants         int  `json:"applicants"`
	Verifications      int  `json:"verifications"`
	AuditEvents        int  `json:"auditEvents"`
}

// DeletionResult is the outcome of an executed deletion
type DeletionResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Cleanup *DeletionCleanup `json:"cleanup,omitempty"`
}

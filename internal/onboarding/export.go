// ABOUTME: Pure export of a completed onboarding into a credential handoff record
// ABOUTME: Markdown is deterministic; HTML is rendered from it with goldmark

package onboarding

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389/verify-console/internal/model"
)

// Record is everything the operator hands to the new tenant
type Record struct {
	CompanyName        string
	ClientID           string
	Email              string
	Password           string
	APIKey             string
	PortalURL          string
	IdentityOrgID      string
	IdentityOrgName    string
	IdentityUserID     string
	IdentityUserStatus string
}

// Export builds the record from the onboarding result, the password the
// operator entered and the chosen portal. It performs no I/O.
func Export(result model.OnboardingResult, password string, portal model.PortalDomain) Record {
	if portal == "" {
		portal = model.PortalDomains[0]
	}
	return Record{
		CompanyName:        result.Client.CompanyName,
		ClientID:           result.Client.ID,
		Email:              result.Client.Email,
		Password:           password,
		APIKey:             result.Client.APIKey,
		PortalURL:          "https://" + string(portal),
		IdentityOrgID:      result.Identity.OrgID,
		IdentityOrgName:    result.Identity.OrgName,
		IdentityUserID:     result.Identity.UserID,
		IdentityUserStatus: result.Identity.UserStatus,
	}
}

// Markdown renders the record as a Markdown document
func (r Record) Markdown() string {
	var b strings.Builder
	title := r.CompanyName
	if title == "" {
		title = r.Email
	}
	fmt.Fprintf(&b, "# %s onboarding\n\n", escapeText(title))

	b.WriteString("## Portal access\n\n")
	row(&b, "Portal", r.PortalURL)
	row(&b, "Login email", r.Email)
	row(&b, "Password", r.Password)
	b.WriteString("\n")

	b.WriteString("## API access\n\n")
	row(&b, "Client ID", r.ClientID)
	row(&b, "API key", r.APIKey)
	b.WriteString("\n")

	if r.IdentityOrgID != "" || r.IdentityUserID != "" {
		b.WriteString("## Identity provider\n\n")
		row(&b, "Organization", r.IdentityOrgName)
		row(&b, "Organization ID", r.IdentityOrgID)
		row(&b, "User ID", r.IdentityUserID)
		row(&b, "User status", r.IdentityUserStatus)
		b.WriteString("\n")
	}

	b.WriteString("Change the password after first sign-in. Keep the API key secret.\n")
	return b.String()
}

// HTML renders the Markdown form as an HTML fragment
func (r Record) HTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("rendering onboarding record: %w", err)
	}
	return buf.String(), nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename suggests a file name for the record with the given extension
func (r Record) Filename(ext string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(r.CompanyName), "-"), "-")
	if slug == "" {
		slug = "client"
	}
	return fmt.Sprintf("onboarding-%s.%s", slug, strings.TrimPrefix(ext, "."))
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		fmt.Fprintf(b, "- **%s:** n/a\n", label)
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, codeSpan(value))
}

// codeSpan wraps s in a backtick fence longer than any backtick run inside it
func codeSpan(s string) string {
	longest, run := 0, 0
	for _, c := range s {
		if c == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

var markdownSpecial = regexp.MustCompile("([\\\\`*_{}\\[\\]()#+\\-.!<>|])")

func escapeText(s string) string {
	return markdownSpecial.ReplaceAllString(s, `\$1`)
}

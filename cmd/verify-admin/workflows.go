// ABOUTME: Guided onboarding and deletion commands driving the workflow state machines
// ABOUTME: Deletion shows the server preview and requires the exact company name

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/verify-console/internal/deletion"
	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/onboarding"
)

func (a *app) cmdOnboard(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)

	portal, err := model.ParsePortalDomain(flags["portal"])
	if err != nil {
		return err
	}

	wf := a.console.NewOnboarding()
	if err := wf.Open(); err != nil {
		return err
	}
	defer func() { _ = wf.Dismiss() }()

	req := wf.State().Request
	req.PortalDomain = portal
	req.CompanyName = flags["company"]
	req.FirstName = flags["first"]
	req.LastName = flags["last"]
	req.Email = flags["email"]
	req.Phone = flags["phone"]
	if v, ok := flags["max-applicants"]; ok {
		req.MaxApplicants = model.ParseMaxApplicants(v)
	}

	color.New(color.FgCyan).Printf("\n  Onboard a new client\n\n")
	var result *model.OnboardingResult
	for {
		if req, err = a.promptOnboarding(req); err != nil {
			return err
		}
		if err := wf.Edit(req); err != nil {
			return err
		}

		result, err = wf.Submit(ctx)
		if err == nil {
			break
		}

		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			color.Yellow("  %s\n\n", ve.Error())
		case gateway.IsAuth(err):
			return err
		default:
			color.Red("  %s\n", wf.State().LastError)
			again, cerr := a.confirm("  Edit and try again?")
			if cerr != nil {
				return cerr
			}
			if !again {
				return err
			}
		}
	}

	printOnboardingResult(result)

	rec, err := wf.Export()
	if err != nil {
		return err
	}
	if path := flags["save"]; path != "" {
		return saveRecord(rec, path)
	}
	save, err := a.confirm("  Save the credentials handoff as Markdown?")
	if err != nil || !save {
		return err
	}
	return saveRecord(rec, rec.Filename("md"))
}

// promptOnboarding asks for every field, offering the current values as defaults
func (a *app) promptOnboarding(req model.OnboardingRequest) (model.OnboardingRequest, error) {
	fields := []struct {
		label string
		dst   *string
	}{
		{"Company name", &req.CompanyName},
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Email", &req.Email},
		{"Phone (optional)", &req.Phone},
	}
	for _, f := range fields {
		v, err := a.prompt("  "+f.label, *f.dst)
		if err != nil {
			return req, err
		}
		*f.dst = strings.TrimSpace(v)
	}

	maxApplicants, err := a.prompt("  Max applicants", strconv.Itoa(req.MaxApplicants))
	if err != nil {
		return req, err
	}
	req.MaxApplicants = model.ParseMaxApplicants(maxApplicants)

	portal, err := a.prompt("  Portal", string(req.PortalDomain))
	if err != nil {
		return req, err
	}
	if req.PortalDomain, err = model.ParsePortalDomain(strings.TrimSpace(portal)); err != nil {
		color.Yellow("  %v, using %s\n", err, model.PortalDomains[0])
		req.PortalDomain = model.PortalDomains[0]
	}

	if req.Password, err = a.promptSecret(fmt.Sprintf("  Password (min %d characters)", model.MinPasswordLength)); err != nil {
		return req, err
	}
	return req, nil
}

func printOnboardingResult(res *model.OnboardingResult) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	green.Printf("✓ %s\n\n", orDash(res.Message))
	cyan.Println("  Client")
	fmt.Printf("  ID:            %s\n", res.Client.ID)
	fmt.Printf("  Company:       %s\n", res.Client.CompanyName)
	fmt.Printf("  Email:         %s\n", res.Client.Email)
	fmt.Printf("  API key:       %s\n", res.Client.APIKey)
	fmt.Printf("  Portal:        https://%s\n", res.PortalDomain)
	fmt.Println()
	cyan.Println("  Identity provider")
	fmt.Printf("  Organization:  %s (%s)\n", orDash(res.Identity.OrgName), orDash(res.Identity.OrgID))
	fmt.Printf("  User:          %s (%s)\n", orDash(res.Identity.UserID), orDash(res.Identity.UserStatus))
	fmt.Println()
	color.Yellow("  The API key is shown once. Store it before leaving this screen.\n\n")
}

// saveRecord writes the handoff as HTML for .html paths and Markdown otherwise
func saveRecord(rec onboarding.Record, path string) error {
	content := rec.Markdown()
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
		html, err := rec.HTML()
		if err != nil {
			return err
		}
		content = html
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	color.Green("✓ Saved credentials handoff to %s\n", path)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clients delete <client-id>")
	}

	client, err := a.console.Directory().Get(ctx, args[0])
	if err != nil {
		return err
	}

	wf := a.console.NewDeletion()
	defer func() { _ = wf.Close() }()

	preview, err := wf.Open(ctx, client.Summary())
	if err != nil {
		if errors.Is(err, deletion.ErrPreviewUnavailable) {
			color.Red("  Cannot delete: %s\n", wf.State().PreviewError)
		}
		return err
	}
	printDeletionPreview(preview)

	proceed, err := a.confirm("  Continue to confirmation?")
	if err != nil || !proceed {
		return err
	}
	if err := wf.Continue(); err != nil {
		return err
	}

	expected := wf.State().Expected()
	for {
		text, err := a.prompt(fmt.Sprintf("  Type %q to permanently delete (blank to cancel)", expected), "")
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Println("  Cancelled.")
			return nil
		}
		if err := wf.SetConfirmation(text); err != nil {
			return err
		}

		outcome, err := wf.Execute(ctx)
		switch {
		case errors.Is(err, deletion.ErrConfirmationMismatch):
			color.Yellow("  That does not match. Type the name exactly as shown.\n")
			continue
		case errors.Is(err, deletion.ErrConfirmationLocked):
			color.Red("  Too many failed confirmations for this client. Try again later.\n")
			return err
		}
		if outcome != nil {
			printDeletionOutcome(outcome)
		}
		if err != nil {
			return err
		}
		if !outcome.Success {
			return errors.New(outcome.Message)
		}
		return nil
	}
}

func printDeletionPreview(p *model.DeletionPreview) {
	red := color.New(color.FgRed, color.Bold)
	fmt.Println()
	red.Printf("  Deleting %s removes everything below. This cannot be undone.\n\n", p.Client.ExpectedConfirmation())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Applicants\t%d\n", p.WillDelete.Applicants)
	fmt.Fprintf(w, "  Verifications\t%d\n", p.WillDelete.Verifications)
	fmt.Fprintf(w, "  Audit events\t%d\n", p.WillDelete.AuditEvents)
	fmt.Fprintf(w, "  Identity users\t%d\n", p.WillDelete.IdentityUsers)
	org := "no"
	if p.WillDelete.IdentityOrg {
		org = "yes"
	}
	fmt.Fprintf(w, "  Identity organization\t%s\n", org)
	w.Flush()
	fmt.Println()
}

func printDeletionOutcome(o *deletion.Outcome) {
	if !o.Success {
		color.Red("✗ %s\n", o.Message)
		return
	}
	color.Green("✓ %s\n", orDash(o.Message))
	if c := o.Cleanup; c != nil {
		fmt.Printf("  Applicants removed:      %d\n", c.Applicants)
		fmt.Printf("  Verifications removed:   %d\n", c.Verifications)
		fmt.Printf("  Audit events removed:    %d\n", c.AuditEvents)
		fmt.Printf("  Identity org removed:    %t\n", c.IdentityOrgRemoved)
	}
}

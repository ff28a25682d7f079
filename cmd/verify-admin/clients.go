// ABOUTME: Client directory commands: list, show, create, edit, toggle, plans, export
// ABOUTME: Every mutation is followed by the directory's own reload

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/verify-console/internal/entitlements"
	"github.com/2389/verify-console/internal/model"
)

// cmdClients handles clients subcommands
func (a *app) cmdClients(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return a.cmdClientsList(ctx, args)
	case "show", "get":
		return a.cmdClientsShow(ctx, args)
	case "create", "add":
		return a.cmdClientsCreate(ctx, args)
	case "edit", "update":
		return a.cmdClientsEdit(ctx, args)
	case "toggle":
		return a.cmdClientsToggle(ctx, args)
	case "plans":
		return a.cmdClientsPlans(ctx, args)
	case "export":
		return a.cmdClientsExport(ctx, args)
	case "onboard":
		return a.cmdOnboard(ctx, args)
	case "delete", "rm", "remove":
		return a.cmdDelete(ctx, args)
	default:
		return fmt.Errorf("unknown clients subcommand: %s (use list, show, create, edit, toggle, plans, export, onboard, delete)", subcmd)
	}
}

// loadListing applies --page, --search and --status and fetches that page
func (a *app) loadListing(ctx context.Context, flags map[string]string) (model.ClientPage, error) {
	page := 1
	if v, ok := flags["page"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.ClientPage{}, fmt.Errorf("--page must be a number, got %q", v)
		}
		page = n
	}
	status, err := model.ParseStatusFilter(flags["status"])
	if err != nil {
		return model.ClientPage{}, err
	}
	return a.console.Directory().Load(ctx, page, 0, flags["search"], status)
}

func (a *app) cmdClientsList(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)
	page, err := a.loadListing(ctx, flags)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Clients")
	cyan.Println("  -------")

	if len(page.Items) == 0 {
		fmt.Println("  (no clients match)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tCOMPANY\tCONTACT\tEMAIL\tSTATUS\tPLANS\tCREATED")
	fmt.Fprintln(w, "  --\t-------\t-------\t-----\t------\t-----\t-------")
	for _, c := range page.Items {
		created := "-"
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.Format("Jan 02 2006")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			truncate(c.ID, 12),
			truncate(orDash(c.CompanyName), 24),
			truncate(strings.TrimSpace(c.FirstName+" "+c.LastName), 20),
			truncate(c.Email, 28),
			activeLabel(c.IsActive),
			len(c.SubscriptionPlans),
			created,
		)
	}
	w.Flush()

	pageSize := max(page.PageSize, 1)
	pages := (page.Total + pageSize - 1) / pageSize
	fmt.Printf("\n  Page %d of %d (%d clients)\n\n", page.Page, max(pages, 1), page.Total)
	return nil
}

func (a *app) cmdClientsShow(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clients show <client-id>")
	}
	client, ents, err := a.console.Entitlements(ctx, args[0])
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  %s\n", client.DisplayName())
	cyan.Println("  " + strings.Repeat("-", len(client.DisplayName())))
	fmt.Printf("  ID:              %s\n", client.ID)
	fmt.Printf("  Contact:         %s %s\n", client.FirstName, client.LastName)
	fmt.Printf("  Email:           %s\n", client.Email)
	fmt.Printf("  Phone:           %s\n", orDash(client.Phone))
	fmt.Printf("  Status:          %s\n", activeLabel(client.IsActive))
	fmt.Printf("  Max applicants:  %d\n", client.MaxApplicants)
	fmt.Printf("  Rate limit:      %d\n", client.RateLimit)
	fmt.Printf("  Identity org:    %s\n", orDash(client.IdentityOrgID))
	fmt.Printf("  Plans:           %s\n", orDash(strings.Join(client.SubscriptionPlans, ", ")))
	fmt.Println()
	cyan.Println("  Usage")
	fmt.Printf("  Applicants:      %d\n", client.Stats.ApplicantCount)
	fmt.Printf("  Verifications:   %d\n", client.Stats.VerificationCount)
	if len(client.Stats.VerificationsBreakdown) > 0 {
		kinds := make([]string, 0, len(client.Stats.VerificationsBreakdown))
		for k := range client.Stats.VerificationsBreakdown {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("    %-16s %d\n", k+":", client.Stats.VerificationsBreakdown[k])
		}
	}
	fmt.Println()
	printEntitlements(ents)
	return nil
}

func (a *app) cmdFeatures(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: features <client-id>")
	}
	client, ents, err := a.console.Entitlements(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println()
	color.New(color.FgCyan).Printf("  %s\n\n", client.DisplayName())
	printEntitlements(ents)
	return nil
}

func printEntitlements(ents []entitlements.Entitlement) {
	cyan := color.New(color.FgCyan)
	cyan.Printf("  Features (%d of %d enabled)\n", entitlements.EnabledCount(ents), len(ents))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range ents {
		mark := color.HiBlackString("off")
		if e.Enabled {
			mark = color.GreenString("on")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", mark, e.Label, color.HiBlackString(e.Description))
	}
	w.Flush()
	fmt.Println()
}

func (a *app) cmdClientsCreate(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)
	nc := model.NewClient{
		FirstName:   flags["first"],
		LastName:    flags["last"],
		Email:       flags["email"],
		CompanyName: flags["company"],
		Phone:       flags["phone"],
	}
	if v, ok := flags["max-applicants"]; ok {
		nc.MaxApplicants = model.ParseMaxApplicants(v)
	}
	if nc.FirstName == "" || nc.LastName == "" || nc.Email == "" {
		return fmt.Errorf("usage: clients create --first <name> --last <name> --email <email> [--company <name>] [--phone <phone>] [--max-applicants <n>]")
	}

	password, err := a.promptSecret("Initial password (min 8 characters)")
	if err != nil {
		return err
	}
	nc.Password = password

	created, err := a.console.Directory().Create(ctx, nc)
	if err != nil {
		return err
	}

	color.Green("✓ Created client: %s\n", created.ID)
	fmt.Printf("  Company:  %s\n", orDash(created.CompanyName))
	fmt.Printf("  Email:    %s\n", created.Email)
	return nil
}

func (a *app) cmdClientsEdit(ctx context.Context, args []string) error {
	flags, positional := parseArgs(args)
	if len(positional) < 1 {
		return fmt.Errorf("usage: clients edit <client-id> [--first --last --email --company --phone --max-applicants --rate-limit]")
	}

	var u model.ClientUpdate
	setString := func(flag string, dst **string) {
		if v, ok := flags[flag]; ok {
			*dst = &v
		}
	}
	setString("first", &u.FirstName)
	setString("last", &u.LastName)
	setString("email", &u.Email)
	setString("company", &u.CompanyName)
	setString("phone", &u.Phone)

	setInt := func(flag string, dst **int) error {
		v, ok := flags[flag]
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("--%s must be a non-negative number, got %q", flag, v)
		}
		*dst = &n
		return nil
	}
	if err := setInt("max-applicants", &u.MaxApplicants); err != nil {
		return err
	}
	if err := setInt("rate-limit", &u.RateLimit); err != nil {
		return err
	}

	if err := a.console.Directory().Update(ctx, positional[0], u); err != nil {
		return err
	}
	color.Green("✓ Updated client: %s\n", positional[0])
	return nil
}

func (a *app) cmdClientsToggle(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clients toggle <client-id>")
	}
	id := args[0]

	client, err := a.console.Directory().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.console.Directory().ToggleActive(ctx, id, client.IsActive); err != nil {
		return err
	}
	color.Green("✓ %s is now %s\n", client.DisplayName(), activeLabel(!client.IsActive))
	return nil
}

func (a *app) cmdClientsPlans(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clients plans <client-id> [plan-id-or-name,...]")
	}
	id := args[0]

	var refs []string
	if len(args) > 1 {
		for _, r := range strings.Split(args[1], ",") {
			if r = strings.TrimSpace(r); r != "" {
				refs = append(refs, r)
			}
		}
	}

	catalog := a.console.Plans()
	if len(refs) > 0 {
		if err := catalog.Reload(ctx); err != nil {
			return err
		}
	}
	planIDs := make([]string, 0, len(refs))
	for _, r := range refs {
		p, ok := catalog.Find(r)
		if !ok {
			return fmt.Errorf("no plan with id or name %q", r)
		}
		planIDs = append(planIDs, p.ID)
	}

	if err := a.console.Directory().AssignPlans(ctx, id, planIDs); err != nil {
		return err
	}
	if len(planIDs) == 0 {
		color.Green("✓ Cleared plans for %s\n", id)
		return nil
	}
	color.Green("✓ Assigned %d plan(s) to %s\n", len(planIDs), id)
	return nil
}

func (a *app) cmdClientsExport(ctx context.Context, args []string) error {
	flags, positional := parseArgs(args)
	path := "clients.xlsx"
	if len(positional) > 0 {
		path = positional[0]
	}

	page, err := a.loadListing(ctx, flags)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := a.console.Directory().ExportSpreadsheet(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	color.Green("✓ Exported %d client(s) to %s\n", len(page.Items), path)
	return nil
}

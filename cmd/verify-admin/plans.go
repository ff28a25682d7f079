// ABOUTME: Plan catalog commands: list, create, update, delete, apply
// ABOUTME: Outcomes are reported through the catalog's notifier

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/plans"
)

// cmdPlans handles plans subcommands
func (a *app) cmdPlans(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return a.cmdPlansList(ctx)
	case "create", "add":
		return a.cmdPlansCreate(ctx, args)
	case "update", "edit":
		return a.cmdPlansUpdate(ctx, args)
	case "delete", "rm", "remove":
		return a.cmdPlansDelete(ctx, args)
	case "apply":
		return a.cmdPlansApply(ctx, args)
	default:
		return fmt.Errorf("unknown plans subcommand: %s (use list, create, update, delete, apply)", subcmd)
	}
}

func (a *app) cmdPlansList(ctx context.Context) error {
	catalog := a.console.Plans()
	if err := catalog.Reload(ctx); err != nil {
		return err
	}
	list := catalog.Plans()

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Plans")
	cyan.Println("  -----")

	if len(list) == 0 {
		fmt.Println("  (no plans)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tMODULES\tRISK\tSANCTIONS\tPRICE")
	fmt.Fprintln(w, "  --\t----\t-------\t----\t---------\t-----")
	for _, p := range list {
		modules := make([]string, len(p.Modules))
		for i, m := range p.Modules {
			modules[i] = string(m)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%.2f\n",
			truncate(p.ID, 12),
			truncate(p.Name, 24),
			truncate(strings.Join(modules, ","), 40),
			p.RiskLevel,
			p.SanctionsLevel,
			p.PricePerVerification,
		)
	}
	w.Flush()
	fmt.Println()
	return nil
}

// applyPlanFlags overlays --name, --description, --modules, --risk,
// --sanctions and --price onto p
func applyPlanFlags(p model.Plan, flags map[string]string) (model.Plan, error) {
	if v, ok := flags["name"]; ok {
		p.Name = v
	}
	if v, ok := flags["description"]; ok {
		p.Description = v
	}
	if v, ok := flags["modules"]; ok {
		p.Modules = nil
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				p.Modules = append(p.Modules, model.Module(m))
			}
		}
	}
	for flag, dst := range map[string]*model.Level{"risk": &p.RiskLevel, "sanctions": &p.SanctionsLevel} {
		v, ok := flags[flag]
		if !ok {
			continue
		}
		level, err := parseLevel(v)
		if err != nil {
			return p, fmt.Errorf("--%s: %w", flag, err)
		}
		*dst = level
	}
	if v, ok := flags["price"]; ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("--price must be a number, got %q", v)
		}
		p.PricePerVerification = price
	}
	return p, nil
}

func parseLevel(s string) (model.Level, error) {
	switch strings.ToLower(s) {
	case "0", "low":
		return model.LevelLow, nil
	case "1", "medium":
		return model.LevelMedium, nil
	case "2", "high":
		return model.LevelHigh, nil
	default:
		return 0, fmt.Errorf("unknown level %q (use low, medium, high or 0-2)", s)
	}
}

func (a *app) cmdPlansCreate(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)
	if flags["name"] == "" || flags["modules"] == "" {
		return fmt.Errorf("usage: plans create --name <name> --modules <m1,m2> [--risk low|medium|high] [--sanctions low|medium|high] [--price <n>] [--description <text>]")
	}
	p, err := applyPlanFlags(model.Plan{}, flags)
	if err != nil {
		return err
	}
	created, err := a.console.Plans().Create(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("  ID: %s\n", created.ID)
	return nil
}

func (a *app) cmdPlansUpdate(ctx context.Context, args []string) error {
	flags, positional := parseArgs(args)
	if len(positional) < 1 {
		return fmt.Errorf("usage: plans update <plan-id-or-name> [--name --modules --risk --sanctions --price --description]")
	}

	catalog := a.console.Plans()
	if err := catalog.Reload(ctx); err != nil {
		return err
	}
	existing, ok := catalog.Find(positional[0])
	if !ok {
		return fmt.Errorf("no plan with id or name %q", positional[0])
	}

	p, err := applyPlanFlags(existing, flags)
	if err != nil {
		return err
	}
	_, err = catalog.Update(ctx, existing.ID, p)
	return err
}

func (a *app) cmdPlansDelete(ctx context.Context, args []string) error {
	flags, positional := parseArgs(args, "yes")
	if len(positional) < 1 {
		return fmt.Errorf("usage: plans delete <plan-id-or-name> [--yes]")
	}

	catalog := a.console.Plans()
	if err := catalog.Reload(ctx); err != nil {
		return err
	}
	p, ok := catalog.Find(positional[0])
	if !ok {
		return fmt.Errorf("no plan with id or name %q", positional[0])
	}

	confirmed := flags["yes"] == "true"
	if !confirmed {
		var err error
		confirmed, err = a.confirm(fmt.Sprintf("  Delete plan %q?", p.Name))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("  Cancelled.")
			return nil
		}
	}
	return catalog.Delete(ctx, p.ID, confirmed)
}

func (a *app) cmdPlansApply(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: plans apply <definitions.toml>")
	}
	defs, err := plans.LoadDefinitions(args[0])
	if err != nil {
		return err
	}

	catalog := a.console.Plans()
	if err := catalog.Reload(ctx); err != nil {
		return err
	}
	_, err = catalog.Apply(ctx, defs)
	return err
}

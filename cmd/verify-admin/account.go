// ABOUTME: Session and housekeeping commands: status, login, logout, journal
// ABOUTME: The journal is the local record of mutations this console made

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

	"github.com/2389/verify-console/internal/store"
)

func (a *app) cmdStatus(ctx context.Context) error {
	cfg := a.console.Config()
	cyan := color.New(color.FgCyan)

	fmt.Println()
	cyan.Println("  Console")
	fmt.Printf("  API:       %s\n", cfg.API.BaseURL)
	fmt.Printf("  Operator:  %s\n", a.console.Actor(ctx))
	fmt.Printf("  Journal:   %s\n", cfg.Journal.Path)
	fmt.Println()

	health, err := a.console.Gateway().Health(ctx)
	if err != nil {
		return err
	}

	cyan.Println("  Backend")
	status := color.GreenString(orDash(health.Status))
	if !strings.EqualFold(health.Status, "ok") && !strings.EqualFold(health.Status, "healthy") {
		status = color.YellowString(orDash(health.Status))
	}
	fmt.Printf("  Status:    %s\n", status)

	names := make([]string, 0, len(health.Services))
	for name := range health.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("    %-16s %s\n", name+":", health.Services[name])
	}
	fmt.Println()
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = a.promptSecret("Access token"); err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("usage: login [token]")
	}

	actor, err := a.console.SignIn(ctx, token)
	if err != nil {
		return err
	}
	color.Green("✓ Signed in as %s\n", actor)
	return nil
}

func (a *app) cmdLogout() error {
	a.console.SignOut()
	color.Green("✓ Signed out\n")
	return nil
}

func (a *app) cmdJournal(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)

	filter := store.AuditFilter{Limit: 50}
	if v, ok := flags["limit"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("--limit must be a positive number, got %q", v)
		}
		filter.Limit = n
	}
	if v, ok := flags["action"]; ok {
		action := store.AuditAction(v)
		if !action.Valid() {
			return fmt.Errorf("unknown action %q", v)
		}
		filter.Action = &action
	}
	if v, ok := flags["target"]; ok {
		filter.TargetID = &v
	}

	entries, err := a.console.Journal(ctx, filter)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Journal")
	cyan.Println("  -------")

	if len(entries) == 0 {
		fmt.Println("  (no entries)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TIME\tOPERATOR\tACTION\tTARGET")
	fmt.Fprintln(w, "  ----\t--------\t------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(e.Actor, 24),
			e.Action,
			orDash(strings.Trim(e.TargetType+" "+e.TargetID, " ")),
		)
	}
	w.Flush()
	fmt.Println()
	return nil
}

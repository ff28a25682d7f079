// ABOUTME: Admin CLI for the identity-verification platform's tenant lifecycle
// ABOUTME: Onboards, edits, deletes clients and manages plans over the admin REST API

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/verify-console/internal/config"
	"github.com/2389/verify-console/internal/console"
	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/plans"
)

const banner = `
                _  __                    _           _
 __   _____ _ _(_)/ _|_   _      __ _  __| |_ __ ___ (_)_ __
 \ \ / / _ \ '__| | |_| | | |___ / _' |/ _' | '_ ' _ \| | '_ \
  \ V /  __/ |  | |  _| |_| |___| (_| | (_| | | | | | | | | | |
   \_/ \___|_|  |_|_|  \__, |    \__,_|\__,_|_| |_| |_|_|_| |_|
                       |___/
`

// signInRequired is set by the gateway when the backend rejects the credential
var signInRequired atomic.Bool

// app carries what every command needs
type app struct {
	console *console.Console
	in      *bufio.Reader
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	config.LoadDotEnv()
	cfg, err := config.LoadOrDefault(config.Path())
	if err != nil {
		color.Red("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Logging)

	c, err := console.New(cfg, console.Options{
		Notifier:       plans.NotifierFunc(printNotice),
		OnUnauthorized: func() { signInRequired.Store(true) },
		Logger:         logger,
	})
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{console: c, in: bufio.NewReader(os.Stdin)}

	switch cmd {
	case "status":
		err = a.cmdStatus(ctx)
	case "login":
		err = a.cmdLogin(ctx, args)
	case "logout":
		err = a.cmdLogout()
	case "clients":
		err = a.cmdClients(ctx, args)
	case "plans":
		err = a.cmdPlans(ctx, args)
	case "features":
		err = a.cmdFeatures(ctx, args)
	case "journal":
		err = a.cmdJournal(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		err = errUsage
	}

	cancel()
	if cerr := c.Close(); cerr != nil {
		logger.Error("closing console", "error", cerr)
	}
	os.Exit(exitCode(err))
}

var errUsage = errors.New("usage")

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 1
	case gateway.IsAuth(err) || signInRequired.Load():
		color.Red("Error: %v\n", err)
		color.Yellow("Your session is missing or expired. Sign in again with: verify-admin login\n")
		return 2
	default:
		color.Red("Error: %v\n", err)
		return 1
	}
}

func printNotice(n plans.Notice) {
	if n.Kind == plans.NoticeError {
		color.Red("✗ %s\n", n.Message)
		return
	}
	color.Green("✓ %s\n", n.Message)
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: verify-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  status                       Show backend health and your identity")
	fmt.Println("  login [token]                Store an access token (prompted if omitted)")
	fmt.Println("  logout                       Forget the stored access token")
	fmt.Println("  clients [list]               List clients (--page, --search, --status)")
	fmt.Println("  clients show <id>            Show a client with usage and features")
	fmt.Println("  clients create               Create a client record (--first --last --email --company)")
	fmt.Println("  clients edit <id>            Edit client fields (--company --email --max-applicants ...)")
	fmt.Println("  clients toggle <id>          Flip a client between active and inactive")
	fmt.Println("  clients plans <id> [ids]     Replace a client's plans (comma separated, empty clears)")
	fmt.Println("  clients export [file.xlsx]   Export the current listing as a spreadsheet")
	fmt.Println("  clients onboard              Provision a tenant end to end (interactive)")
	fmt.Println("  clients delete <id>          Permanently delete a client (interactive)")
	fmt.Println("  plans [list]                 List plan definitions")
	fmt.Println("  plans create                 Create a plan (--name --modules --risk --sanctions --price)")
	fmt.Println("  plans update <id>            Update a plan (same flags as create)")
	fmt.Println("  plans delete <id> [--yes]    Delete a plan")
	fmt.Println("  plans apply <file.toml>      Create or update plans from a definitions file")
	fmt.Println("  features <id>                Show a client's feature entitlements")
	fmt.Println("  journal                      Show local operator journal (--limit --action --target)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  VERIFY_CONFIG                Config file path (default ~/.config/verify-console/config.yaml)")
	fmt.Println("  VERIFY_API_URL               Admin API base URL")
	fmt.Println("  VERIFY_TOKEN                 Access token (overrides the stored token)")
	fmt.Println("  VERIFY_JOURNAL               Journal database path")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  verify-admin login")
	fmt.Println("  verify-admin clients --search acme --status active")
	fmt.Println("  verify-admin clients onboard --portal sandbox.getnobis.com --save acme.md")
	fmt.Println("  verify-admin plans apply plans.toml")
	fmt.Println()
}

// parseArgs splits --flag value pairs from positional arguments. Flags listed
// in boolFlags take no value.
func parseArgs(args []string, boolFlags ...string) (map[string]string, []string) {
	flags := map[string]string{}
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			flags[k] = v
			continue
		}
		if slices.Contains(boolFlags, name) {
			flags[name] = "true"
			continue
		}
		if i+1 < len(args) {
			flags[name] = args[i+1]
			i++
		} else {
			flags[name] = ""
		}
	}
	return flags, positional
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func activeLabel(active bool) string {
	if active {
		return color.GreenString("active")
	}
	return color.HiBlackString("inactive")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

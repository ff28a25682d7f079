// ABOUTME: Interactive prompts for the CLI's guided workflows
// ABOUTME: Secrets are read without echo when stdin is a terminal

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var errAborted = errors.New("aborted")

// prompt asks for a line of input, returning def when the answer is blank
func (a *app) prompt(label, def string) (string, error) {
	if def != "" {
		color.New(color.FgCyan).Printf("%s [%s]: ", label, def)
	} else {
		color.New(color.FgCyan).Printf("%s: ", label)
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return "", errAborted
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return def, nil
	}
	return line, nil
}

// promptSecret reads a value without echoing it
func (a *app) promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return a.prompt(label, "")
	}
	color.New(color.FgCyan).Printf("%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

// confirm asks a yes/no question; anything but y/yes is no
func (a *app) confirm(label string) (bool, error) {
	answer, err := a.prompt(label+" (y/N)", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

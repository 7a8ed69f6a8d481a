// Package editor opens local issue files in the user's editor.
package editor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/issuetree/internal/domain"
)

// Editor implements domain.Editor by running an interactive command.
type Editor struct {
	executor domain.CommandExecutor
	command  string // Configured command; may carry arguments
}

// Ensure Editor implements domain.Editor interface.
var _ domain.Editor = (*Editor)(nil)

// New creates an Editor. An empty command falls back to the environment.
func New(executor domain.CommandExecutor, command string) *Editor {
	return &Editor{executor: executor, command: command}
}

// resolve returns the editor command line.
// It checks the configured command, then EDITOR, then VISUAL, and defaults to vim.
func (e *Editor) resolve() []string {
	for _, candidate := range []string{e.command, os.Getenv("EDITOR"), os.Getenv("VISUAL")} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vim"}
}

// Edit opens path and blocks until the editor exits.
func (e *Editor) Edit(ctx context.Context, path string) error {
	fields := e.resolve()
	args := append(fields[1:len(fields):len(fields)], path)
	if err := e.executor.ExecuteInteractive(ctx, domain.NewCommand(fields[0], args, "")); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", fields[0], err)
	}
	return nil
}

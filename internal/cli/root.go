// Package cli provides the command-line interface for issuetree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/issuetree/internal/app"
)

// Command group IDs.
const (
	groupIssue   = "issue"
	groupBlocker = "blocker"
	groupSetup   = "setup"
)

// NewRootCommand creates the root command for issuetree.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "issuetree",
		Short: "Edit GitHub issue trees as local text files",
		Long: `issuetree keeps a GitHub issue, its sub-issues and their comments in one
local text file. Edit the file, then push: only the differences against the
last-synced snapshot are sent, parents before children, and a failure in one
subtree does not stop the others.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupIssue, Title: "Issue Commands:"},
		&cobra.Group{ID: groupBlocker, Title: "Blocker Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	openCmd := newOpenCommand(c)
	openCmd.GroupID = groupIssue

	pullCmd := newPullCommand(c)
	pullCmd.GroupID = groupIssue

	pushCmd := newPushCommand(c)
	pushCmd.GroupID = groupIssue

	newCmd := newNewCommand(c)
	newCmd.GroupID = groupIssue

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupIssue

	showCmd := newShowCommand(c)
	showCmd.GroupID = groupIssue

	browseCmd := newBrowseCommand(c)
	browseCmd.GroupID = groupIssue

	blockerCmd := newBlockerCommand(c)
	blockerCmd.GroupID = groupBlocker

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(
		openCmd,
		pullCmd,
		pushCmd,
		newCmd,
		statusCmd,
		showCmd,
		browseCmd,
		blockerCmd,
		configCmd,
	)

	return root
}

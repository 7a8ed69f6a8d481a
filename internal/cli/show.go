package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/issuetree/internal/app"
	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/tui"
	"github.com/runoshun/issuetree/internal/usecase"
)

func newShowCommand(c *app.Container) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "show [issue]",
		Short: "Print the outline of a local issue file",
		Long: `Print the issue tree of a local file: one line per issue with its close
state, blocker progress and current blocker.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.target(c, optionalArg(args))
			if err != nil {
				return err
			}
			out, err := c.ShowIssueUseCase().Execute(cmd.Context(), t)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render(out.File))
			printOutline(cmd.OutOrStdout(), out.Nodes)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

// printOutline writes one indented line per node.
func printOutline(w io.Writer, nodes []usecase.IssueNode) {
	for _, node := range nodes {
		check, title := "[ ]", node.Title
		if node.Closed {
			check, title = "[x]", styles.Done.Render(title)
		}
		line := strings.Repeat("  ", node.Depth) + check + " " + title + " " + styles.Link.Render(node.Identity)
		if node.Blockers > 0 {
			line += " " + styles.Muted.Render(fmt.Sprintf("%d/%d", node.Done, node.Blockers))
		}
		if node.Comments > 0 {
			line += " " + styles.Muted.Render(fmt.Sprintf("%d comment(s)", node.Comments))
		}
		if node.Current != nil && !node.Closed {
			line += " " + styles.Current.Render("-> "+node.Current.Description)
		}
		if node.Warning != "" {
			line += " " + styles.Warning.Render("! "+node.Warning)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

// runTUIFunc starts the interactive browser. Replaced in tests.
var runTUIFunc = func(cmd *cobra.Command, m tea.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}

func newBrowseCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [issue]",
		Short: "Browse synced issue trees interactively",
		Long: `Open an interactive browser over the synced issue trees. Select a tree to
see its outline and mark blockers done without opening an editor.

With an issue argument the browser starts on that tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var start domain.IssueLink
			if len(args) == 1 {
				link, err := resolveLink(c, args[0])
				if err != nil {
					return err
				}
				start = link
			}
			return runTUIFunc(cmd, tui.New(c, start))
		},
	}
}

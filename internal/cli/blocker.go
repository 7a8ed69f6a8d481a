package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runoshun/issuetree/internal/app"
	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

// targetFlags selects the issue node the blocker commands work on.
type targetFlags struct {
	File string
	Path string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.File, "file", "", "Local issue file (instead of an issue argument)")
	cmd.Flags().StringVar(&f.Path, "path", "", "Node inside the tree as child indices, e.g. 0.2 (default: root)")
}

// target builds the use case target from an optional issue argument and the flags.
func (f *targetFlags) target(c *app.Container, issue string) (usecase.BlockerTarget, error) {
	var t usecase.BlockerTarget
	path, err := domain.ParsePath(f.Path)
	if err != nil {
		return t, err
	}
	t.Path = path
	t.File = f.File
	if issue != "" {
		link, err := resolveLink(c, issue)
		if err != nil {
			return t, err
		}
		t.Link = link
	} else if f.File == "" {
		return t, errors.New("an issue or --file is required")
	}
	return t, nil
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// newBlockerCommand creates the blocker command.
func newBlockerCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocker",
		Short: "Work with blocker sequences",
		Long: `Inspect and edit the ordered blocker list at the end of an issue body.

Blockers are numbered lines ("1. setup", "2.a docs"). The first open item of
the lowest group whose prerequisites are done is the current one. Changes
are written to the local file and reach the tracker on the next push.`,
	}

	cmd.AddCommand(newBlockerListCommand(c))
	cmd.AddCommand(newBlockerCurrentCommand(c))
	cmd.AddCommand(newBlockerAddCommand(c))
	cmd.AddCommand(newBlockerPopCommand(c))

	return cmd
}

func newBlockerListCommand(c *app.Container) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "list [issue]",
		Short: "Show the blockers of an issue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.target(c, optionalArg(args))
			if err != nil {
				return err
			}
			out, err := c.ListBlockersUseCase().Execute(cmd.Context(), t)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printWarnings(cmd.ErrOrStderr(), out.Warnings)
			_, _ = fmt.Fprintln(w, styles.Header.Render(out.Title))
			if len(out.Items) == 0 {
				_, _ = fmt.Fprintln(w, styles.Muted.Render("No blockers"))
				return nil
			}
			printBlockers(w, out.Items, out.Current)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

// printBlockers writes the items, marking the current one.
func printBlockers(w io.Writer, items []domain.BlockerItem, current *domain.BlockerItem) {
	for _, item := range items {
		line := item.Line()
		switch {
		case current != nil && item.Ordinal == current.Ordinal && item.Description == current.Description:
			line = styles.Current.Render("> " + line)
		case item.Done:
			line = styles.Done.Render("  " + line)
		default:
			line = "  " + line
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func newBlockerCurrentCommand(c *app.Container) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "current [issue]",
		Short: "Show what to work on next",
		Long: `Show the first actionable blocker in the subtree, searching open issues
parent first. The item is printed with the titles of the issues above it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.target(c, optionalArg(args))
			if err != nil {
				return err
			}
			out, err := c.CurrentBlockerUseCase().Execute(cmd.Context(), t)
			if errors.Is(err, domain.ErrNoBlockers) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Context(), styles.Muted.Render("("+out.Path.String()+")"))
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newBlockerAddCommand(c *app.Container) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "add [issue] <description>",
		Short: "Append a blocker",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, desc := "", args[0]
			if len(args) == 2 {
				issue, desc = args[0], args[1]
			}
			t, err := flags.target(c, issue)
			if err != nil {
				return err
			}
			out, err := c.AddBlockerUseCase().Execute(cmd.Context(), usecase.AddBlockerInput{
				Description: desc,
				Target:      t,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", out.Item.Line())
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newBlockerPopCommand(c *app.Container) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "pop [issue]",
		Short: "Mark the current blocker done",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.target(c, optionalArg(args))
			if err != nil {
				return err
			}
			out, err := c.PopBlockerUseCase().Execute(cmd.Context(), t)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Done: %s\n", styles.Success.Render(out.Done.Description))
			if out.Next != nil {
				_, _ = fmt.Fprintf(w, "Next: %s\n", out.Next.Description)
			} else {
				_, _ = fmt.Fprintln(w, "All blockers done")
			}
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

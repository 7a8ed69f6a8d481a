package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/issuetree/internal/app"
	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

// newOpenCommand creates the open command.
func newOpenCommand(c *app.Container) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "open <issue>",
		Short: "Edit an issue tree and push the changes",
		Long: `Pull an issue tree, open it in the editor and push the result.

The issue can be a URL, owner/repo#N, or a bare number in the default
repository (github.repo, otherwise the origin remote).

If the local file has unpushed edits from an interrupted cycle it is
reopened as is. With --offline the cached copy is edited and nothing is
sent to the tracker; run 'issuetree push' later.

Examples:
  issuetree open 42
  issuetree open acme/app#42
  issuetree open https://github.com/acme/app/issues/42 --offline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := resolveLink(c, args[0])
			if err != nil {
				return err
			}

			uc := c.OpenIssueUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.OpenIssueInput{
				CurrentUser: c.CurrentUser(),
				Link:        link,
				Offline:     offline,
			})
			w := cmd.OutOrStdout()
			if out != nil {
				printWarnings(cmd.ErrOrStderr(), out.Warnings)
				if out.Resumed {
					_, _ = fmt.Fprintf(w, "Resumed unpushed edits in %s\n", out.Path)
				}
				if out.Sync != nil {
					if syncErr := printSync(w, out.Sync, false); err == nil {
						err = syncErr
					}
				} else if offline {
					_, _ = fmt.Fprintf(w, "Saved %s; run 'issuetree push %s' to send it\n", out.Path, link)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Edit the cached copy without contacting the tracker")

	return cmd
}

// newPullCommand creates the pull command.
func newPullCommand(c *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull <issue>",
		Short: "Fetch an issue tree into a local file",
		Long: `Fetch an issue with all its sub-issues and comments, store it as the
last-synced snapshot and write the local file.

A local file with unpushed edits is left alone unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := resolveLink(c, args[0])
			if err != nil {
				return err
			}

			uc := c.PullIssueUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.PullIssueInput{
				CurrentUser: c.CurrentUser(),
				Link:        link,
				Force:       force,
			})
			if errors.Is(err, domain.ErrLocalChanges) {
				return fmt.Errorf("%w; push them first or pull with --force", err)
			}
			if err != nil {
				return err
			}

			printWarnings(cmd.ErrOrStderr(), out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s (%d issues) -> %s\n",
				styles.Link.Render(link.String()), len(out.Issue.Flatten()), out.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite unpushed local edits")

	return cmd
}

// newPushCommand creates the push command.
func newPushCommand(c *app.Container) *cobra.Command {
	var opts struct {
		File   string
		Repo   string
		DryRun bool
		Force  bool
	}

	cmd := &cobra.Command{
		Use:   "push [issue]",
		Short: "Push local edits of an issue tree",
		Long: `Compare the local file with the last-synced snapshot and apply the
difference to the tracker.

Actions run parent first. When an action fails, the rest of its subtree is
skipped while sibling subtrees continue; the local file keeps every issue
and comment that was created, so fixing the problem and pushing again only
sends what is still missing.

The push is refused when an issue it would modify changed remotely since
the snapshot; pull first or pass --force.

Examples:
  issuetree push 42 --dry-run
  issuetree push --file .issuetree/drafts/acme/app/release-plan.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.SyncIssueInput{
				File:        opts.File,
				CurrentUser: c.CurrentUser(),
				DryRun:      opts.DryRun,
				Force:       opts.Force,
			}
			if len(args) == 1 {
				link, err := resolveLink(c, args[0])
				if err != nil {
					return err
				}
				in.Link = link
			} else if opts.File == "" {
				return errors.New("an issue or --file is required")
			}
			if opts.Repo != "" {
				repo, err := domain.ParseRepoRef(opts.Repo)
				if err != nil {
					return err
				}
				in.Repo = repo
			} else if repo, err := c.DefaultRepo(); err == nil {
				in.Repo = repo
			}

			uc := c.SyncIssueUseCase()
			out, err := uc.Execute(cmd.Context(), in)
			if out != nil {
				if printErr := printSync(cmd.OutOrStdout(), out, opts.DryRun); err == nil {
					err = printErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "Local file to push (default: the file of the issue)")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository for a new root issue (owner/repo)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show the planned actions without applying them")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Push even if issues changed remotely")

	return cmd
}

// newNewCommand creates the new command for drafting a root issue.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Body   string
		Name   string
		Repo   string
		Labels []string
	}

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Draft a new root issue",
		Long: `Write a draft file for a new issue tree.

Add sub-issues and blockers to the draft, then push it with
'issuetree push --file <draft>'. The issue is created on the first push.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolveRepo(c, opts.Repo)
			if err != nil {
				return err
			}

			uc := c.NewIssueUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.NewIssueInput{
				Title:  args[0],
				Body:   opts.Body,
				Name:   opts.Name,
				Labels: opts.Labels,
				Repo:   repo,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created draft: %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "Issue body")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Draft file name (default: derived from the title)")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository (owner/repo)")
	cmd.Flags().StringArrayVar(&opts.Labels, "label", nil, "Labels (can specify multiple)")

	return cmd
}

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List synced issue trees",
		Long: `List every synced issue tree with the number of actions the next push
would send. Works offline.

Output columns:
  ISSUE, ISSUES, PENDING, SYNCED, TITLE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListIssuesUseCase()
			out, err := uc.Execute(cmd.Context())
			if err != nil {
				return err
			}
			if len(out.Issues) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No synced issues")
				return nil
			}
			printStatus(cmd.OutOrStdout(), out.Issues, c.Clock.Now())
			return nil
		},
	}

	return cmd
}

// printStatus writes the status table.
func printStatus(w io.Writer, issues []usecase.IssueStatus, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ISSUE\tISSUES\tPENDING\tSYNCED\tTITLE")
	for _, st := range issues {
		pending := fmt.Sprintf("%d", st.Pending)
		switch {
		case st.Err != nil:
			pending = "error: " + st.Err.Error()
		case !st.HasLocal:
			pending = "no file"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			st.Link, st.Issues, pending, formatAge(now.Sub(st.SavedAt)), st.Title)
	}
	_ = tw.Flush()
}

// formatAge renders a duration the way the status table shows it.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

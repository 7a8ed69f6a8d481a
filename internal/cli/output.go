package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

// printWarnings writes one styled line per warning.
func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		_, _ = fmt.Fprintln(w, styles.Warning.Render("Warning: "+msg))
	}
}

// printPreviews writes the planned actions with their text diffs.
func printPreviews(w io.Writer, previews []usecase.ActionPreview) {
	for _, p := range previews {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Link.Render("*"), p.Action)
		if p.Diff == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(p.Diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				line = styles.Added.Render(line)
			case strings.HasPrefix(line, "-"):
				line = styles.Removed.Render(line)
			default:
				line = styles.Muted.Render(line)
			}
			_, _ = fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// printResult summarizes a push.
func printResult(w io.Writer, r *domain.PushResult) {
	for _, f := range r.Failed {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", styles.Error.Render("failed"), f.Action, f.Err)
	}
	for _, a := range r.Skipped {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("skipped"), a)
	}
	summary := fmt.Sprintf("Applied %d action(s)", len(r.Applied))
	if r.OK() {
		_, _ = fmt.Fprintln(w, styles.Success.Render(summary))
		return
	}
	_, _ = fmt.Fprintln(w, styles.Error.Render(fmt.Sprintf("%s, %d failed, %d skipped", summary, len(r.Failed), len(r.Skipped))))
}

// printSync writes the outcome of a sync and returns an error when the
// push did not fully apply.
func printSync(w io.Writer, out *usecase.SyncIssueOutput, dryRun bool) error {
	printWarnings(w, out.Plan.Warnings)
	if out.Plan.IsEmpty() {
		_, _ = fmt.Fprintln(w, "Nothing to push")
		return nil
	}
	printPreviews(w, out.Previews)
	if dryRun || out.Result == nil {
		_, _ = fmt.Fprintf(w, "Dry run: %d action(s) planned\n", len(out.Plan.Actions))
		return nil
	}
	printResult(w, out.Result)
	if out.Link != (domain.IssueLink{}) {
		_, _ = fmt.Fprintf(w, "Synced %s -> %s\n", styles.Link.Render(out.Link.String()), out.Path)
	}
	if !out.Result.OK() {
		return fmt.Errorf("push incomplete; fix %s and push again: %w", out.Path, domain.ErrRemoteActionFailed)
	}
	return nil
}

package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/site-records/internal/metadata"
)

// PrintReview writes the end-of-run summary: counts, failures, and every flagged file
// with its flagged fields.
func PrintReview(w io.Writer, sum Summary, flags *metadata.ReviewFlags) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Fprintln(w, "\nRun summary")
	_, _ = green.Fprintf(w, "  processed:  %d\n", sum.Processed)
	_, _ = fmt.Fprintf(w, "  duplicates: %d (relabeled %d)\n", sum.Duplicates, sum.Relabeled)
	if sum.Failed > 0 {
		_, _ = red.Fprintf(w, "  failed:     %d\n", sum.Failed)
		names := make([]string, 0, len(sum.Failures))
		for n := range sum.Failures {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			_, _ = red.Fprintf(w, "    ✗ %s: %v\n", n, sum.Failures[n])
		}
	}

	if flags == nil || flags.Len() == 0 {
		_, _ = green.Fprintln(w, "\nNo documents need manual review.")
		return
	}
	_, _ = yellow.Fprintf(w, "\n%d document(s) need manual review:\n", flags.Len())
	for _, name := range flags.Filenames() {
		_, _ = yellow.Fprintf(w, "  ⚠ %s: %s\n", name, strings.Join(flags.Fields(name), ", "))
	}
}

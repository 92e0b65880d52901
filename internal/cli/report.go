package cli

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/merchdesk/internal/importer"
)

// maxPrintedWarnings caps the warnings printed per import.
const maxPrintedWarnings = 5

// printReport writes counts, every error and the first few warnings.
func printReport(w io.Writer, kind importer.Kind, file string, res importer.Result) {
	sum := res.Summary()
	status := "ok"
	if !sum.Success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s %s: %s (%d rows)\n", kind, file, status, sum.Rows)
	for _, c := range res.Counts() {
		fmt.Fprintf(w, "  %s: %d\n", c.Label, c.N)
	}

	if len(sum.Errors) > 0 {
		fmt.Fprintf(w, "  Errors (%d):\n", len(sum.Errors))
		for _, e := range sum.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
	if len(sum.Warnings) > 0 {
		fmt.Fprintf(w, "  Warnings (%d):\n", len(sum.Warnings))
		for i, warning := range sum.Warnings {
			if i == maxPrintedWarnings {
				fmt.Fprintf(w, "    ... and %d more warnings\n", len(sum.Warnings)-maxPrintedWarnings)
				break
			}
			fmt.Fprintf(w, "    - %s\n", warning)
		}
	}
}

package engine

import (
	"fmt"
	"strings"

	"tidy/internal/classifier"
)

// NoFilesMessage is shown when a run moved nothing.
const NoFilesMessage = "No files were organized."

// FormatSummary renders an outcome for the user: one line per category in
// declared order, then the backup location.
func FormatSummary(out *Outcome) string {
	if out == nil || out.Result == nil || out.Result.Moved() == 0 {
		return NoFilesMessage
	}

	var b strings.Builder
	b.WriteString("Organization Summary:\n\n")
	for _, c := range classifier.Categories() {
		if n := out.Result.Summary[c]; n > 0 {
			fmt.Fprintf(&b, "• %s: %d file(s)\n", c, n)
		}
	}
	fmt.Fprintf(&b, "\nBackup created at:\n%s", out.BackupDir)
	return b.String()
}

// FormatUndo renders the result of an undo pass.
func FormatUndo(restored int) string {
	return fmt.Sprintf("Undo complete! Restored %d files.", restored)
}

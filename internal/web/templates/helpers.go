package templates

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/merger/internal/core"
)

func previewCaption(p *core.Preview) string {
	if p.Truncated {
		return fmt.Sprintf("(first %d of %d rows)", len(p.Rows), p.TotalRows)
	}
	return fmt.Sprintf("(%d rows)", p.TotalRows)
}

func workingShape(snap *core.Snapshot) string {
	return fmt.Sprintf("Working table: %d rows, %d columns", snap.WorkingRows, len(snap.WorkingColumns))
}

// sourceClass marks a source as merged or still available.
func sourceClass(snap *core.Snapshot, id string) string {
	if slices.Contains(snap.Remaining, id) {
		return "remaining"
	}
	return "merged"
}

func rowCount(n int) string {
	return fmt.Sprintf("%d rows", n)
}

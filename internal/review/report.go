package review

import (
	"fmt"

	"github.com/revuhq/revu/internal/models"
	"github.com/revuhq/revu/internal/output"
)

// renderReport prints the sorted findings as an overview table followed by
// one detail block per finding.
func renderReport(ui *output.UI, rev *models.Review) {
	fmt.Fprintln(ui.Out)
	ui.Info("%s", rev.Summary)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"#", "Severity", "Conf", "Location", "Title"})
	for _, f := range rev.Findings {
		_ = table.Append([]string{
			fmt.Sprintf("%d", f.ID),
			output.SeverityColor(f.Severity),
			fmt.Sprintf("%d%%", f.Confidence),
			fmt.Sprintf("%s:%d", f.File, f.Line),
			f.Title,
		})
	}
	_ = table.Render()

	for i := range rev.Findings {
		fmt.Fprintln(ui.Out)
		renderFinding(ui, &rev.Findings[i], i+1, len(rev.Findings))
	}
}

// renderFinding prints one finding's detail block.
func renderFinding(ui *output.UI, f *models.Finding, index, total int) {
	fmt.Fprintf(ui.Out, "[%d/%d] %s %s (%s:%d, confidence %d%%)\n",
		index, total, output.SeverityColor(f.Severity), f.Title, f.File, f.Line, f.Confidence)
	fmt.Fprintf(ui.Out, "  why: %s\n", f.Why)
	fmt.Fprintf(ui.Out, "  %s\n", f.Body)
}

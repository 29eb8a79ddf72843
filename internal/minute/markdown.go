package minute

import (
	"fmt"
	"strings"

	"github.com/zulandar/minutes/internal/models"
)

// Markdown renders a minute as a markdown document. title is usually the
// series name.
func Markdown(doc *models.Minute, title string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", title, doc.Date.Format("2006-01-02"))
	if doc.IsFinalized {
		b.WriteString("_Finalized_\n\n")
	} else {
		b.WriteString("_Draft_\n\n")
	}

	for i, t := range doc.Topics {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, t.Subject)
		if len(t.Items) == 0 {
			b.WriteString("_No items._\n\n")
			continue
		}
		for _, it := range t.Items {
			if !it.IsActionItem() {
				fmt.Fprintf(&b, "- %s\n", it.Subject)
				writeDetails(&b, it)
				continue
			}
			box := " "
			if it.Status == models.StatusCompleted {
				box = "x"
			}
			fmt.Fprintf(&b, "- [%s] **%s** (%s, %s)", box, it.Subject, it.Status, it.Priority)
			if it.DueDate != nil {
				fmt.Fprintf(&b, " due %s", it.DueDate.Format("2006-01-02"))
			}
			if len(it.Responsibles) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(it.Responsibles, ", "))
			}
			if it.IsImported {
				b.WriteString(" _(carried over)_")
			}
			b.WriteString("\n")
			writeDetails(&b, it)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeDetails(b *strings.Builder, it models.InfoItem) {
	if it.Details != "" {
		for _, line := range strings.Split(it.Details, "\n") {
			fmt.Fprintf(b, "  > %s\n", line)
		}
	}
	for _, n := range it.Notes {
		fmt.Fprintf(b, "  - %s\n", n)
	}
}

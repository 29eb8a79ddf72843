package telegraph

import (
	"fmt"
	"strings"
)

// Color constants for item urgency.
const (
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// FormatDigest renders a digest as a chat message for channelID.
func FormatDigest(d *Digest, channelID string) OutboundMessage {
	msg := OutboundMessage{ChannelID: channelID}
	switch n := len(d.Items); {
	case n == 0:
		msg.Text = fmt.Sprintf("*%s*: no open action items", d.Series.Name)
		return msg
	case d.Overdue > 0:
		msg.Text = fmt.Sprintf("*%s*: %s (%d overdue)", d.Series.Name, plural(n, "open action item"), d.Overdue)
	default:
		msg.Text = fmt.Sprintf("*%s*: %s", d.Series.Name, plural(n, "open action item"))
	}

	for _, it := range d.Items {
		evt := FormattedEvent{
			Title: it.Subject,
			Body:  it.Details,
			Color: ColorInfo,
			Fields: []Field{
				{Name: "Status", Value: it.Status, Short: true},
				{Name: "Priority", Value: it.Priority, Short: true},
				{Name: "From", Value: it.SourceDate.Format("2006-01-02") + " / " + it.TopicSubject, Short: true},
			},
		}
		if it.Priority == "high" {
			evt.Color = ColorWarning
		}
		if it.DueDate != nil {
			due := it.DueDate.Format("2006-01-02")
			if isOverdue(it, d.GeneratedAt) {
				due += " (overdue)"
				evt.Color = ColorError
			}
			evt.Fields = append(evt.Fields, Field{Name: "Due", Value: due, Short: true})
		}
		if len(it.Responsibles) > 0 {
			evt.Fields = append(evt.Fields, Field{Name: "Responsible", Value: strings.Join(it.Responsibles, ", ")})
		}
		msg.Events = append(msg.Events, evt)
	}
	return msg
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

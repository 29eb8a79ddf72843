// Package telegraph posts pending action-item digests to chat platforms
// (Slack, Discord).
package telegraph

import "context"

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string           // target channel
	Text      string           // message text (platform-native formatting)
	Events    []FormattedEvent // structured attachments, one per action item
}

// FormattedEvent is one action item formatted for display in chat.
type FormattedEvent struct {
	Title  string  // item headline
	Body   string  // detail text
	Color  string  // sidebar color hint (e.g. "#36a64f")
	Fields []Field // key-value metadata pairs
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

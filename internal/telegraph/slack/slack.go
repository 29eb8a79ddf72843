// Package slack delivers digests to a Slack channel through the Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/minutes/internal/telegraph"
)

const (
	maxRetries = 3

	// maxAttachments keeps each post well under Slack's attachment limit.
	// Longer digests continue in a thread under the first post.
	maxAttachments = 20
)

// slackClient is the part of *slack.Client the adapter calls.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter posts digests to Slack.
type Adapter struct {
	client    slackClient
	channelID string
	backoff   time.Duration
}

// AdapterOpts configures New. Client replaces the Web API client in tests.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	Client    slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	a := &Adapter{client: opts.Client, channelID: opts.ChannelID, backoff: time.Second}
	if a.client != nil {
		return a, nil
	}
	if opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	a.client = slackapi.New(opts.BotToken)
	return a, nil
}

// Send posts msg to its channel, or the adapter's default channel. Items
// beyond the first maxAttachments are posted as thread replies.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	var threadTS string
	for i, opts := range messageParts(msg) {
		if threadTS != "" {
			opts = append(opts, slackapi.MsgOptionTS(threadTS))
		}
		ts, err := a.post(ctx, channelID, opts)
		if err != nil {
			return fmt.Errorf("slack: post part %d to %s: %w", i+1, channelID, err)
		}
		if threadTS == "" {
			threadTS = ts
		}
	}
	return nil
}

// messageParts splits msg into posts of at most maxAttachments items. The
// first post carries msg.Text.
func messageParts(msg telegraph.OutboundMessage) [][]slackapi.MsgOption {
	if len(msg.Events) == 0 {
		return [][]slackapi.MsgOption{{slackapi.MsgOptionText(msg.Text, false)}}
	}
	var parts [][]slackapi.MsgOption
	for start := 0; start < len(msg.Events); start += maxAttachments {
		end := min(start+maxAttachments, len(msg.Events))
		text := msg.Text
		if start > 0 {
			text = fmt.Sprintf("items %d-%d of %d", start+1, end, len(msg.Events))
		}
		atts := make([]slackapi.Attachment, 0, end-start)
		for _, evt := range msg.Events[start:end] {
			atts = append(atts, itemAttachment(evt))
		}
		parts = append(parts, []slackapi.MsgOption{
			slackapi.MsgOptionText(text, false),
			slackapi.MsgOptionAttachments(atts...),
		})
	}
	return parts
}

func itemAttachment(evt telegraph.FormattedEvent) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return att
}

// post sends one message and returns its timestamp. A rate-limited post
// waits for Slack's Retry-After, or a doubling backoff when none is given.
func (a *Adapter) post(ctx context.Context, channelID string, opts []slackapi.MsgOption) (string, error) {
	backoff := a.backoff
	for attempt := 1; ; attempt++ {
		_, ts, err := a.client.PostMessageContext(ctx, channelID, opts...)
		if err == nil {
			return ts, nil
		}
		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt > maxRetries {
			return "", err
		}
		wait := rle.RetryAfter
		if wait <= 0 {
			wait = backoff
			backoff *= 2
		}
		log.Printf("slack: rate limited on %s, retry %d/%d in %v", channelID, attempt, maxRetries, wait)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
}

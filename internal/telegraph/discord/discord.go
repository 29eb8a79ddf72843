// Package discord delivers digests to a Discord channel over the REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/minutes/internal/telegraph"
)

const (
	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 30 * time.Second

	// maxEmbeds is the number of embeds Discord accepts in one message.
	maxEmbeds = 10
)

// session is the part of *discordgo.Session the adapter calls.
type session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter posts digests to Discord. Digests with more items than fit in one
// message continue as replies to the first one.
type Adapter struct {
	sess        session
	channelID   string
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// AdapterOpts configures New. Session replaces the REST session in tests.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	Session   session
}

// New creates a Discord Adapter. No gateway connection is opened.
func New(opts AdapterOpts) (*Adapter, error) {
	a := &Adapter{
		sess:        opts.Session,
		channelID:   opts.ChannelID,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
	if a.sess != nil {
		return a, nil
	}
	if opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	dg, err := discordgo.New("Bot " + opts.BotToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	a.sess = dg
	return a, nil
}

// Send posts msg to its channel, or the adapter's default channel.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	var first *discordgo.Message
	for i, data := range splitMessage(msg) {
		if first != nil {
			data.Reference = first.SoftReference()
		}
		sent, err := a.post(ctx, channelID, data)
		if err != nil {
			return fmt.Errorf("discord: send part %d of %s: %w", i+1, channelID, err)
		}
		if first == nil {
			first = sent
		}
	}
	return nil
}

// splitMessage turns msg into one or more Discord messages of at most
// maxEmbeds embeds. Only the first carries msg.Text.
func splitMessage(msg telegraph.OutboundMessage) []*discordgo.MessageSend {
	parts := (len(msg.Events) + maxEmbeds - 1) / maxEmbeds
	if parts == 0 {
		return []*discordgo.MessageSend{{Content: msg.Text}}
	}
	out := make([]*discordgo.MessageSend, 0, parts)
	for p := 0; p < parts; p++ {
		data := &discordgo.MessageSend{}
		if p == 0 {
			data.Content = msg.Text
		} else {
			data.Content = fmt.Sprintf("_(continued %d/%d)_", p+1, parts)
		}
		end := min((p+1)*maxEmbeds, len(msg.Events))
		for _, evt := range msg.Events[p*maxEmbeds : end] {
			data.Embeds = append(data.Embeds, itemEmbed(evt))
		}
		out = append(out, data)
	}
	return out
}

func itemEmbed(evt telegraph.FormattedEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       colorValue(evt.Color),
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// colorValue converts "#rrggbb" to Discord's integer color. Invalid input
// yields 0, which Discord renders as the default color.
func colorValue(hex string) int {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// post sends one message, waiting out 429 responses up to maxRetries times.
func (a *Adapter) post(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	backoff := a.baseBackoff
	for attempt := 1; ; attempt++ {
		m, err := a.sess.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
		if err == nil {
			return m, nil
		}
		wait, limited := retryAfter(err)
		if !limited || attempt > maxRetries {
			return nil, err
		}
		if wait <= 0 {
			wait = min(backoff, a.maxBackoff)
			backoff *= 2
		}
		log.Printf("discord: rate limited on %s, retry %d/%d in %v", channelID, attempt, maxRetries, wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter reports whether err is a 429 and how long Discord asked us to
// wait, if it said.
func retryAfter(err error) (time.Duration, bool) {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil ||
		restErr.Response.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	secs, perr := strconv.ParseFloat(restErr.Response.Header.Get("Retry-After"), 64)
	if perr != nil || secs <= 0 {
		return 0, true
	}
	return time.Duration(secs * float64(time.Second)), true
}

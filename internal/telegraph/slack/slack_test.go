package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/minutes/internal/telegraph"
)

type mockSlackClient struct {
	mu       sync.Mutex
	posted   []postedMessage
	failures []error // returned, in order, before posts succeed
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func (m *mockSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return "", "", err
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, fmt.Sprintf("1700000000.%06d", len(m.posted)), nil
}

func (m *mockSlackClient) postedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

// values renders posted options into the form values Slack would receive.
func values(t *testing.T, opts []slackapi.MsgOption) map[string]string {
	t.Helper()
	_, vals, err := slackapi.UnsafeApplyMsgOptions("xoxb-test", "C1", "https://slack.com/api/", opts...)
	if err != nil {
		t.Fatalf("apply options: %v", err)
	}
	out := make(map[string]string)
	for k := range vals {
		out[k] = vals.Get(k)
	}
	return out
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Fatalf("err = %v, want bot token error", err)
	}
	if _, err := New(AdapterOpts{BotToken: "xoxb-test"}); err != nil {
		t.Fatalf("New with token: %v", err)
	}
}

func TestSend_UsesDefaultChannel(t *testing.T) {
	client := &mockSlackClient{}
	a, err := New(AdapterOpts{Client: client, ChannelID: "C_DEFAULT"})
	if err != nil {
		t.Fatal(err)
	}

	msg := telegraph.OutboundMessage{
		Text: "2 open action items",
		Events: []telegraph.FormattedEvent{
			{Title: "Ship", Color: telegraph.ColorError, Fields: []telegraph.Field{{Name: "Due", Value: "2026-10-01", Short: true}}},
			{Title: "Docs"},
		},
	}
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.postedCount() != 1 {
		t.Fatalf("posted = %d, want 1", client.postedCount())
	}
	p := client.posted[0]
	if p.channelID != "C_DEFAULT" {
		t.Errorf("channel = %q, want C_DEFAULT", p.channelID)
	}
	v := values(t, p.options)
	if v["text"] != "2 open action items" {
		t.Errorf("text = %q", v["text"])
	}
	if !strings.Contains(v["attachments"], `"title":"Ship"`) || !strings.Contains(v["attachments"], `"title":"Docs"`) {
		t.Errorf("attachments = %s", v["attachments"])
	}

	msg.ChannelID = "C_OTHER"
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if client.posted[1].channelID != "C_OTHER" {
		t.Errorf("explicit channel ignored: %q", client.posted[1].channelID)
	}
}

func TestSend_LongDigestContinuesInThread(t *testing.T) {
	client := &mockSlackClient{}
	a, _ := New(AdapterOpts{Client: client, ChannelID: "C1"})

	msg := telegraph.OutboundMessage{Text: "45 open action items"}
	for i := 0; i < 45; i++ {
		msg.Events = append(msg.Events, telegraph.FormattedEvent{Title: fmt.Sprintf("item %d", i)})
	}
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.postedCount() != 3 {
		t.Fatalf("posted = %d, want 3", client.postedCount())
	}

	first := values(t, client.posted[0].options)
	if first["text"] != "45 open action items" || first["thread_ts"] != "" {
		t.Errorf("first post = %v", first)
	}
	last := values(t, client.posted[2].options)
	if last["text"] != "items 41-45 of 45" {
		t.Errorf("last text = %q", last["text"])
	}
	for i := 1; i < 3; i++ {
		if ts := values(t, client.posted[i].options)["thread_ts"]; ts != "1700000000.000001" {
			t.Errorf("post %d thread_ts = %q, want first post's ts", i, ts)
		}
	}
}

func TestSend_NoChannel(t *testing.T) {
	a, _ := New(AdapterOpts{Client: &mockSlackClient{}})
	err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "no channel") {
		t.Errorf("err = %v, want no channel error", err)
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	client := &mockSlackClient{failures: []error{
		&slackapi.RateLimitedError{RetryAfter: time.Millisecond},
		&slackapi.RateLimitedError{},
	}}
	a, _ := New(AdapterOpts{Client: client, ChannelID: "C1"})
	a.backoff = time.Millisecond
	if err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.postedCount() != 1 {
		t.Errorf("posted = %d, want 1 after retry", client.postedCount())
	}
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	client := &mockSlackClient{}
	for i := 0; i <= maxRetries; i++ {
		client.failures = append(client.failures, &slackapi.RateLimitedError{RetryAfter: time.Millisecond})
	}
	a, _ := New(AdapterOpts{Client: client, ChannelID: "C1"})
	if err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "hi"}); err == nil {
		t.Fatal("expected error after retries")
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	client := &mockSlackClient{failures: []error{fmt.Errorf("channel_not_found")}}
	a, _ := New(AdapterOpts{Client: client, ChannelID: "C1"})
	err := a.Send(context.Background(), telegraph.OutboundMessage{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("err = %v", err)
	}
	if client.postedCount() != 0 {
		t.Errorf("posted = %d, want 0", client.postedCount())
	}
}

func TestItemAttachment(t *testing.T) {
	att := itemAttachment(telegraph.FormattedEvent{
		Title:  "Ship",
		Body:   "after review",
		Color:  "#e53935",
		Fields: []telegraph.Field{{Name: "Priority", Value: "high", Short: true}},
	})
	if att.Title != "Ship" || att.Text != "after review" || att.Color != "#e53935" || att.Fallback != "Ship" {
		t.Errorf("attachment = %+v", att)
	}
	if len(att.Fields) != 1 || att.Fields[0].Title != "Priority" || !att.Fields[0].Short {
		t.Errorf("fields = %+v", att.Fields)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
owner: alice

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: minutes
  password: s3cret
  database: minutes_team

server:
  port: 9090
  session_ttl: 30m

series:
  - name: Weekly sync
    project: platform
  - name: Retro
    project: platform

digest:
  schedule: "0 9 * * 1"
  platform: slack
  channel: C123
  slack:
    bot_token: xoxb-token
`

const minimalYAML = `
owner: bob
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Owner != "alice" {
		t.Errorf("Owner = %q, want %q", cfg.Owner, "alice")
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "10.0.0.5")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 3307)
	}
	if cfg.Database.User != "minutes" {
		t.Errorf("Database.User = %q, want %q", cfg.Database.User, "minutes")
	}
	if cfg.Database.Database != "minutes_team" {
		t.Errorf("Database.Database = %q, want %q", cfg.Database.Database, "minutes_team")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("Server.SessionTTL = %v, want 30m", cfg.Server.SessionTTL)
	}
	if len(cfg.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(cfg.Series))
	}
	if cfg.Series[0].Name != "Weekly sync" || cfg.Series[0].Project != "platform" {
		t.Errorf("Series[0] = %+v", cfg.Series[0])
	}
	if cfg.Digest.Schedule != "0 9 * * 1" {
		t.Errorf("Digest.Schedule = %q", cfg.Digest.Schedule)
	}
	if cfg.Digest.Slack.BotToken != "xoxb-token" {
		t.Errorf("Digest.Slack.BotToken = %q", cfg.Digest.Slack.BotToken)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvDBPassword, "")
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("Database.Host = %q, want 127.0.0.1", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("Database.User = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Database != "minutes_bob" {
		t.Errorf("Database.Database = %q, want minutes_bob", cfg.Database.Database)
	}
	if cfg.Database.Path != "minutes.db" {
		t.Errorf("Database.Path = %q, want minutes.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.SessionTTL != 2*time.Hour {
		t.Errorf("Server.SessionTTL = %v, want 2h", cfg.Server.SessionTTL)
	}
}

func TestParse_EnvFillsSecrets(t *testing.T) {
	t.Setenv(EnvDBPassword, "from-env")
	t.Setenv(EnvDiscordBotToken, "discord-token")

	cfg, err := Parse([]byte(`
owner: carol
database:
  password: from-yaml
digest:
  platform: discord
  channel: "42"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Password != "from-yaml" {
		t.Errorf("Database.Password = %q, YAML value should win", cfg.Database.Password)
	}
	if cfg.Digest.Discord.BotToken != "discord-token" {
		t.Errorf("Discord.BotToken = %q, want discord-token", cfg.Digest.Discord.BotToken)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	t.Setenv(EnvSlackBotToken, "")
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"missing owner", "database:\n  driver: sqlite\n", []string{"owner is required"}},
		{"bad driver", "owner: a\ndatabase:\n  driver: postgres\n", []string{`database.driver "postgres"`}},
		{"series without name", "owner: a\nseries:\n  - project: x\n", []string{"series[0].name is required"}},
		{"digest without token", "owner: a\ndigest:\n  platform: slack\n  channel: c\n", []string{"digest.slack.bot_token"}},
		{"digest without channel", "owner: a\ndigest:\n  platform: slack\n  slack:\n    bot_token: t\n", []string{"digest.channel is required"}},
		{"digest bad platform", "owner: a\ndigest:\n  schedule: '* * * * *'\n  platform: irc\n  channel: c\n", []string{`digest.platform "irc"`}},
		{"multiple", "database:\n  driver: oracle\n", []string{"owner is required", "database.driver"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not contain %q", err.Error(), w)
				}
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("owner: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minutes.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Owner != "bob" {
		t.Errorf("Owner = %q, want bob", cfg.Owner)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	t.Setenv(EnvSlackBotToken, "")
	os.Unsetenv(EnvSlackBotToken)

	dir := t.TempDir()
	path := filepath.Join(dir, "minutes.yaml")
	yml := "owner: dana\ndigest:\n  platform: slack\n  channel: C1\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvSlackBotToken+"=xoxb-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Digest.Slack.BotToken != "xoxb-dotenv" {
		t.Errorf("Slack.BotToken = %q, want xoxb-dotenv", cfg.Digest.Slack.BotToken)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err.Error())
	}
}

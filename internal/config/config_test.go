package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
bot:
  token: "123:abc"
relay:
  group_chat_id: -1001234
  whitelist: ["-1009", "42"]
  decline_notice_ttl: 90s
premoderation:
  emoji_limit: 3
working:
  backend: memory
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Relay.GroupChatID != -1001234 {
		t.Fatalf("unexpected group chat id: %d", cfg.Relay.GroupChatID)
	}
	if len(cfg.Relay.Whitelist) != 2 || cfg.Relay.Whitelist[0] != "-1009" {
		t.Fatalf("unexpected whitelist: %v", cfg.Relay.Whitelist)
	}
	if cfg.Relay.DeclineNoticeTTL != 90*time.Second {
		t.Fatalf("unexpected decline notice ttl: %s", cfg.Relay.DeclineNoticeTTL)
	}
	if cfg.Premoderation.EmojiLimit != 3 {
		t.Fatalf("unexpected emoji limit: %d", cfg.Premoderation.EmojiLimit)
	}
	if cfg.Working.Backend != WorkingBackendMemory {
		t.Fatalf("unexpected working backend: %s", cfg.Working.Backend)
	}

	if cfg.Premoderation.CaptionLimit != 700 || cfg.Premoderation.TextLimit != 3500 {
		t.Fatalf("length limits should keep defaults, got caption=%d text=%d", cfg.Premoderation.CaptionLimit, cfg.Premoderation.TextLimit)
	}
	if cfg.Premoderation.BanDays != 7 {
		t.Fatalf("ban days should keep default 7, got %d", cfg.Premoderation.BanDays)
	}
	if cfg.Relay.AckTTL != 30*time.Second {
		t.Fatalf("ack ttl should keep default 30s, got %s", cfg.Relay.AckTTL)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("RELAY_GROUP_CHAT_ID", "-100777")
	t.Setenv("RELAY_WHITELIST", " 1, ,2 ")
	t.Setenv("PREMOD_TEXT_LIMIT", "100")
	t.Setenv("RELAY_ACK_TTL", "5s")
	t.Setenv("WORKING_BACKEND", "MEMORY")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Bot.Token != "env-token" {
		t.Fatalf("unexpected token: %q", cfg.Bot.Token)
	}
	if cfg.Relay.GroupChatID != -100777 {
		t.Fatalf("unexpected group chat id: %d", cfg.Relay.GroupChatID)
	}
	if strings.Join(cfg.Relay.Whitelist, "|") != "1|2" {
		t.Fatalf("unexpected whitelist: %v", cfg.Relay.Whitelist)
	}
	if cfg.Premoderation.TextLimit != 100 {
		t.Fatalf("unexpected text limit: %d", cfg.Premoderation.TextLimit)
	}
	if cfg.Relay.AckTTL != 5*time.Second {
		t.Fatalf("unexpected ack ttl: %s", cfg.Relay.AckTTL)
	}
	if cfg.Working.Backend != WorkingBackendMemory {
		t.Fatalf("unexpected working backend: %s", cfg.Working.Backend)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing token",
			env:     map[string]string{"RELAY_GROUP_CHAT_ID": "-1"},
			wantErr: "bot.token",
		},
		{
			name:    "missing group",
			env:     map[string]string{"BOT_TOKEN": "x"},
			wantErr: "relay.group_chat_id",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"BOT_TOKEN": "x", "RELAY_GROUP_CHAT_ID": "-1", "WORKING_BACKEND": "etcd"},
			wantErr: "working.backend",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in error, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("RELAY_GROUP_CHAT_ID", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected parse error for RELAY_GROUP_CHAT_ID")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"BOT_TOKEN",
		"BOT_POLL_TIMEOUT",
		"RELAY_GROUP_CHAT_ID",
		"RELAY_WHITELIST",
		"RELAY_ACK_TTL",
		"RELAY_DECLINE_NOTICE_TTL",
		"RELAY_COPY_AUTODELETE",
		"RELAY_FANOUT_CONCURRENCY",
		"RELAY_RULES_URL",
		"RELAY_SPONSORED_URL",
		"RELAY_TAGS_COOLDOWN",
		"PREMOD_CAPTION_LIMIT",
		"PREMOD_TEXT_LIMIT",
		"PREMOD_EMOJI_LIMIT",
		"PREMOD_BAN_DAYS",
		"WORKING_BACKEND",
		"WORKING_TTL",
		"JOBS_BAN_CLEANUP_SPEC",
	} {
		t.Setenv(key, "")
	}
}

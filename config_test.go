package main

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/matchwheel/insight"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	_ = newCmd(cfg)

	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	if cfg.title != "Platina Connector" {
		t.Errorf("unexpected title %q", cfg.title)
	}
	if cfg.spinDuration != 5*time.Second || cfg.minTurns != 5 || cfg.maxTurns != 8 {
		t.Errorf("unexpected spin tuning %s %v %v", cfg.spinDuration, cfg.minTurns, cfg.maxTurns)
	}
	if cfg.revealDelay != 500*time.Millisecond {
		t.Errorf("unexpected reveal delay %s", cfg.revealDelay)
	}
	if cfg.frameInterval() != time.Second/30 {
		t.Errorf("unexpected frame interval %s", cfg.frameInterval())
	}
}

func TestConfig_Environment(t *testing.T) {
	t.Setenv("MATCHWHEEL_PORT", "9090")
	t.Setenv("MATCHWHEEL_TITLE", "Evening Connector")
	t.Setenv("MATCHWHEEL_SPIN_DURATION", "3s")
	t.Setenv("MATCHWHEEL_FALLBACK_MODELS", "a,b")
	t.Setenv("MATCHWHEEL_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "from-gemini")

	cfg := &Config{}
	_ = newCmd(cfg)

	if cfg.port != 9090 {
		t.Errorf("port not read from env: %d", cfg.port)
	}
	if cfg.title != "Evening Connector" {
		t.Errorf("title not read from env: %q", cfg.title)
	}
	if cfg.spinDuration != 3*time.Second {
		t.Errorf("spin duration not read from env: %s", cfg.spinDuration)
	}
	if strings.Join(cfg.fallbackModels, "|") != "a|b" {
		t.Errorf("fallback models not read from env: %v", cfg.fallbackModels)
	}
	if cfg.apiKey != "from-gemini" {
		t.Errorf("api key not read from GEMINI_API_KEY: %q", cfg.apiKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.port = 0 }, "invalid port"},
		{"tls pair", func(c *Config) { c.tlsCert = "cert.pem" }, "--tls-key"},
		{"title", func(c *Config) { c.title = "  " }, "--title"},
		{"country code", func(c *Config) { c.countryCode = "+91" }, "country code"},
		{"insight timeout", func(c *Config) { c.insightTimeout = 0 }, "insight timeout"},
		{"frame rate", func(c *Config) { c.frameRate = 0 }, "frame rate"},
		{"reveal delay", func(c *Config) { c.revealDelay = -time.Second }, "reveal delay"},
		{"easing", func(c *Config) { c.easing = "bounce" }, "unknown easing"},
		{"duration", func(c *Config) { c.spinDuration = 0 }, "spin duration"},
		{"min turns", func(c *Config) { c.minTurns = 0 }, "minimum turns"},
		{"max turns", func(c *Config) { c.maxTurns = 4 }, "maximum turns"},
		{"max turns equal", func(c *Config) { c.maxTurns = c.minTurns }, "maximum turns"},
		{"max turns infinite", func(c *Config) { c.maxTurns = math.Inf(1) }, "maximum turns"},
		{"min turns nan", func(c *Config) { c.minTurns = math.NaN() }, "minimum turns"},
		{"session timeout negative", func(c *Config) { c.sessionTimeout = -time.Minute }, "session timeout"},
		{"session timeout tiny", func(c *Config) { c.sessionTimeout = time.Nanosecond }, "session timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)

			err := cfg.validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfig_SessionTimeoutAccepted(t *testing.T) {
	for _, d := range []time.Duration{0, minSessionTimeout, time.Hour} {
		cfg := testConfig()
		cfg.sessionTimeout = d

		if err := cfg.validate(); err != nil {
			t.Errorf("session timeout %s rejected: %v", d, err)
			continue
		}

		// The reaper ticks at half the timeout and must start cleanly.
		sm := newSessionManager(cfg, mustStore(t), &fakeInsight{})
		sm.Close()
	}
}

func TestConfig_InsightGenerator(t *testing.T) {
	cfg := testConfig()

	if _, ok := cfg.insightGenerator(nil).(insight.Disabled); !ok {
		t.Error("expected insights to be disabled without a key")
	}

	cfg.apiKey = "k"
	if _, ok := cfg.insightGenerator(nil).(*insight.Gemini); !ok {
		t.Error("expected a Gemini client with a key")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := validate(cfg); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Speech.Remote.APIKey != "" {
		t.Fatal("default config must not carry an api key")
	}
	if cfg.Speech.Local.Mode != "mock" {
		t.Fatalf("expected default local mode mock, got %q", cfg.Speech.Local.Mode)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verba.yaml")
	content := `
runtime_name: verba-test
speech:
  remote:
    api_key: file-key
    voice_id: file-voice
    stability: 0.8
  local:
    voice: en_US-lessac-medium
  voices:
    narrator:
      remote_voice_id: narrator-voice
      remote_stability: 0.3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RuntimeName != "verba-test" {
		t.Fatalf("expected runtime name from file, got %q", cfg.RuntimeName)
	}
	if cfg.Speech.Remote.APIKey != "file-key" || cfg.Speech.Remote.Stability != 0.8 {
		t.Fatalf("unexpected remote config %+v", cfg.Speech.Remote)
	}
	// Untouched fields keep their defaults.
	if cfg.Speech.Remote.ModelID != "eleven_multilingual_v2" {
		t.Fatalf("expected default model id, got %q", cfg.Speech.Remote.ModelID)
	}

	ov, ok := cfg.Speech.Voices["narrator"]
	if !ok {
		t.Fatal("expected narrator voice override")
	}
	if ov.RemoteVoiceID == nil || *ov.RemoteVoiceID != "narrator-voice" {
		t.Fatalf("unexpected voice override %+v", ov)
	}
	if ov.RemoteModelID != nil {
		t.Fatal("absent override fields must stay nil")
	}
}

func TestEnvOverridesBeatFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verba.yaml")
	content := `
speech:
  remote:
    api_key: file-key
    voice_id: file-voice
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VERBA_SPEECH_REMOTE_API_KEY", "env-key")
	t.Setenv("VERBA_SPEECH_REMOTE_STABILITY", "0.25")
	t.Setenv("VERBA_SPEECH_LOCAL_SAMPLE_RATE", "16000")
	t.Setenv("VERBA_HTTP_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Speech.Remote.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.Speech.Remote.APIKey)
	}
	if cfg.Speech.Remote.Stability != 0.25 {
		t.Fatalf("expected env stability, got %v", cfg.Speech.Remote.Stability)
	}
	if cfg.Speech.Local.SampleRate != 16000 {
		t.Fatalf("expected env sample rate, got %d", cfg.Speech.Local.SampleRate)
	}
	if cfg.HTTP.Port != 9999 {
		t.Fatalf("expected env http port, got %d", cfg.HTTP.Port)
	}
}

func TestProviderEnvVarYieldsToPrefixedVar(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "provider-key")

	cfg := Default()
	cfg.Speech.Remote.VoiceID = "v"
	applyEnvOverrides(&cfg)
	if cfg.Speech.Remote.APIKey != "provider-key" {
		t.Fatalf("expected provider key, got %q", cfg.Speech.Remote.APIKey)
	}

	t.Setenv("VERBA_SPEECH_REMOTE_API_KEY", "verba-key")
	applyEnvOverrides(&cfg)
	if cfg.Speech.Remote.APIKey != "verba-key" {
		t.Fatalf("expected prefixed key to win, got %q", cfg.Speech.Remote.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "api key without voice id",
			mutate:  func(c *Config) { c.Speech.Remote.APIKey = "k"; c.Speech.Remote.VoiceID = "" },
			wantSub: "voice_id",
		},
		{
			name:    "unknown local mode",
			mutate:  func(c *Config) { c.Speech.Local.Mode = "onnx" },
			wantSub: "speech.local.mode",
		},
		{
			name:    "exec mode without command",
			mutate:  func(c *Config) { c.Speech.Local.Mode = "exec" },
			wantSub: "speech.local.command",
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Speech.Local.SampleRate = 0 },
			wantSub: "sample_rate",
		},
		{
			name:    "unknown retention mode",
			mutate:  func(c *Config) { c.History.RetentionMode = "forever" },
			wantSub: "retention_mode",
		},
		{
			name:    "bad http port",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantSub: "http.port",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantSub, err)
			}
		})
	}
}

package synth

import (
	"testing"

	"github.com/verbalabs/verba-core/internal/config"
)

func TestResolveVoiceDefaults(t *testing.T) {
	cfg := config.Default().Speech

	v := ResolveVoice(cfg, "narrator")
	if v.RemoteModelID != cfg.Remote.ModelID {
		t.Fatalf("expected model %q, got %q", cfg.Remote.ModelID, v.RemoteModelID)
	}
	if v.RemoteStability != cfg.Remote.Stability || v.RemoteSimilarityBoost != cfg.Remote.SimilarityBoost {
		t.Fatalf("unexpected voice settings %+v", v)
	}
	if v.PreferRemote {
		t.Fatal("PreferRemote must be false without an api key")
	}
}

func TestResolveVoicePrefersRemoteWithCredentials(t *testing.T) {
	cfg := config.Default().Speech
	cfg.Remote.APIKey = "secret"

	if v := ResolveVoice(cfg, "narrator"); !v.PreferRemote {
		t.Fatal("PreferRemote must be true when an api key is set")
	}
}

func TestResolveVoiceCharacterOverrides(t *testing.T) {
	voiceID := "override-voice"
	stability := 0.9
	localVoice := "en_US-amy-low"

	cfg := config.Default().Speech
	cfg.Remote.VoiceID = "base-voice"
	cfg.Voices = map[string]config.VoiceOverride{
		"narrator": {
			RemoteVoiceID:   &voiceID,
			RemoteStability: &stability,
			LocalVoice:      &localVoice,
		},
	}

	v := ResolveVoice(cfg, "narrator")
	if v.RemoteVoiceID != voiceID {
		t.Fatalf("expected overridden voice id, got %q", v.RemoteVoiceID)
	}
	if v.RemoteStability != stability {
		t.Fatalf("expected overridden stability, got %v", v.RemoteStability)
	}
	if v.LocalVoice != localVoice {
		t.Fatalf("expected overridden local voice, got %q", v.LocalVoice)
	}
	// Fields without an override keep the process configuration.
	if v.RemoteModelID != cfg.Remote.ModelID {
		t.Fatalf("expected base model id, got %q", v.RemoteModelID)
	}

	// Unknown characters resolve straight from the process configuration.
	base := ResolveVoice(cfg, "stranger")
	if base.RemoteVoiceID != "base-voice" {
		t.Fatalf("expected base voice id, got %q", base.RemoteVoiceID)
	}
}

// Package synth produces playable audio streams from text, choosing
// between a hosted synthesis provider and a local engine and falling
// back when the preferred path fails.
package synth

import (
	"context"
	"io"

	"github.com/verbalabs/verba-core/internal/config"
)

// VoiceConfig is the fully resolved voice bundle for one request.
// PreferRemote reflects credential presence at resolution time and is
// re-derived on every call.
type VoiceConfig struct {
	RemoteVoiceID         string
	RemoteModelID         string
	RemoteStability       float64
	RemoteSimilarityBoost float64
	RemoteStyle           float64
	RemoteSpeakerBoost    bool
	RemoteOutputFormat    string
	LocalVoice            string
	PreferRemote          bool
}

// Request is an immutable synthesis request.
type Request struct {
	Text  string
	Voice VoiceConfig
}

// Adapter is one strategy for producing an audio stream from text.
// The returned stream is single-pass; the caller owns closing it.
type Adapter interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (io.ReadCloser, error)
}

// ResolveVoice merges voice settings with the documented precedence:
// per-character override, then process configuration (already merged
// with environment by config.Load), then defaults baked into Default().
func ResolveVoice(cfg config.SpeechConfig, characterID string) VoiceConfig {
	v := VoiceConfig{
		RemoteVoiceID:         cfg.Remote.VoiceID,
		RemoteModelID:         cfg.Remote.ModelID,
		RemoteStability:       cfg.Remote.Stability,
		RemoteSimilarityBoost: cfg.Remote.SimilarityBoost,
		RemoteStyle:           cfg.Remote.Style,
		RemoteSpeakerBoost:    cfg.Remote.SpeakerBoost,
		RemoteOutputFormat:    cfg.Remote.OutputFormat,
		LocalVoice:            cfg.Local.Voice,
		PreferRemote:          cfg.Remote.APIKey != "",
	}

	override, ok := cfg.Voices[characterID]
	if !ok {
		return v
	}
	if override.RemoteVoiceID != nil {
		v.RemoteVoiceID = *override.RemoteVoiceID
	}
	if override.RemoteModelID != nil {
		v.RemoteModelID = *override.RemoteModelID
	}
	if override.RemoteStability != nil {
		v.RemoteStability = *override.RemoteStability
	}
	if override.RemoteSimilarityBoost != nil {
		v.RemoteSimilarityBoost = *override.RemoteSimilarityBoost
	}
	if override.RemoteStyle != nil {
		v.RemoteStyle = *override.RemoteStyle
	}
	if override.RemoteSpeakerBoost != nil {
		v.RemoteSpeakerBoost = *override.RemoteSpeakerBoost
	}
	if override.RemoteOutputFormat != nil {
		v.RemoteOutputFormat = *override.RemoteOutputFormat
	}
	if override.LocalVoice != nil {
		v.LocalVoice = *override.LocalVoice
	}
	return v
}

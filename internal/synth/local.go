package synth

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/verbalabs/verba-core/internal/wav"
)

// RawAudio is the local engine's unframed output: normalized float
// samples per channel at a known rate.
type RawAudio struct {
	Channels   [][]float32
	SampleRate int
}

// EngineOutput is the tagged result of one engine invocation: exactly
// one of Encoded (a complete container, used as-is) or Raw is set. The
// shape is decided once here, at the adapter boundary.
type EngineOutput struct {
	Encoded []byte
	Raw     *RawAudio
}

// Engine is an embedded/offline synthesis backend.
type Engine interface {
	Render(ctx context.Context, text, voice string) (EngineOutput, error)
}

// LocalAdapter drives the embedded engine and normalizes its output
// into the canonical container. It is the always-available backstop.
type LocalAdapter struct {
	engine Engine
	log    *slog.Logger
}

func NewLocalAdapter(engine Engine, log *slog.Logger) *LocalAdapter {
	return &LocalAdapter{
		engine: engine,
		log:    log.With(slog.String("component", "local-adapter")),
	}
}

func (a *LocalAdapter) Name() string { return "local" }

func (a *LocalAdapter) Synthesize(ctx context.Context, req Request) (io.ReadCloser, error) {
	out, err := a.engine.Render(ctx, req.Text, req.Voice.LocalVoice)
	if err != nil {
		return nil, &LocalError{Err: err}
	}

	switch {
	case out.Encoded != nil:
		return io.NopCloser(bytes.NewReader(out.Encoded)), nil
	case out.Raw != nil && len(out.Raw.Channels) > 0 && out.Raw.SampleRate > 0:
		// Only the first channel is kept; the engine's extra channels
		// carry no additional speech content.
		pcm := wav.PCM16FromFloat32(out.Raw.Channels[0])
		header, err := wav.EncodeHeader(len(pcm), wav.Format{SampleRate: out.Raw.SampleRate})
		if err != nil {
			return nil, &LocalError{Err: err}
		}
		buf := make([]byte, 0, len(header)+len(pcm))
		buf = append(buf, header...)
		buf = append(buf, pcm...)
		a.log.Debug("framed raw engine output",
			slog.Int("sample_rate", out.Raw.SampleRate), slog.Int("bytes", len(pcm)))
		return io.NopCloser(bytes.NewReader(buf)), nil
	default:
		return nil, ErrUnsupportedAudio
	}
}

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/verbalabs/verba-core/internal/config"
	"github.com/verbalabs/verba-core/internal/wav"
)

// RemoteAdapter synthesizes speech through a hosted ElevenLabs-style
// HTTP API. It performs no retries of its own; fallback is the
// selector's concern.
type RemoteAdapter struct {
	cfg    config.RemoteConfig
	client *http.Client
	log    *slog.Logger
}

type remoteVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type remoteRequest struct {
	Text          string              `json:"text"`
	ModelID       string              `json:"model_id"`
	VoiceSettings remoteVoiceSettings `json:"voice_settings"`
}

func NewRemoteAdapter(cfg config.RemoteConfig, log *slog.Logger) *RemoteAdapter {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.With(slog.String("component", "remote-adapter")),
	}
}

func (a *RemoteAdapter) Name() string { return "remote" }

func (a *RemoteAdapter) Synthesize(ctx context.Context, req Request) (io.ReadCloser, error) {
	if a.cfg.APIKey == "" {
		return nil, &ConfigError{Field: "speech.remote.api_key"}
	}
	if req.Voice.RemoteVoiceID == "" {
		return nil, &ConfigError{Field: "speech.remote.voice_id"}
	}

	payload := remoteRequest{
		Text:    req.Text,
		ModelID: req.Voice.RemoteModelID,
		VoiceSettings: remoteVoiceSettings{
			Stability:       req.Voice.RemoteStability,
			SimilarityBoost: req.Voice.RemoteSimilarityBoost,
			Style:           req.Voice.RemoteStyle,
			UseSpeakerBoost: req.Voice.RemoteSpeakerBoost,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RemoteError{Err: fmt.Errorf("encode request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?optimize_streaming_latency=%d&output_format=%s",
		strings.TrimSuffix(a.cfg.BaseURL, "/"), req.Voice.RemoteVoiceID,
		a.cfg.OptimizeLatency, req.Voice.RemoteOutputFormat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/*")
	httpReq.Header.Set("xi-api-key", a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &RemoteError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	rate, raw, err := pcmRate(req.Voice.RemoteOutputFormat)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if !raw {
		// Self-framed container, forward as the provider produced it.
		return resp.Body, nil
	}

	// Headerless PCM: the container header needs the final payload
	// length, so the body is drained before framing.
	pcm, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &RemoteError{Err: fmt.Errorf("read response body: %w", err)}
	}
	a.log.Debug("framing raw provider output",
		slog.Int("sample_rate", rate), slog.Int("bytes", len(pcm)))
	framed := wav.NewFramedReader(bytes.NewReader(pcm), len(pcm), wav.Format{SampleRate: rate})
	return framed, nil
}

// pcmRate extracts the sample rate from output format tags of the form
// pcm_<rate>. Other tags name self-framed encodings.
func pcmRate(format string) (int, bool, error) {
	tag, ok := strings.CutPrefix(format, "pcm_")
	if !ok {
		return 0, false, nil
	}
	rate, err := strconv.Atoi(tag)
	if err != nil || rate <= 0 {
		return 0, false, fmt.Errorf("synth: malformed output format %q", format)
	}
	return rate, true, nil
}

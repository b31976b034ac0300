package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verbalabs/verba-core/internal/config"
	"github.com/verbalabs/verba-core/internal/wav"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func remoteVoice(outputFormat string) VoiceConfig {
	return VoiceConfig{
		RemoteVoiceID:         "voice-1",
		RemoteModelID:         "model-1",
		RemoteStability:       0.5,
		RemoteSimilarityBoost: 0.75,
		RemoteSpeakerBoost:    true,
		RemoteOutputFormat:    outputFormat,
		PreferRemote:          true,
	}
}

func TestRemoteAdapterPassesThroughFramedAudio(t *testing.T) {
	body := []byte("fake-mp3-bytes")
	var gotPath, gotKey, gotQuery string
	var gotPayload remoteRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request payload: %v", err)
		}
		w.Write(body)
	}))
	defer srv.Close()

	adapter := NewRemoteAdapter(config.RemoteConfig{
		APIKey:          "secret",
		BaseURL:         srv.URL,
		OptimizeLatency: 3,
	}, newTestLogger())

	stream, err := adapter.Synthesize(context.Background(), Request{Text: "hello", Voice: remoteVoice("mp3_44100_128")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	out, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !bytes.Equal(out, body) {
		t.Fatalf("expected passthrough body, got %q", out)
	}
	if gotPath != "/v1/text-to-speech/voice-1/stream" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "optimize_streaming_latency=3&output_format=mp3_44100_128" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPayload.Text != "hello" || gotPayload.ModelID != "model-1" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
	if gotPayload.VoiceSettings.SimilarityBoost != 0.75 || !gotPayload.VoiceSettings.UseSpeakerBoost {
		t.Fatalf("unexpected voice settings %+v", gotPayload.VoiceSettings)
	}
}

func TestRemoteAdapterFramesRawPCM(t *testing.T) {
	pcm := []byte{10, 0, 20, 0, 30, 0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pcm)
	}))
	defer srv.Close()

	adapter := NewRemoteAdapter(config.RemoteConfig{APIKey: "secret", BaseURL: srv.URL}, newTestLogger())
	stream, err := adapter.Synthesize(context.Background(), Request{Text: "hi", Voice: remoteVoice("pcm_24000")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	out, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	payloadLen, f, err := wav.ParseHeader(out[:wav.HeaderSize])
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if payloadLen != len(pcm) || f.SampleRate != 24000 || f.Channels != 1 || f.BitsPerSample != 16 {
		t.Fatalf("unexpected header: len=%d format=%+v", payloadLen, f)
	}
	if !bytes.Equal(out[wav.HeaderSize:], pcm) {
		t.Fatalf("payload mismatch: %v", out[wav.HeaderSize:])
	}
}

func TestRemoteAdapterReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	adapter := NewRemoteAdapter(config.RemoteConfig{APIKey: "bad", BaseURL: srv.URL}, newTestLogger())
	_, err := adapter.Synthesize(context.Background(), Request{Text: "hi", Voice: remoteVoice("mp3_44100_128")})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %T: %v", err, err)
	}
	if remoteErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", remoteErr.Status)
	}
	if remoteErr.Body == "" {
		t.Fatal("expected response body text in error")
	}
}

func TestRemoteAdapterReportsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	adapter := NewRemoteAdapter(config.RemoteConfig{APIKey: "secret", BaseURL: srv.URL}, newTestLogger())
	_, err := adapter.Synthesize(context.Background(), Request{Text: "hi", Voice: remoteVoice("mp3_44100_128")})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %T: %v", err, err)
	}
	if remoteErr.Err == nil {
		t.Fatal("expected wrapped transport error")
	}
}

func TestRemoteAdapterRequiresCredentials(t *testing.T) {
	adapter := NewRemoteAdapter(config.RemoteConfig{BaseURL: "http://localhost:0"}, newTestLogger())
	_, err := adapter.Synthesize(context.Background(), Request{Text: "hi", Voice: remoteVoice("mp3_44100_128")})

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestRemoteAdapterRejectsMalformedPCMTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	adapter := NewRemoteAdapter(config.RemoteConfig{APIKey: "secret", BaseURL: srv.URL}, newTestLogger())
	if _, err := adapter.Synthesize(context.Background(), Request{Text: "hi", Voice: remoteVoice("pcm_fast")}); err == nil {
		t.Fatal("expected error for malformed pcm tag")
	}
}

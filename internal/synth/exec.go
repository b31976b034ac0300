package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/verbalabs/verba-core/internal/config"
)

// execEngine runs an external synthesis program per request. The
// program receives a JSON request on stdin and answers with a single
// JSON line on stdout: either {"wav_base64": ...} for already-encoded
// audio or {"channels": [[...]], "sample_rate": N} for raw samples.
type execEngine struct {
	cmd []string
	cfg config.LocalConfig
	mu  sync.Mutex
}

type execEngineRequest struct {
	Engine     string `json:"engine"`
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
}

type execEngineResponse struct {
	WAVBase64  string      `json:"wav_base64"`
	Channels   [][]float32 `json:"channels"`
	SampleRate int         `json:"sample_rate"`
}

func NewExecEngine(cfg config.LocalConfig) (Engine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command is empty")
	}
	return &execEngine{cmd: args, cfg: cfg}, nil
}

func (e *execEngine) Render(ctx context.Context, text, voice string) (EngineOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := execEngineRequest{
		Engine:     "local",
		Text:       text,
		Voice:      voice,
		SampleRate: e.cfg.SampleRate,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return EngineOutput{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(data)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return EngineOutput{}, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return EngineOutput{}, err
	}

	var resp execEngineResponse
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	decoded := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return EngineOutput{}, fmt.Errorf("decode engine response: %w", err)
		}
		decoded = true
		break
	}
	if err := cmd.Wait(); err != nil {
		return EngineOutput{}, fmt.Errorf("engine command failed: %w: %s", err, stderr.String())
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return EngineOutput{}, scanErr
	}
	if !decoded {
		return EngineOutput{}, fmt.Errorf("engine produced no response")
	}

	if resp.WAVBase64 != "" {
		encoded, err := base64.StdEncoding.DecodeString(resp.WAVBase64)
		if err != nil {
			return EngineOutput{}, fmt.Errorf("decode engine audio: %w", err)
		}
		return EngineOutput{Encoded: encoded}, nil
	}
	if len(resp.Channels) > 0 && resp.SampleRate > 0 {
		return EngineOutput{Raw: &RawAudio{Channels: resp.Channels, SampleRate: resp.SampleRate}}, nil
	}
	// Neither shape present; the adapter reports this as unsupported.
	return EngineOutput{}, nil
}

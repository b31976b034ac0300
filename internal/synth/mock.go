package synth

import (
	"context"
	"math"
)

// mockEngine produces a short sine tone instead of speech. It keeps the
// synthesis path exercisable without a real engine installed.
type mockEngine struct {
	sampleRate int
}

func NewMockEngine(sampleRate int) Engine {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &mockEngine{sampleRate: sampleRate}
}

func (m *mockEngine) Render(ctx context.Context, text, voice string) (EngineOutput, error) {
	if err := ctx.Err(); err != nil {
		return EngineOutput{}, err
	}
	// Duration scales with text length, capped at two seconds.
	samples := len(text) * m.sampleRate / 20
	if max := 2 * m.sampleRate; samples > max {
		samples = max
	}
	if samples == 0 {
		samples = m.sampleRate / 10
	}
	tone := make([]float32, samples)
	for i := range tone {
		tone[i] = float32(0.2 * math.Sin(2*math.Pi*440*float64(i)/float64(m.sampleRate)))
	}
	return EngineOutput{Raw: &RawAudio{Channels: [][]float32{tone}, SampleRate: m.sampleRate}}, nil
}

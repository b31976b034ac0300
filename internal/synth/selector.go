package synth

import (
	"context"
	"io"
	"log/slog"
)

// Observer receives selector outcomes for logging, metrics and history.
// Reporting never alters control flow.
type Observer interface {
	AttemptFailed(ctx context.Context, adapter string, err error)
	Completed(ctx context.Context, adapter string, fallback bool)
}

// NopObserver discards all reports.
type NopObserver struct{}

func (NopObserver) AttemptFailed(context.Context, string, error) {}
func (NopObserver) Completed(context.Context, string, bool)      {}

// Selector tries adapters in order until one produces a stream. The
// remote adapter leads only when the resolved voice prefers it; the
// local adapter is always the final backstop, so a remote failure is
// logged and retried locally rather than surfaced. Only the last
// adapter's error reaches the caller.
type Selector struct {
	remote Adapter
	local  Adapter
	obs    Observer
	log    *slog.Logger
}

func NewSelector(remote, local Adapter, obs Observer, log *slog.Logger) *Selector {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Selector{
		remote: remote,
		local:  local,
		obs:    obs,
		log:    log.With(slog.String("component", "synth-selector")),
	}
}

// Outcome names the adapter that served a request and whether it was
// reached by falling back.
type Outcome struct {
	Adapter  string
	Fallback bool
}

// Generate is the sole synthesis entry point: text plus a resolved
// voice in, one playable container stream out.
func (s *Selector) Generate(ctx context.Context, text string, voice VoiceConfig) (io.ReadCloser, Outcome, error) {
	order := []Adapter{s.local}
	if voice.PreferRemote {
		order = []Adapter{s.remote, s.local}
	}

	var lastErr error
	for i, adapter := range order {
		stream, err := adapter.Synthesize(ctx, Request{Text: text, Voice: voice})
		if err == nil {
			s.obs.Completed(ctx, adapter.Name(), i > 0)
			if i > 0 {
				s.log.Info("synthesis recovered on fallback",
					slog.String("adapter", adapter.Name()))
			}
			return stream, Outcome{Adapter: adapter.Name(), Fallback: i > 0}, nil
		}
		lastErr = err
		s.obs.AttemptFailed(ctx, adapter.Name(), err)
		if i < len(order)-1 {
			s.log.Warn("synthesis adapter failed, falling back",
				slog.String("adapter", adapter.Name()),
				slog.String("error", err.Error()))
		} else {
			s.log.Error("synthesis failed on final adapter",
				slog.String("adapter", adapter.Name()),
				slog.String("error", err.Error()))
		}
	}
	return nil, Outcome{}, lastErr
}

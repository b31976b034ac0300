// Package speech bridges the bus to the synthesis selector: it serves
// speech.request messages and streams the resulting audio container
// back as sequenced chunks.
package speech

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/verbalabs/verba-core/internal/bus"
	"github.com/verbalabs/verba-core/internal/config"
	"github.com/verbalabs/verba-core/internal/history"
	"github.com/verbalabs/verba-core/internal/protocol"
	"github.com/verbalabs/verba-core/internal/synth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const chunkSize = 32 * 1024

type Service struct {
	cfg      config.SpeechConfig
	bus      *bus.Client
	selector *synth.Selector
	ledger   *history.Store
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *slog.Logger
}

func NewService(parent context.Context, cfg config.SpeechConfig, busClient *bus.Client, selector *synth.Selector, ledger *history.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:      cfg,
		bus:      busClient,
		selector: selector,
		ledger:   ledger,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With(slog.String("component", "speech-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeechRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SpeechRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speech request", slogError(err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
		defer cancel()
		s.synthesize(ctx, req)
	}()
}

func (s *Service) synthesize(ctx context.Context, req protocol.SpeechRequest) {
	tracer := otel.Tracer("github.com/verbalabs/verba-core/internal/speech")
	ctx, span := tracer.Start(ctx, "speech.synthesize")
	span.SetAttributes(attribute.String("session_id", req.SessionID))
	defer span.End()

	started := time.Now()
	voice := synth.ResolveVoice(s.cfg, req.CharacterID)
	stream, outcome, err := s.selector.Generate(ctx, req.Text, voice)
	if err != nil {
		s.logger.Error("speech synthesis failed", slogError(err),
			slog.String("session_id", req.SessionID))
		s.publishStatus(req, false, err)
		s.record(req, outcome, 0, time.Since(started), err)
		return
	}
	defer stream.Close()

	total, streamErr := s.publishStream(ctx, req, stream)
	if streamErr != nil {
		s.logger.Warn("speech stream aborted", slogError(streamErr),
			slog.String("session_id", req.SessionID))
		s.publishStatus(req, false, streamErr)
		s.record(req, outcome, total, time.Since(started), streamErr)
		return
	}

	s.publishStatus(req, true, nil)
	s.record(req, outcome, total, time.Since(started), nil)
}

// publishStream forwards the container to the bus in order, marking the
// last chunk final. Returns the number of payload bytes sent.
func (s *Service) publishStream(ctx context.Context, req protocol.SpeechRequest, stream io.Reader) (int64, error) {
	var (
		total    int64
		sequence int
		buf      = make([]byte, chunkSize)
	)
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := stream.Read(buf)
		if n > 0 {
			final := err == io.EOF
			if pubErr := s.publishChunk(req, sequence, buf[:n], final); pubErr != nil {
				return total, pubErr
			}
			total += int64(n)
			sequence++
		}
		if err == io.EOF {
			if n == 0 {
				// Nothing accompanied EOF; emit the terminator alone.
				if pubErr := s.publishChunk(req, sequence, nil, true); pubErr != nil {
					return total, pubErr
				}
			}
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (s *Service) publishChunk(req protocol.SpeechRequest, sequence int, data []byte, final bool) error {
	packet := protocol.AudioChunk{
		SessionID: req.SessionID,
		Sequence:  sequence,
		Data:      data,
		Final:     final,
	}
	payload, err := json.Marshal(packet)
	if err != nil {
		return err
	}
	return s.bus.Conn().Publish(protocol.SubjectSpeechAudio, payload)
}

func (s *Service) publishStatus(req protocol.SpeechRequest, completed bool, cause error) {
	status := protocol.SpeechStatus{
		SessionID: req.SessionID,
		Completed: completed,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		status.Error = cause.Error()
	}
	if data, err := json.Marshal(status); err == nil {
		_ = s.bus.Conn().Publish(protocol.SubjectSpeechDone, data)
	}
}

func (s *Service) record(req protocol.SpeechRequest, outcome synth.Outcome, bytes int64, elapsed time.Duration, cause error) {
	if s.ledger == nil {
		return
	}
	entry := history.Entry{
		SessionID:   req.SessionID,
		CharacterID: req.CharacterID,
		Adapter:     outcome.Adapter,
		Fallback:    outcome.Fallback,
		Bytes:       bytes,
		Duration:    elapsed,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ledger.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record synthesis entry", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}

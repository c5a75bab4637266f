package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	metricsx "github.com/tanpawarit/chative-lead-qualifier/pkg/metrics"
)

// Backend is the storage behind Sink. Write errors never escape Sink.
type Backend interface {
	Name() string
	Write(ctx context.Context, lead contractx.Lead) error
	Count(ctx context.Context) (int, error)
}

var (
	_ contractx.LeadSink    = (*Sink)(nil)
	_ contractx.LeadCounter = (*Sink)(nil)
)

// Sink bounds every backend call with a timeout and reports failures as false.
type Sink struct {
	backend Backend
	timeout time.Duration
	metrics *metricsx.BotMetrics
}

type SinkOption func(*Sink)

func WithMetrics(m *metricsx.BotMetrics) SinkOption {
	return func(s *Sink) {
		s.metrics = m
	}
}

// NewSink falls back to DefaultTimeout when timeout is not positive.
func NewSink(backend Backend, timeout time.Duration, opts ...SinkOption) *Sink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Sink{backend: backend, timeout: timeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// New builds the configured backend and wraps it in a Sink.
func New(cfg Config, opts ...SinkOption) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendPostgres:
		backend = NewPostgresBackend(strings.TrimSpace(cfg.PostgresDSN))
	default:
		backend = NewCSVBackend(strings.TrimSpace(cfg.File))
	}
	return NewSink(backend, cfg.Timeout, opts...), nil
}

func (s *Sink) Append(ctx context.Context, lead contractx.Lead) bool {
	err := s.run(ctx, func(ctx context.Context) error {
		return s.backend.Write(ctx, lead)
	})
	s.metrics.ObserveLeadWrite(s.backend.Name(), err == nil)

	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int64("chat_id", lead.ChatID).
			Str("backend", s.backend.Name()).
			Msg("lead persistence failed")
		return false
	}

	log.Ctx(ctx).Info().
		Int64("chat_id", lead.ChatID).
		Str("contact", truncate(lead.Contact, 20)).
		Str("intent", truncate(lead.Intent, 30)).
		Msg("lead persisted")
	return true
}

// Count returns zero when the backend cannot be read.
func (s *Sink) Count(ctx context.Context) int {
	var n int
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.backend.Count(ctx)
		return err
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("backend", s.backend.Name()).Msg("lead count failed")
		return 0
	}
	return n
}

// Close releases backend resources when the backend holds any.
func (s *Sink) Close() error {
	if c, ok := s.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// run executes fn under the sink timeout. Backends that ignore ctx are
// abandoned on timeout and their late result is discarded.
func (s *Sink) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: panic: %v", contractx.ErrLeadWrite, r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", contractx.ErrLeadWrite, ctx.Err())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

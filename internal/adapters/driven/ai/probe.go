package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

var _ driven.ProviderProbe = (*Probe)(nil)

// probeText is embedded to check that a provider returns vectors of the advertised size.
const probeText = "What is the standard VAT rate?"

// Probe builds a throwaway service from settings and exercises it once.
type Probe struct {
	timeout time.Duration
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithProbeTimeout bounds each probe. The default is five seconds.
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewProbe creates a provider probe.
func NewProbe(opts ...ProbeOption) *Probe {
	p := &Probe{timeout: pingTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProbeEmbedding embeds a short sentence and compares the vector length with
// the dimensions the service reports, which are recorded in the index metadata.
func (p *Probe) ProbeEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vector, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("%w: %s unreachable (%w). %s", domain.ErrEmbeddingUnavailable, settings.Provider, err, fixHint)
	}
	if want := svc.Dimensions(); want > 0 && len(vector) != want {
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d", domain.ErrEmbeddingUnavailable, svc.ModelName(), len(vector), want)
	}
	return nil
}

// ProbeLLM pings the language model provider.
func (p *Probe) ProbeLLM(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable (%w). %s", domain.ErrLLMUnavailable, settings.Provider, err, fixHint)
	}
	return nil
}

package content

import (
	"context"
	"time"

	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/internal/observability/metrics"
	"github.com/smallbiznis/breakeven/internal/providers/aitext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Provider   aitext.Provider
	Generation *config.GenerationConfigHolder
	Metrics    *metrics.Metrics          `optional:"true"`
	Publisher  *metrics.PublisherMetrics `optional:"true"`
	Log        *zap.Logger
}

type Synthesizer struct {
	provider   aitext.Provider
	generation *config.GenerationConfigHolder
	metrics    *metrics.Metrics
	publisher  *metrics.PublisherMetrics
	log        *zap.Logger
}

func New(p Params) domain.Synthesizer {
	return &Synthesizer{
		provider:   p.Provider,
		generation: p.Generation,
		metrics:    p.Metrics,
		publisher:  p.Publisher,
		log:        p.Log.Named("content.synthesizer"),
	}
}

// Generate asks the provider for page copy and falls back to fixed copy on
// any failure.
func (s *Synthesizer) Generate(ctx context.Context, in domain.Input) domain.Document {
	start := time.Now()
	fb := Fallback(in)

	doc, err := s.generate(ctx, in)
	if err != nil {
		s.log.Info("using fallback content",
			zap.String("business_type", string(in.BusinessType)),
			zap.String("reason", err.Error()),
		)
		doc = fb
	} else {
		doc = doc.WithDefaults(fb)
		doc.GenerationMethod = domain.GenerationAI
	}

	if s.publisher != nil {
		s.publisher.ObserveStage(metrics.StageSynthesize, time.Since(start), nil)
	}
	s.metrics.RecordContentGeneration(ctx, string(doc.GenerationMethod))
	return doc
}

func (s *Synthesizer) generate(ctx context.Context, in domain.Input) (domain.Document, error) {
	if s.provider == nil {
		return domain.Document{}, aitext.ErrNotConfigured
	}
	gc := s.generationConfig()
	raw, err := s.provider.Generate(ctx, BuildPrompt(in), aitext.GenerationConfig{
		Model:       gc.Model,
		Temperature: gc.Temperature,
		MaxTokens:   gc.MaxTokens,
		TopK:        gc.TopK,
		TopP:        gc.TopP,
	})
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := Parse(raw)
	if err != nil {
		return domain.Document{}, err
	}
	if missing := doc.MissingRequired(); len(missing) > 0 {
		return domain.Document{}, &MissingFieldsError{Fields: missing}
	}
	return doc, nil
}

func (s *Synthesizer) generationConfig() config.GenerationConfig {
	if s.generation == nil {
		return config.GenerationConfig{Temperature: 0.7, MaxTokens: 2048, TopK: 40, TopP: 0.8}
	}
	return s.generation.Get()
}

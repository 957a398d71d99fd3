// Package predict maps a client record to a subscription label and
// probability using an injected model handle.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"termdeposit/client"
	"termdeposit/ml"
	"termdeposit/monitoring"
)

const (
	LabelYes = "Yes"
	LabelNo  = "No"
)

// Result is the outcome of scoring one record.
type Result struct {
	Class       int     `json:"class"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// ProbabilityText formats the positive-class probability to two decimals.
func (r Result) ProbabilityText() string {
	return fmt.Sprintf("%.2f", r.Probability)
}

func (r Result) SubscriptionText() string {
	return "Subscription: " + r.Label
}

func (r Result) ProbabilityLine() string {
	return "Probability of Subscription: " + r.ProbabilityText()
}

// LabelFor maps the model's class decision to the display label.
func LabelFor(class int) string {
	if class == ml.PositiveClass {
		return LabelYes
	}
	return LabelNo
}

type Option func(*Service) error

// WithLogger sets the service logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithCache memoizes up to size results. A size of zero disables caching.
func WithCache(size int) Option {
	return func(s *Service) error {
		if size <= 0 {
			s.cache = nil
			return nil
		}
		cache, err := lru.New[client.Record, Result](size)
		if err != nil {
			return fmt.Errorf("create result cache: %w", err)
		}
		s.cache = cache
		return nil
	}
}

// Service is stateless apart from the optional result cache; the model
// handle is read-only, so Predict may be called concurrently.
type Service struct {
	model  ml.Model
	cache  *lru.Cache[client.Record, Result]
	logger *zap.Logger
}

func NewService(model ml.Model, opts ...Option) (*Service, error) {
	if model == nil {
		return nil, fmt.Errorf("predict: nil model")
	}
	s := &Service{model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ModelType reports the loaded model's type.
func (s *Service) ModelType() string {
	return s.model.Type()
}

// Predict scores rec. The label follows the model's class decision; the
// probability is the model's positive-class estimate clamped to [0,1].
func (s *Service) Predict(ctx context.Context, rec client.Record) (Result, error) {
	if s.cache != nil {
		if res, ok := s.cache.Get(rec); ok {
			monitoring.PredictionCacheHits.Inc()
			monitoring.Predictions.WithLabelValues(res.Label).Inc()
			return res, nil
		}
	}

	start := time.Now()
	pred, err := s.model.ClassifyAndScore(rec.Row())
	monitoring.PredictionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.PredictionErrors.Inc()
		s.logger.Error("prediction failed", zap.String("request_id", RequestID(ctx)), zap.Error(err))
		return Result{}, fmt.Errorf("score record: %w", err)
	}
	if math.IsNaN(pred.Probability) || math.IsInf(pred.Probability, 0) {
		monitoring.PredictionErrors.Inc()
		return Result{}, fmt.Errorf("score record: non-finite probability %v", pred.Probability)
	}

	res := Result{
		Class:       pred.Class,
		Label:       LabelFor(pred.Class),
		Probability: clamp(pred.Probability),
	}
	if s.cache != nil {
		s.cache.Add(rec, res)
	}
	monitoring.Predictions.WithLabelValues(res.Label).Inc()
	s.logger.Debug("prediction",
		zap.String("request_id", RequestID(ctx)),
		zap.String("label", res.Label),
		zap.Float64("probability", res.Probability),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

type ctxKey struct{}

// WithRequestID attaches a request ID used in prediction logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the ID attached by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

package convo

import (
	"context"
	"log/slog"

	"bot-listas/internal/fallback"
	"bot-listas/internal/list"
	"bot-listas/internal/metrics"
	"bot-listas/internal/nlu"
)

// DomainDetector resolves a group's domain: classifier first, keyword
// heuristic when the classifier is unavailable. It never fails, so a group
// always leaves first contact with a concrete domain.
type DomainDetector struct {
	extractor *nlu.Extractor
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewDomainDetector builds the detector the group store runs on first contact.
func NewDomainDetector(extractor *nlu.Extractor, metrics *metrics.Metrics, logger *slog.Logger) *DomainDetector {
	return &DomainDetector{
		extractor: extractor,
		metrics:   metrics,
		logger:    logger.With("component", "detector"),
	}
}

// DetectDomain implements list.Detector.
func (d *DomainDetector) DetectDomain(ctx context.Context, text string) (list.Domain, error) {
	domain, err := d.extractor.DetectDomain(ctx, text)
	if err == nil {
		return domain, nil
	}
	d.logger.Warn("AI domain detection failed, using heuristic", "error", err)
	d.metrics.FallbackUses.WithLabelValues("detect").Inc()
	return fallback.DetectDomain(text), nil
}

package termgen

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
	"github.com/kailas-cloud/termgen/internal/gate"
	"github.com/kailas-cloud/termgen/internal/metrics"
)

// Extractor converts a term vector batch into events, one per
// (document, field, term). Identical terms in different fields stay separate events.
type Extractor struct {
	fields []string
	names  event.FieldNames
	logger *zap.Logger
}

// NewExtractor creates an extractor for the requested fields.
func NewExtractor(fields []string, names event.FieldNames, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fields: fields, names: names, logger: logger}
}

// Extract builds the events of res and a gate sized to their count.
// Failed items, items without a resolvable external id and items that
// cannot be converted are logged and skipped; siblings are unaffected.
func (e *Extractor) Extract(res termvector.Result, ids scan.IDMapping, now time.Time) ([]event.Record, *gate.Gate) {
	var events []event.Record

	for _, item := range res.Items {
		if item.Failed() {
			f := item.Failure
			e.logger.Error("Term vector lookup failed",
				zap.String("index", f.Index),
				zap.String("type", f.Type),
				zap.String("id", f.ID),
				zap.Error(f.Err),
			)
			metrics.DocumentFailuresTotal.WithLabelValues("lookup").Inc()
			continue
		}

		userID, ok := ids.Resolve(item.ID)
		if !ok {
			e.logger.Warn("Skipping document",
				zap.String("index", item.Index),
				zap.String("type", item.Type),
				zap.String("id", item.ID),
				zap.Error(domain.ErrMissingID),
			)
			metrics.DocumentFailuresTotal.WithLabelValues("missing_id").Inc()
			continue
		}

		docEvents, err := e.extractItem(item, userID, now)
		if err != nil {
			e.logger.Error("Failed to convert term vectors",
				zap.String("index", item.Index),
				zap.String("type", item.Type),
				zap.String("id", item.ID),
				zap.Error(err),
			)
			metrics.DocumentFailuresTotal.WithLabelValues("extract").Inc()
			continue
		}
		events = append(events, docEvents...)
	}

	metrics.EventsEmittedTotal.Add(float64(len(events)))
	return events, gate.New(len(events))
}

// extractItem returns every event of one document, or an error that drops them all.
func (e *Extractor) extractItem(item termvector.Item, userID string, now time.Time) (events []event.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			events = nil
			err = fmt.Errorf("extract panic: %v", r)
		}
	}()

	for _, name := range e.fields {
		ft, ok := item.Field(name)
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(ft.Terms))
		for _, term := range ft.Terms {
			if term.Text == "" {
				return nil, fmt.Errorf("field %s: empty term: %w", name, domain.ErrMalformedTermVector)
			}
			if term.Freq < 0 {
				return nil, fmt.Errorf("field %s term %q: negative frequency %d: %w",
					name, term.Text, term.Freq, domain.ErrMalformedTermVector)
			}
			if _, dup := seen[term.Text]; dup {
				continue
			}
			seen[term.Text] = struct{}{}
			events = append(events, event.New(userID, term.Text, term.Freq, now, e.names))
		}
	}
	return events, nil
}

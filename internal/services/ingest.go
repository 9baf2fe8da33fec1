package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/metrics"
	"github.com/ideeockus/capybanse-service/internal/ml"
	"github.com/ideeockus/capybanse-service/internal/validation"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

// IngestService consumes scraped events: validate, store the catalog
// row, and index the vector when the description is worth embedding.
type IngestService struct {
	catalog   Catalog
	vectors   VectorIndex
	embedder  ml.Provider
	validator *validation.EventValidator
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

func NewIngestService(
	catalog Catalog,
	vectors VectorIndex,
	embedder ml.Provider,
	m *metrics.Metrics,
	logger *logrus.Logger,
) (*IngestService, error) {
	validator, err := validation.NewEventValidator()
	if err != nil {
		return nil, err
	}
	return &IngestService{
		catalog:   catalog,
		vectors:   vectors,
		embedder:  embedder,
		validator: validator,
		metrics:   m,
		logger:    logger,
	}, nil
}

// HandleEvent processes one provider message. Duplicate events (same
// service_id) are skipped silently; only a freshly inserted event with
// an indexable description reaches the vector index.
func (s *IngestService) HandleEvent(ctx context.Context, body []byte) error {
	if err := s.validator.ValidateEvent(body); err != nil {
		return err
	}

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Description != nil {
		trimmed := strings.TrimSpace(*event.Description)
		event.Description = &trimmed
	}

	inserted, err := s.catalog.AddEvent(ctx, event)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.WithField("service_id", event.ServiceID).Debug("Event already ingested, skipping")
		return nil
	}

	if !event.Indexable() {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, *event.Description)
	if err != nil {
		return fmt.Errorf("failed to embed event description: %w", err)
	}
	if err := s.vectors.UpsertEvent(ctx, event, vector); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"service_id": event.ServiceID,
	}).Debug("Event ingested and indexed")
	return nil
}

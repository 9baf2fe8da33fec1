package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/ml"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

// StaticGenerator retrieves candidates by embedding the user's profile
// description and searching the event collection with it. The signal is
// static: it changes only when the user rewrites the profile.
type StaticGenerator struct {
	vectors  VectorIndex
	embedder ml.Provider
	limit    int
	logger   *logrus.Logger
}

func NewStaticGenerator(vectors VectorIndex, embedder ml.Provider, limit int, logger *logrus.Logger) *StaticGenerator {
	return &StaticGenerator{
		vectors:  vectors,
		embedder: embedder,
		limit:    limit,
		logger:   logger,
	}
}

// Candidates returns up to limit BASIC items, or nothing when the user
// has no description to search with.
func (g *StaticGenerator) Candidates(ctx context.Context, description *string) ([]models.RecItem, error) {
	if description == nil || strings.TrimSpace(*description) == "" {
		return nil, nil
	}

	vector, err := g.embedder.Embed(ctx, *description)
	if err != nil {
		return nil, fmt.Errorf("failed to embed user description: %w", err)
	}

	hits, err := g.vectors.SearchEvents(ctx, vector, g.limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.RecItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, models.RecItem{
			Subsystem: models.SubsystemBasic,
			Event:     hit.Event,
			Score:     hit.Score,
		})
	}
	return items, nil
}

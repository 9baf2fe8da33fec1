package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

// CollaborativeGenerator finds users who touched the same events in the
// last week, averages their profile vectors and searches with the mean.
// Neighbors are weighted equally regardless of how much they overlap.
type CollaborativeGenerator struct {
	vectors  VectorIndex
	behavior BehaviorLog

	maxInteractions int
	perEventLimit   int
	window          time.Duration
	limit           int

	logger *logrus.Logger
}

func NewCollaborativeGenerator(
	vectors VectorIndex,
	behavior BehaviorLog,
	maxInteractions int,
	window time.Duration,
	limit int,
	logger *logrus.Logger,
) *CollaborativeGenerator {
	return &CollaborativeGenerator{
		vectors:         vectors,
		behavior:        behavior,
		maxInteractions: maxInteractions,
		perEventLimit:   10,
		window:          window,
		limit:           limit,
		logger:          logger,
	}
}

// Candidates returns up to limit COLLABORATIVE items, or nothing when no
// neighbor has an embedded profile.
func (g *CollaborativeGenerator) Candidates(ctx context.Context, userID int64) ([]models.RecItem, error) {
	after := time.Now().Add(-g.window)

	interactions, err := g.behavior.InteractionsByUser(ctx, userID, after, g.maxInteractions)
	if err != nil {
		return nil, err
	}

	interacted := make(map[uuid.UUID]struct{}, len(interactions))
	for _, interaction := range interactions {
		interacted[interaction.EventID] = struct{}{}
	}

	neighborSet := make(map[int64]struct{})
	for eventID := range interacted {
		peers, err := g.behavior.InteractionsByEvent(ctx, eventID, after, g.perEventLimit)
		if err != nil {
			return nil, err
		}
		for _, peer := range peers {
			if peer.UserID == userID {
				continue
			}
			neighborSet[peer.UserID] = struct{}{}
		}
	}
	if len(neighborSet) == 0 {
		return nil, nil
	}

	neighbors := make([]int64, 0, len(neighborSet))
	for id := range neighborSet {
		neighbors = append(neighbors, id)
	}

	neighborVectors, err := g.vectors.UserVectors(ctx, neighbors)
	if err != nil {
		return nil, err
	}
	if len(neighborVectors) == 0 {
		return nil, nil
	}

	hits, err := g.vectors.SearchEvents(ctx, meanVector(neighborVectors), g.limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.RecItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, models.RecItem{
			Subsystem: models.SubsystemCollaborative,
			Event:     hit.Event,
			Score:     hit.Score,
		})
	}
	return items, nil
}

// meanVector is the element-wise arithmetic mean. Vectors whose length
// differs from the first are skipped. The result is deliberately not
// re-normalized.
func meanVector(vectors [][]float32) []float32 {
	sum := make([]float64, len(vectors[0]))
	wide := make([]float64, len(vectors[0]))
	count := 0
	for _, vector := range vectors {
		if len(vector) != len(sum) {
			continue
		}
		for i, v := range vector {
			wide[i] = float64(v)
		}
		floats.Add(sum, wide)
		count++
	}
	if count > 0 {
		floats.Scale(1/float64(count), sum)
	}

	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = float32(v)
	}
	return mean
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

// DynamicGenerator turns the user's recent feedback into a signed
// anchor query: clicked and liked events pull candidates closer,
// disliked ones push them away. Explicit signals (like/dislike) are
// weighted above implicit clicks by repeating the anchor ID.
type DynamicGenerator struct {
	vectors  VectorIndex
	behavior BehaviorLog

	explicitCoefficient int
	maxInteractions     int
	window              time.Duration
	limit               int

	logger *logrus.Logger
}

func NewDynamicGenerator(
	vectors VectorIndex,
	behavior BehaviorLog,
	explicitCoefficient int,
	maxInteractions int,
	window time.Duration,
	limit int,
	logger *logrus.Logger,
) *DynamicGenerator {
	return &DynamicGenerator{
		vectors:             vectors,
		behavior:            behavior,
		explicitCoefficient: explicitCoefficient,
		maxInteractions:     maxInteractions,
		window:              window,
		limit:               limit,
		logger:              logger,
	}
}

// Candidates returns DYNAMIC items the user has not interacted with, or
// nothing when the recent interaction window is empty.
func (g *DynamicGenerator) Candidates(ctx context.Context, userID int64) ([]models.RecItem, error) {
	after := time.Now().Add(-g.window)

	interactions, err := g.behavior.InteractionsByUser(ctx, userID, after, g.maxInteractions)
	if err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, nil
	}

	interacted := make(map[uuid.UUID]struct{}, len(interactions))
	interactedIDs := make([]uuid.UUID, 0, len(interactions))
	for _, interaction := range interactions {
		if _, seen := interacted[interaction.EventID]; seen {
			continue
		}
		interacted[interaction.EventID] = struct{}{}
		interactedIDs = append(interactedIDs, interaction.EventID)
	}

	// Anchors must have a stored vector; interactions with events that
	// were never embedded cannot contribute a signal.
	embedded, err := g.vectors.EventVectors(ctx, interactedIDs)
	if err != nil {
		return nil, err
	}

	var positive, negative []uuid.UUID
	for _, interaction := range interactions {
		if _, ok := embedded[interaction.EventID]; !ok {
			continue
		}
		switch interaction.Kind {
		case models.InteractionClick:
			positive = append(positive, interaction.EventID)
		case models.InteractionLike:
			for i := 0; i < g.explicitCoefficient; i++ {
				positive = append(positive, interaction.EventID)
			}
		case models.InteractionDislike:
			for i := 0; i < g.explicitCoefficient; i++ {
				negative = append(negative, interaction.EventID)
			}
		}
	}

	if len(positive) == 0 && len(negative) == 0 {
		return nil, nil
	}

	// The index may return events the user already touched; over-fetch
	// so at least limit fresh candidates survive the filter below.
	hits, err := g.vectors.RecommendEvents(ctx, positive, negative, len(interacted)+g.limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.RecItem, 0, g.limit)
	for _, hit := range hits {
		if _, seen := interacted[hit.Event.ID]; seen {
			continue
		}
		items = append(items, models.RecItem{
			Subsystem: models.SubsystemDynamic,
			Event:     hit.Event,
			Score:     hit.Score,
		})
		if len(items) == g.limit {
			break
		}
	}
	return items, nil
}

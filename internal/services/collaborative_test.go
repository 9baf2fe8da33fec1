package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideeockus/capybanse-service/internal/store"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

func newCollaborativeGenerator(vectors *fakeVectorIndex, behavior *fakeBehaviorLog) *CollaborativeGenerator {
	return NewCollaborativeGenerator(vectors, behavior, 100, 7*24*time.Hour, 10, logrus.New())
}

func TestCollaborativeGenerator_NeighborMean(t *testing.T) {
	userID := int64(45)
	event := uuid.New()

	behavior := &fakeBehaviorLog{
		byUserFn: func(_ context.Context, _ int64, _ time.Time, _ int) ([]models.UserInteraction, error) {
			return []models.UserInteraction{interaction(userID, event, models.InteractionClick)}, nil
		},
		byEventFn: func(_ context.Context, eventID uuid.UUID, _ time.Time, limit int) ([]models.UserInteraction, error) {
			assert.Equal(t, event, eventID)
			assert.Equal(t, 10, limit)
			return []models.UserInteraction{
				interaction(userID, eventID, models.InteractionClick), // requester, excluded
				interaction(101, eventID, models.InteractionClick),
				interaction(102, eventID, models.InteractionLike),
			}, nil
		},
	}

	var gotNeighbors []int64
	var gotQuery []float32
	hit := uuid.New()

	vectors := &fakeVectorIndex{
		userVectorsFn: func(_ context.Context, ids []int64) ([][]float32, error) {
			gotNeighbors = append([]int64(nil), ids...)
			return [][]float32{{1, 0}, {0, 1}}, nil
		},
		searchFn: func(_ context.Context, vector []float32, limit int) ([]store.ScoredEvent, error) {
			gotQuery = vector
			assert.Equal(t, 10, limit)
			return []store.ScoredEvent{scoredEvent(hit, 0.7)}, nil
		},
	}

	items, err := newCollaborativeGenerator(vectors, behavior).Candidates(context.Background(), userID)
	require.NoError(t, err)

	sort.Slice(gotNeighbors, func(i, j int) bool { return gotNeighbors[i] < gotNeighbors[j] })
	assert.Equal(t, []int64{101, 102}, gotNeighbors, "requesting user must be excluded")

	// Unweighted element-wise mean, not re-normalized.
	require.Len(t, gotQuery, 2)
	assert.InDelta(t, 0.5, gotQuery[0], 1e-6)
	assert.InDelta(t, 0.5, gotQuery[1], 1e-6)

	require.Len(t, items, 1)
	assert.Equal(t, models.SubsystemCollaborative, items[0].Subsystem)
	assert.Equal(t, hit, items[0].Event.ID)
}

func TestCollaborativeGenerator_SkipsMismatchedVectors(t *testing.T) {
	userID := int64(45)
	event := uuid.New()

	behavior := &fakeBehaviorLog{
		byUserFn: func(_ context.Context, _ int64, _ time.Time, _ int) ([]models.UserInteraction, error) {
			return []models.UserInteraction{interaction(userID, event, models.InteractionClick)}, nil
		},
		byEventFn: func(_ context.Context, eventID uuid.UUID, _ time.Time, _ int) ([]models.UserInteraction, error) {
			return []models.UserInteraction{
				interaction(101, eventID, models.InteractionClick),
				interaction(102, eventID, models.InteractionClick),
				interaction(103, eventID, models.InteractionClick),
			}, nil
		},
	}

	var gotQuery []float32
	vectors := &fakeVectorIndex{
		userVectorsFn: func(_ context.Context, _ []int64) ([][]float32, error) {
			// The middle vector has the wrong dimension and must not
			// contribute to the mean.
			return [][]float32{{0.2, 0.8}, {1.0}, {0.6, 0.4}}, nil
		},
		searchFn: func(_ context.Context, vector []float32, _ int) ([]store.ScoredEvent, error) {
			gotQuery = vector
			return nil, nil
		},
	}

	_, err := newCollaborativeGenerator(vectors, behavior).Candidates(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, gotQuery, 2)
	assert.InDelta(t, 0.4, gotQuery[0], 1e-6)
	assert.InDelta(t, 0.6, gotQuery[1], 1e-6)
}

func TestCollaborativeGenerator_NoNeighborVectors(t *testing.T) {
	userID := int64(44)
	event := uuid.New()

	behavior := &fakeBehaviorLog{
		byUserFn: func(_ context.Context, _ int64, _ time.Time, _ int) ([]models.UserInteraction, error) {
			return []models.UserInteraction{interaction(userID, event, models.InteractionClick)}, nil
		},
		byEventFn: func(_ context.Context, eventID uuid.UUID, _ time.Time, _ int) ([]models.UserInteraction, error) {
			return []models.UserInteraction{interaction(103, eventID, models.InteractionClick)}, nil
		},
	}

	searched := false
	vectors := &fakeVectorIndex{
		userVectorsFn: func(_ context.Context, _ []int64) ([][]float32, error) {
			return nil, nil
		},
		searchFn: func(_ context.Context, _ []float32, _ int) ([]store.ScoredEvent, error) {
			searched = true
			return nil, nil
		},
	}

	items, err := newCollaborativeGenerator(vectors, behavior).Candidates(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, searched, "no embedded neighbors must short-circuit")
}

func TestCollaborativeGenerator_NoInteractions(t *testing.T) {
	items, err := newCollaborativeGenerator(&fakeVectorIndex{}, &fakeBehaviorLog{}).Candidates(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, items)
}

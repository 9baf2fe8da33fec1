package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ideeockus/capybanse-service/internal/store"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

// VectorIndex is the slice of the vector store the recommender uses.
type VectorIndex interface {
	UpsertEvent(ctx context.Context, event models.Event, vector []float32) error
	UpsertUser(ctx context.Context, userID int64, vector []float32) error
	SearchEvents(ctx context.Context, vector []float32, limit int) ([]store.ScoredEvent, error)
	RecommendEvents(ctx context.Context, positive, negative []uuid.UUID, limit int) ([]store.ScoredEvent, error)
	EventVectors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]float32, error)
	UserVectors(ctx context.Context, ids []int64) ([][]float32, error)
}

// BehaviorLog is the query/append surface of the interaction log.
type BehaviorLog interface {
	InteractionsByUser(ctx context.Context, userID int64, after time.Time, limit int) ([]models.UserInteraction, error)
	InteractionsByEvent(ctx context.Context, eventID uuid.UUID, after time.Time, limit int) ([]models.UserInteraction, error)
	InsertGivenRecommendation(ctx context.Context, userID int64, recommendation []models.RecItem) error
}

// Catalog is the authoritative store of event rows and user profiles.
type Catalog interface {
	AddEvent(ctx context.Context, event models.Event) (bool, error)
	SetUserDescription(ctx context.Context, userID int64, description string) error
	DescriptionByUserID(ctx context.Context, userID int64) (*string, error)
}

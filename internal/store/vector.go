package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/ideeockus/capybanse-service/internal/validation"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

const (
	eventsCollection = "events_collection"
	usersCollection  = "users_collection"

	vectorSize = 384
)

// ScoredEvent is one vector-index hit: cosine similarity plus the
// decoded payload.
type ScoredEvent struct {
	Score float64
	Event models.Event
}

// VectorStore wraps the Qdrant collections holding event and user
// vectors. Event payloads are stored as JSON payload maps and validated
// against a strict schema when read back.
type VectorStore struct {
	client    *qdrant.Client
	validator *validation.EventValidator
	window    time.Duration
	logger    *logrus.Logger
}

// NewVectorStore creates both collections when absent: 384-d cosine
// vectors kept on disk.
func NewVectorStore(
	ctx context.Context,
	client *qdrant.Client,
	window time.Duration,
	logger *logrus.Logger,
) (*VectorStore, error) {
	validator, err := validation.NewEventValidator()
	if err != nil {
		return nil, err
	}

	s := &VectorStore{
		client:    client,
		validator: validator,
		window:    window,
		logger:    logger,
	}

	for _, collection := range []string{eventsCollection, usersCollection} {
		exists, err := client.CollectionExists(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("failed to check collection %s: %w", collection, err)
		}
		if exists {
			continue
		}

		logger.WithField("collection", collection).Info("Creating missing Qdrant collection")
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: qdrant.Distance_Cosine,
				OnDisk:   qdrant.PtrOf(true),
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
	}

	return s, nil
}

// UpsertEvent stores the event vector keyed by the event UUID with the
// full event JSON as payload.
func (s *VectorStore) UpsertEvent(ctx context.Context, event models.Event, vector []float32) error {
	payload, err := eventPayload(event)
	if err != nil {
		return err
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: eventsCollection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(event.ID.String()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert event vector: %w", err)
	}
	return nil
}

// UpsertUser stores the user vector keyed by the integer user ID.
func (s *VectorStore) UpsertUser(ctx context.Context, userID int64, vector []float32) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: usersCollection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(uint64(userID)),
				Vectors: qdrant.NewVectors(vector...),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user vector: %w", err)
	}
	return nil
}

// SearchEvents runs a similarity search over upcoming events. Only
// events starting within the recency window are candidates.
func (s *VectorStore) SearchEvents(ctx context.Context, vector []float32, limit int) ([]ScoredEvent, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: eventsCollection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         s.recencyFilter(time.Now()),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("event search failed: %w", err)
	}

	return s.scoredEvents(points)
}

// RecommendEvents queries the index with signed anchor IDs using the
// best-score strategy: each candidate is scored against its best
// positive anchor and penalized by its best negative one.
func (s *VectorStore) RecommendEvents(
	ctx context.Context,
	positive []uuid.UUID,
	negative []uuid.UUID,
	limit int,
) ([]ScoredEvent, error) {
	if len(positive) == 0 && len(negative) == 0 {
		return nil, nil
	}

	input := &qdrant.RecommendInput{
		Strategy: qdrant.RecommendStrategy_BestScore.Enum(),
	}
	for _, id := range positive {
		input.Positive = append(input.Positive, qdrant.NewVectorInputID(qdrant.NewID(id.String())))
	}
	for _, id := range negative {
		input.Negative = append(input.Negative, qdrant.NewVectorInputID(qdrant.NewID(id.String())))
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: eventsCollection,
		Query:          qdrant.NewQueryRecommend(input),
		Filter:         s.recencyFilter(time.Now()),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("event recommend query failed: %w", err)
	}

	return s.scoredEvents(points)
}

// EventVectors fetches stored vectors for the given event IDs. Events
// that never produced a vector are simply absent from the result.
func (s *VectorStore) EventVectors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]float32, error) {
	if len(ids) == 0 {
		return map[uuid.UUID][]float32{}, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id.String()))
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: eventsCollection,
		Ids:            pointIDs,
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event vectors: %w", err)
	}

	vectors := make(map[uuid.UUID][]float32, len(points))
	for _, point := range points {
		id, err := uuid.Parse(point.GetId().GetUuid())
		if err != nil {
			return nil, fmt.Errorf("unexpected event point id %q: %w", point.GetId().GetUuid(), err)
		}
		vectors[id] = point.GetVectors().GetVector().GetData()
	}
	return vectors, nil
}

// UserVectors fetches stored vectors for the given user IDs. Users with
// no embedded description contribute nothing.
func (s *VectorStore) UserVectors(ctx context.Context, ids []int64) ([][]float32, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDNum(uint64(id)))
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: usersCollection,
		Ids:            pointIDs,
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user vectors: %w", err)
	}

	vectors := make([][]float32, 0, len(points))
	for _, point := range points {
		data := point.GetVectors().GetVector().GetData()
		if len(data) == 0 {
			continue
		}
		vectors = append(vectors, data)
	}
	return vectors, nil
}

// recencyFilter restricts candidates to events starting within
// [now, now+window] regardless of similarity.
func (s *VectorStore) recencyFilter(now time.Time) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewDatetimeRange("datetime_from", &qdrant.DatetimeRange{
				Gte: timestamppb.New(now),
				Lte: timestamppb.New(now.Add(s.window)),
			}),
		},
	}
}

func (s *VectorStore) scoredEvents(points []*qdrant.ScoredPoint) ([]ScoredEvent, error) {
	results := make([]ScoredEvent, 0, len(points))
	for _, point := range points {
		event, err := s.decodePayload(point.GetPayload())
		if err != nil {
			return nil, err
		}
		results = append(results, ScoredEvent{
			Score: float64(point.GetScore()),
			Event: event,
		})
	}
	return results, nil
}

// decodePayload round-trips the qdrant payload map back into a typed
// event, failing fast when the payload drifted from the schema.
func (s *VectorStore) decodePayload(payload map[string]*qdrant.Value) (models.Event, error) {
	plain := make(map[string]any, len(payload))
	for key, value := range payload {
		plain[key] = valueToAny(value)
	}

	raw, err := json.Marshal(plain)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to encode event payload: %w", err)
	}

	if err := s.validator.ValidateEvent(raw); err != nil {
		return models.Event{}, err
	}

	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return models.Event{}, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return event, nil
}

func eventPayload(event models.Event) (map[string]*qdrant.Value, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("failed to build event payload: %w", err)
	}

	payload, err := qdrant.TryValueMap(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to convert event payload: %w", err)
	}
	return payload, nil
}

func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, 0, len(values))
		for _, v := range values {
			out = append(out, valueToAny(v))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for name, v := range fields {
			out[name] = valueToAny(v)
		}
		return out
	default:
		return nil
	}
}

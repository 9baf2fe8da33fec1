package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ideeockus/capybanse-service/internal/store"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

type fakeVectorIndex struct {
	upsertEventFn  func(ctx context.Context, event models.Event, vector []float32) error
	upsertUserFn   func(ctx context.Context, userID int64, vector []float32) error
	searchFn       func(ctx context.Context, vector []float32, limit int) ([]store.ScoredEvent, error)
	recommendFn    func(ctx context.Context, positive, negative []uuid.UUID, limit int) ([]store.ScoredEvent, error)
	eventVectorsFn func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]float32, error)
	userVectorsFn  func(ctx context.Context, ids []int64) ([][]float32, error)
}

func (f *fakeVectorIndex) UpsertEvent(ctx context.Context, event models.Event, vector []float32) error {
	if f.upsertEventFn == nil {
		return nil
	}
	return f.upsertEventFn(ctx, event, vector)
}

func (f *fakeVectorIndex) UpsertUser(ctx context.Context, userID int64, vector []float32) error {
	if f.upsertUserFn == nil {
		return nil
	}
	return f.upsertUserFn(ctx, userID, vector)
}

func (f *fakeVectorIndex) SearchEvents(ctx context.Context, vector []float32, limit int) ([]store.ScoredEvent, error) {
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(ctx, vector, limit)
}

func (f *fakeVectorIndex) RecommendEvents(ctx context.Context, positive, negative []uuid.UUID, limit int) ([]store.ScoredEvent, error) {
	if f.recommendFn == nil {
		return nil, nil
	}
	return f.recommendFn(ctx, positive, negative, limit)
}

func (f *fakeVectorIndex) EventVectors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]float32, error) {
	if f.eventVectorsFn == nil {
		return map[uuid.UUID][]float32{}, nil
	}
	return f.eventVectorsFn(ctx, ids)
}

func (f *fakeVectorIndex) UserVectors(ctx context.Context, ids []int64) ([][]float32, error) {
	if f.userVectorsFn == nil {
		return nil, nil
	}
	return f.userVectorsFn(ctx, ids)
}

type fakeBehaviorLog struct {
	byUserFn  func(ctx context.Context, userID int64, after time.Time, limit int) ([]models.UserInteraction, error)
	byEventFn func(ctx context.Context, eventID uuid.UUID, after time.Time, limit int) ([]models.UserInteraction, error)
	insertFn  func(ctx context.Context, userID int64, recommendation []models.RecItem) error
}

func (f *fakeBehaviorLog) InteractionsByUser(ctx context.Context, userID int64, after time.Time, limit int) ([]models.UserInteraction, error) {
	if f.byUserFn == nil {
		return nil, nil
	}
	return f.byUserFn(ctx, userID, after, limit)
}

func (f *fakeBehaviorLog) InteractionsByEvent(ctx context.Context, eventID uuid.UUID, after time.Time, limit int) ([]models.UserInteraction, error) {
	if f.byEventFn == nil {
		return nil, nil
	}
	return f.byEventFn(ctx, eventID, after, limit)
}

func (f *fakeBehaviorLog) InsertGivenRecommendation(ctx context.Context, userID int64, recommendation []models.RecItem) error {
	if f.insertFn == nil {
		return nil
	}
	return f.insertFn(ctx, userID, recommendation)
}

type fakeCatalog struct {
	addEventFn       func(ctx context.Context, event models.Event) (bool, error)
	setDescriptionFn func(ctx context.Context, userID int64, description string) error
	descriptionFn    func(ctx context.Context, userID int64) (*string, error)
}

func (f *fakeCatalog) AddEvent(ctx context.Context, event models.Event) (bool, error) {
	if f.addEventFn == nil {
		return true, nil
	}
	return f.addEventFn(ctx, event)
}

func (f *fakeCatalog) SetUserDescription(ctx context.Context, userID int64, description string) error {
	if f.setDescriptionFn == nil {
		return nil
	}
	return f.setDescriptionFn(ctx, userID, description)
}

func (f *fakeCatalog) DescriptionByUserID(ctx context.Context, userID int64) (*string, error) {
	if f.descriptionFn == nil {
		return nil, nil
	}
	return f.descriptionFn(ctx, userID)
}

type fakeEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn == nil {
		return make([]float32, 4), nil
	}
	return f.embedFn(ctx, text)
}

func scoredEvent(id uuid.UUID, score float64) store.ScoredEvent {
	return store.ScoredEvent{
		Score: score,
		Event: testEvent(id, time.Now().Add(24*time.Hour)),
	}
}

func testEvent(id uuid.UUID, datetimeFrom time.Time) models.Event {
	return models.Event{
		ID:           id,
		Title:        "test event",
		DatetimeFrom: datetimeFrom,
		ServiceID:    "test:" + id.String(),
		ServiceType:  models.SourceKudaGo,
	}
}

func recItem(subsystem models.Subsystem, id uuid.UUID, score float64) models.RecItem {
	return models.RecItem{
		Subsystem: subsystem,
		Event:     testEvent(id, time.Now().Add(24*time.Hour)),
		Score:     score,
	}
}

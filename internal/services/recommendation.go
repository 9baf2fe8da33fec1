package services

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/config"
	"github.com/ideeockus/capybanse-service/internal/metrics"
	"github.com/ideeockus/capybanse-service/internal/ml"
	"github.com/ideeockus/capybanse-service/pkg/models"
)

// RecommendationService orchestrates the candidate generators, the
// rescorer and the blender for one RPC, and owns the set-description
// flow. Per-request state is local; the shared store clients are safe
// for concurrent use.
type RecommendationService struct {
	catalog  Catalog
	behavior BehaviorLog
	vectors  VectorIndex
	embedder ml.Provider

	static        *StaticGenerator
	dynamic       *DynamicGenerator
	collaborative *CollaborativeGenerator
	rescorer      *Rescorer
	blender       *Blender

	cfg     *config.RecommendationConfig
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

func NewRecommendationService(
	catalog Catalog,
	behavior BehaviorLog,
	vectors VectorIndex,
	embedder ml.Provider,
	static *StaticGenerator,
	dynamic *DynamicGenerator,
	collaborative *CollaborativeGenerator,
	rescorer *Rescorer,
	blender *Blender,
	cfg *config.RecommendationConfig,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		catalog:       catalog,
		behavior:      behavior,
		vectors:       vectors,
		embedder:      embedder,
		static:        static,
		dynamic:       dynamic,
		collaborative: collaborative,
		rescorer:      rescorer,
		blender:       blender,
		cfg:           cfg,
		metrics:       m,
		logger:        logger,
	}
}

// RecommendForUser produces the blended ranked list for one user. A
// failing generator contributes an empty group; a failing audit write is
// logged. Neither fails the request.
func (s *RecommendationService) RecommendForUser(ctx context.Context, userID int64) ([]models.RecItem, error) {
	description, err := s.catalog.DescriptionByUserID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to fetch user description")
		description = nil
	}

	// Fork-join: the three generators share no state and any of them may
	// fail alone. The join waits for all three before blending.
	groups := make([][]models.RecItem, 3)
	var wg sync.WaitGroup
	run := func(index int, subsystem models.Subsystem, generate func(context.Context) ([]models.RecItem, error)) {
		defer wg.Done()

		genCtx, cancel := context.WithTimeout(ctx, s.cfg.GeneratorTimeout)
		defer cancel()

		items, err := generate(genCtx)
		if err != nil {
			s.metrics.GeneratorFailures.WithLabelValues(string(subsystem)).Inc()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"subsystem": subsystem,
				"user_id":   userID,
			}).Warn("Candidate generator failed")
			return
		}
		groups[index] = items
	}

	wg.Add(3)
	go run(0, models.SubsystemBasic, func(ctx context.Context) ([]models.RecItem, error) {
		return s.static.Candidates(ctx, description)
	})
	go run(1, models.SubsystemDynamic, func(ctx context.Context) ([]models.RecItem, error) {
		return s.dynamic.Candidates(ctx, userID)
	})
	go run(2, models.SubsystemCollaborative, func(ctx context.Context) ([]models.RecItem, error) {
		return s.collaborative.Candidates(ctx, userID)
	})
	wg.Wait()

	now := time.Now()
	for i := range groups {
		groups[i] = s.rescorer.Rescore(groups[i], now)
	}

	recommendation := s.blender.Blend(groups, s.cfg.MinByGroup, s.cfg.Limit)

	if err := s.behavior.InsertGivenRecommendation(ctx, userID, recommendation); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to persist given recommendation")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(recommendation),
	}).Debug("Recommendation composed")

	return recommendation, nil
}

// SetUserDescription upserts the profile text into the catalog and, when
// the text is long enough to embed, the user vector into the index.
// The returned status is true only if both writes happened and
// succeeded.
func (s *RecommendationService) SetUserDescription(ctx context.Context, userID int64, description string) bool {
	catalogOK := true
	if err := s.catalog.SetUserDescription(ctx, userID, description); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to store user description")
		catalogOK = false
	}

	vectorOK := false
	if utf8.RuneCountInString(description) >= models.MinUserDescriptionLen {
		vector, err := s.embedder.Embed(ctx, description)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Failed to embed user description")
		} else if err := s.vectors.UpsertUser(ctx, userID, vector); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Failed to upsert user vector")
		} else {
			vectorOK = true
		}
	}

	return catalogOK && vectorOK
}

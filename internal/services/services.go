package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/config"
	"github.com/ideeockus/capybanse-service/internal/database"
	"github.com/ideeockus/capybanse-service/internal/metrics"
	"github.com/ideeockus/capybanse-service/internal/ml"
	"github.com/ideeockus/capybanse-service/internal/store"
)

// Services wires stores, the embedding provider and the recommendation
// pipeline together. Construction also bootstraps schemas and
// collections in the external stores.
type Services struct {
	Catalog     *store.Catalog
	BehaviorLog *store.BehaviorLog
	VectorStore *store.VectorStore
	Embedder    ml.Provider

	Recommendation *RecommendationService
	Ingest         *IngestService
	Health         *HealthService
}

func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, db *database.Database, m *metrics.Metrics) (*Services, error) {
	catalog, err := store.NewCatalog(ctx, db.PG, logger)
	if err != nil {
		return nil, err
	}

	behaviorLog, err := store.NewBehaviorLog(ctx, db.CH, logger)
	if err != nil {
		return nil, err
	}

	vectorStore, err := store.NewVectorStore(ctx, db.Qdrant, cfg.Recommendation.RecommendWindow, logger)
	if err != nil {
		return nil, err
	}

	embedder := ml.NewHTTPEmbedder(
		cfg.Embedding.URL,
		cfg.Embedding.Dimensions,
		cfg.Embedding.Timeout,
		db.Redis,
		cfg.Embedding.CacheTTL,
		logger,
	)

	rec := &cfg.Recommendation

	static := NewStaticGenerator(vectorStore, embedder, rec.Limit, logger)
	dynamic := NewDynamicGenerator(
		vectorStore, behaviorLog,
		rec.ExplicitCoefficient, rec.MaxInteractions, rec.InteractionWindow, rec.Limit,
		logger,
	)
	collaborative := NewCollaborativeGenerator(
		vectorStore, behaviorLog,
		rec.MaxInteractions, rec.InteractionWindow, rec.Limit,
		logger,
	)

	recommendation := NewRecommendationService(
		catalog, behaviorLog, vectorStore, embedder,
		static, dynamic, collaborative,
		NewRescorer(rec.DecayRate, rec.JitterAmplitude),
		NewBlender(),
		rec, m, logger,
	)

	ingest, err := NewIngestService(catalog, vectorStore, embedder, m, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		Catalog:        catalog,
		BehaviorLog:    behaviorLog,
		VectorStore:    vectorStore,
		Embedder:       embedder,
		Recommendation: recommendation,
		Ingest:         ingest,
		Health:         NewHealthService(db, logger),
	}, nil
}

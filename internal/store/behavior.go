package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

const createInteractionsTable = `
CREATE TABLE IF NOT EXISTS users_interactions (
    user_id Int64,
    event_id UUID,
    interaction_type String,
    interaction_dt DateTime
) ENGINE = MergeTree
ORDER BY (user_id, interaction_dt)
`

const createGivenRecommendationsTable = `
CREATE TABLE IF NOT EXISTS given_recommendations (
    user_id Int64,
    recommended_events Array(Tuple(event_id UUID, subsystem String, score Float64)),
    recommendation_dt DateTime
) ENGINE = MergeTree
ORDER BY (user_id, recommendation_dt)
`

// BehaviorLog is the append-only store of user interactions and the
// audit trail of recommendations the service handed out.
type BehaviorLog struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewBehaviorLog(ctx context.Context, conn driver.Conn, logger *logrus.Logger) (*BehaviorLog, error) {
	for _, ddl := range []string{createInteractionsTable, createGivenRecommendationsTable} {
		if err := conn.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create behavior-log table: %w", err)
		}
	}
	return &BehaviorLog{conn: conn, logger: logger}, nil
}

// InsertInteraction appends one (user, event, kind) row stamped now.
func (l *BehaviorLog) InsertInteraction(
	ctx context.Context,
	userID int64,
	eventID uuid.UUID,
	kind models.InteractionKind,
) error {
	batch, err := l.conn.PrepareBatch(ctx, "INSERT INTO users_interactions")
	if err != nil {
		return fmt.Errorf("failed to prepare interaction insert: %w", err)
	}
	if err := batch.Append(userID, eventID, string(kind), time.Now()); err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// InsertGivenRecommendation appends the audit row for one served
// recommendation, element-for-element equal to the returned list.
func (l *BehaviorLog) InsertGivenRecommendation(
	ctx context.Context,
	userID int64,
	recommendation []models.RecItem,
) error {
	recommended := make([][]any, 0, len(recommendation))
	for _, item := range recommendation {
		recommended = append(recommended, []any{item.Event.ID, string(item.Subsystem), item.Score})
	}

	batch, err := l.conn.PrepareBatch(ctx, "INSERT INTO given_recommendations")
	if err != nil {
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	if err := batch.Append(userID, recommended, time.Now()); err != nil {
		return fmt.Errorf("failed to append recommendation: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	return nil
}

// InteractionsByUser returns the user's interactions after the cutoff,
// newest first.
func (l *BehaviorLog) InteractionsByUser(
	ctx context.Context,
	userID int64,
	after time.Time,
	limit int,
) ([]models.UserInteraction, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT user_id, event_id, interaction_type, interaction_dt
		FROM users_interactions
		WHERE user_id = ? AND interaction_dt >= ?
		ORDER BY interaction_dt DESC
		LIMIT ?`,
		userID, after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions by user: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// InteractionsByEvent returns the event's interactions after the cutoff,
// newest first.
func (l *BehaviorLog) InteractionsByEvent(
	ctx context.Context,
	eventID uuid.UUID,
	after time.Time,
	limit int,
) ([]models.UserInteraction, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT user_id, event_id, interaction_type, interaction_dt
		FROM users_interactions
		WHERE event_id = ? AND interaction_dt >= ?
		ORDER BY interaction_dt DESC
		LIMIT ?`,
		eventID, after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions by event: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

func scanInteractions(rows driver.Rows) ([]models.UserInteraction, error) {
	var interactions []models.UserInteraction
	for rows.Next() {
		var (
			interaction models.UserInteraction
			kind        string
		)
		err := rows.Scan(
			&interaction.UserID,
			&interaction.EventID,
			&kind,
			&interaction.InteractionAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		interaction.Kind = models.InteractionKind(kind)
		interactions = append(interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interaction rows: %w", err)
	}
	return interactions, nil
}

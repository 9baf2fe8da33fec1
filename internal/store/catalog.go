package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS resonanse_events (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,

    datetime_from TIMESTAMP NOT NULL,
    datetime_to TIMESTAMP,
    city TEXT,

    venue_title TEXT,
    venue_address TEXT,
    venue_lat FLOAT8,
    venue_lon FLOAT8,

    image_url TEXT,
    local_image_path TEXT,

    price_price FLOAT8,
    price_currency VARCHAR(255),

    tags TEXT[],
    contact TEXT,

    service_id TEXT NOT NULL UNIQUE,
    service_type TEXT,
    service_data JSONB
)`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS resonanse_users (
    id BIGINT PRIMARY KEY,
    description TEXT
)`

// pgxQuerier is the slice of pgxpool.Pool the catalog needs; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Catalog is the authoritative Postgres store of event rows and user
// descriptions.
type Catalog struct {
	db     pgxQuerier
	logger *logrus.Logger
}

func NewCatalog(ctx context.Context, db pgxQuerier, logger *logrus.Logger) (*Catalog, error) {
	for _, ddl := range []string{createEventsTable, createUsersTable} {
		if _, err := db.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create catalog table: %w", err)
		}
	}
	return &Catalog{db: db, logger: logger}, nil
}

// AddEvent inserts a new event row. Events already ingested from the
// same provider (matching service_id) are skipped; the bool reports
// whether a row was actually written.
func (c *Catalog) AddEvent(ctx context.Context, event models.Event) (bool, error) {
	var (
		pricePrice    *float64
		priceCurrency *string
	)
	if event.Price != nil {
		pricePrice = &event.Price.Price
		priceCurrency = &event.Price.Currency
	}

	serviceData, err := json.Marshal(event.ServiceData)
	if err != nil {
		return false, fmt.Errorf("failed to encode service data: %w", err)
	}

	tag, err := c.db.Exec(ctx, `
		INSERT INTO resonanse_events (
			id, title, description, datetime_from, datetime_to, city,
			venue_title, venue_address, venue_lat, venue_lon,
			image_url, local_image_path, price_price, price_currency,
			tags, contact, service_id, service_type, service_data
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (service_id) DO NOTHING`,
		event.ID, event.Title, event.Description, event.DatetimeFrom, event.DatetimeTo, event.City,
		event.Venue.Title, event.Venue.Address, event.Venue.Lat, event.Venue.Lon,
		event.Picture.ImageURL, event.Picture.LocalImage, pricePrice, priceCurrency,
		event.Tags, event.Contact, event.ServiceID, string(event.ServiceType), serviceData,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SetUserDescription upserts the free-text profile for a user.
func (c *Catalog) SetUserDescription(ctx context.Context, userID int64, description string) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO resonanse_users (id, description)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET description = EXCLUDED.description`,
		userID, description,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user description: %w", err)
	}
	return nil
}

// DescriptionByUserID returns the user's profile text, or nil when the
// user is unknown or never wrote one.
func (c *Catalog) DescriptionByUserID(ctx context.Context, userID int64) (*string, error) {
	var description *string
	err := c.db.QueryRow(ctx,
		`SELECT description FROM resonanse_users WHERE id = $1`,
		userID,
	).Scan(&description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user description: %w", err)
	}
	return description, nil
}

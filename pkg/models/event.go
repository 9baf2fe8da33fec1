package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EventSource identifies the upstream provider an event was scraped from.
type EventSource string

const (
	SourceKudaGo    EventSource = "KUDAGO"
	SourceTimepad   EventSource = "TIMEPAD"
	SourceNetworkly EventSource = "NETWORKLY"
	SourceResonanse EventSource = "RESONANSE"
)

type Venue struct {
	Title   *string  `json:"title,omitempty"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

type Picture struct {
	ImageURL   *string `json:"image_url,omitempty"`
	LocalImage *string `json:"local_image,omitempty"`
}

type Price struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Event is the catalog row and the payload stored alongside the event
// vector. ServiceID is unique across (provider, provider-internal-id);
// events are never mutated after ingestion.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Description  *string        `json:"description,omitempty"`
	DatetimeFrom time.Time      `json:"datetime_from"`
	DatetimeTo   *time.Time     `json:"datetime_to,omitempty"`
	City         *string        `json:"city,omitempty"`
	Venue        Venue          `json:"venue"`
	Picture      Picture        `json:"picture"`
	Price        *Price         `json:"price,omitempty"`
	Tags         []string       `json:"tags"`
	Contact      *string        `json:"contact,omitempty"`
	ServiceID    string         `json:"service_id"`
	ServiceType  EventSource    `json:"service_type"`
	ServiceData  map[string]any `json:"service_data,omitempty"`
}

// MinEventDescriptionLen is the shortest event description worth
// embedding, counted in runes; anything below it yields no vector.
const MinEventDescriptionLen = 20

// MinUserDescriptionLen is the user-profile counterpart.
const MinUserDescriptionLen = 10

// Indexable reports whether the event carries enough text to embed.
// Descriptions are mostly Cyrillic, so the threshold counts runes, not
// bytes.
func (e *Event) Indexable() bool {
	return e.Description != nil && utf8.RuneCountInString(*e.Description) >= MinEventDescriptionLen
}

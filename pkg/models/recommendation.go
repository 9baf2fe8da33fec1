package models

import "github.com/google/uuid"

// Subsystem tags a candidate with the generator that produced it.
// The tag is set at generation time and never rewritten downstream.
type Subsystem string

const (
	SubsystemBasic         Subsystem = "BASIC"
	SubsystemDynamic       Subsystem = "DYNAMIC"
	SubsystemCollaborative Subsystem = "COLLABORATIVE"
)

// RecItem is the in-memory unit flowing through rescoring and blending.
// Score starts as the vector-index similarity and is adjusted by the
// rescorer; transforms return new slices rather than sharing state.
type RecItem struct {
	Subsystem Subsystem `json:"subsystem"`
	Event     Event     `json:"event"`
	Score     float64   `json:"score"`
}

// RecommendedEvent is the compact audit form persisted with a
// GivenRecommendation row.
type RecommendedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Subsystem Subsystem `json:"subsystem"`
	Score     float64   `json:"score"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionKind is the feedback signal recorded for (user, event).
// CLICK is implicit; LIKE and DISLIKE are explicit.
type InteractionKind string

const (
	InteractionClick   InteractionKind = "click"
	InteractionLike    InteractionKind = "like"
	InteractionDislike InteractionKind = "dislike"
)

// UserInteraction is one append-only behavior-log row.
type UserInteraction struct {
	UserID        int64           `json:"user_id"`
	EventID       uuid.UUID       `json:"event_id"`
	Kind          InteractionKind `json:"interaction_type"`
	InteractionAt time.Time       `json:"interaction_dt"`
}

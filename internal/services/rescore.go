package services

import (
	"math"
	"math/rand"
	"time"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

// Rescorer adjusts candidate scores for display: an exponential decay
// pulls events far from the request time down on both sides, and a small
// uniform jitter breaks ties so repeated requests do not freeze the
// ranking. Rescore returns a fresh slice; applying it twice to the same
// list compounds the decay and is a caller bug.
type Rescorer struct {
	decayRate       float64
	jitterAmplitude float64
}

func NewRescorer(decayRate, jitterAmplitude float64) *Rescorer {
	return &Rescorer{
		decayRate:       decayRate,
		jitterAmplitude: jitterAmplitude,
	}
}

func (r *Rescorer) Rescore(items []models.RecItem, now time.Time) []models.RecItem {
	return r.withJitter(r.withTimeDecay(items, now))
}

func (r *Rescorer) withTimeDecay(items []models.RecItem, now time.Time) []models.RecItem {
	out := make([]models.RecItem, len(items))
	for i, item := range items {
		days := wholeDays(item.Event.DatetimeFrom, now)
		item.Score *= math.Exp(-r.decayRate * float64(days))
		out[i] = item
	}
	return out
}

func (r *Rescorer) withJitter(items []models.RecItem) []models.RecItem {
	out := make([]models.RecItem, len(items))
	for i, item := range items {
		item.Score += (rand.Float64()*2 - 1) * r.jitterAmplitude
		out[i] = item
	}
	return out
}

// wholeDays is the absolute distance between two instants truncated to
// full days.
func wholeDays(a, b time.Time) int {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}

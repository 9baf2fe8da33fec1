package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

// Blender merges per-subsystem candidate lists into the final ranking.
// A fairness phase first guarantees each group a floor of slots in
// fixed BASIC, DYNAMIC, COLLABORATIVE order, then the best remaining
// candidates fill up to the limit. The output keeps that insertion
// order; it is not re-sorted.
type Blender struct{}

func NewBlender() *Blender {
	return &Blender{}
}

// Blend expects groups post-rescoring, in subsystem order. minByGroup is
// the per-group floor, limit the overall cap.
func (b *Blender) Blend(groups [][]models.RecItem, minByGroup, limit int) []models.RecItem {
	prepared := make([][]models.RecItem, 0, len(groups))
	for _, group := range groups {
		prepared = append(prepared, topK(group, limit, nil))
	}

	selected := make([]models.RecItem, 0, limit)
	selectedIDs := make(map[uuid.UUID]struct{}, limit)
	take := func(item models.RecItem) {
		selected = append(selected, item)
		selectedIDs[item.Event.ID] = struct{}{}
	}

	for index := 0; index < minByGroup; index++ {
		for _, group := range prepared {
			for _, candidate := range group {
				if _, seen := selectedIDs[candidate.Event.ID]; seen {
					continue
				}
				take(candidate)
				break
			}
		}
	}

	remaining := limit - len(selected)
	switch {
	case remaining > 0:
		var bag []models.RecItem
		for _, group := range prepared {
			bag = append(bag, group...)
		}
		for _, candidate := range topK(bag, remaining, selectedIDs) {
			take(candidate)
		}
	case remaining < 0:
		// Possible only when minByGroup*len(groups) > limit.
		selected = selected[:limit]
	}

	return selected
}

// topK sorts by score descending and returns up to limit items with
// pairwise-distinct event IDs, skipping anything in exclude.
func topK(items []models.RecItem, limit int, exclude map[uuid.UUID]struct{}) []models.RecItem {
	sorted := make([]models.RecItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	selected := make([]models.RecItem, 0, limit)
	seen := make(map[uuid.UUID]struct{}, limit)
	for _, item := range sorted {
		if _, dup := seen[item.Event.ID]; dup {
			continue
		}
		if _, skip := exclude[item.Event.ID]; skip {
			continue
		}
		seen[item.Event.ID] = struct{}{}
		selected = append(selected, item)
		if len(selected) == limit {
			break
		}
	}
	return selected
}

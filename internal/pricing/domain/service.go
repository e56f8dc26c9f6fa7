package domain

import (
	"context"
	"errors"
)

// Catalog resolves prices read-through: snapshot cache, then the tier store,
// then the static fallback table. Refresh replaces the whole snapshot.
type Catalog interface {
	Lookup(ctx context.Context, modelID, provider string) (Rate, error)
	Refresh(ctx context.Context) error
	Stats() CacheStats
}

// CacheStats counts snapshot hits and misses since process start.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// HitRate is hits over total lookups, zero when nothing was looked up yet.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Estimator converts token counts into whole credits. It never fails: any
// lookup problem degrades to a flat per-token heuristic.
type Estimator interface {
	EstimateCost(ctx context.Context, modelID, provider string, inputTokens, outputTokens int64) int64
}

var ErrInvalidModel = errors.New("invalid_model")

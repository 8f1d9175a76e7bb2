package engine

import (
	"math"
	"sort"
	"sync"
	"time"
)

// CommonLimits is the fixed set of token ceilings used to define the
// "hit-limit" subset for the token-limit P90 estimate (spec.md §4.7, §6).
var CommonLimits = []float64{19000, 88000, 220000, 880000}

const (
	defaultLimitThreshold = 0.9
	defaultMinTokenLimit  = 44000.0
	defaultCostLimit      = 5.00
	defaultMessageLimit   = 100.0
	defaultP90CacheTTL    = time.Hour
)

// percentileExclusive computes the 90th percentile with linear
// interpolation on the exclusive definition (spec.md §4.7): for a sorted
// sample of size n, position p = 0.9*(n+1)-1, clamped into [0, n-1], then
// interpolated between the floor and ceil index.
func percentileExclusive(sorted []float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return sorted[0], true
	}

	pos := 0.9*(float64(n)+1) - 1
	if pos < 0 {
		pos = 0
	}
	if pos > float64(n-1) {
		pos = float64(n - 1)
	}

	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	frac := pos - float64(lower)

	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), true
}

// P90Estimator computes adaptive percentile ceilings over completed,
// non-gap blocks, with a TTL cache (spec.md §4.7, §9). commonLimits,
// limitThreshold, and minTokenLimit are the configurable parts of the
// token-limit tiering (spec.md §6's p90_common_limits, p90_limit_threshold,
// and p90_default_min_limit).
type P90Estimator struct {
	mu             sync.Mutex
	ttl            time.Duration
	commonLimits   []float64
	limitThreshold float64
	minTokenLimit  float64
	cached         *P90Limits
	cachedAt       time.Time
	cachedTail     int // number of blocks seen when the cache was populated
}

// NewP90Estimator creates an estimator with the given cache TTL (0 uses the
// spec default of 3600s) and token-limit tiering parameters (zero values
// fall back to the package defaults).
func NewP90Estimator(ttl time.Duration, commonLimits []float64, limitThreshold, minTokenLimit float64) *P90Estimator {
	if ttl <= 0 {
		ttl = defaultP90CacheTTL
	}
	if len(commonLimits) == 0 {
		commonLimits = CommonLimits
	}
	if limitThreshold <= 0 {
		limitThreshold = defaultLimitThreshold
	}
	if minTokenLimit <= 0 {
		minTokenLimit = defaultMinTokenLimit
	}
	return &P90Estimator{
		ttl:            ttl,
		commonLimits:   commonLimits,
		limitThreshold: limitThreshold,
		minTokenLimit:  minTokenLimit,
	}
}

// Estimate returns the P90 triple over the completed (non-active, non-gap)
// blocks in the given list, honoring the TTL cache. The cache is
// invalidated whenever the block list has grown past the tail it was
// computed against (spec.md §9).
func (e *P90Estimator) Estimate(blocks []*SessionBlock, now time.Time) P90Limits {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cached != nil && len(blocks) == e.cachedTail && now.Sub(e.cachedAt) < e.ttl {
		return *e.cached
	}

	result := e.computeP90(blocks)
	e.cached = &result
	e.cachedAt = now
	e.cachedTail = len(blocks)
	return result
}

func (e *P90Estimator) computeP90(blocks []*SessionBlock) P90Limits {
	var tokenTotals, costTotals, messageTotals []float64

	for _, b := range blocks {
		if b.IsGap || b.IsActive {
			continue
		}
		tokenTotals = append(tokenTotals, float64(b.Tokens.Total()))
		costTotals = append(costTotals, b.CostUSD)
		messageTotals = append(messageTotals, float64(b.MessageCount))
	}

	return P90Limits{
		TokenLimit:   e.estimateTokenLimit(tokenTotals),
		CostLimit:    estimateSimple(costTotals, defaultCostLimit),
		MessageLimit: estimateSimple(messageTotals, defaultMessageLimit),
	}
}

// estimateTokenLimit applies the two-tier common-limit selection, then
// floors the result at the configured minimum (spec.md §4.7).
func (e *P90Estimator) estimateTokenLimit(totals []float64) float64 {
	var tier1 []float64
	for _, v := range totals {
		for _, limit := range e.commonLimits {
			if v >= limit*e.limitThreshold {
				tier1 = append(tier1, v)
				break
			}
		}
	}

	sample := tier1
	if len(sample) == 0 {
		for _, v := range totals {
			if v > 0 {
				sample = append(sample, v)
			}
		}
	}
	if len(sample) == 0 {
		return e.minTokenLimit
	}

	sort.Float64s(sample)
	p90, _ := percentileExclusive(sample)
	return math.Max(p90, e.minTokenLimit)
}

func estimateSimple(totals []float64, fallback float64) float64 {
	if len(totals) == 0 {
		return fallback
	}
	sorted := append([]float64(nil), totals...)
	sort.Float64s(sorted)
	p90, ok := percentileExclusive(sorted)
	if !ok {
		return fallback
	}
	return p90
}

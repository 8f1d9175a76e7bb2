package engine

import (
	"fmt"
	"math"
	"sync"
)

// UnknownModelError is returned by the cost calculator in strict mode when
// a model cannot be resolved to a known pricing category.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %s", e.Model)
}

// costKey is the memoization key: (model, input, output, cache_create, cache_read).
type costKey struct {
	model       string
	input       int64
	output      int64
	cacheCreate int64
	cacheRead   int64
}

// CostCalculator is a memoized, pure cost function. One instance is owned
// by the facade (spec.md §9: "model as owned state, not hidden globals").
type CostCalculator struct {
	mu     sync.Mutex
	memo   map[costKey]float64
	strict bool
}

// NewCostCalculator creates a calculator. strict controls whether an
// unrecognized model fails the call (true) or falls back to sonnet rates
// (false, the default per spec.md §6).
func NewCostCalculator(strict bool) *CostCalculator {
	return &CostCalculator{
		memo:   make(map[costKey]float64),
		strict: strict,
	}
}

// isKnownModel reports whether the model resolves via the exact lookup
// table rather than substring inference, for strict-mode rejection.
func isKnownModel(model string) bool {
	if IsSynthetic(model) {
		return true
	}
	_, ok := knownModels[NormalizeModel(model)]
	return ok
}

// Cost computes cost(model, tokens) at micro-precision, rounding
// half-away-from-zero to 1e-6 USD, and memoizes the result.
func (c *CostCalculator) Cost(model string, tokens TokenVector) (float64, error) {
	if c.strict && !IsSynthetic(model) && !isKnownModel(model) {
		return 0, &UnknownModelError{Model: model}
	}

	key := costKey{
		model:       model,
		input:       tokens.InputTokens,
		output:      tokens.OutputTokens,
		cacheCreate: tokens.CacheCreate,
		cacheRead:   tokens.CacheRead,
	}

	c.mu.Lock()
	if v, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	rates := RatesForModel(model)
	cost := float64(tokens.InputTokens)/1e6*rates.InputPerMillion +
		float64(tokens.OutputTokens)/1e6*rates.OutputPerMillion +
		float64(tokens.CacheCreate)/1e6*rates.CacheCreatePerMillion +
		float64(tokens.CacheRead)/1e6*rates.CacheReadPerMillion
	cost = roundMicro(cost)

	c.mu.Lock()
	c.memo[key] = cost
	c.mu.Unlock()

	return cost, nil
}

// roundMicro rounds x to 1e-6 precision, half-away-from-zero.
func roundMicro(x float64) float64 {
	const scale = 1e6
	if x < 0 {
		return -math.Floor(-x*scale+0.5) / scale
	}
	return math.Floor(x*scale+0.5) / scale
}

// roundCents rounds x to 1e-2 precision (display rounding), half-away-from-zero.
func roundCents(x float64) float64 {
	const scale = 1e2
	if x < 0 {
		return -math.Floor(-x*scale+0.5) / scale
	}
	return math.Floor(x*scale+0.5) / scale
}

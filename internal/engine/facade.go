package engine

import (
	"context"
	"time"
)

// EngineConfig is the configuration surface enumerated in spec.md §6.
// Functional-default style, generalized from teacher's
// NewTokenCollector / NewTokenCollectorWithLookback / NewTokenCollectorWithPath
// constructor-option pattern into one struct with a single constructor.
type EngineConfig struct {
	BasePaths              []string
	RefreshIntervalSeconds int
	P90CommonLimits        []float64
	P90LimitThreshold      float64
	P90DefaultMinLimit     float64
	P90CacheTTLSeconds     int
	SessionDurationHours   float64
	StrictUnknownModels    bool
	CachePath              string // SQLite file-state cache; "" disables it
}

// DefaultEngineConfig returns the spec.md §6 defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BasePaths:              DefaultBasePaths(),
		RefreshIntervalSeconds: 8,
		P90CommonLimits:        append([]float64(nil), CommonLimits...),
		P90LimitThreshold:      defaultLimitThreshold,
		P90DefaultMinLimit:     defaultMinTokenLimit,
		P90CacheTTLSeconds:     int(defaultP90CacheTTL.Seconds()),
		SessionDurationHours:   5,
		StrictUnknownModels:    false,
		CachePath:              DefaultCachePath(),
	}
}

// Engine is the metrics facade: a single entry point that accepts a
// [start, end] window and returns the nine live metrics plus the session
// block list (spec.md §4.9). It owns the process-wide mutable caches
// (spec.md §9): the cost memoization map, the P90 TTL cache, and — when
// configured — the loader's SQLite file-state cache.
type Engine struct {
	cfg             EngineConfig
	loader          *Loader
	cost            *CostCalculator
	p90             *P90Estimator
	fileCache       *FileCache
	sessionDuration time.Duration
}

// NewEngine constructs an Engine from the given configuration. A file
// cache that fails to open is not fatal: the loader just scans every file
// from the start on each call, which is always correct, only slower.
func NewEngine(cfg EngineConfig) *Engine {
	fileCache, _ := NewFileCache(cfg.CachePath)

	loader := NewLoader(cfg.BasePaths)
	loader.Cache = fileCache

	sessionDuration := time.Duration(cfg.SessionDurationHours * float64(time.Hour))
	if sessionDuration <= 0 {
		sessionDuration = SessionDuration
	}

	return &Engine{
		cfg:    cfg,
		loader: loader,
		cost:   NewCostCalculator(cfg.StrictUnknownModels),
		p90: NewP90Estimator(
			time.Duration(cfg.P90CacheTTLSeconds)*time.Second,
			cfg.P90CommonLimits,
			cfg.P90LimitThreshold,
			cfg.P90DefaultMinLimit,
		),
		fileCache:       fileCache,
		sessionDuration: sessionDuration,
	}
}

// Close releases the engine's file-state cache handle, if any.
func (e *Engine) Close() error {
	return e.fileCache.Close()
}

// Compute runs the full pipeline over [start, end) and returns a fresh,
// immutable Metrics snapshot (spec.md §4.9, §5). It is safe to call
// repeatedly; each call re-reads the logs and builds fresh state, except
// for the owned caches described above.
func (e *Engine) Compute(ctx context.Context, start, end time.Time) (*Metrics, error) {
	now := time.Now().UTC()

	records, stats, err := e.loader.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}

	blocks, err := BuildBlocks(records, e.cost, now, e.sessionDuration)
	if err != nil {
		return nil, err
	}

	p90 := e.p90.Estimate(blocks, now)

	var activeBlocks []*SessionBlock
	for _, b := range blocks {
		if b.IsActive && !b.IsGap {
			activeBlocks = append(activeBlocks, b)
		}
	}

	var costUsage float64
	var tokenUsage int64
	messageSet := make(map[string]struct{})
	modelDist := map[string]*ModelStats{}
	var costRate float64

	for _, b := range activeBlocks {
		costUsage += b.CostUSD
		tokenUsage += b.Tokens.Usage()

		for id := range b.MessageIDs {
			messageSet[id] = struct{}{}
		}

		for model, ms := range b.ModelStats {
			existing, ok := modelDist[model]
			if !ok {
				modelDist[model] = &ModelStats{
					Model:      model,
					Tokens:     ms.Tokens,
					CostUSD:    ms.CostUSD,
					EntryCount: ms.EntryCount,
				}
				continue
			}
			existing.Tokens = existing.Tokens.Add(ms.Tokens)
			existing.CostUSD = roundMicro(existing.CostUSD + ms.CostUSD)
			existing.EntryCount += ms.EntryCount
		}

		if d := b.ActualDurationMinutes(); d >= 1 {
			costRate += b.CostUSD / d * 60
		}
	}

	var totalDistTokens, totalDistCost float64
	for _, ms := range modelDist {
		totalDistTokens += float64(ms.Tokens.Usage())
		totalDistCost += ms.CostUSD
	}
	for _, ms := range modelDist {
		pctToken := safePercent(float64(ms.Tokens.Usage()), totalDistTokens)
		pctCost := safePercent(ms.CostUSD, totalDistCost)
		ms.PercentToken = &pctToken
		ms.PercentCost = &pctCost
	}

	reset := ResetTime(blocks, now)
	exhaustion := PredictExhaustion(blocks, now, p90.CostLimit)

	return &Metrics{
		CostUsage:         roundCents(costUsage),
		TokenUsage:        tokenUsage,
		MessagesUsage:     len(messageSet),
		TimeToReset:       TimeToReset(reset, now),
		ModelDistribution: modelDist,
		Burn:              ComputeBurnRate(blocks, now),
		CostRate:          costRate,
		TokensWillRunOut:  exhaustion,
		LimitResetsAt:     reset,
		P90:               p90,
		Blocks:            blocks,
		Records:           records,
		Stats:             stats,
	}, nil
}

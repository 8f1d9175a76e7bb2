package engine

import (
	"encoding/json"
	"time"
)

// TokenVector is an immutable count of the four token categories tracked
// per request. Values are always non-negative.
type TokenVector struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	CacheCreate  int64 `json:"cache_creation_tokens"`
	CacheRead    int64 `json:"cache_read_tokens"`
}

// Usage returns InputTokens + OutputTokens, the "billable conversation"
// token count excluding cache traffic.
func (v TokenVector) Usage() int64 {
	return v.InputTokens + v.OutputTokens
}

// Total returns the sum of all four token categories.
func (v TokenVector) Total() int64 {
	return v.InputTokens + v.OutputTokens + v.CacheCreate + v.CacheRead
}

// Add returns the element-wise sum of two token vectors.
func (v TokenVector) Add(other TokenVector) TokenVector {
	return TokenVector{
		InputTokens:  v.InputTokens + other.InputTokens,
		OutputTokens: v.OutputTokens + other.OutputTokens,
		CacheCreate:  v.CacheCreate + other.CacheCreate,
		CacheRead:    v.CacheRead + other.CacheRead,
	}
}

// IsZero reports whether every field of the vector is zero.
func (v TokenVector) IsZero() bool {
	return v.InputTokens == 0 && v.OutputTokens == 0 && v.CacheCreate == 0 && v.CacheRead == 0
}

// UsageRecord is one normalized usage event extracted from a log line.
type UsageRecord struct {
	Timestamp time.Time
	Model     string
	Tokens    TokenVector
	MessageID string
	RequestID string
}

// HasIdentity reports whether both halves of the dedup identity pair are present.
func (r UsageRecord) HasIdentity() bool {
	return r.MessageID != "" && r.RequestID != ""
}

// IdentityKey returns the dedup key for records with a complete identity pair.
func (r UsageRecord) IdentityKey() string {
	return r.MessageID + ":" + r.RequestID
}

// ModelStats accumulates usage for a single model within a block.
type ModelStats struct {
	Model        string      `json:"model"`
	Tokens       TokenVector `json:"tokens"`
	CostUSD      float64     `json:"cost_usd"`
	EntryCount   int         `json:"entry_count"`
	PercentCost  *float64    `json:"percent_cost,omitempty"`
	PercentToken *float64    `json:"percent_token,omitempty"`
}

// Add returns the sum of two ModelStats sharing the same model. Associative
// and commutative.
func (m ModelStats) Add(other ModelStats) ModelStats {
	return ModelStats{
		Model:      m.Model,
		Tokens:     m.Tokens.Add(other.Tokens),
		CostUSD:    roundMicro(m.CostUSD + other.CostUSD),
		EntryCount: m.EntryCount + other.EntryCount,
	}
}

// SessionBlock is a fixed five-hour usage window, hour-aligned to UTC.
type SessionBlock struct {
	ID              string                 `json:"id"`
	Start           time.Time              `json:"start"`
	End             time.Time              `json:"end"`
	ActualEnd       *time.Time             `json:"actual_end,omitempty"`
	Tokens          TokenVector            `json:"tokens"`
	CostUSD         float64                `json:"cost_usd"`
	ModelStats      map[string]*ModelStats `json:"model_stats"`
	MessageIDs      map[string]struct{}    `json:"message_ids"`
	MessageCount    int                    `json:"message_count"`
	IsActive        bool                   `json:"is_active"`
	IsGap           bool                   `json:"is_gap"`
	DurationMinutes float64                `json:"duration_minutes"`
}

// ToMap serializes b to a plain value map via JSON marshal/unmarshal —
// the same map[string]any shape extract.go reads log lines into
// (spec.md §8's round-trip law).
func (b *SessionBlock) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SessionBlockFromMap reconstructs a SessionBlock from a map produced by
// ToMap. Round-tripping through ToMap and SessionBlockFromMap yields a
// block equal to the original (spec.md §8).
func SessionBlockFromMap(m map[string]any) (*SessionBlock, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var b SessionBlock
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ActualDurationMinutes returns the minutes between Start and ActualEnd (or
// End if no records were ever added), used by the facade's cost_rate metric.
func (b *SessionBlock) ActualDurationMinutes() float64 {
	end := b.End
	if b.ActualEnd != nil {
		end = *b.ActualEnd
	}
	return end.Sub(b.Start).Minutes()
}

// newGapBlock returns a marker for a period of ≥5h between consecutive
// records, modeled as a SessionBlock with IsGap=true and no usage fields
// populated.
func newGapBlock(start, end time.Time) *SessionBlock {
	return &SessionBlock{
		Start:           start,
		End:             end,
		IsGap:           true,
		ModelStats:      map[string]*ModelStats{},
		MessageIDs:      map[string]struct{}{},
		DurationMinutes: end.Sub(start).Minutes(),
	}
}

// BurnRate is the ephemeral, per-call token/cost flux over the trailing hour.
type BurnRate struct {
	TokensPerMinute float64
	CostPerHour     float64
	ComputedAt      time.Time
	Available       bool
}

// P90Limits is the triple of adaptive percentile ceilings.
type P90Limits struct {
	TokenLimit   float64
	CostLimit    float64
	MessageLimit float64
}

// LoadStats carries the observability counters spec.md §7 requires to be
// reported alongside Metrics.
type LoadStats struct {
	FilesSkipped      int
	LinesSkipped      int
	DuplicatesSkipped int
}

// Metrics is the single immutable snapshot handed to the consumer by Compute.
type Metrics struct {
	CostUsage         float64
	TokenUsage        int64
	MessagesUsage     int
	TimeToReset       time.Duration
	ModelDistribution map[string]*ModelStats
	Burn              BurnRate
	CostRate          float64
	TokensWillRunOut  *time.Time
	LimitResetsAt     time.Time
	P90               P90Limits

	Blocks  []*SessionBlock
	Records []UsageRecord
	Stats   LoadStats
}

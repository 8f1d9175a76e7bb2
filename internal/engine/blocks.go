package engine

import "time"

// SessionDuration is the spec default block length (spec.md §6
// session_duration_hours), used when BuildBlocks is given a zero duration.
const SessionDuration = 5 * time.Hour

// hourFloor zeroes minute, second, and sub-second components, per spec.md §4.5.
func hourFloor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

func openBlock(start time.Time, sessionDuration time.Duration) *SessionBlock {
	blockStart := hourFloor(start)
	return &SessionBlock{
		ID:         blockStart.Format(time.RFC3339),
		Start:      blockStart,
		End:        blockStart.Add(sessionDuration),
		ModelStats: map[string]*ModelStats{},
		MessageIDs: map[string]struct{}{},
	}
}

// BuildBlocks groups ascending-sorted records into fixed five-hour blocks,
// inserting gap blocks where applicable, and computes each block's running
// aggregates and (at the end) per-model percentages and the active flag.
//
// Boundary rule (spec.md §4.5, with the literal double-trigger resolved per
// the Open Question in §9): a new block opens when the next record's
// timestamp is ≥ the current block's fixed end, OR when the gap since the
// previous record is ≥ 5h. Independently, closing a block inserts a gap
// block whenever the time between that block's actual end and the next
// record is ≥ 5h — even when the same ≥5h gap already triggered the new
// block above. We keep this literal behavior rather than suppressing the
// apparently-redundant gap block, matching the source system's observed
// output (scenario 4 in spec.md §8).
func BuildBlocks(records []UsageRecord, calc *CostCalculator, now time.Time, sessionDuration time.Duration) ([]*SessionBlock, error) {
	if sessionDuration <= 0 {
		sessionDuration = SessionDuration
	}

	var blocks []*SessionBlock
	var current *SessionBlock

	for _, rec := range records {
		if current == nil {
			current = openBlock(rec.Timestamp, sessionDuration)
			blocks = append(blocks, current)
		} else {
			lastTimestamp := *current.ActualEnd
			boundaryOpen := !rec.Timestamp.Before(current.End)
			gapExceeded := rec.Timestamp.Sub(lastTimestamp) >= sessionDuration

			if boundaryOpen || gapExceeded {
				closeBlock(current)

				if rec.Timestamp.Sub(lastTimestamp) >= sessionDuration {
					blocks = append(blocks, newGapBlock(lastTimestamp, rec.Timestamp))
				}

				current = openBlock(rec.Timestamp, sessionDuration)
				blocks = append(blocks, current)
			}
		}

		if err := accumulate(current, rec, calc); err != nil {
			return nil, err
		}
	}

	if current != nil {
		closeBlock(current)
	}

	for _, b := range blocks {
		if !b.IsGap {
			b.IsActive = b.End.After(now)
		}
	}

	return blocks, nil
}

// accumulate folds one record into the block it belongs to: tokens, cost,
// per-model stats, message id set, and actual_end tracking (spec.md §4.5).
func accumulate(b *SessionBlock, rec UsageRecord, calc *CostCalculator) error {
	cost, err := calc.Cost(rec.Model, rec.Tokens)
	if err != nil {
		return err
	}

	b.Tokens = b.Tokens.Add(rec.Tokens)
	b.CostUSD = roundMicro(b.CostUSD + cost)
	b.MessageCount++

	if rec.MessageID != "" {
		b.MessageIDs[rec.MessageID] = struct{}{}
	}

	ms, ok := b.ModelStats[rec.Model]
	if !ok {
		ms = &ModelStats{Model: rec.Model}
		b.ModelStats[rec.Model] = ms
	}
	ms.Tokens = ms.Tokens.Add(rec.Tokens)
	ms.CostUSD = roundMicro(ms.CostUSD + cost)
	ms.EntryCount++

	ts := rec.Timestamp
	b.ActualEnd = &ts
	b.DurationMinutes = b.ActualDurationMinutes()

	return nil
}

// closeBlock freezes a block's per-model percentages against its totals,
// using usage tokens (input+output only) as the token denominator
// (spec.md §4.5).
func closeBlock(b *SessionBlock) {
	totalTokens := b.Tokens.Usage()
	totalCost := b.CostUSD

	for _, ms := range b.ModelStats {
		pctToken := safePercent(float64(ms.Tokens.Usage()), float64(totalTokens))
		pctCost := safePercent(ms.CostUSD, totalCost)
		ms.PercentToken = &pctToken
		ms.PercentCost = &pctCost
	}
}

func safePercent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

package engine

import (
	"math"
	"time"
)

// activeBlock returns the first block with IsActive && !IsGap, or nil.
func activeBlock(blocks []*SessionBlock) *SessionBlock {
	for _, b := range blocks {
		if b.IsActive && !b.IsGap {
			return b
		}
	}
	return nil
}

// ResetTime returns the reset time per spec.md §4.8: the active block's
// end, else the most recent block's start+5h, else now+5h.
func ResetTime(blocks []*SessionBlock, now time.Time) time.Time {
	if a := activeBlock(blocks); a != nil {
		return a.End
	}
	var mostRecent *SessionBlock
	for _, b := range blocks {
		if b.IsGap {
			continue
		}
		if mostRecent == nil || b.Start.After(mostRecent.Start) {
			mostRecent = b
		}
	}
	if mostRecent != nil {
		return mostRecent.Start.Add(SessionDuration)
	}
	return now.Add(SessionDuration)
}

// PredictExhaustion implements spec.md §4.8: from the active block's
// cost-per-minute, current cost, and a cost ceiling, predicts when the
// ceiling will be reached, returning nil whenever that time would not be
// strictly before the reset time.
func PredictExhaustion(blocks []*SessionBlock, now time.Time, costLimit float64) *time.Time {
	a := activeBlock(blocks)
	if a == nil {
		return nil
	}

	reference := now
	if a.ActualEnd != nil {
		reference = *a.ActualEnd
	}
	elapsed := reference.Sub(a.Start).Minutes()
	if elapsed <= 0 {
		return nil
	}

	costPerMinute := a.CostUSD / elapsed
	if costPerMinute <= 0 {
		return nil
	}

	reset := ResetTime(blocks, now)

	remaining := costLimit - a.CostUSD
	var predicted time.Time
	if remaining <= 0 {
		predicted = now
	} else {
		minutesLeft := math.Ceil(remaining / costPerMinute)
		predicted = now.Add(time.Duration(minutesLeft) * time.Minute)
		if predicted.Sub(now) > 24*time.Hour {
			return nil
		}
	}

	if predicted.Before(reset) {
		return &predicted
	}
	return nil
}

// TimeToReset returns max(0, reset-now).
func TimeToReset(reset, now time.Time) time.Duration {
	d := reset.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

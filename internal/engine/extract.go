package engine

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// fieldProbe is a precedence-ordered list of field-name variants for one
// token slot. Encoded as data, not duck-typing, per spec.md §9.
type fieldProbe []string

var (
	inputProbe       = fieldProbe{"input_tokens", "inputTokens", "prompt_tokens"}
	outputProbe      = fieldProbe{"output_tokens", "outputTokens", "completion_tokens"}
	cacheCreateProbe = fieldProbe{"cache_creation_tokens", "cache_creation_input_tokens", "cacheCreationInputTokens"}
	cacheReadProbe   = fieldProbe{"cache_read_input_tokens", "cache_read_tokens", "cacheReadInputTokens"}
	requestIDProbe   = fieldProbe{"request_id", "requestId", "uuid"}
)

// probeInt64 returns the first present, non-zero-capable field among
// candidates in m, treating JSON numbers (float64) and numeric strings.
func probeInt64(m map[string]any, candidates fieldProbe) (int64, bool) {
	for _, name := range candidates {
		raw, ok := m[name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int64(v), true
		case json.Number:
			n, err := v.Int64()
			if err == nil {
				return n, true
			}
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func probeString(m map[string]any, candidates fieldProbe) (string, bool) {
	for _, name := range candidates {
		if raw, ok := m[name]; ok {
			if s, ok := raw.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// probedTokens extracts the four token slots from a single candidate source
// map, returning the vector and whether input-or-output was non-zero there.
func probedTokens(source map[string]any) (TokenVector, bool) {
	input, _ := probeInt64(source, inputProbe)
	output, _ := probeInt64(source, outputProbe)
	if input == 0 && output == 0 {
		return TokenVector{}, false
	}
	cacheCreate, _ := probeInt64(source, cacheCreateProbe)
	cacheRead, _ := probeInt64(source, cacheReadProbe)
	return TokenVector{
		InputTokens:  input,
		OutputTokens: output,
		CacheCreate:  cacheCreate,
		CacheRead:    cacheRead,
	}, true
}

// ExtractRecord turns one raw JSONL line into a normalized UsageRecord.
// It returns (nil, false) for lines that don't parse, aren't usage-bearing
// assistant records, carry an unparseable timestamp, or have no candidate
// source with a non-zero input or output count (a record carrying only
// cache tokens is rejected as well) — per spec.md §4.3.
func ExtractRecord(line []byte) (*UsageRecord, bool) {
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		return nil, false
	}

	if t, _ := m["type"].(string); t != "assistant" {
		return nil, false
	}

	message, _ := asMap(m["message"])
	topUsage, hasTopUsage := asMap(m["usage"])
	_, hasMessageUsage := asMap(messageUsage(message))

	if !hasMessageUsage && !hasTopUsage {
		return nil, false
	}

	// Candidate sources in precedence order: message.usage, usage, top-level.
	var sources []map[string]any
	if msgUsage, ok := asMap(messageUsage(message)); ok {
		sources = append(sources, msgUsage)
	}
	if hasTopUsage {
		sources = append(sources, topUsage)
	}
	sources = append(sources, m)

	var tokens TokenVector
	var found bool
	for _, src := range sources {
		if tv, ok := probedTokens(src); ok {
			tokens = tv
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	model := "unknown"
	if message != nil {
		if mm, ok := message["model"].(string); ok && mm != "" {
			model = mm
		}
	}
	if model == "unknown" {
		if mm, ok := m["model"].(string); ok && mm != "" {
			model = mm
		}
	}

	var rawTimestamp any
	if ts, ok := m["timestamp"]; ok {
		rawTimestamp = ts
	} else if message != nil {
		if ts, ok := message["timestamp"]; ok {
			rawTimestamp = ts
		}
	}

	ts, ok := parseTimestamp(rawTimestamp)
	if !ok {
		return nil, false
	}

	record := &UsageRecord{
		Timestamp: ts,
		Model:     model,
		Tokens:    tokens,
	}

	if message != nil {
		if id, ok := message["id"].(string); ok {
			record.MessageID = id
		}
	}
	if reqID, ok := probeString(m, requestIDProbe); ok {
		record.RequestID = reqID
	}

	return record, true
}

func messageUsage(message map[string]any) any {
	if message == nil {
		return nil
	}
	return message["usage"]
}

// parseTimestamp accepts an ISO-8601 string (with or without trailing Z), or
// a JSON number representing epoch seconds (≤1e12) or epoch milliseconds
// (>1e12), per spec.md §4.3.
func parseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		return parseTimestampString(v)
	case float64:
		return parseTimestampNumber(int64(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return parseTimestampNumber(n)
	default:
		return time.Time{}, false
	}
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02 15:04:05-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseTimestampNumber(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}

package engine

import "fmt"

// FormatTokens formats a token count with thousands separators.
func FormatTokens(count int64) string {
	if count == 0 {
		return "0"
	}

	negative := count < 0
	if negative {
		count = -count
	}

	s := fmt.Sprintf("%d", count)
	var result []rune
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}

	if negative {
		return "-" + string(result)
	}
	return string(result)
}

// FormatCost formats a cost value as currency with comma separators.
func FormatCost(cost float64) string {
	if cost == 0 {
		return "$0.00"
	}
	if cost < 0.01 {
		return fmt.Sprintf("$%.4f", cost)
	}
	if cost >= 1000 {
		wholePart := int64(cost)
		decimalPart := cost - float64(wholePart)
		return fmt.Sprintf("$%s.%02d", FormatTokens(wholePart), int(decimalPart*100+0.5))
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokenRate formats a token rate as tokens/min.
func FormatTokenRate(rate float64) string {
	if rate == 0 {
		return "0 tok/min"
	}
	if rate < 1000 {
		return fmt.Sprintf("%.0f tok/min", rate)
	}
	return fmt.Sprintf("%s tok/min", FormatTokens(int64(rate)))
}

package engine

import "testing"

func TestNormalizeModel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "claude-sonnet-4", "claude-sonnet-4"},
		{"date suffix", "claude-sonnet-4-20250514", "claude-sonnet-4"},
		{"version suffix", "claude-opus-4-1", "claude-opus"},
		{"upper case", "Claude-Opus-4", "claude-opus-4"},
		{"whitespace", "  claude-haiku-4-5  ", "claude-haiku"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeModel(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeModel(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCategoryForModel(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		expected ModelCategory
	}{
		{"known opus", "claude-opus-4-20250514", CategoryOpus},
		{"known sonnet", "claude-sonnet-4-5-20250929", CategorySonnet},
		{"known haiku", "claude-haiku-4-5-20251001", CategoryHaiku},
		{"substring opus", "claude-opus-future-model", CategoryOpus},
		{"substring haiku", "claude-haiku-future-model", CategoryHaiku},
		{"unknown defaults to sonnet", "some-new-model-nobody-has-seen", CategorySonnet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategoryForModel(tt.model)
			if result != tt.expected {
				t.Errorf("CategoryForModel(%q) = %q; want %q", tt.model, result, tt.expected)
			}
		})
	}
}

func TestRatesForModelSynthetic(t *testing.T) {
	rates := RatesForModel(SyntheticModel)
	if rates != (Rates{}) {
		t.Errorf("RatesForModel(synthetic) = %+v; want all-zero", rates)
	}
}

func TestRatesForModelCacheFallbackMultipliers(t *testing.T) {
	rates := RatesForModel("claude-sonnet-4")
	wantCreate := rates.InputPerMillion * 1.25
	wantRead := rates.InputPerMillion / 10
	if rates.CacheCreatePerMillion != wantCreate {
		t.Errorf("CacheCreatePerMillion = %v; want %v", rates.CacheCreatePerMillion, wantCreate)
	}
	if rates.CacheReadPerMillion != wantRead {
		t.Errorf("CacheReadPerMillion = %v; want %v", rates.CacheReadPerMillion, wantRead)
	}
}

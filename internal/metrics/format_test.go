package metrics

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{999.4, "999"},
		{12.5, "13"},
		{1000, "1.0K"},
		{1250, "1.3K"},
		{-1250, "-1.3K"},
		{-42, "-42"},
		{1234567, "1234.6K"},
		{math.NaN(), "0"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0%"},
		{12.34, "12.3%"},
		{-5.25, "-5.3%"},
		{100, "100.0%"},
		{math.Inf(1), "0.0%"},
	}
	for _, tt := range tests {
		if got := FormatPercentage(tt.in); got != tt.want {
			t.Errorf("FormatPercentage(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCountryNames(t *testing.T) {
	if got := DefaultCountryNames.Name("GB"); got != "United Kingdom" {
		t.Errorf("Name(GB) = %q", got)
	}
	if got := DefaultCountryNames.Name("BR"); got != "BR" {
		t.Errorf("unknown code should pass through, got %q", got)
	}

	merged := DefaultCountryNames.Merge(map[string]string{"BR": "Brazil", "GB": "Great Britain"})
	if merged.Name("BR") != "Brazil" || merged.Name("GB") != "Great Britain" {
		t.Errorf("Merge did not override: %v", merged)
	}
	if DefaultCountryNames.Name("GB") != "United Kingdom" {
		t.Error("Merge must not modify the receiver")
	}
}

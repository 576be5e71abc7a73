package domain

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1000", 1000},
		{"-500", -500},
		{" 12.5 ", 12.5},
		{"1e3", 1000},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"1,000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseAmount(tt.input); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{"export timestamp", "2024-10-15T00:00:00.000000Z", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339 offset", "2024-10-15T08:00:00+08:00", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"date only", "2024-12-31", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"space separated", "2024-11-02 13:45:00", time.Date(2024, 11, 2, 13, 45, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"invalid month", "2024-13-01", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	tx := Transaction{IsCapitalV: "True", IsIncomeStatementV: "False"}
	if !tx.IsCapital() {
		t.Error("expected is_capital=True to be set")
	}
	if tx.IsIncomeStatement() {
		t.Error("expected is_income_statement=False to be unset")
	}

	tx = Transaction{IsCapitalV: " true ", IsIncomeStatementV: "yes"}
	if !tx.IsCapital() {
		t.Error("expected padded lowercase true to be set")
	}
	if tx.IsIncomeStatement() {
		t.Error("expected non-boolean text to be unset")
	}
}

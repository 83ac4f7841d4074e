package utils

import "testing"

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1000, "$1,000.00"},
		{1234567.89, "$1,234,567.89"},
		{-45000.10, "-$45,000.10"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.0523); got != "+5.23%" {
		t.Errorf("FormatPercent(0.0523) = %q", got)
	}
	if got := FormatPercent(-0.08); got != "-8.00%" {
		t.Errorf("FormatPercent(-0.08) = %q", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(1500); got != "+$1,500.00" {
		t.Errorf("FormatPnL(1500) = %q", got)
	}
	if got := FormatPnL(-300.25); got != "-$300.25" {
		t.Errorf("FormatPnL(-300.25) = %q", got)
	}
}

func TestFormatWeight(t *testing.T) {
	if got := FormatWeight(0.35); got != "35.00%" {
		t.Errorf("FormatWeight(0.35) = %q", got)
	}
}

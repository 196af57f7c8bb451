package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dot separator", "12.34", "12.34", false},
		{"comma separator", "12,34", "12.34", false},
		{"integer", "100", "100", false},
		{"surrounding spaces", " 7,5 ", "7.5", false},
		{"empty", "", "", true},
		{"zero", "0", "", true},
		{"negative", "-5.00", "", true},
		{"garbage", "abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	amount := decimal.NewFromFloat(1234.5)
	if got := FormatAmount(amount, "EUR"); got != "1234.50" {
		t.Errorf("EUR format = %s, want 1234.50", got)
	}
	if got := FormatAmount(amount, "JPY"); got != "1235" {
		t.Errorf("JPY format = %s, want 1235", got)
	}
	if got := FormatAmount(amount, "XPF"); got != "1235" {
		t.Errorf("XPF format = %s, want 1235", got)
	}
}

func TestSupportedCurrency(t *testing.T) {
	if !SupportedCurrency("EUR") || !SupportedCurrency("JPY") {
		t.Error("known currencies should be supported")
	}
	if SupportedCurrency("eur") || SupportedCurrency("XXX") || SupportedCurrency("") {
		t.Error("unknown codes should not be supported")
	}
}

package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"500", 50000, false},
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"0.5", 50, false},
		{".5", 50, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{" 7 ", 700, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12a", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDecimalToCents(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSignedDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500", 150000, false},
		{"-3.5", -350, false},
		{"-0.01", -1, false},
		{"0", 0, false},
		{"+20", 2000, false},
		{"", 0, true},
		{"-", 0, true},
		{"--5", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSignedDecimalToCents(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSignedDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSignedDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{50000, "500"},
		{1234, "12.34"},
		{-350, "-3.50"},
		{5, "0.05"},
		{0, "0"},
		{-100, "-1"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.in); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

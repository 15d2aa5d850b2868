package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		cents   int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"5", 500, false},
		{"0", 0, false},
		{"0.5", 50, false},
		{"12.344", 1234, false}, // third decimal below 5 rounds down
		{"12.345", 1235, false}, // half-up on the third decimal
		{"12.346", 1235, false}, // rounds up
		{"", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalToCents(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalToCents(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.cents {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.cents)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 500})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "5" {
		t.Fatalf("marshal whole units = %s, want 5", b)
	}
	b, _ = json.Marshal(Money{Cents: 1234})
	if string(b) != "12.34" {
		t.Fatalf("marshal fractional = %s, want 12.34", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`7.25`), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents != 725 {
		t.Fatalf("unmarshal number = %d cents, want 725", m.Cents)
	}
	if err := json.Unmarshal([]byte(`"3,50"`), &m); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if m.Cents != 350 {
		t.Fatalf("unmarshal string = %d cents, want 350", m.Cents)
	}
	if err := json.Unmarshal([]byte(`-1`), &m); err == nil {
		t.Fatal("negative amount should not unmarshal")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Fatalf("one unit should be valid: %v", err)
	}
	if err := (Money{Cents: 99}).Validate(); err != ErrAmountTooLow {
		t.Fatalf("99 cents: got %v, want ErrAmountTooLow", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != ErrAmountTooLow {
		t.Fatalf("zero: got %v, want ErrAmountTooLow", err)
	}
}

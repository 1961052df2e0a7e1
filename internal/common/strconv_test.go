package common

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain integer", "100", 100},
		{"dot decimal", "99.90", 99.9},
		{"comma decimal", "45,5", 45.5},
		{"grouped with comma decimal", "1.234,50", 1234.50},
		{"large grouped", "1.234.567,89", 1234567.89},
		{"padded", "  12,00  ", 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAmount(tc.input)
			if !ok {
				t.Fatalf("ParseAmount(%q) ok=false, want true", tc.input)
			}
			if got == nil {
				t.Fatalf("ParseAmount(%q) returned nil amount", tc.input)
			}
			if *got != tc.want {
				t.Fatalf("ParseAmount(%q) = %v, want %v", tc.input, *got, tc.want)
			}
		})
	}
}

func TestParseAmountBlankMeansNotEntered(t *testing.T) {
	for _, input := range []string{"", "   "} {
		got, ok := ParseAmount(input)
		if !ok {
			t.Fatalf("ParseAmount(%q) ok=false, want true", input)
		}
		if got != nil {
			t.Fatalf("ParseAmount(%q) = %v, want nil", input, *got)
		}
	}
}

func TestParseAmountRejectsMalformed(t *testing.T) {
	for _, input := range []string{"abc", "12,34,56", "1.2.3", "R$ 10"} {
		if _, ok := ParseAmount(input); ok {
			t.Fatalf("ParseAmount(%q) ok=true, want false", input)
		}
	}
}

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("42", 7); got != 42 {
		t.Fatalf("AtoiDefault(42) = %d", got)
	}
	if got := AtoiDefault("", 7); got != 7 {
		t.Fatalf("AtoiDefault(blank) = %d", got)
	}
	if got := AtoiDefault("nope", 7); got != 7 {
		t.Fatalf("AtoiDefault(nope) = %d", got)
	}
}

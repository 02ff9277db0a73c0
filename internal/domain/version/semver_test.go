package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SemanticVersion
		wantErr bool
	}{
		{"zero version", "0.0.0", NewSemanticVersion(0, 0, 0), false},
		{"initial version", "0.0.1", NewSemanticVersion(0, 0, 1), false},
		{"simple version", "1.2.3", NewSemanticVersion(1, 2, 3), false},
		{"large components", "10.20.30", NewSemanticVersion(10, 20, 30), false},
		{"huge components", "999.999.999", NewSemanticVersion(999, 999, 999), false},
		{"v prefix rejected", "v1.2.3", Zero, true},
		{"prerelease rejected", "1.2.3-alpha", Zero, true},
		{"prerelease with dot rejected", "1.2.3-beta.1", Zero, true},
		{"build metadata rejected", "1.2.3+build", Zero, true},
		{"empty string", "", Zero, true},
		{"major only", "1", Zero, true},
		{"major.minor only", "1.0", Zero, true},
		{"four components", "1.0.0.0", Zero, true},
		{"letters", "a.b.c", Zero, true},
		{"negative component", "-1.0.0", Zero, true},
		{"trailing dot", "1.0.", Zero, true},
		{"leading dot", ".1.0", Zero, true},
		{"internal whitespace", "1 .0.0", Zero, true},
		{"leading whitespace", " 1.0.0", Zero, true},
		{"trailing whitespace", "1.0.0 ", Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidVersion) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalidVersion", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{"0.0.0", "0.0.1", "1.2.3", "12.34.56"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			v, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", input, err)
			}
			if v.String() != input {
				t.Errorf("Parse(%q).String() = %q, want %q", input, v.String(), input)
			}
		})
	}
}

func TestMustParse(t *testing.T) {
	v := MustParse("1.2.3")
	if v.Major() != 1 || v.Minor() != 2 || v.Patch() != 3 {
		t.Errorf("MustParse(1.2.3) = %v", v)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParse with invalid input should panic")
		}
	}()
	MustParse("v1.2.3")
}

func TestSemanticVersionAccessors(t *testing.T) {
	v := NewSemanticVersion(3, 7, 11)
	if v.Major() != 3 {
		t.Errorf("Major() = %d, want 3", v.Major())
	}
	if v.Minor() != 7 {
		t.Errorf("Minor() = %d, want 7", v.Minor())
	}
	if v.Patch() != 11 {
		t.Errorf("Patch() = %d, want 11", v.Patch())
	}
	if v.String() != "3.7.11" {
		t.Errorf("String() = %q, want 3.7.11", v.String())
	}
}

func TestIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("Zero.IsZero() = false, want true")
	}
	if !NewSemanticVersion(0, 0, 0).IsZero() {
		t.Error("NewSemanticVersion(0,0,0).IsZero() = false, want true")
	}
	if Initial.IsZero() {
		t.Error("Initial.IsZero() = true, want false")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b SemanticVersion
		want int
	}{
		{"equal", MustParse("1.2.3"), MustParse("1.2.3"), 0},
		{"major less", MustParse("1.9.9"), MustParse("2.0.0"), -1},
		{"major greater", MustParse("2.0.0"), MustParse("1.9.9"), 1},
		{"minor less", MustParse("1.1.9"), MustParse("1.2.0"), -1},
		{"minor greater", MustParse("1.2.0"), MustParse("1.1.9"), 1},
		{"patch less", MustParse("1.2.3"), MustParse("1.2.4"), -1},
		{"patch greater", MustParse("1.2.4"), MustParse("1.2.3"), 1},
		{"zero versus initial", Zero, Initial, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestComparisonHelpers(t *testing.T) {
	small := MustParse("1.0.0")
	big := MustParse("2.0.0")

	if !small.LessThan(big) {
		t.Error("LessThan = false, want true")
	}
	if !small.LessThanOrEqual(big) || !small.LessThanOrEqual(small) {
		t.Error("LessThanOrEqual failed")
	}
	if !big.GreaterThan(small) {
		t.Error("GreaterThan = false, want true")
	}
	if !big.GreaterThanOrEqual(small) || !big.GreaterThanOrEqual(big) {
		t.Error("GreaterThanOrEqual failed")
	}
	if !small.Equal(small) || small.Equal(big) {
		t.Error("Equal failed")
	}
}

package matching

import "testing"

func TestGradeOrdinal(t *testing.T) {
	cases := map[string]int{
		"V0":   0,
		"V5":   5,
		"V11":  11,
		"V12+": 12,
		"V12":  unknownGrade, // only the open-ended form is on the scale
		"V13":  unknownGrade,
		"5.12": unknownGrade,
		"":     unknownGrade,
		"v5":   unknownGrade, // case sensitive
	}

	for grade, want := range cases {
		if got := GradeOrdinal(grade); got != want {
			t.Errorf("GradeOrdinal(%q) = %d, want %d", grade, got, want)
		}
	}
}

func TestMeetsMinimumGrade(t *testing.T) {
	tests := []struct {
		actual  string
		minimum string
		want    bool
	}{
		{"V5", "V4", true},
		{"V5", "V5", true},
		{"V5", "V6", false},
		{"V12+", "V10", true},
		{"V0", "V0", true},
		// Fail closed: an unrecognized actual grade never satisfies any
		// recognized minimum.
		{"V99", "V0", false},
		{"", "V0", false},
		{"7a", "V4", false},
	}

	for _, tt := range tests {
		if got := MeetsMinimumGrade(tt.actual, tt.minimum); got != tt.want {
			t.Errorf("MeetsMinimumGrade(%q, %q) = %v, want %v", tt.actual, tt.minimum, got, tt.want)
		}
	}
}

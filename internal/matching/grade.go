package matching

// gradeOrdinals maps V-grade strings to ordinals for comparison. "V12+" is
// the open-ended top bucket.
var gradeOrdinals = map[string]int{
	"V0":   0,
	"V1":   1,
	"V2":   2,
	"V3":   3,
	"V4":   4,
	"V5":   5,
	"V6":   6,
	"V7":   7,
	"V8":   8,
	"V9":   9,
	"V10":  10,
	"V11":  11,
	"V12+": 12,
}

// unknownGrade is the sentinel for unrecognized grade strings. Because it is
// below every real ordinal, an unrecognized grade never satisfies a minimum
// constraint (fail closed).
const unknownGrade = -1

// GradeOrdinal converts a V-grade string to its ordinal, or unknownGrade for
// strings outside the V0..V12+ scale.
func GradeOrdinal(grade string) int {
	if ordinal, ok := gradeOrdinals[grade]; ok {
		return ordinal
	}
	return unknownGrade
}

// MeetsMinimumGrade reports whether actual is at least minimum on the
// V-grade scale.
func MeetsMinimumGrade(actual, minimum string) bool {
	return GradeOrdinal(actual) >= GradeOrdinal(minimum)
}

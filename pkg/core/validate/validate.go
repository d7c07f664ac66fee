package validate

import (
	"fmt"
	"math"
)

// =============================================================================
// IDENTITY CHECKS
// =============================================================================

// Check is one expected-versus-actual comparison.
type Check struct {
	Name       string  `json:"name"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"` // Actual - Expected
	IsLinked   bool    `json:"is_linked"`
	Tolerance  float64 `json:"tolerance"`
}

func (c Check) String() string {
	return fmt.Sprintf("%s: expected %.4f, got %.4f (diff %.4f)", c.Name, c.Expected, c.Actual, c.Difference)
}

// CheckIdentity compares two values within an absolute tolerance.
func CheckIdentity(name string, expected, actual, tolerance float64) Check {
	diff := actual - expected
	return Check{
		Name:       name,
		Expected:   expected,
		Actual:     actual,
		Difference: diff,
		IsLinked:   math.Abs(diff) <= tolerance,
		Tolerance:  tolerance,
	}
}

// =============================================================================
// YEAR-OVER-YEAR (YoY) CALCULATIONS
// =============================================================================

// CalculateYoY calculates year-over-year change between two values.
// Returns percentage change: (current - prior) / prior * 100
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (current - prior) / prior * 100
}

// OutlierCheck flags a year whose change from the prior year is unusually large.
type OutlierCheck struct {
	Year      int     // 1-based timeline year
	Current   float64
	Prior     float64
	ChangePct float64
	Threshold float64
}

// FindOutliers scans a series for year-over-year swings above thresholdPct.
// Years whose prior value is zero are skipped; they mark a phase change
// (construction to operation) rather than a swing.
func FindOutliers(values []float64, thresholdPct float64) []OutlierCheck {
	var out []OutlierCheck
	for t := 1; t < len(values); t++ {
		prior := values[t-1]
		if prior == 0 {
			continue
		}
		change := CalculateYoY(values[t], prior)
		if math.Abs(change) > thresholdPct {
			out = append(out, OutlierCheck{
				Year:      t + 1,
				Current:   values[t],
				Prior:     prior,
				ChangePct: change,
				Threshold: thresholdPct,
			})
		}
	}
	return out
}

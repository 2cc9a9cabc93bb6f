package services

import (
	"math"

	"stokvel/internal/models"
)

// StokvelSummary is a stokvel together with its derived dashboard metrics.
type StokvelSummary struct {
	models.Stokvel
	MonthlyContribution float64 `json:"monthly_contribution"`
	ProgressPercentage  int     `json:"progress_percentage"`
}

// MonthlyContribution is the amount to save per month to reach target in
// durationMonths, rounded to cents. It is 0 when durationMonths is not positive
// or the result does not fit a float64.
func MonthlyContribution(target float64, durationMonths int) float64 {
	if durationMonths <= 0 {
		return 0
	}
	monthly := math.Round(target/float64(durationMonths)*100) / 100
	if math.IsInf(monthly, 0) || math.IsNaN(monthly) {
		return 0
	}
	return monthly
}

// ProgressPercentage is current/target as a whole percentage. It is not capped
// at 100 and is 0 when target is not positive or the ratio is out of range.
func ProgressPercentage(current, target float64) int {
	if target <= 0 {
		return 0
	}
	pct := math.Round(current / target * 100)
	if math.IsNaN(pct) || math.Abs(pct) > math.MaxInt32 {
		return 0
	}
	return int(pct)
}

// Summarize derives the dashboard metrics for s.
func Summarize(s models.Stokvel) StokvelSummary {
	return StokvelSummary{
		Stokvel:             s,
		MonthlyContribution: MonthlyContribution(s.TargetAmount, s.DurationMonths),
		ProgressPercentage:  ProgressPercentage(s.CurrentAmount, s.TargetAmount),
	}
}

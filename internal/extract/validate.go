package extract

import (
	"fmt"
	"math"

	"github.com/totegamma/timepulse"
)

var strategyBase = map[Strategy]float64{
	StrategyExcel: 0.3,
	StrategyCSV:   0.3,
	StrategyPDF:   0.2,
	StrategyWord:  0.2,
	StrategyText:  0.2,
	StrategyOCR:   0.1,
}

// finalize clamps the hours into bounds, reconciles the total and scores
// the extraction.
func finalize(p parsed, strategy Strategy) Result {
	result := Result{
		Strategy:     strategy,
		EmployeeName: p.employee,
		ClientName:   p.client,
		Warnings:     []string{},
		Valid:        true,
	}

	if p.empty {
		result.Warnings = append(result.Warnings, "no text could be read from the file")
		result.Valid = false
		result.Confidence = score(strategyBase[strategy], result.Warnings)
		return result
	}

	for i, h := range p.hours {
		switch {
		case h < 0:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: negative hours %.2f set to 0", timepulse.DayNames[i], h))
			h = 0
		case h > timepulse.MaxDailyHours:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %.2f hours capped at %.0f", timepulse.DayNames[i], h, timepulse.MaxDailyHours))
			h = timepulse.MaxDailyHours
		}
		result.DailyHours[i] = timepulse.RoundHours(h)
	}

	sum := timepulse.RoundHours(result.DailyHours.Total())
	result.TotalHours = sum

	days := p.daysFound()
	if days == 0 {
		result.Warnings = append(result.Warnings, "no daily hours found")
		result.Valid = false
	}

	totalAgrees := false
	if p.total != nil {
		if math.Abs(*p.total-sum) <= 0.01 {
			totalAgrees = days > 0
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("stated total %.2f does not match daily sum %.2f", *p.total, sum))
		}
	}

	if sum > timepulse.MaxWeeklyHours {
		result.Warnings = append(result.Warnings, fmt.Sprintf("weekly total %.2f exceeds %.0f", sum, timepulse.MaxWeeklyHours))
		result.Valid = false
	}

	confidence := strategyBase[strategy]
	confidence += 0.4 * float64(min(days, 5)) / 5
	if totalAgrees {
		confidence += 0.1
	}
	if result.EmployeeName != "" {
		confidence += 0.1
	}
	if result.ClientName != "" {
		confidence += 0.1
	}
	result.Confidence = score(confidence, result.Warnings)

	return result
}

// score takes 0.1 off per warning and clamps to [0,1] with two decimals.
func score(confidence float64, warnings []string) float64 {
	confidence -= 0.1 * float64(len(warnings))
	return math.Round(math.Max(0, math.Min(1, confidence))*100) / 100
}

// pkg/tools/breakeven.go
package tools

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	statusProfitable     = "Profitable"
	statusAtBreakEven    = "At Break-Even"
	statusBelowBreakEven = "Below Break-Even"
	statusNegativeMargin = "Negative Margin"
)

// BreakEvenAnalyzer finds the unit volume that covers fixed costs and
// projects twelve months of revenue against cost.
func BreakEvenAnalyzer(in Inputs, now time.Time) *Result {
	fixedCosts := number(in, "fixedCosts", 0)
	variableCost := number(in, "variableCostPerUnit", 0)
	price := number(in, "pricePerUnit", 0)
	units := number(in, "currentMonthlyUnits", 0)
	growth := number(in, "growthRate", 5) / 100

	margin := price - variableCost
	marginRatio := 0.0
	if price > 0 {
		marginRatio = margin / price
	}

	beUnits := breakEvenUnits(fixedCosts, price, variableCost)
	beRevenue := beUnits * price

	revenue := units * price
	profit := revenue - units*variableCost - fixedCosts
	profitMargin := 0.0
	if revenue > 0 {
		profitMargin = profit / revenue * 100
	}

	safety := 0.0
	if units > 0 {
		safety = (units - beUnits) / units * 100
	}

	monthsToBreakEven := 0
	if units < beUnits && growth > 0 {
		if units <= 0 {
			monthsToBreakEven = 36
		} else {
			for u := units; u < beUnits && monthsToBreakEven < 36; monthsToBreakEven++ {
				u *= 1 + growth
			}
		}
	}

	const months = 12
	revenueLine := make([]float64, 0, months)
	costLine := make([]float64, 0, months)
	profitLine := make([]float64, 0, months)
	projected := units
	if projected == 0 {
		projected = beUnits * 0.5
	}
	for i := 0; i < months; i++ {
		r := projected * price
		c := projected*variableCost + fixedCosts
		revenueLine = append(revenueLine, r)
		costLine = append(costLine, c)
		profitLine = append(profitLine, r-c)
		projected *= 1 + growth
	}

	status := statusProfitable
	switch {
	case margin <= 0:
		status = statusNegativeMargin
	case units < beUnits*0.95:
		status = statusBelowBreakEven
	case units < beUnits*1.05:
		status = statusAtBreakEven
	}

	confidence := inputConfidence(in, "currentMonthlyUnits", "growthRate")
	if price <= variableCost {
		confidence *= 0.5
	}
	confidence = clamp(confidence, 0.5, 0.92)

	safetyLine := "No current volume provided"
	if units > 0 {
		safetyLine = "Margin of safety: " + formatPercentage(safety)
	}
	trail := []string{
		fmt.Sprintf("Fixed costs: %s/month", formatCurrency(fixedCosts)),
		fmt.Sprintf("Contribution margin: %s/unit (%s)", formatCurrency(margin), formatPercentage(marginRatio*100)),
		fmt.Sprintf("Break-even point: %s units (%s)", formatNumber(math.Ceil(beUnits), 0), formatCurrency(beRevenue)),
		fmt.Sprintf("Current position: %s units (%s)", formatNumber(units, 0), status),
		safetyLine,
	}

	var recs []string
	switch status {
	case statusNegativeMargin:
		recs = append(recs, "CRITICAL: Price is below variable cost - every sale loses money. Increase price immediately.")
	case statusBelowBreakEven:
		recs = append(recs, fmt.Sprintf("Need %s more units/month to break even", formatNumber(math.Ceil(beUnits-units), 0)))
		if monthsToBreakEven > 0 && monthsToBreakEven <= 12 {
			recs = append(recs, fmt.Sprintf("At %s monthly growth, break-even in ~%d months", formatPercentage(growth*100), monthsToBreakEven))
		}
	default:
		recs = append(recs, formatPercentage(safety)+" margin of safety - healthy buffer above break-even")
	}
	if marginRatio < 0.3 && margin > 0 {
		recs = append(recs, "Low contribution margin - focus on reducing variable costs or increasing price")
	}
	if fixedCosts > revenue*0.5 {
		recs = append(recs, "High fixed cost ratio - consider ways to variabilize costs or increase volume")
	}

	var summary string
	if status == statusNegativeMargin {
		summary = fmt.Sprintf("Warning: Contribution margin is negative (%s). Price must exceed variable cost.", formatCurrency(margin))
	} else {
		summary = fmt.Sprintf("Break-even at %s units (%s). ", formatNumber(math.Ceil(beUnits), 0), formatCurrency(beRevenue))
		if units > 0 {
			summary += fmt.Sprintf("Currently %s with %s margin of safety.", strings.ToLower(status), formatPercentage(safety))
		}
	}

	statusTrend := "neutral"
	switch status {
	case statusProfitable:
		statusTrend = "positive"
	case statusNegativeMargin:
		statusTrend = "negative"
	}
	safetyTrend := "negative"
	if safety > 20 {
		safetyTrend = "positive"
	} else if safety > 0 {
		safetyTrend = "neutral"
	}

	return &Result{
		Outputs: []Output{
			{ID: "breakEvenUnits", Label: "Break-Even Units", Value: Number(math.Ceil(beUnits)), Format: "number", Trend: "neutral", Highlight: true,
				Description: "Units needed to cover all costs"},
			{ID: "breakEvenRevenue", Label: "Break-Even Revenue", Value: Number(beRevenue), Format: "currency", Trend: "neutral", Highlight: true,
				Description: "Revenue needed to break even"},
			{ID: "status", Label: "Current Status", Value: status, Format: "text", Trend: statusTrend, Highlight: true,
				Description: "Position relative to break-even"},
			{ID: "contributionMargin", Label: "Contribution Margin", Value: Number(margin), Format: "currency", Trend: signTrend(margin),
				Description: formatPercentage(marginRatio*100) + " of price"},
			{ID: "marginOfSafety", Label: "Margin of Safety", Value: Number(safety), Format: "percentage", Trend: safetyTrend,
				Description: "Buffer above break-even"},
			{ID: "currentProfit", Label: "Current Monthly Profit", Value: Number(profit), Format: "currency", Trend: signTrend(profit),
				Description: formatPercentage(profitMargin) + " profit margin"},
		},
		Confidence:      confidence,
		ConfidenceLevel: confidenceLevel(confidence),
		Chart: &Chart{
			Labels: append([]string(nil), monthNames[:]...),
			Datasets: []Dataset{
				{Label: "Revenue", Data: numbers(revenueLine), Color: "#10b981", Type: "line"},
				{Label: "Total Costs", Data: numbers(costLine), Color: "#ef4444", Type: "line"},
				{Label: "Profit/Loss", Data: numbers(profitLine), Color: "#22d3ee", Type: "bar"},
			},
		},
		Summary:         summary,
		Recommendations: recs,
		DecisionTrail:   trail,
		Timestamp:       timestamp(now),
	}
}

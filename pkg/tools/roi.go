// pkg/tools/roi.go
package tools

import (
	"fmt"
	"strconv"
	"time"
)

const roiHorizonMonths = 36

// ROICalculator projects a 36 month return on an automation investment.
func ROICalculator(in Inputs, now time.Time) *Result {
	currentAnnualCost := number(in, "currentAnnualCost", 0)
	annualSavings := number(in, "estimatedAnnualSavings", 0)
	implementationCost := number(in, "implementationCost", 0)
	monthsToImplement := number(in, "timeToImplement", 3)
	discountRate := number(in, "discountRate", 10) / 100

	monthlySavings := annualSavings / 12
	threeYearSavings := annualSavings * 3
	netBenefit := threeYearSavings - implementationCost
	roi := roiPercent(threeYearSavings, implementationCost)
	payback := paybackMonths(implementationCost, monthlySavings) + monthsToImplement

	flows := make([]float64, 0, roiHorizonMonths+1)
	flows = append(flows, -implementationCost)
	cumulative := make([]float64, 0, roiHorizonMonths)
	running := -implementationCost
	breakEvenMonth := 0
	for month := 1; month <= roiHorizonMonths; month++ {
		saving := 0.0
		if float64(month) > monthsToImplement {
			saving = monthlySavings
		}
		flows = append(flows, saving)
		running += saving
		cumulative = append(cumulative, running)
		if running >= 0 && breakEvenMonth == 0 {
			breakEvenMonth = month
		}
	}
	npv := netPresentValue(flows, discountRate/12)

	confidence := inputConfidence(in, "discountRate")
	if roi > 500 {
		confidence *= 0.85
	}
	if payback < 1 {
		confidence *= 0.8
	}
	if annualSavings > currentAnnualCost {
		confidence *= 0.9
	}
	confidence = clamp(confidence, 0.5, 0.95)

	breakEvenLabel := "N/A"
	var breakEvenValue interface{} = "N/A"
	if breakEvenMonth > 0 {
		breakEvenLabel = fmt.Sprint(breakEvenMonth)
		breakEvenValue = Number(breakEvenMonth)
	}

	trail := []string{
		fmt.Sprintf("Analyzed investment of %s with %s month implementation", formatCurrency(implementationCost), strconv.FormatFloat(monthsToImplement, 'f', -1, 64)),
		fmt.Sprintf("Calculated annual savings potential of %s", formatCurrency(annualSavings)),
		fmt.Sprintf("Applied %.1f%% discount rate for NPV calculation", discountRate*100),
		fmt.Sprintf("Projected 36-month cumulative benefit of %s", formatCurrency(threeYearSavings)),
		"Determined break-even at month " + breakEvenLabel,
	}

	var recs []string
	switch {
	case roi > 100:
		recs = append(recs, "Strong ROI indicates this investment is financially attractive")
	case roi > 50:
		recs = append(recs, "Moderate ROI - consider comparing with alternative investments")
	case roi > 0:
		recs = append(recs, "Low ROI - evaluate non-financial benefits before proceeding")
	default:
		recs = append(recs, "Negative ROI - reconsider the investment or find ways to reduce costs")
	}
	switch {
	case payback <= 12:
		recs = append(recs, "Quick payback period reduces risk exposure")
	case payback <= 24:
		recs = append(recs, "Reasonable payback period - ensure cash flow can support the investment")
	default:
		recs = append(recs, "Long payback period - consider phased implementation to reduce risk")
	}
	if npv > 0 {
		recs = append(recs, fmt.Sprintf("Positive NPV of %s confirms value creation", formatCurrency(npv)))
	} else {
		recs = append(recs, "Negative NPV suggests the investment may not meet your return requirements")
	}

	summary := "This investment shows a negative return. Consider revising your assumptions or exploring alternatives."
	if roi > 0 {
		summary = fmt.Sprintf("This investment shows a %.0f%% ROI with a payback period of %.1f months. The 3-year NPV is %s.",
			roi, payback, formatCurrency(npv))
	}

	paybackTrend := "negative"
	if payback <= 18 {
		paybackTrend = "positive"
	} else if payback <= 30 {
		paybackTrend = "neutral"
	}
	breakEvenTrend := "neutral"
	if breakEvenMonth > 0 && breakEvenMonth <= 18 {
		breakEvenTrend = "positive"
	}

	return &Result{
		Outputs: []Output{
			{ID: "roi", Label: "Return on Investment", Value: Number(roi), Format: "percentage", Trend: signTrend(roi), Highlight: true,
				Description: "3-year ROI based on implementation cost vs. total savings"},
			{ID: "paybackPeriod", Label: "Payback Period", Value: Number(payback), Format: "months", Trend: paybackTrend, Highlight: true,
				Description: "Time to recover initial investment"},
			{ID: "npv", Label: "3-Year NPV", Value: Number(npv), Format: "currency", Trend: signTrend(npv), Highlight: true,
				Description: fmt.Sprintf("Net present value at %.0f%% discount rate", discountRate*100)},
			{ID: "breakEvenMonth", Label: "Break-Even Month", Value: breakEvenValue, Format: "text", Trend: breakEvenTrend,
				Description: "Month when cumulative savings exceed investment"},
			{ID: "threeYearSavings", Label: "3-Year Total Savings", Value: Number(threeYearSavings), Format: "currency", Trend: "positive",
				Description: "Gross savings over 36 months"},
			{ID: "netBenefit", Label: "Net Benefit", Value: Number(netBenefit), Format: "currency", Trend: signTrend(netBenefit),
				Description: "Total savings minus implementation cost"},
		},
		Confidence:      confidence,
		ConfidenceLevel: confidenceLevel(confidence),
		Chart: &Chart{
			Labels: monthLabels(roiHorizonMonths, now.Month()),
			Datasets: []Dataset{
				{Label: "Cumulative Savings", Data: numbers(cumulative), Color: "#22d3ee", Type: "line"},
				{Label: "Break-Even Line", Data: filled(roiHorizonMonths, 0), Color: "#94a3b8", Type: "line"},
			},
		},
		Summary:         summary,
		Recommendations: recs,
		DecisionTrail:   trail,
		Timestamp:       timestamp(now),
	}
}

func signTrend(v float64) string {
	if v > 0 {
		return "positive"
	}
	return "negative"
}

// pkg/tools/cashflow.go
package tools

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	forecastWeeks     = 13
	arCollectionWeeks = 8
	apPaymentWeeks    = 6
	maxRunwayWeeks    = 52
)

// CashFlowForecaster projects a 13 week cash position from current cash,
// weekly run rate and outstanding receivables and payables.
func CashFlowForecaster(in Inputs, now time.Time) *Result {
	cash := number(in, "currentCash", 0)
	weeklyRevenue := number(in, "weeklyRevenue", 0)
	weeklyExpenses := number(in, "weeklyExpenses", 0)
	ar := number(in, "outstandingAR", 0)
	ap := number(in, "outstandingAP", 0)
	collectionRate := number(in, "arCollectionRate", 85) / 100

	netFlow := weeklyRevenue - weeklyExpenses
	arPerWeek := ar * collectionRate / arCollectionWeeks
	apPerWeek := ap / apPaymentWeeks

	weekly := make([]float64, 0, forecastWeeks)
	balance := make([]float64, 0, forecastWeeks)
	running := cash
	minCash, minWeek := cash, 0
	runway := forecastWeeks
	for week := 1; week <= forecastWeeks; week++ {
		flow := netFlow
		if week <= arCollectionWeeks {
			flow += arPerWeek
		}
		if week <= apPaymentWeeks {
			flow -= apPerWeek
		}
		weekly = append(weekly, flow)
		running += flow
		balance = append(balance, running)

		if running < minCash {
			minCash, minWeek = running, week
		}
		if running <= 0 && runway == forecastWeeks {
			runway = week - 1
		}
	}
	ending := balance[forecastWeeks-1]
	burn := weeklyExpenses - weeklyRevenue

	risk := "Low"
	switch {
	case minCash < 0 || runway < forecastWeeks:
		risk = "Critical"
	case minCash < weeklyExpenses*2:
		risk = "High"
	case minCash < weeklyExpenses*4:
		risk = "Moderate"
	}

	actualRunway := forecastWeeks
	if burn > 0 {
		actualRunway = int(math.Floor(cash / burn))
		if actualRunway < 0 {
			actualRunway = 0
		}
		if actualRunway > maxRunwayWeeks {
			actualRunway = maxRunwayWeeks
		}
	}

	confidence := inputConfidence(in, "outstandingAR", "outstandingAP", "arCollectionRate")
	if weeklyRevenue == 0 && weeklyExpenses == 0 {
		confidence *= 0.6
	}
	confidence = clamp(confidence, 0.55, 0.92)

	trail := []string{
		"Starting cash position: " + formatCurrency(cash),
		fmt.Sprintf("Weekly net flow: %s (%s in, %s out)", formatCurrency(netFlow), formatCurrency(weeklyRevenue), formatCurrency(weeklyExpenses)),
		fmt.Sprintf("Outstanding AR: %s at %.0f%% collection rate", formatCurrency(ar), collectionRate*100),
		fmt.Sprintf("Outstanding AP: %s spread over 6 weeks", formatCurrency(ap)),
		"Projected 13-week ending cash: " + formatCurrency(ending),
		fmt.Sprintf("Minimum cash point: %s at week %d", formatCurrency(minCash), minWeek),
	}

	var recs []string
	switch risk {
	case "Critical":
		recs = append(recs,
			"URGENT: Cash flow shows negative position - immediate action required",
			"Accelerate AR collections and negotiate AP payment extensions")
	case "High":
		recs = append(recs, "Cash buffer is thin - prioritize collections and control spending")
	}
	if ar > weeklyRevenue*4 {
		recs = append(recs, "AR aging appears elevated - consider tightening payment terms")
	}
	if weeklyExpenses > weeklyRevenue {
		recs = append(recs, fmt.Sprintf("Weekly burn rate of %s requires attention", formatCurrency(burn)))
	} else {
		recs = append(recs, "Positive weekly cash flow supports sustainable operations")
	}
	if minCash < cash*0.5 {
		recs = append(recs, fmt.Sprintf("Cash dips to %s in week %d - plan accordingly", formatCurrency(minCash), minWeek))
	}

	var summary string
	if risk == "Critical" || risk == "High" {
		summary = fmt.Sprintf("Cash flow forecast shows %s risk with minimum cash of %s at week %d. ",
			strings.ToLower(risk), formatCurrency(minCash), minWeek)
		if burn > 0 {
			summary += fmt.Sprintf("Current burn rate: %s/week.", formatCurrency(burn))
		}
	} else {
		summary = fmt.Sprintf("13-week forecast shows healthy cash flow ending at %s. Runway exceeds forecast period.", formatCurrency(ending))
	}

	runwayValue := fmt.Sprintf("%d weeks", actualRunway)
	if actualRunway > forecastWeeks {
		runwayValue = fmt.Sprintf("%d+ weeks", forecastWeeks)
	}
	runwayTrend := "negative"
	if actualRunway >= forecastWeeks {
		runwayTrend = "positive"
	} else if actualRunway >= 8 {
		runwayTrend = "neutral"
	}
	riskTrend := "negative"
	switch risk {
	case "Low":
		riskTrend = "positive"
	case "Moderate":
		riskTrend = "neutral"
	}
	endingTrend := "negative"
	if ending > cash {
		endingTrend = "positive"
	} else if ending > 0 {
		endingTrend = "neutral"
	}
	minTrend := "negative"
	if minCash > weeklyExpenses*2 {
		minTrend = "positive"
	} else if minCash > 0 {
		minTrend = "neutral"
	}

	return &Result{
		Outputs: []Output{
			{ID: "runway", Label: "Cash Runway", Value: runwayValue, Format: "text", Trend: runwayTrend, Highlight: true,
				Description: "Weeks of operation with current cash"},
			{ID: "riskLevel", Label: "Risk Level", Value: risk, Format: "text", Trend: riskTrend, Highlight: true,
				Description: "Overall cash flow risk assessment"},
			{ID: "endingCash", Label: "Week 13 Cash Balance", Value: Number(ending), Format: "currency", Trend: endingTrend, Highlight: true,
				Description: "Projected cash at end of 13 weeks"},
			{ID: "minCash", Label: "Minimum Cash Point", Value: Number(minCash), Format: "currency", Trend: minTrend,
				Description: fmt.Sprintf("Lowest cash balance (week %d)", minWeek)},
			{ID: "weeklyNetFlow", Label: "Weekly Net Flow", Value: Number(netFlow), Format: "currency", Trend: signTrend(netFlow),
				Description: "Average weekly cash change"},
			{ID: "expectedARCollection", Label: "Expected AR Collection", Value: Number(ar * collectionRate), Format: "currency", Trend: "positive",
				Description: fmt.Sprintf("%.0f%% of outstanding receivables", collectionRate*100)},
		},
		Confidence:      confidence,
		ConfidenceLevel: confidenceLevel(confidence),
		Chart: &Chart{
			Labels: weekLabels(forecastWeeks),
			Datasets: []Dataset{
				{Label: "Projected Cash Balance", Data: numbers(balance), Color: "#10b981", Type: "area"},
				{Label: "Weekly Net Flow", Data: numbers(weekly), Color: "#22d3ee", Type: "bar"},
			},
		},
		Summary:         summary,
		Recommendations: recs,
		DecisionTrail:   trail,
		Timestamp:       timestamp(now),
	}
}

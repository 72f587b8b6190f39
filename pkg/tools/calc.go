// pkg/tools/calc.go
package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// formatNumber groups thousands the en-US way.
func formatNumber(v float64, decimals int) string {
	if !finite(v) {
		return "N/A"
	}
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", v)
}

// formatCurrency renders whole US dollars, e.g. -$1,250.
func formatCurrency(v float64) string {
	if !finite(v) {
		return "N/A"
	}
	v = math.Round(v)
	if v < 0 {
		return "-$" + formatNumber(-v, 0)
	}
	return "$" + formatNumber(v, 0)
}

func formatPercentage(v float64) string {
	if !finite(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// number reads a numeric input. Strings are parsed leniently; anything
// unusable yields def.
func number(in Inputs, key string, def float64) float64 {
	switch v := in[key].(type) {
	case float64:
		if math.IsNaN(v) {
			return def
		}
		return v
	case int:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		f, err := strconv.ParseFloat(leadingNumber(s), 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// leadingNumber keeps the numeric prefix of s ("12.5%" -> "12.5").
func leadingNumber(s string) string {
	end := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || ((r == '-' || r == '+') && i == 0) {
			end = i + 1
			continue
		}
		break
	}
	return s[:end]
}

func roiPercent(gain, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return (gain - cost) / cost * 100
}

func netPresentValue(flows []float64, rate float64) float64 {
	var npv float64
	for period, flow := range flows {
		npv += flow / math.Pow(1+rate, float64(period))
	}
	return npv
}

func paybackMonths(initialCost, monthlyBenefit float64) float64 {
	if monthlyBenefit <= 0 {
		return math.Inf(1)
	}
	return initialCost / monthlyBenefit
}

func breakEvenUnits(fixedCosts, price, variableCost float64) float64 {
	margin := price - variableCost
	if margin <= 0 {
		return math.Inf(1)
	}
	return fixedCosts / margin
}

// inputConfidence scores completeness of the submitted inputs. Optional
// fields never lower the score; implausible magnitudes do.
func inputConfidence(in Inputs, optional ...string) float64 {
	if len(in) == 0 {
		return 0.5
	}
	skip := make(map[string]bool, len(optional))
	for _, o := range optional {
		skip[o] = true
	}

	provided := 0
	reasonable := true
	for key, v := range in {
		if skip[key] {
			provided++
		} else if s, ok := v.(string); !ok || s != "" {
			provided++
		}
		if f, ok := v.(float64); ok && (f < 0 || f >= 1e12) {
			reasonable = false
		}
	}

	c := float64(provided) / float64(len(in))
	if !reasonable {
		c *= 0.8
	}
	return clamp(c, 0.5, 0.95)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func confidenceLevel(c float64) ConfidenceLevel {
	switch {
	case c >= 0.8:
		return ConfidenceHigh
	case c >= 0.65:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

func monthLabels(count int, start time.Month) []string {
	labels := make([]string, count)
	for i := range labels {
		labels[i] = monthNames[(int(start)-1+i)%12]
	}
	return labels
}

func weekLabels(count int) []string {
	labels := make([]string, count)
	for i := range labels {
		labels[i] = fmt.Sprintf("Week %d", i+1)
	}
	return labels
}

func numbers(values []float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}

func filled(n int, v float64) []Number {
	out := make([]Number, n)
	for i := range out {
		out[i] = Number(v)
	}
	return out
}

func timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

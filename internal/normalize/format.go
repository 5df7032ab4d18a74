package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Percent renders a 0..1 ratio as a percentage with the given decimals.
func Percent(ratio float64, places int) string {
	return fmt.Sprintf("%.*f%%", places, clampUnit(ratio)*100)
}

// Latency renders milliseconds rounded to a whole number; sub-millisecond
// values read "< 1 ms".
func Latency(ms float64) string {
	if ms < 1 {
		return "< 1 ms"
	}
	return fmt.Sprintf("%d ms", int64(math.Round(math.Min(ms, maxCount))))
}

// LatencyPrecise keeps two decimals, for per-transaction processing times.
func LatencyPrecise(ms float64) string {
	return fmt.Sprintf("%.2f ms", ms)
}

func Count(n int64) string {
	return humanize.Comma(n)
}

func Amount(amount float64, currency string) string {
	return strings.TrimSpace(humanize.FormatFloat("#,###.##", amount) + " " + currency)
}

func RiskFactors(factors []string) string {
	if len(factors) == 0 {
		return "None detected"
	}
	return strings.Join(factors, ", ")
}

// ABOUTME: Formatting helpers shared by panel renderers
// ABOUTME: Numbers via go-humanize, bars and sparklines from block characters
package panels

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const barWidth = 10

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// amount formats a value as a whole number with thousands separators.
func amount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// bar draws value relative to max as a fixed-width block bar.
func bar(value, max float64, width int) string {
	if width <= 0 {
		width = barWidth
	}
	filled := 0
	if max > 0 && value > 0 {
		filled = int(math.Round(value / max * float64(width)))
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// sparkline maps values onto eight block heights.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

// fit truncates or pads s to exactly width terminal cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// tail returns the last n values.
func tail[T any](values []T, n int) []T {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

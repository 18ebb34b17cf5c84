// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
)

// levels are the eighth-block glyphs used by every chart, blank first.
var levels = []rune(" ▁▂▃▄▅▆▇█")

const maxLevel = 8

// sparkline resamples values into width columns (peak per column) and maps
// each column to a block glyph relative to the overall peak.
func sparkline(values []float64, width int) []rune {
	out := make([]rune, max(width, 0))
	for i := range out {
		out[i] = levels[0]
	}
	if len(values) == 0 || width <= 0 {
		return out
	}

	var peak float64
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		return out
	}

	for c := range out {
		lo := c * len(values) / width
		hi := max((c+1)*len(values)/width, lo+1)
		var col float64
		for _, v := range values[lo:min(hi, len(values))] {
			col = max(col, v)
		}
		out[c] = levels[glyphIndex(col/peak)]
	}
	return out
}

func glyphIndex(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(min(max(v, 0), 1) * maxLevel))
}

// renderEnvelope draws the envelope with the playhead column highlighted.
// position is the playhead as a fraction of the clip.
func renderEnvelope(values []float64, width int, position float64) string {
	line := sparkline(values, width)
	if len(line) == 0 {
		return ""
	}
	head := min(max(int(position*float64(width)), 0), width-1)
	glyph := line[head]
	if glyph == levels[0] {
		glyph = '│'
	}
	return dimStyle.Render(string(line[:head])) +
		highlightStyle.Render(string(glyph)) +
		string(line[head+1:])
}

// resampleBars folds bins into len(dst) bars taking the peak of each group.
// With fewer bins than bars each bar repeats its nearest bin.
func resampleBars(dst, bins []float64) {
	n := len(dst)
	if len(bins) == 0 {
		clear(dst)
		return
	}
	for b := range dst {
		lo := b * len(bins) / n
		hi := max((b+1)*len(bins)/n, lo+1)
		var peak float64
		for _, v := range bins[lo:min(hi, len(bins))] {
			peak = max(peak, v)
		}
		dst[b] = peak
	}
}

// renderBars draws bars (each in [0, 1]) as height rows of eighth blocks,
// top row first.
func renderBars(bars []float64, height int) []string {
	rows := make([]string, height)
	var sb strings.Builder
	for r := range rows {
		sb.Reset()
		floor := (height - 1 - r) * maxLevel
		for i, v := range bars {
			if i > 0 {
				sb.WriteByte(' ')
			}
			filled := int(math.Round(min(max(v, 0), 1) * float64(height*maxLevel)))
			sb.WriteRune(levels[min(max(filled-floor, 0), maxLevel)])
		}
		rows[r] = sb.String()
	}
	return rows
}

// renderMeter draws a horizontal level meter for level in [0, 1].
func renderMeter(level float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(level) {
		level = 0
	}
	filled := int(math.Round(min(max(level, 0), 1) * float64(width)))
	return highlightStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// formatTime renders seconds as m:ss.t.
func formatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	tenths := int(math.Round(seconds * 10))
	return fmt.Sprintf("%d:%02d.%d", tenths/600, (tenths/10)%60, tenths%10)
}

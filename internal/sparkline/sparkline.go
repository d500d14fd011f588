// Package sparkline renders a bucket grid as a single line of text for a monospace label.
//
// Each column is a stack of Unicode combining marks hanging below a base character:
// a dot below for an empty slot and a square below for the slot holding the value.
// The marks of a column attach to the separator that precedes it, so one line of text
// carries rows-many vertical positions per column.
package sparkline

import (
	"math"
	"strings"

	"glucosewatch/internal/rebin"
)

const (
	// Anchor is the base character the first column's marks attach to.
	Anchor = "¹º"
	// Separator follows every column and carries the marks of the next one.
	Separator = '\u2005'
	// EmptyMark is a slot with no value.
	EmptyMark = '\u0323'
	// FilledMark is the slot holding the column's value.
	FilledMark = '\u033B'
)

// Render draws buckets oldest to newest. Values outside [min, max] are clipped: their
// column renders empty, as do empty buckets. A degenerate range renders every column empty.
func Render(buckets rebin.Buckets, min, max float64, rows int) string {
	if rows < 0 {
		rows = 0
	}
	var sb strings.Builder
	sb.Grow(len(Anchor) + len(buckets)*(rows*2+3))
	sb.WriteString(Anchor)

	column := make([]rune, rows)
	for _, b := range buckets {
		for i := range column {
			column[i] = EmptyMark
		}
		if idx, ok := Row(b, min, max, rows); ok {
			column[idx] = FilledMark
		}
		// Highest row first so it sits closest to the base character.
		for i := rows - 1; i >= 0; i-- {
			sb.WriteRune(column[i])
		}
		sb.WriteRune(Separator)
	}
	return sb.String()
}

// Row returns the slot index for a bucket, or ok=false when the column renders empty.
// The maximum value lands in the top slot.
func Row(b rebin.Bucket, min, max float64, rows int) (int, bool) {
	if !b.Valid || rows <= 0 || !(max > min) {
		return 0, false
	}
	v := b.Value
	if math.IsNaN(v) || v < min || v > max {
		return 0, false
	}
	idx := int(math.Round((v - min) * float64(rows) / (max - min)))
	if idx >= rows {
		idx = rows - 1
	}
	return idx, true
}

// Columns splits a rendered line back into its per-column mark stacks, top slot first.
func Columns(line string) [][]rune {
	body := strings.TrimPrefix(line, Anchor)
	var cols [][]rune
	var cur []rune
	for _, r := range body {
		if r == Separator {
			cols = append(cols, cur)
			cur = nil
			continue
		}
		cur = append(cur, r)
	}
	return cols
}

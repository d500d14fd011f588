package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"glucosewatch/internal/classify"
	"glucosewatch/internal/rebin"
)

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"}).Bold(true)
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "3", Dark: "11"}).Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"}).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555", Dark: "#555"})
	chartStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			Foreground(lipgloss.AdaptiveColor{Light: "#555", Dark: "#555"}).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#555", Dark: "#555"})
)

// ConsoleOptions configure the terminal sink.
type ConsoleOptions struct {
	// Chart adds a braille plot of the bucket grid under the status line.
	Chart       bool
	ChartHeight int
}

// Console writes a coloured status block per frame.
type Console struct {
	out  io.Writer
	opts ConsoleOptions
	mu   sync.Mutex
}

// NewConsole constructs a console sink writing to out.
func NewConsole(out io.Writer, opts ConsoleOptions) *Console {
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 8
	}
	return &Console{out: out, opts: opts}
}

// Show implements Display.
func (c *Console) Show(_ context.Context, frame Frame) error {
	var sb strings.Builder
	sb.WriteString(StatusLine(frame))
	sb.WriteByte('\n')
	sb.WriteString(frame.Sparkline)
	sb.WriteByte('\n')
	if frame.LastUpdate != "" {
		sb.WriteString(dimStyle.Render(frame.LastUpdate))
		sb.WriteByte('\n')
	}
	if c.opts.Chart {
		if chart := Chart(frame.Buckets, c.opts.ChartHeight); chart != "" {
			sb.WriteString(chartStyle.Render(chart))
			sb.WriteByte('\n')
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, sb.String())
	return err
}

// StatusLine renders the icon marker and label in the icon colour.
func StatusLine(frame Frame) string {
	style := styleFor(frame.Icon)
	marker := "●"
	if frame.Icon.Stale {
		marker = "✗"
	}
	line := style.Render(fmt.Sprintf("%s %s", marker, frame.Label))
	if frame.FetchFailing {
		line += " " + dimStyle.Render("(source unreachable)")
	}
	return line
}

func styleFor(icon classify.IconKey) lipgloss.Style {
	var style lipgloss.Style
	switch icon.Range {
	case classify.High:
		style = yellowStyle
	case classify.Low:
		style = redStyle
	default:
		style = greenStyle
	}
	if icon.Stale {
		style = style.Faint(true)
	}
	return style
}

// Chart draws the bucket grid as a braille line plot. Gaps carry the previous value
// forward; leading gaps take the first value. An empty grid yields "".
func Chart(buckets rebin.Buckets, height int) string {
	series, ok := carryForward(buckets)
	if !ok {
		return ""
	}
	canvas := plot.NewCanvas(len(series)/2+1, height)
	canvas.NumDataPoints = len(series)
	canvas.ShowAxis = true
	canvas.LineColors = []plot.Color{plot.LightGray}
	canvas.Fill([][]float64{series})
	return canvas.String()
}

func carryForward(buckets rebin.Buckets) ([]float64, bool) {
	first := -1
	for i, b := range buckets {
		if b.Valid {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, false
	}
	series := make([]float64, len(buckets))
	prev := buckets[first].Value
	for i, b := range buckets {
		if b.Valid {
			prev = b.Value
		}
		series[i] = prev
	}
	return series, true
}

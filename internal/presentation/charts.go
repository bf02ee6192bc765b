package presentation

import (
	"fmt"
	"math"
	"strings"
)

// Chart canvas geometry in SVG user units
const (
	chartWidth   = 640
	chartHeight  = 320
	marginLeft   = 72
	marginRight  = 24
	marginTop    = 20
	marginBottom = 56
	barRowHeight = 28
	pieSize      = 320
	maxXTicks    = 8
	yTickCount   = 5
)

// Palette is the qualitative colour cycle used by bars and pie slices
var Palette = []string{
	"#6F4E37", "#A0522D", "#C19A6B", "#D2B48C", "#8B5A2B",
	"#4CAF50", "#E3A857", "#7B3F00", "#B87333", "#967969",
	"#5D4037", "#BCAAA4",
}

// Series colours
const (
	ColorTrend = "#4CAF50"
	ColorHour  = "#A0522D"
)

// Tick is one axis label
type Tick struct {
	X, Y float64
	Text string
}

// ChartPoint is a plotted value with its display text
type ChartPoint struct {
	X, Y  float64
	Label string
	Value string
}

// LineChart is an SVG line chart over ordered points
type LineChart struct {
	Width, Height int
	Path          string
	Points        []ChartPoint
	XTicks        []Tick
	YTicks        []Tick
	Color         string
	Markers       bool
	PlotLeft      float64
	PlotRight     float64
	PlotBottom    float64
	XTitle        string
	YTitle        string
}

// Bar is one rectangle of a bar chart
type Bar struct {
	X, Y, W, H     float64
	Color          string
	Label          string
	Value          string
	LabelX, LabelY float64
	ValueX, ValueY float64
}

// BarChart is an SVG bar chart. Horizontal charts list categories top to
// bottom; vertical ones left to right.
type BarChart struct {
	Width, Height int
	Horizontal    bool
	Bars          []Bar
	PlotLeft      float64
	PlotBottom    float64
	PlotRight     float64
	XTitle        string
	YTitle        string
}

// Slice is one wedge of a pie chart
type Slice struct {
	Path    string
	Full    bool
	Color   string
	Label   string
	Value   string
	Percent string
}

// PieChart is an SVG pie chart with a legend
type PieChart struct {
	Size   int
	CX, CY float64
	R      float64
	Slices []Slice
}

// Datum is a labelled value fed to the chart builders
type Datum struct {
	Label string
	Value float64
}

// NewLineChart lays out data left to right. It returns nil when data is empty.
func NewLineChart(data []Datum, f *Formatter, color string, markers bool) *LineChart {
	if len(data) == 0 {
		return nil
	}

	c := &LineChart{
		Width:      chartWidth,
		Height:     chartHeight,
		Color:      color,
		Markers:    markers,
		PlotLeft:   marginLeft,
		PlotRight:  chartWidth - marginRight,
		PlotBottom: chartHeight - marginBottom,
	}

	lo, hi := valueRange(data)
	plotW := c.PlotRight - c.PlotLeft
	plotH := c.PlotBottom - marginTop

	xAt := func(i int) float64 {
		if len(data) == 1 {
			return c.PlotLeft + plotW/2
		}
		return c.PlotLeft + float64(i)*plotW/float64(len(data)-1)
	}
	yAt := func(v float64) float64 {
		return marginTop + (1-(v-lo)/(hi-lo))*plotH
	}

	var path strings.Builder
	step := int(math.Ceil(float64(len(data)) / maxXTicks))
	for i, d := range data {
		p := ChartPoint{X: xAt(i), Y: yAt(d.Value), Label: d.Label, Value: f.Currency(d.Value)}
		c.Points = append(c.Points, p)

		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.1f %.1f ", cmd, p.X, p.Y)

		if i%step == 0 {
			c.XTicks = append(c.XTicks, Tick{X: p.X, Y: c.PlotBottom + 18, Text: d.Label})
		}
	}
	c.Path = strings.TrimSpace(path.String())
	c.YTicks = yTicks(lo, hi, marginTop, plotH, c.PlotLeft-8, f)

	return c
}

// NewHorizontalBarChart draws one row per datum, largest values expected first
func NewHorizontalBarChart(data []Datum, f *Formatter) *BarChart {
	if len(data) == 0 {
		return nil
	}

	height := marginTop + len(data)*barRowHeight + 24
	c := &BarChart{
		Width:      chartWidth,
		Height:     height,
		Horizontal: true,
		PlotLeft:   160,
		PlotRight:  chartWidth - 110,
		PlotBottom: float64(height - 24),
	}

	hi := positiveMax(data)
	plotW := c.PlotRight - c.PlotLeft
	for i, d := range data {
		y := float64(marginTop + i*barRowHeight)
		w := math.Max(0, d.Value) / hi * plotW
		c.Bars = append(c.Bars, Bar{
			X: c.PlotLeft, Y: y + 4, W: w, H: barRowHeight - 8,
			Color:  Palette[0],
			Label:  d.Label,
			Value:  f.Currency(d.Value),
			LabelX: c.PlotLeft - 8, LabelY: y + barRowHeight/2 + 4,
			ValueX: c.PlotLeft + w + 6, ValueY: y + barRowHeight/2 + 4,
		})
	}
	return c
}

// NewVerticalBarChart draws one column per datum in the given order
func NewVerticalBarChart(data []Datum, f *Formatter, colorful bool) *BarChart {
	if len(data) == 0 {
		return nil
	}

	c := &BarChart{
		Width:      chartWidth,
		Height:     chartHeight,
		PlotLeft:   marginLeft,
		PlotRight:  chartWidth - marginRight,
		PlotBottom: chartHeight - marginBottom,
	}

	hi := positiveMax(data)
	plotW := c.PlotRight - c.PlotLeft
	plotH := c.PlotBottom - marginTop
	slot := plotW / float64(len(data))
	barW := slot * 0.7

	for i, d := range data {
		h := math.Max(0, d.Value) / hi * plotH
		x := c.PlotLeft + float64(i)*slot + (slot-barW)/2
		color := Palette[0]
		if colorful {
			color = Palette[i%len(Palette)]
		}
		c.Bars = append(c.Bars, Bar{
			X: x, Y: c.PlotBottom - h, W: barW, H: h,
			Color:  color,
			Label:  d.Label,
			Value:  f.Currency(d.Value),
			LabelX: x + barW/2, LabelY: c.PlotBottom + 18,
			ValueX: x + barW/2, ValueY: c.PlotBottom - h - 6,
		})
	}
	return c
}

// NewPieChart splits the circle by each datum's share of the data total.
// Non-positive values are left out; nil is returned when nothing remains.
func NewPieChart(data []Datum, f *Formatter) *PieChart {
	var total float64
	var kept []Datum
	for _, d := range data {
		if d.Value > 0 {
			kept = append(kept, d)
			total += d.Value
		}
	}
	if len(kept) == 0 {
		return nil
	}

	c := &PieChart{Size: pieSize, CX: pieSize / 2, CY: pieSize / 2, R: pieSize/2 - 10}

	angle := -math.Pi / 2
	for i, d := range kept {
		share := d.Value / total
		s := Slice{
			Color:   Palette[i%len(Palette)],
			Label:   d.Label,
			Value:   f.Currency(d.Value),
			Percent: f.Percent(share * 100),
		}
		if len(kept) == 1 {
			s.Full = true
		} else {
			end := angle + share*2*math.Pi
			s.Path = arcPath(c.CX, c.CY, c.R, angle, end)
			angle = end
		}
		c.Slices = append(c.Slices, s)
	}
	return c
}

func arcPath(cx, cy, r, from, to float64) string {
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	x0, y0 := cx+r*math.Cos(from), cy+r*math.Sin(from)
	x1, y1 := cx+r*math.Cos(to), cy+r*math.Sin(to)
	return fmt.Sprintf("M%.1f %.1f L%.2f %.2f A%.1f %.1f 0 %d 1 %.2f %.2f Z", cx, cy, x0, y0, r, r, large, x1, y1)
}

// valueRange returns the y-axis bounds, always including zero
func valueRange(data []Datum) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, d := range data {
		lo = math.Min(lo, d.Value)
		hi = math.Max(hi, d.Value)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func positiveMax(data []Datum) float64 {
	hi := 0.0
	for _, d := range data {
		hi = math.Max(hi, d.Value)
	}
	if hi == 0 {
		return 1
	}
	return hi
}

func yTicks(lo, hi, top, plotH, x float64, f *Formatter) []Tick {
	ticks := make([]Tick, 0, yTickCount)
	for i := 0; i < yTickCount; i++ {
		frac := float64(i) / float64(yTickCount-1)
		v := lo + frac*(hi-lo)
		ticks = append(ticks, Tick{X: x, Y: top + (1-frac)*plotH + 4, Text: f.Axis(v, hi-lo)})
	}
	return ticks
}

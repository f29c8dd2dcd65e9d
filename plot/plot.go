// Package plot renders valuation charts as PNG images.
package plot

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/parcr/lifeactuary/utils"
)

// Point is one sample of a series.
type Point struct {
	X float64
	Y float64
}

// Line is one named series of a chart.
type Line struct {
	Label  string
	Color  [3]float64
	Points []Point
}

// Chart describes the frame around the series.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

const (
	defaultWidth  = 640
	defaultHeight = 400

	marginLeft   = 62.0
	marginRight  = 18.0
	marginTop    = 34.0
	marginBottom = 44.0
)

var seriesPalette = [][3]float64{
	{0.12, 0.42, 0.72}, // blue
	{0.80, 0.33, 0.10}, // orange
	{0.18, 0.55, 0.30}, // green
	{0.55, 0.25, 0.60}, // purple
}

// Render draws the chart and returns PNG bytes.
func Render(c Chart, lines ...Line) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("title", c.Title).
			Debug("chart rendered")
	}()

	points := 0
	for _, ln := range lines {
		points += len(ln.Points)
	}
	if points == 0 {
		return nil, fmt.Errorf("plot: no points to draw")
	}

	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}

	minX, maxX, minY, maxY := bounds(lines)

	dc := gg.NewContext(c.Width, c.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	body, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("plot: load font: %w", err)
	}
	title, err := loadFont(gobold.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("plot: load font: %w", err)
	}

	plotW := float64(c.Width) - marginLeft - marginRight
	plotH := float64(c.Height) - marginTop - marginBottom
	toX := func(x float64) float64 { return marginLeft + (x-minX)/(maxX-minX)*plotW }
	toY := func(y float64) float64 { return marginTop + plotH - (y-minY)/(maxY-minY)*plotH }

	dc.SetFontFace(body)
	drawGridAndTicks(dc, toX, toY, minX, maxX, minY, maxY, plotH)

	// Frame
	dc.SetRGB(0.25, 0.25, 0.3)
	dc.SetLineWidth(1)
	dc.DrawLine(marginLeft, marginTop, marginLeft, marginTop+plotH)
	dc.DrawLine(marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)
	dc.Stroke()

	for i, ln := range lines {
		if len(ln.Points) == 0 {
			continue
		}
		color := ln.Color
		if color == [3]float64{} {
			color = seriesPalette[i%len(seriesPalette)]
		}
		dc.SetRGB(color[0], color[1], color[2])
		dc.SetLineWidth(1.6)
		dc.MoveTo(toX(ln.Points[0].X), toY(ln.Points[0].Y))
		for _, p := range ln.Points[1:] {
			dc.LineTo(toX(p.X), toY(p.Y))
		}
		dc.Stroke()
	}

	drawLegend(dc, lines, float64(c.Width))

	dc.SetRGB(0.1, 0.1, 0.15)
	dc.SetFontFace(title)
	tw, _ := dc.MeasureString(c.Title)
	dc.DrawString(c.Title, (float64(c.Width)-tw)/2, 20)

	dc.SetFontFace(body)
	dc.SetRGB(0.3, 0.3, 0.35)
	if c.XLabel != "" {
		lw, _ := dc.MeasureString(c.XLabel)
		dc.DrawString(c.XLabel, marginLeft+(plotW-lw)/2, float64(c.Height)-10)
	}
	if c.YLabel != "" {
		dc.Push()
		dc.RotateAbout(-math.Pi/2, 14, marginTop+plotH/2)
		lw, _ := dc.MeasureString(c.YLabel)
		dc.DrawString(c.YLabel, 14-lw/2, marginTop+plotH/2)
		dc.Pop()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("plot: encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func bounds(lines []Line) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, ln := range lines {
		for _, p := range ln.Points {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	// Value charts anchor at zero unless the data dips below it.
	minY = math.Min(minY, 0)
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	return minX, maxX, minY, maxY
}

func drawGridAndTicks(dc *gg.Context, toX, toY func(float64) float64, minX, maxX, minY, maxY, plotH float64) {
	for _, x := range ticks(minX, maxX, 6) {
		px := toX(x)
		dc.SetRGBA(0.5, 0.5, 0.6, 0.18)
		dc.SetLineWidth(1)
		dc.DrawLine(px, marginTop, px, marginTop+plotH)
		dc.Stroke()

		label := formatTick(x)
		w, _ := dc.MeasureString(label)
		dc.SetRGB(0.3, 0.3, 0.35)
		dc.DrawString(label, px-w/2, marginTop+plotH+16)
	}
	for _, y := range ticks(minY, maxY, 5) {
		py := toY(y)
		dc.SetRGBA(0.5, 0.5, 0.6, 0.18)
		dc.SetLineWidth(1)
		dc.DrawLine(marginLeft, py, toX(maxX), py)
		dc.Stroke()

		label := formatTick(y)
		w, _ := dc.MeasureString(label)
		dc.SetRGB(0.3, 0.3, 0.35)
		dc.DrawString(label, marginLeft-w-6, py+4)
	}
}

func drawLegend(dc *gg.Context, lines []Line, width float64) {
	y := marginTop + 6
	for i, ln := range lines {
		if ln.Label == "" {
			continue
		}
		color := ln.Color
		if color == [3]float64{} {
			color = seriesPalette[i%len(seriesPalette)]
		}
		w, _ := dc.MeasureString(ln.Label)
		x := width - marginRight - w - 18

		dc.SetRGB(color[0], color[1], color[2])
		dc.DrawRectangle(x, y-8, 12, 8)
		dc.Fill()
		dc.SetRGB(0.2, 0.2, 0.25)
		dc.DrawString(ln.Label, x+18, y)
		y += 16
	}
}

// ticks picks round step values covering [lo, hi] with about n intervals.
func ticks(lo, hi float64, n int) []float64 {
	span := hi - lo
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	switch {
	case raw/mag >= 5:
		step = 5 * mag
	case raw/mag >= 2:
		step = 2 * mag
	}
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi+step/2; v += step {
		out = append(out, utils.RoundTo(v, 9))
	}
	return out
}

func formatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case av >= 1e4:
		return fmt.Sprintf("%.0fk", v/1e3)
	default:
		return fmt.Sprintf("%g", utils.RoundTo(v, 6))
	}
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

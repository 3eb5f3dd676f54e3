package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

var ErrTooFewPoints = errors.New("export: need at least two points")

// PlotOptions sizes and labels an SVG plot.
type PlotOptions struct {
	Width, Height int
	Stroke        string
	XLabel        string
	YLabel        string
	// EqualAspect keeps one unit the same length on both axes (ground tracks).
	EqualAspect bool
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 800, Height: 600, Stroke: "#00ff00"}
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func boundsOf(xs, ys []float64, equal bool, w, h int) bounds {
	b := bounds{xs[0], xs[0], ys[0], ys[0]}
	for i := range xs {
		b.minX, b.maxX = math.Min(b.minX, xs[i]), math.Max(b.maxX, xs[i])
		b.minY, b.maxY = math.Min(b.minY, ys[i]), math.Max(b.maxY, ys[i])
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	if equal {
		scale := math.Max(rangeX/float64(w), rangeY/float64(h))
		cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
		rangeX, rangeY = scale*float64(w), scale*float64(h)
		b.minX, b.maxX = cx-rangeX/2, cx+rangeX/2
		b.minY, b.maxY = cy-rangeY/2, cy+rangeY/2
	}

	// 10% padding
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

// WritePlot draws ys against xs as a single polyline.
func WritePlot(w io.Writer, xs, ys []float64, opts PlotOptions) error {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ErrTooFewPoints
	}
	xs, ys = xs[:n], ys[:n]
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultPlotOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Stroke == "" {
		opts.Stroke = DefaultPlotOptions().Stroke
	}

	b := boundsOf(xs, ys, opts.EqualAspect, opts.Width, opts.Height)
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		opts.Width, opts.Height, opts.Width, opts.Height, opts.Stroke)

	for i := range xs {
		x := (xs[i] - b.minX) / rangeX * float64(opts.Width)
		y := float64(opts.Height) - (ys[i]-b.minY)/rangeY*float64(opts.Height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>` + "\n")

	label := `<text x="%d" y="%d" fill="#888888" font-family="monospace" font-size="12">%s</text>` + "\n"
	if opts.XLabel != "" {
		fmt.Fprintf(&sb, label, opts.Width/2, opts.Height-6, opts.XLabel)
	}
	if opts.YLabel != "" {
		fmt.Fprintf(&sb, label, 6, 16, opts.YLabel)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

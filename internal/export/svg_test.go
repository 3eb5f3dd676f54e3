package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWritePlot(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultPlotOptions()
	opts.XLabel = "EAST"
	opts.YLabel = "NORTH"
	if err := WritePlot(&buf, []float64{0, 1, 2}, []float64{0, 1, 0}, opts); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("malformed svg document")
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("expected 2 line segments, got %d", got)
	}
	for _, want := range []string{`width="800"`, "EAST", "NORTH", "#00ff00"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestWritePlotBounds(t *testing.T) {
	// the first point of a rising line sits at the padded lower-left
	var buf bytes.Buffer
	if err := WritePlot(&buf, []float64{0, 10}, []float64{0, 10}, PlotOptions{Width: 120, Height: 120}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `d="M10.0,110.0 L110.0,10.0"`) {
		t.Errorf("unexpected path in %s", buf.String())
	}
}

func TestWritePlotEqualAspect(t *testing.T) {
	b := boundsOf([]float64{0, 100}, []float64{0, 10}, true, 200, 100)
	if gotX, gotY := b.maxX-b.minX, b.maxY-b.minY; gotX != 2*gotY {
		t.Errorf("ranges %v x %v should keep the 2:1 canvas aspect", gotX, gotY)
	}
}

func TestWritePlotTooFewPoints(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePlot(&buf, []float64{1}, []float64{1}, DefaultPlotOptions()); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}
}

package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/control"
)

const (
	svgBackground = "#0a0a0a"
	svgReference  = "#e5c07b"
	svgTruth      = "#56b6c2"
	svgHuman      = "#3b2f1e"
	svgUncal      = "#3b1e1e"
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

// padded widens the box by 10% on each side; a flat range becomes 1.
func (b bounds) padded() bounds {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return bounds{b.minX, b.minX + rx, b.minY - ry*0.1, b.maxY + ry*0.1}
}

func traceBounds(samples []bench.Sample) bounds {
	b := bounds{
		minX: samples[0].Time, maxX: samples[len(samples)-1].Time,
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for _, s := range samples {
		for _, v := range []float64{s.Truth, s.Reference} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			b.minY = math.Min(b.minY, v)
			b.maxY = math.Max(b.maxY, v)
		}
	}
	if math.IsInf(b.minY, 0) {
		b.minY, b.maxY = 0, 0
	}
	return b.padded()
}

// TraceSVG renders a run as an SVG chart: the reference and the true
// position over time, with human-controlled and uncalibrated stretches
// shaded behind them.
func TraceSVG(samples []bench.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}
	b := traceBounds(samples)
	w, h := float64(width), float64(height)
	x := func(t float64) float64 { return (t - b.minX) / (b.maxX - b.minX) * w }
	y := func(v float64) float64 { return h - (v-b.minY)/(b.maxY-b.minY)*h }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, svgBackground)

	// interval i is drawn in the state of the cycle that closes it
	for i := 0; i < len(samples)-1; i++ {
		var fill string
		switch samples[i+1].State {
		case control.HumanControlled:
			fill = svgHuman
		case control.Uncalibrated:
			fill = svgUncal
		default:
			continue
		}
		x0, x1 := x(samples[i].Time), x(samples[i+1].Time)
		fmt.Fprintf(&sb, `<rect x="%.1f" y="0" width="%.1f" height="%d" fill="%s"/>
`, x0, x1-x0, height, fill)
	}

	writePath(&sb, samples, svgReference, x, y, func(s bench.Sample) float64 { return s.Reference })
	writePath(&sb, samples, svgTruth, x, y, func(s bench.Sample) float64 { return s.Truth })

	sb.WriteString("</svg>")
	return sb.String()
}

// writePath draws one series, breaking the line at non-finite values.
func writePath(sb *strings.Builder, samples []bench.Sample, stroke string, x, y func(float64) float64, field func(bench.Sample) float64) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	pen := false
	for _, s := range samples {
		v := field(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pen = false
			continue
		}
		op := "L"
		if !pen {
			op = "M"
			pen = true
		}
		fmt.Fprintf(sb, "%s%.1f,%.1f ", op, x(s.Time), y(v))
	}
	sb.WriteString("\"/>\n")
}

// ExportSVG writes the chart of a stored run.
func (s *Store) ExportSVG(w io.Writer, runID string, width, height int) error {
	samples, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return pkgerrors.Errorf("run %s has too few samples to chart", runID)
	}
	_, err = io.WriteString(w, TraceSVG(samples, width, height))
	return pkgerrors.Wrap(err, "write svg")
}

func (s *Store) ExportSVGFile(path, runID string, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	return s.ExportSVG(f, runID, width, height)
}

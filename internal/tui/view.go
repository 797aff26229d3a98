package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/setpoint/internal/control"
)

const gaugeWidth = 50

func (m *model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(m.title()) + "\n")

	st := m.last.State
	status := badge[st].Render(st.String())
	if m.paused {
		status += "  " + pausedStyle.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs  x%d", m.last.Time, m.speed))
	row("Decision", control.Decision{Kind: m.last.Kind, Power: m.last.Power}.String())
	row("Reading", fmt.Sprintf("%+.3f", m.last.Reading))
	row("Target", fmt.Sprintf("%+.3f", m.last.Target))
	row("Reference", fmt.Sprintf("%+.3f", m.last.Reference))
	row("Human", fmt.Sprintf("%+.2f", m.stick.Axis()))
	row("Kp", fmt.Sprintf("%.3f", m.bench.Rig().Arbiter.PID().Kp))
	if m.payload {
		row("Payload", fmt.Sprintf("x%.1f gravity", payloadFactor))
	}
	row("Calibration", m.bench.Rig().Mechanism.Gate().Record().String())
	s.WriteString("\n" + m.gauge() + "\n")

	if len(m.truth) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.ref, m.truth},
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Cyan),
			asciigraph.Caption("reference (yellow) / truth (cyan)"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("↑/↓ stick  space release  1-5 target  c calibrate here  l payload  [/] kp  p pause  +/- speed  r restart  q quit"))
	return s.String()
}

func (m *model) title() string {
	t := strings.ToUpper(m.cfg.Mechanism)
	if m.cfg.Name != "" {
		t += " · " + m.cfg.Name
	}
	return t
}

// gauge draws the travel between the first and last target presets with
// the truth as a block, the target as '|' and the reference as '^'.
func (m *model) gauge() string {
	lo, hi := m.targets[0], m.targets[len(m.targets)-1]
	pos := func(v float64) int {
		if hi == lo || math.IsNaN(v) {
			return 0
		}
		i := int(math.Round((v - lo) / (hi - lo) * (gaugeWidth - 1)))
		return max(0, min(gaugeWidth-1, i))
	}

	bar := []rune(strings.Repeat("─", gaugeWidth))
	bar[pos(m.last.Reference)] = '^'
	bar[pos(m.last.Target)] = '|'
	bar[pos(m.last.Truth)] = '█'
	return fmt.Sprintf("%7.2f %s %-7.2f", lo, string(bar), hi)
}

package ui

import (
	"fmt"
	"strings"

	"github.com/drake/ember/gauge"
)

const gaugeCells = 10

// renderGauges renders the gauge bar, one gauge per tracked quantity.
// Fill color follows the reading's band; an empty slice renders nothing.
func renderGauges(readings []gauge.Reading, styles Styles) string {
	if len(readings) == 0 {
		return ""
	}

	parts := make([]string, 0, len(readings))
	for _, r := range readings {
		parts = append(parts, renderGauge(r, styles))
	}
	return strings.Join(parts, "  ")
}

func renderGauge(r gauge.Reading, styles Styles) string {
	filled := int(r.Fraction * gaugeCells)
	if filled > gaugeCells {
		filled = gaugeCells
	}
	if filled < 0 {
		filled = 0
	}

	bar := styles.bandStyle(r.Band).Render(strings.Repeat("█", filled)) +
		styles.GaugeEmpty.Render(strings.Repeat("░", gaugeCells-filled))

	label := styles.GaugeLabel.Render(r.Name)
	return fmt.Sprintf("%s %s %d/%d", label, bar, r.Current, r.Max)
}

// Package gauge derives display fractions and color bands from the
// vitals model. It holds no state of its own; everything is a pure
// function of a snapshot.
package gauge

import "github.com/drake/ember/gmcp"

// Band is the color class of a gauge at its current fill level.
type Band int

const (
	BandLow  Band = iota // critical, draw attention
	BandMid              // caution
	BandHigh             // healthy
)

// Thresholds are the minimum fill fractions for the upper two bands.
// Anything below Mid is BandLow.
type Thresholds struct {
	High float64
	Mid  float64
}

// DefaultThresholds returns the standard band boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.6, Mid: 0.3}
}

// Reading is one gauge's renderable state.
type Reading struct {
	Name     string
	Current  int
	Max      int
	Fraction float64
	Band     Band
}

// Fraction returns the fill level in [0, 1]. A zero maximum yields a
// defined fraction of zero, never a division fault.
func Fraction(st gmcp.Stat) float64 {
	max := st.Max
	if max < 1 {
		max = 1
	}
	f := float64(st.Current) / float64(max)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// BandFor selects the color band for a fill fraction.
func (t Thresholds) BandFor(fraction float64) Band {
	switch {
	case fraction >= t.High:
		return BandHigh
	case fraction >= t.Mid:
		return BandMid
	default:
		return BandLow
	}
}

// For builds a reading for one quantity from a snapshot.
func (t Thresholds) For(snap gmcp.Snapshot, name string) (Reading, bool) {
	st, ok := snap.Stats[name]
	if !ok {
		return Reading{}, false
	}
	f := Fraction(st)
	return Reading{
		Name:     name,
		Current:  st.Current,
		Max:      st.Max,
		Fraction: f,
		Band:     t.BandFor(f),
	}, true
}

// Readings builds readings for the named quantities, skipping untracked
// ones, in the given order.
func (t Thresholds) Readings(snap gmcp.Snapshot, names []string) []Reading {
	out := make([]Reading, 0, len(names))
	for _, name := range names {
		if r, ok := t.For(snap, name); ok {
			out = append(out, r)
		}
	}
	return out
}

// BandFor selects the color band at the default thresholds.
func BandFor(fraction float64) Band {
	return DefaultThresholds().BandFor(fraction)
}

// For builds a reading at the default thresholds.
func For(snap gmcp.Snapshot, name string) (Reading, bool) {
	return DefaultThresholds().For(snap, name)
}

// Readings builds readings at the default thresholds.
func Readings(snap gmcp.Snapshot, names []string) []Reading {
	return DefaultThresholds().Readings(snap, names)
}

package gmcp

import "math"

// Stat is one tracked quantity. The invariant 0 <= Current <= Max holds
// after every applied event.
type Stat struct {
	Current int
	Max     int
}

// Mapper converts a wire value for a quantity into an absolute current
// value. The wire convention (absolute counts vs percentages) varies by
// server, so the mapping is injected rather than hard-coded.
type Mapper func(value float64, max int) int

// AbsoluteMapper treats wire values as absolute quantities.
func AbsoluteMapper(value float64, _ int) int {
	return int(math.Round(value))
}

// PercentMapper treats wire values as percentages of the known maximum.
func PercentMapper(value float64, max int) int {
	return int(math.Round(value / 100 * float64(max)))
}

// Vitals is the live status model for one session. It is owned by the
// session goroutine; consumers read Snapshot copies, never the model
// itself.
type Vitals struct {
	stats  map[string]Stat
	flags  map[string]string
	mapper Mapper
}

// Snapshot is an immutable copy of the model handed to consumers.
type Snapshot struct {
	Stats map[string]Stat
	Flags map[string]string
}

// NewVitals creates an empty model. A nil mapper defaults to absolute.
func NewVitals(mapper Mapper) *Vitals {
	if mapper == nil {
		mapper = AbsoluteMapper
	}
	return &Vitals{
		stats:  make(map[string]Stat),
		flags:  make(map[string]string),
		mapper: mapper,
	}
}

// Apply mutates the model with one decoded event. Fields absent from the
// event are left untouched; offending fields are skipped, the rest of
// the event still applies. Returns the names of rejected fields so the
// caller can surface them as diagnostics.
func (v *Vitals) Apply(ev Event) (rejected []string) {
	switch e := ev.(type) {
	case MaxStatsUpdate:
		for name, val := range e.Fields {
			if val < 0 {
				rejected = append(rejected, name)
				continue
			}
			st := v.stats[name]
			st.Max = int(math.Round(val))
			if st.Current > st.Max {
				st.Current = st.Max
			}
			v.stats[name] = st
		}

	case VitalsUpdate:
		for name, val := range e.Fields {
			st := v.stats[name]
			st.Current = clampStat(v.mapper(val, st.Max), st.Max)
			v.stats[name] = st
		}

	case StatusFlags:
		for name, val := range e.Flags {
			v.flags[name] = val
		}
	}
	return rejected
}

func clampStat(cur, max int) int {
	if cur < 0 {
		return 0
	}
	if cur > max {
		return max
	}
	return cur
}

// Stat returns the named quantity, if tracked.
func (v *Vitals) Stat(name string) (Stat, bool) {
	st, ok := v.stats[name]
	return st, ok
}

// Flag returns the named status flag, if set.
func (v *Vitals) Flag(name string) (string, bool) {
	f, ok := v.flags[name]
	return f, ok
}

// Snapshot returns a copy safe to hand to another goroutine.
func (v *Vitals) Snapshot() Snapshot {
	stats := make(map[string]Stat, len(v.stats))
	for k, s := range v.stats {
		stats[k] = s
	}
	flags := make(map[string]string, len(v.flags))
	for k, f := range v.flags {
		flags[k] = f
	}
	return Snapshot{Stats: stats, Flags: flags}
}

// Reset empties the model. Called at session end; vitals never survive
// into a new connection.
func (v *Vitals) Reset() {
	v.stats = make(map[string]Stat)
	v.flags = make(map[string]string)
}

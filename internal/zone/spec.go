// Package zone evaluates time-window percentage-change filters:
// windows anchored to an analysis date (possibly crossing midnight or
// sitting entirely on the prior/next day) whose percentage change must
// land inside a target±tolerance band.
package zone

import "fmt"

// Default window when a spec leaves the endpoints unset: the regular
// 09:30-16:00 same-day session.
const (
	DefaultStartHour   = 9
	DefaultStartMinute = 30
	DefaultEndHour     = 16
	DefaultEndMinute   = 0
)

// Window is one endpoint of a zone: a wall-clock minute on the day
// DayOffset calendar days away from the analysis date.
type Window struct {
	DayOffset int // -1, 0, or 1
	Hour      int // 0-23
	Minute    int // 0-59
}

// FilterSpec is a validated zone filter. Instances only exist through
// NewFilterSpec or ParseSpec, so a live spec always has legal
// parameters and is always enabled.
type FilterSpec struct {
	name         string
	targetPct    float64
	tolerancePct float64
	start        Window
	end          Window
}

// NewFilterSpec validates the parameters and builds a spec. It fails
// fast on a negative tolerance, a day offset outside {-1, 0, 1}, or an
// hour/minute outside its legal range.
func NewFilterSpec(name string, targetPct, tolerancePct float64, start, end Window) (*FilterSpec, error) {
	if tolerancePct < 0 {
		return nil, fmt.Errorf("zone filter %q: tolerance_pct must be non-negative, got %v", name, tolerancePct)
	}
	if err := validateWindow(name, "start", start); err != nil {
		return nil, err
	}
	if err := validateWindow(name, "end", end); err != nil {
		return nil, err
	}

	return &FilterSpec{
		name:         name,
		targetPct:    targetPct,
		tolerancePct: tolerancePct,
		start:        start,
		end:          end,
	}, nil
}

func validateWindow(name, field string, w Window) error {
	if w.DayOffset < -1 || w.DayOffset > 1 {
		return fmt.Errorf("zone filter %q: %s day_offset must be -1, 0, or 1, got %d", name, field, w.DayOffset)
	}
	if w.Hour < 0 || w.Hour > 23 {
		return fmt.Errorf("zone filter %q: %s hour must be in [0, 23], got %d", name, field, w.Hour)
	}
	if w.Minute < 0 || w.Minute > 59 {
		return fmt.Errorf("zone filter %q: %s minute must be in [0, 59], got %d", name, field, w.Minute)
	}
	return nil
}

// ParseSpec builds a validated spec from raw request parameters.
// A disabled filter parses to (nil, nil): disabled specs never
// materialize as live objects. An enabled filter missing its target or
// tolerance is a configuration error. Nil windows default to the
// regular session.
func ParseSpec(name string, enabled bool, targetPct, tolerancePct *float64, start, end *Window) (*FilterSpec, error) {
	if !enabled {
		return nil, nil
	}
	if targetPct == nil {
		return nil, fmt.Errorf("zone filter %q: enabled but target_pct is missing", name)
	}
	if tolerancePct == nil {
		return nil, fmt.Errorf("zone filter %q: enabled but tolerance_pct is missing", name)
	}

	s := Window{Hour: DefaultStartHour, Minute: DefaultStartMinute}
	if start != nil {
		s = *start
	}
	e := Window{Hour: DefaultEndHour, Minute: DefaultEndMinute}
	if end != nil {
		e = *end
	}

	return NewFilterSpec(name, *targetPct, *tolerancePct, s, e)
}

// Name returns the spec's display name.
func (s *FilterSpec) Name() string { return s.name }

// TargetPct returns the center of the acceptance band.
func (s *FilterSpec) TargetPct() float64 { return s.targetPct }

// TolerancePct returns the half-width of the acceptance band.
func (s *FilterSpec) TolerancePct() float64 { return s.tolerancePct }

// Start returns the window's start endpoint.
func (s *FilterSpec) Start() Window { return s.start }

// End returns the window's end endpoint.
func (s *FilterSpec) End() Window { return s.end }

// Range returns the inclusive acceptance band
// [target-tolerance, target+tolerance].
func (s *FilterSpec) Range() (low, high float64) {
	return s.targetPct - s.tolerancePct, s.targetPct + s.tolerancePct
}

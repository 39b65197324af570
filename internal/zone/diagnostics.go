package zone

import "fmt"

// maxSampleReasons bounds the failure examples rendered per spec.
const maxSampleReasons = 3

// FormatLines renders the diagnostics as flat human-readable text for
// the presentation layer: per-spec pass/fail counts with up to three
// sample failure reasons, then the final intersection count.
func (d *Diagnostics) FormatLines() []string {
	var lines []string

	for _, spec := range d.Specs {
		failed := 0
		for _, o := range spec.Outcomes {
			if !o.Pass {
				failed++
			}
		}
		lines = append(lines, fmt.Sprintf("zone filter %q: %d passed, %d failed of %d dates",
			spec.Name, len(spec.Passed), failed, d.TotalDates))

		samples := 0
		for _, o := range spec.Outcomes {
			if o.Pass || samples >= maxSampleReasons {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", o.Date, o.Reason))
			samples++
		}
	}

	lines = append(lines, fmt.Sprintf("accepted %d of %d dates across %d zone filters",
		len(d.Accepted), d.TotalDates, len(d.Specs)))
	return lines
}

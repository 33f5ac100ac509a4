package repl

import (
	"fmt"
	"time"
)

// formatDuration renders a duration in the largest unit that keeps the
// value below the next unit's threshold, rounding half-up at each step.
func formatDuration(d time.Duration) string {
	units := d.Nanoseconds()

	names := []string{"ns", "µs", "ms", "s", "min", "hrs"}
	sizes := []int64{1000, 1000, 1000, 60, 60}

	i := 0
	for ; i < len(sizes); i++ {
		if units < sizes[i] {
			break
		}
		units = (units + sizes[i]/2) / sizes[i]
	}
	return fmt.Sprintf("%d %s", units, names[i])
}

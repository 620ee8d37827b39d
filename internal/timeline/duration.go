package timeline

import (
	"time"

	"taskline/internal/event"
)

// MinVisibleElapsed is the threshold below which the elapsed time is not
// rendered. Sub-second durations read as jitter, not information.
const MinVisibleElapsed = time.Second

// TickInterval is how often a live view should recompute the elapsed time
// while the task is active. Inactive tasks need no timer at all: their
// elapsed value is fully determined by the log.
const TickInterval = time.Second

// Elapsed computes the wall-clock span covered by the visible events.
//
// While the task is active the span is still growing, so it ends at now;
// once the task settles it ends at the last visible event, making the
// result stable no matter when it is recomputed. The second return value
// reports whether the span has crossed MinVisibleElapsed and should be
// rendered.
func Elapsed(visible []event.TaskEvent, status event.Status, now time.Time) (time.Duration, bool) {
	if len(visible) == 0 {
		return 0, false
	}
	start := visible[0].Time()
	end := visible[len(visible)-1].Time()
	if status.Active() {
		end = now
	}
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	return d, d >= MinVisibleElapsed
}

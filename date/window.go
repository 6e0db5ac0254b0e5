package date

import "fmt"

// Window is the half-open range of days [Start, End).
type Window struct{ Start, End Date }

// NewWindow returns the window [start, end).
func NewWindow(start, end Date) Window { return Window{Start: start, End: end} }

// Year returns the window covering the whole calendar year.
func Year(y int) Window { return Window{Start: New(y, 1, 1), End: New(y+1, 1, 1)} }

// Contains reports whether d is in [Start, End).
func (w Window) Contains(d Date) bool { return !d.Before(w.Start) && d.Before(w.End) }

// IsEmpty reports whether the window contains no day.
func (w Window) IsEmpty() bool { return !w.Start.Before(w.End) }

// Clip returns the window with its end moved back to end if it is later.
func (w Window) Clip(end Date) Window {
	if end.Before(w.End) {
		w.End = end
	}
	return w
}

// ParseWindow parses two dates into a window.
func ParseWindow(start, end string) (Window, error) {
	s, err := Parse(start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start: %w", err)
	}
	e, err := Parse(end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end: %w", err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("invalid window: end %s is before start %s", e, s)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) String() string { return fmt.Sprintf("[%s, %s)", w.Start, w.End) }

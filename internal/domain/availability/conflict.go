package availability

import "clinicbook/internal/pkg/timegrid"

// MarkAvailability returns a copy of slots where a slot is available iff no
// booked interval overlaps it. booked must hold only non-cancelled bookings of
// the same professional and date. Inputs are left untouched.
func MarkAvailability(slots []Slot, booked []timegrid.Interval) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		s.Available = !overlapsAny(s.Interval(), booked)
		out[i] = s
	}
	return out
}

// FirstConflict returns the first booked interval overlapping candidate.
func FirstConflict(candidate timegrid.Interval, booked []timegrid.Interval) (timegrid.Interval, bool) {
	for _, b := range booked {
		if timegrid.Overlaps(candidate, b) {
			return b, true
		}
	}
	return timegrid.Interval{}, false
}

func overlapsAny(candidate timegrid.Interval, booked []timegrid.Interval) bool {
	_, ok := FirstConflict(candidate, booked)
	return ok
}

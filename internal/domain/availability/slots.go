package availability

import (
	"iter"

	"clinicbook/internal/pkg/timegrid"
)

// SlotSeq walks every window in steps of durationMinutes and yields [t, t+d)
// while t+d <= window end. A slot may end exactly on the window end; a shorter
// trailing remainder is dropped. The sequence is recomputed on every range.
func SlotSeq(windows []timegrid.Interval, durationMinutes int) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if durationMinutes <= 0 {
			return
		}
		for _, w := range windows {
			for t := int(w.Start); t+durationMinutes <= int(w.End); t += durationMinutes {
				slot := Slot{
					Start:     timegrid.TimeOfDay(t),
					End:       timegrid.TimeOfDay(t + durationMinutes),
					Available: true,
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

// GenerateSlots materializes SlotSeq. An empty window list gives an empty,
// non-nil slice.
func GenerateSlots(windows []timegrid.Interval, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	slots := make([]Slot, 0)
	for s := range SlotSeq(windows, durationMinutes) {
		slots = append(slots, s)
	}
	return slots, nil
}

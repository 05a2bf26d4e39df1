package availability

import (
	"context"
	"sort"

	"clinicbook/internal/pkg/timegrid"
)

// Resolver turns weekly rules and date exceptions into the bookable windows of a day.
type Resolver struct {
	rules RuleRepository
}

func NewResolver(rules RuleRepository) *Resolver {
	return &Resolver{rules: rules}
}

// ResolveDayWindows returns the ordered windows of professionalID on date.
//
// A blocking exception gives no windows. An available exception with override
// times replaces the weekly rules with that single window. Otherwise the active
// rules for the weekday are used; touching or overlapping rules are merged,
// separate blocks stay separate. No rules is an empty result, not an error.
func (r *Resolver) ResolveDayWindows(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error) {
	exc, err := r.rules.GetException(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		if !exc.IsAvailable {
			return []timegrid.Interval{}, nil
		}
		if exc.HasOverride() {
			w, err := exc.Override()
			if err != nil {
				return nil, err
			}
			return []timegrid.Interval{w}, nil
		}
	}

	rules, err := r.rules.ListActiveRules(ctx, professionalID, date.Weekday())
	if err != nil {
		return nil, err
	}

	windows := make([]timegrid.Interval, 0, len(rules))
	for _, rule := range rules {
		w, err := rule.Window()
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return mergeContiguous(windows), nil
}

func mergeContiguous(windows []timegrid.Interval) []timegrid.Interval {
	if len(windows) < 2 {
		return windows
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Start == windows[j].Start {
			return windows[i].End < windows[j].End
		}
		return windows[i].Start < windows[j].Start
	})

	merged := make([]timegrid.Interval, 0, len(windows))
	merged = append(merged, windows[0])
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.Start <= last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// Within reports whether candidate fits entirely inside one of windows.
func Within(candidate timegrid.Interval, windows []timegrid.Interval) bool {
	for _, w := range windows {
		if w.Contains(candidate) {
			return true
		}
	}
	return false
}

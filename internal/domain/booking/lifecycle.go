package booking

import (
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no_show"
)

type transition struct {
	from []Status
	to   Status
	// afterStart marks post-appointment actions.
	afterStart bool
}

var transitions = map[Action]transition{
	ActionConfirm:  {from: []Status{StatusPending}, to: StatusConfirmed},
	ActionCancel:   {from: []Status{StatusPending, StatusConfirmed}, to: StatusCancelled},
	ActionComplete: {from: []Status{StatusConfirmed}, to: StatusCompleted, afterStart: true},
	ActionNoShow:   {from: []Status{StatusConfirmed}, to: StatusNoShow, afterStart: true},
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
	}
	return a, nil
}

// NextStatus returns the state reached by applying action to current.
func NextStatus(current Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	if current.Terminal() {
		return "", fmt.Errorf("%w: booking is already %s", ErrInvalidStateTransition, current)
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a %s booking", ErrInvalidStateTransition, action, current)
}

// TransitionInput carries who acts and when.
type TransitionInput struct {
	Actor  string
	Reason string
	Now    time.Time
	// Started is true once the appointment start has passed in tenant time.
	Started bool
}

// Apply mutates b in place. On error b is unchanged.
func Apply(b *Booking, action Action, in TransitionInput) error {
	next, err := NextStatus(b.Status, action)
	if err != nil {
		return err
	}
	if transitions[action].afterStart && !in.Started {
		return fmt.Errorf("%w: cannot %s before the appointment starts", ErrInvalidStateTransition, action)
	}

	b.Status = next
	b.UpdatedAt = in.Now
	if next == StatusCancelled {
		at := in.Now
		b.CancelledAt = &at
		b.CancelledBy = in.Actor
		b.CancellationReason = in.Reason
	}
	return nil
}

// CanReschedule reports whether a booking in s may move to a new time.
func CanReschedule(s Status) bool {
	return !s.Terminal()
}

package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		want   Status
		ok     bool
	}{
		{StatusPending, ActionConfirm, StatusConfirmed, true},
		{StatusPending, ActionCancel, StatusCancelled, true},
		{StatusConfirmed, ActionCancel, StatusCancelled, true},
		{StatusConfirmed, ActionComplete, StatusCompleted, true},
		{StatusConfirmed, ActionNoShow, StatusNoShow, true},
		{StatusConfirmed, ActionConfirm, "", false},
		{StatusPending, ActionComplete, "", false},
		{StatusPending, ActionNoShow, "", false},
		{StatusCancelled, ActionConfirm, "", false},
		{StatusCancelled, ActionCancel, "", false},
		{StatusCompleted, ActionCancel, "", false},
		{StatusNoShow, ActionComplete, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := NextStatus(tt.from, tt.action)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, s.Terminal())
		for action := range transitions {
			_, err := NextStatus(s, action)
			assert.ErrorIs(t, err, ErrInvalidStateTransition, "%s %s", s, action)
		}
	}
	assert.False(t, StatusCancelled.HoldsTime())
	assert.True(t, StatusNoShow.HoldsTime())
}

func TestApplyCancelRecordsWhoAndWhy(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	b := &Booking{Status: StatusConfirmed}

	require.NoError(t, Apply(b, ActionCancel, TransitionInput{Actor: "staff:3", Reason: "sick", Now: now}))
	assert.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, now, *b.CancelledAt)
	assert.Equal(t, "staff:3", b.CancelledBy)
	assert.Equal(t, "sick", b.CancellationReason)
}

func TestApplyPostAppointmentActionsNeedStart(t *testing.T) {
	for _, action := range []Action{ActionComplete, ActionNoShow} {
		b := &Booking{Status: StatusConfirmed}
		err := Apply(b, action, TransitionInput{Now: time.Now()})
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, StatusConfirmed, b.Status, "booking must be unchanged on error")

		require.NoError(t, Apply(b, action, TransitionInput{Now: time.Now(), Started: true}))
		assert.True(t, b.Status.Terminal())
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{
		"confirm":  ActionConfirm,
		" Cancel ": ActionCancel,
		"no-show":  ActionNoShow,
		"no_show":  ActionNoShow,
		"COMPLETE": ActionComplete,
	} {
		got, err := ParseAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseAction("reopen")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanReschedule(t *testing.T) {
	assert.True(t, CanReschedule(StatusPending))
	assert.True(t, CanReschedule(StatusConfirmed))
	assert.False(t, CanReschedule(StatusCancelled))
	assert.False(t, CanReschedule(StatusCompleted))
	assert.False(t, CanReschedule(StatusNoShow))
}

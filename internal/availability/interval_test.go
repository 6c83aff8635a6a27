package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func dt(day, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
}

func TestSubtractIntervalsRemovesBusyTime(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	busy := []BusyInterval{{Start: dt(3, 12, 0), End: dt(3, 13, 0)}}

	result := SubtractIntervals(windows, busy, monday)

	assert.Equal(t, []Window{
		{NewClock(9, 0), NewClock(12, 0)},
		{NewClock(13, 0), NewClock(17, 0)},
	}, result)
}

func TestSubtractIntervalsIgnoresOtherDays(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	busy := []BusyInterval{{Start: dt(4, 12, 0), End: dt(4, 13, 0)}}

	result := SubtractIntervals(windows, busy, monday)

	assert.Equal(t, windows, result)
}

func TestSubtractIntervalsClipsMultiDayBusy(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	// Sunday evening through Monday 10:00.
	busy := []BusyInterval{{Start: dt(2, 22, 0), End: dt(3, 10, 0)}}

	result := SubtractIntervals(windows, busy, monday)

	assert.Equal(t, []Window{{NewClock(10, 0), NewClock(17, 0)}}, result)
}

func TestSubtractIntervalsConsumesWholeWindow(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(10, 0)}}
	busy := []BusyInterval{{Start: dt(3, 8, 0), End: dt(3, 11, 0)}}

	assert.Empty(t, SubtractIntervals(windows, busy, monday))
}

func TestSubtractIntervalsSkipsMalformedBusy(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	busy := []BusyInterval{{Start: dt(3, 13, 0), End: dt(3, 12, 0)}} // inverted

	assert.Equal(t, windows, SubtractIntervals(windows, busy, monday))
}

func TestSubtractIntervalsRoundsBusyEndUp(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	busy := []BusyInterval{{
		Start: dt(3, 12, 0),
		End:   time.Date(2025, 3, 3, 12, 30, 30, 0, time.UTC),
	}}

	result := SubtractIntervals(windows, busy, monday)

	require.Len(t, result, 2)
	assert.Equal(t, Window{NewClock(12, 31), NewClock(17, 0)}, result[1])
}

func TestIntersectWindows(t *testing.T) {
	tests := []struct {
		name string
		a, b []Window
		want []Window
	}{
		{
			name: "contained",
			a:    []Window{{NewClock(9, 0), NewClock(17, 0)}},
			b:    []Window{{NewClock(11, 0), NewClock(15, 0)}},
			want: []Window{{NewClock(11, 0), NewClock(15, 0)}},
		},
		{
			name: "disjoint",
			a:    []Window{{NewClock(9, 0), NewClock(12, 0)}},
			b:    []Window{{NewClock(13, 0), NewClock(17, 0)}},
			want: nil,
		},
		{
			name: "partial",
			a:    []Window{{NewClock(9, 0), NewClock(14, 0)}},
			b:    []Window{{NewClock(11, 0), NewClock(17, 0)}},
			want: []Window{{NewClock(11, 0), NewClock(14, 0)}},
		},
		{
			name: "touching is empty",
			a:    []Window{{NewClock(9, 0), NewClock(12, 0)}},
			b:    []Window{{NewClock(12, 0), NewClock(17, 0)}},
			want: nil,
		},
		{
			name: "sorted by start",
			a: []Window{
				{NewClock(14, 0), NewClock(16, 0)},
				{NewClock(9, 0), NewClock(11, 0)},
			},
			b:    []Window{{NewClock(8, 0), NewClock(18, 0)}},
			want: []Window{{NewClock(9, 0), NewClock(11, 0)}, {NewClock(14, 0), NewClock(16, 0)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntersectWindows(tt.a, tt.b))
		})
	}
}

func TestSplitIntoSlotsStepsEveryGridBoundary(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(11, 0)}}

	slots := SplitIntoSlots(windows, 60, 0, 0)

	assert.Contains(t, slots, NewClock(9, 0))
	assert.Contains(t, slots, NewClock(9, 15))
	assert.Contains(t, slots, NewClock(10, 0))
	assert.NotContains(t, slots, NewClock(10, 15)) // 10:15 + 60min runs past 11:00
}

func TestSplitIntoSlotsRespectsBufferAfter(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(11, 0)}}

	slots := SplitIntoSlots(windows, 60, 0, 15)

	assert.Contains(t, slots, NewClock(9, 0))
	assert.Contains(t, slots, NewClock(9, 45)) // 9:45 + 60 + 15 = 11:00, fits exactly
	assert.NotContains(t, slots, NewClock(10, 0))
}

func TestSplitIntoSlotsRespectsBufferBefore(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(10, 0)}}

	slots := SplitIntoSlots(windows, 30, 15, 0)

	assert.NotContains(t, slots, NewClock(9, 0))
	assert.Contains(t, slots, NewClock(9, 15)) // appointment start after the leading buffer
	assert.Contains(t, slots, NewClock(9, 30)) // 9:15 aligned start + 15 buffer, ends at 10:00
}

func TestSplitIntoSlotsSnapTolerance(t *testing.T) {
	// 9:03 is within the 3-minute tolerance of 9:00 and snaps down.
	near := SplitIntoSlots([]Window{{NewClock(9, 3), NewClock(10, 0)}}, 30, 0, 0)
	assert.Contains(t, near, NewClock(9, 0))

	// 9:21 is past the tolerance for 9:15 and snaps up to 9:30.
	far := SplitIntoSlots([]Window{{NewClock(9, 21), NewClock(17, 0)}}, 30, 0, 0)
	assert.NotContains(t, far, NewClock(9, 15))
	assert.NotContains(t, far, NewClock(9, 21))
	assert.Contains(t, far, NewClock(9, 30))
}

func TestSplitIntoSlotsStaysOnGridWithOddDuration(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(11, 0)}}

	slots := SplitIntoSlots(windows, 20, 0, 0)

	assert.NotContains(t, slots, NewClock(9, 20))
	assert.NotContains(t, slots, NewClock(9, 40))
	for _, s := range slots {
		assert.Zerof(t, int(s)%GridMinutes, "slot %s is off the 15-minute grid", s)
	}
}

func TestSplitIntoSlotsZeroDuration(t *testing.T) {
	windows := []Window{{NewClock(9, 0), NewClock(17, 0)}}
	assert.Empty(t, SplitIntoSlots(windows, 0, 0, 0))
	assert.Empty(t, SplitIntoSlots(windows, -30, 0, 0))
}

package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rule(day int, start, end Clock) WeeklyRule {
	return WeeklyRule{DayOfWeek: day, Start: start, End: end, Active: true}
}

func ruleForType(day int, start, end Clock, typeID int64) WeeklyRule {
	r := rule(day, start, end)
	r.ServiceTypeID = &typeID
	return r
}

func TestBuildFreeWindowsTypeRulesOverrideGlobal(t *testing.T) {
	rules := []WeeklyRule{
		rule(0, NewClock(9, 0), NewClock(17, 0)),
		ruleForType(0, NewClock(10, 0), NewClock(12, 0), 5),
	}

	windows := BuildFreeWindows(monday, rules, nil, nil, 5)

	assert.Equal(t, []Window{{NewClock(10, 0), NewClock(12, 0)}}, windows)
}

func TestBuildFreeWindowsFallsBackToGlobal(t *testing.T) {
	rules := []WeeklyRule{rule(0, NewClock(9, 0), NewClock(17, 0))}

	windows := BuildFreeWindows(monday, rules, nil, nil, 99)

	assert.Equal(t, []Window{{NewClock(9, 0), NewClock(17, 0)}}, windows)
}

func TestBuildFreeWindowsIgnoresOtherTypesRules(t *testing.T) {
	rules := []WeeklyRule{ruleForType(0, NewClock(10, 0), NewClock(12, 0), 7)}

	assert.Empty(t, BuildFreeWindows(monday, rules, nil, nil, 5))
}

func TestBuildFreeWindowsNoRulesNoDay(t *testing.T) {
	assert.Empty(t, BuildFreeWindows(monday, nil, nil, nil, 1))

	tuesdayOnly := []WeeklyRule{rule(1, NewClock(9, 0), NewClock(17, 0))}
	assert.Empty(t, BuildFreeWindows(monday, tuesdayOnly, nil, nil, 1))
}

func TestBuildFreeWindowsSkipsInactiveRules(t *testing.T) {
	r := rule(0, NewClock(9, 0), NewClock(17, 0))
	r.Active = false

	assert.Empty(t, BuildFreeWindows(monday, []WeeklyRule{r}, nil, nil, 1))
}

func TestBuildFreeWindowsSubtractsBlockedThenBusy(t *testing.T) {
	rules := []WeeklyRule{rule(0, NewClock(9, 0), NewClock(17, 0))}
	blocked := []BlockedPeriod{{Start: dt(3, 9, 0), End: dt(3, 10, 0), Reason: "dentist"}}
	busy := []BusyInterval{{Start: dt(3, 12, 0), End: dt(3, 13, 0)}}

	windows := BuildFreeWindows(monday, rules, blocked, busy, 1)

	assert.Equal(t, []Window{
		{NewClock(10, 0), NewClock(12, 0)},
		{NewClock(13, 0), NewClock(17, 0)},
	}, windows)
}

func TestBuildFreeWindowsMultiDayBlock(t *testing.T) {
	rules := []WeeklyRule{rule(0, NewClock(9, 0), NewClock(17, 0))}
	// Vacation covering the whole target date.
	blocked := []BlockedPeriod{{Start: dt(1, 0, 0), End: dt(8, 0, 0)}}

	assert.Empty(t, BuildFreeWindows(monday, rules, blocked, nil, 1))
}

func TestDayOfWeekMondayBased(t *testing.T) {
	assert.Equal(t, 0, DayOfWeek(monday))                      // Monday
	assert.Equal(t, 6, DayOfWeek(monday.AddDate(0, 0, 6)))     // Sunday
	assert.Equal(t, 1, DayOfWeek(monday.AddDate(0, 0, 1)))     // Tuesday
}

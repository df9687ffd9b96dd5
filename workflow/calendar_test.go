package workflow_test

import (
	"testing"
	"time"

	"github.com/attendly/leavecore/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-10 is a Monday; the whole file leans on that week.
var (
	monday    = workflow.NewDate(2025, time.March, 10)
	wednesday = workflow.NewDate(2025, time.March, 12)
	friday    = workflow.NewDate(2025, time.March, 14)
	saturday  = workflow.NewDate(2025, time.March, 15)
	sunday    = workflow.NewDate(2025, time.March, 16)
)

func TestWorkingDays_SingleDay(t *testing.T) {
	// GIVEN: a one-day range
	// THEN: a weekday counts as 1, a weekend day as 0
	assert.Equal(t, 1, workflow.WorkingDays(monday, monday))
	assert.Equal(t, 1, workflow.WorkingDays(friday, friday))
	assert.Equal(t, 0, workflow.WorkingDays(saturday, saturday))
	assert.Equal(t, 0, workflow.WorkingDays(sunday, sunday))
}

func TestWorkingDays_FullWeek(t *testing.T) {
	// Monday through Friday of the same week is exactly 5 working days;
	// extending through the weekend adds nothing.
	assert.Equal(t, 5, workflow.WorkingDays(monday, friday))
	assert.Equal(t, 5, workflow.WorkingDays(monday, sunday))
	assert.Equal(t, 0, workflow.WorkingDays(saturday, sunday))
}

func TestWorkingDays_SpansWeekend(t *testing.T) {
	// Monday to the next Tuesday crosses one weekend: 5 + 2 = 7.
	nextTuesday := workflow.NewDate(2025, time.March, 18)
	assert.Equal(t, 7, workflow.WorkingDays(monday, nextTuesday))
}

func TestWorkingDays_InvertedOrInvalidRange(t *testing.T) {
	// GIVEN: start after end, or a zero date on either side
	// THEN: the count is 0, never negative
	assert.Equal(t, 0, workflow.WorkingDays(friday, monday))
	assert.Equal(t, 0, workflow.WorkingDays(workflow.Date{}, friday))
	assert.Equal(t, 0, workflow.WorkingDays(monday, workflow.Date{}))
}

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := workflow.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.True(t, d.Equal(monday))
	assert.Equal(t, "2025-03-10", d.String())

	_, err = workflow.ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestDate_CalendarSemantics(t *testing.T) {
	// Two instants on the same local day collapse to the same Date, so
	// working-day math is timezone independent.
	early := time.Date(2025, time.March, 10, 0, 30, 0, 0, time.UTC)
	late := time.Date(2025, time.March, 10, 23, 30, 0, 0, time.UTC)
	assert.True(t, workflow.DateOf(early).Equal(workflow.DateOf(late)))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	b, err := monday.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10"`, string(b))

	var d workflow.Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2025-03-10"`)))
	assert.True(t, d.Equal(monday))

	// Some backend fields arrive as full timestamps.
	require.NoError(t, d.UnmarshalJSON([]byte(`"2025-03-10T00:00:00Z"`)))
	assert.True(t, d.Equal(monday))
}

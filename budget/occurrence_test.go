package budget_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func item(freq budget.Frequency, start string, end string) budget.BudgetItem {
	it := budget.BudgetItem{
		ID:        "item-1",
		ProfileID: "profile-1",
		Name:      "Test item",
		Amount:    decimal.NewFromInt(100),
		Frequency: freq,
	}
	var err error
	it.StartDate, err = budget.ParseDate(start)
	if err != nil {
		panic(err)
	}
	if end != "" {
		d, err := budget.ParseDate(end)
		if err != nil {
			panic(err)
		}
		it.EndDate = &d
	}
	return it
}

func dateStrings(dates []budget.Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

// =============================================================================
// ONE-TIME
// =============================================================================

func TestOccurrences_OneTime(t *testing.T) {
	it := item(budget.FreqOneTime, "2024-03-15", "")

	// GIVEN a one-time item, WHEN expanding its own month,
	// THEN exactly the start date appears
	dates, err := budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-15"}, dateStrings(dates))

	// Any other month is empty
	dates, err = budget.OccurrencesInMonth(it, 2024, time.April)
	require.NoError(t, err)
	assert.Empty(t, dates)

	dates, err = budget.OccurrencesInMonth(it, 2025, time.March)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

// =============================================================================
// MONTHLY
// =============================================================================

func TestOccurrences_Monthly_ClampsToMonthLength(t *testing.T) {
	// GIVEN a monthly item starting Jan 31
	it := item(budget.FreqMonthly, "2024-01-31", "")

	// WHEN expanding February of a leap year
	dates, err := budget.OccurrencesInMonth(it, 2024, time.February)
	require.NoError(t, err)

	// THEN the day is clamped to Feb 29
	assert.Equal(t, []string{"2024-02-29"}, dateStrings(dates))

	// Non-leap February clamps to the 28th
	dates, err = budget.OccurrencesInMonth(it, 2023, time.February)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-02-28"}, dateStrings(dates))

	// Months long enough keep the original day
	dates, err = budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-31"}, dateStrings(dates))
}

func TestOccurrences_Monthly_FirstPartialMonth(t *testing.T) {
	// GIVEN a monthly item starting on the 20th
	it := item(budget.FreqMonthly, "2024-01-20", "")

	// WHEN expanding the start month
	dates, err := budget.OccurrencesInMonth(it, 2024, time.January)
	require.NoError(t, err)

	// THEN the occurrence is the start date itself, not an earlier day
	assert.Equal(t, []string{"2024-01-20"}, dateStrings(dates))
}

// =============================================================================
// WEEKLY / BI-WEEKLY
// =============================================================================

func TestOccurrences_Weekly(t *testing.T) {
	// GIVEN a weekly item starting Fri 2024-03-01
	it := item(budget.FreqWeekly, "2024-03-01", "")

	// WHEN expanding March 2024
	dates, err := budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)

	// THEN all five Fridays appear, in order
	assert.Equal(t, []string{
		"2024-03-01", "2024-03-08", "2024-03-15", "2024-03-22", "2024-03-29",
	}, dateStrings(dates))
}

func TestOccurrences_Weekly_FastForwardFromDistantStart(t *testing.T) {
	// GIVEN a weekly item that started years before the target month
	it := item(budget.FreqWeekly, "2020-01-06", "")

	// WHEN expanding a month far in the future
	dates, err := budget.OccurrencesInMonth(it, 2024, time.June)
	require.NoError(t, err)

	// THEN the phase is preserved: 2020-01-06 was a Monday, so every
	// occurrence lands on a Monday of June 2024
	assert.Equal(t, []string{
		"2024-06-03", "2024-06-10", "2024-06-17", "2024-06-24",
	}, dateStrings(dates))
	for _, d := range dates {
		assert.Equal(t, time.Monday, d.Time.Weekday())
	}
}

func TestOccurrences_BiWeekly_KeepsPhase(t *testing.T) {
	// GIVEN a bi-weekly item starting Mon 2024-01-01
	it := item(budget.FreqBiWeekly, "2024-01-01", "")

	// WHEN expanding February 2024
	dates, err := budget.OccurrencesInMonth(it, 2024, time.February)
	require.NoError(t, err)

	// THEN occurrences stay on the 14-day grid anchored at the start
	// (Jan 1, 15, 29 -> Feb 12, 26)
	assert.Equal(t, []string{"2024-02-12", "2024-02-26"}, dateStrings(dates))
}

func TestOccurrences_Weekly_StartMidMonth(t *testing.T) {
	// GIVEN a weekly item starting mid-month
	it := item(budget.FreqWeekly, "2024-03-20", "")

	// WHEN expanding the start month
	dates, err := budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)

	// THEN nothing before the start date is emitted
	assert.Equal(t, []string{"2024-03-20", "2024-03-27"}, dateStrings(dates))
}

// =============================================================================
// QUARTERLY / YEARLY
// =============================================================================

func TestOccurrences_Quarterly(t *testing.T) {
	it := item(budget.FreqQuarterly, "2024-01-15", "")

	cases := []struct {
		year  int
		month time.Month
		want  []string
	}{
		{2024, time.January, []string{"2024-01-15"}},
		{2024, time.February, nil},
		{2024, time.March, nil},
		{2024, time.April, []string{"2024-04-15"}},
		{2024, time.July, []string{"2024-07-15"}},
		{2024, time.October, []string{"2024-10-15"}},
		{2025, time.January, []string{"2025-01-15"}},
	}
	for _, tc := range cases {
		dates, err := budget.OccurrencesInMonth(it, tc.year, tc.month)
		require.NoError(t, err)
		assert.Equal(t, tc.want, func() []string {
			if len(dates) == 0 {
				return nil
			}
			return dateStrings(dates)
		}(), "%d-%02d", tc.year, tc.month)
	}
}

func TestOccurrences_Quarterly_ClampsDay(t *testing.T) {
	// GIVEN a quarterly item anchored on the 30th of November
	it := item(budget.FreqQuarterly, "2023-11-30", "")

	// WHEN the quarter lands on a short February
	dates, err := budget.OccurrencesInMonth(it, 2025, time.February)
	require.NoError(t, err)

	// THEN the day clamps (Nov 2023 -> Feb, May, Aug, Nov ... Feb 2025)
	assert.Equal(t, []string{"2025-02-28"}, dateStrings(dates))
}

func TestOccurrences_Yearly(t *testing.T) {
	it := item(budget.FreqYearly, "2022-06-10", "")

	dates, err := budget.OccurrencesInMonth(it, 2024, time.June)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-10"}, dateStrings(dates))

	// Wrong month: nothing
	dates, err = budget.OccurrencesInMonth(it, 2024, time.July)
	require.NoError(t, err)
	assert.Empty(t, dates)

	// Year before the rule started: nothing
	dates, err = budget.OccurrencesInMonth(it, 2021, time.June)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestOccurrences_Yearly_LeapAnniversary(t *testing.T) {
	// GIVEN a yearly item anchored on Feb 29
	it := item(budget.FreqYearly, "2024-02-29", "")

	// WHEN expanding a non-leap year
	dates, err := budget.OccurrencesInMonth(it, 2025, time.February)
	require.NoError(t, err)

	// THEN the anniversary clamps to Feb 28
	assert.Equal(t, []string{"2025-02-28"}, dateStrings(dates))
}

// =============================================================================
// VALIDITY WINDOW
// =============================================================================

func TestOccurrences_BeforeStart_Empty(t *testing.T) {
	it := item(budget.FreqMonthly, "2024-05-01", "")

	dates, err := budget.OccurrencesInMonth(it, 2024, time.April)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestOccurrences_AfterEnd_Empty(t *testing.T) {
	it := item(budget.FreqMonthly, "2024-01-01", "2024-03-31")

	dates, err := budget.OccurrencesInMonth(it, 2024, time.April)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestOccurrences_EndDate_FiltersWithinMonth(t *testing.T) {
	// GIVEN a weekly item ending mid-month
	it := item(budget.FreqWeekly, "2024-03-01", "2024-03-16")

	// WHEN expanding March
	dates, err := budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)

	// THEN occurrences after the (inclusive) end date are dropped
	assert.Equal(t, []string{"2024-03-01", "2024-03-08", "2024-03-15"}, dateStrings(dates))
}

func TestOccurrences_EndDate_Inclusive(t *testing.T) {
	// An occurrence landing exactly on the end date survives
	it := item(budget.FreqWeekly, "2024-03-01", "2024-03-08")

	dates, err := budget.OccurrencesInMonth(it, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-08"}, dateStrings(dates))
}

// =============================================================================
// UNKNOWN FREQUENCY
// =============================================================================

func TestOccurrences_UnknownFrequency_Errors(t *testing.T) {
	it := item(budget.FreqMonthly, "2024-01-01", "")
	it.Frequency = "fortnightly"

	_, err := budget.OccurrencesInMonth(it, 2024, time.January)
	require.Error(t, err)
	assert.ErrorIs(t, err, budget.ErrUnknownFrequency)
}

/*
occurrence.go - Rule expansion for a target month

PURPOSE:
  Expands one budget item into the concrete calendar dates on which it
  is due within a requested (year, month). This is half of the core:
  reconciliation (engine.go) merges these dates with the ledger.

DESIGN:
  Each frequency is handled as an independent closed-form or
  bounded-iteration rule rather than a generic cron-like evaluator.
  That keeps every call O(1) or O(occurrences-in-month) regardless of
  how long ago the rule started - the calculator runs once per item
  per month view.

  Weekly/bi-weekly stepping fast-forwards the cursor by whole periods
  to just before the month start, so a rule that began years ago does
  not iterate through every intervening week.

SEE ALSO:
  - calendar.go: MonthStart/MonthEnd/ClampDayOfMonth
  - engine.go: Consumes these dates during reconciliation
*/
package budget

import (
	"fmt"
	"time"
)

// OccurrencesInMonth returns the ordered dates on which the item is due
// within the given month. Pure function of its inputs: no store access,
// no hidden state. Zero to ~5 dates for weekly/bi-weekly cadences, at
// most one for the rest.
//
// An unknown frequency is reported as an error, never silently skipped.
func OccurrencesInMonth(item BudgetItem, year int, month time.Month) ([]Date, error) {
	start := MonthStart(year, month)
	end := MonthEnd(year, month)

	// Rule not yet started by the end of the target month.
	if item.StartDate.After(end) {
		return nil, nil
	}
	// Rule expired before the target month began.
	if item.EndDate != nil && item.EndDate.Before(start) {
		return nil, nil
	}

	var dates []Date

	switch item.Frequency {
	case FreqOneTime:
		// Occurs only in the exact month of the start date.
		if item.StartDate.Year() == year && item.StartDate.Month() == month {
			dates = append(dates, item.StartDate)
		}

	case FreqMonthly:
		// Same day each month, clamped to the month's length. The >=
		// guard handles the rule's first partial month (a rule starting
		// Jan 20 must not emit Jan 5).
		day := ClampDayOfMonth(item.StartDate.Day(), year, month)
		occ := NewDate(year, month, day)
		if !occ.Before(item.StartDate) {
			dates = append(dates, occ)
		}

	case FreqWeekly:
		dates = steppedOccurrences(item.StartDate, 7, start, end)

	case FreqBiWeekly:
		dates = steppedOccurrences(item.StartDate, 14, start, end)

	case FreqQuarterly:
		// Due when the target month is a whole number of quarters after
		// the start month.
		diff := monthIndex(year, month) - monthIndex(item.StartDate.Year(), item.StartDate.Month())
		if diff >= 0 && diff%3 == 0 {
			day := ClampDayOfMonth(item.StartDate.Day(), year, month)
			dates = append(dates, NewDate(year, month, day))
		}

	case FreqYearly:
		// Same month and (clamped) day each year.
		if month == item.StartDate.Month() && year >= item.StartDate.Year() {
			day := ClampDayOfMonth(item.StartDate.Day(), year, month)
			dates = append(dates, NewDate(year, month, day))
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, item.Frequency)
	}

	// Drop occurrences past the rule's end date.
	if item.EndDate != nil {
		filtered := dates[:0]
		for _, d := range dates {
			if !d.After(*item.EndDate) {
				filtered = append(filtered, d)
			}
		}
		dates = filtered
	}

	return dates, nil
}

// steppedOccurrences emits every startDate + k*periodDays (k >= 0) that
// falls within [monthStart, monthEnd]. The cursor is fast-forwarded by
// whole periods to the last step at or before monthStart, so iteration
// cost does not grow with the rule's age.
func steppedOccurrences(startDate Date, periodDays int, monthStart, monthEnd Date) []Date {
	cursor := startDate
	if cursor.Before(monthStart) {
		periodsBehind := DaysBetween(cursor, monthStart) / periodDays
		cursor = cursor.AddDays(periodsBehind * periodDays)
	}

	var dates []Date
	for !cursor.After(monthEnd) {
		if !cursor.Before(monthStart) && !cursor.Before(startDate) {
			dates = append(dates, cursor)
		}
		cursor = cursor.AddDays(periodDays)
	}
	return dates
}

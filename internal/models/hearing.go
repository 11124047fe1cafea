package models

import (
	"sort"
	"time"
)

// UpcomingWindowDays is how far ahead the upcoming hearings view looks.
const UpcomingWindowDays = 10

// DeriveHearingDates computes the last and next hearing dates of a case
// relative to today. Hearings dated today count as held.
func DeriveHearingDates(events []HearingEvent, today time.Time) (last, next *time.Time) {
	today = DateOnly(today)
	for i := range events {
		d := DateOnly(events[i].HearingDate)
		if !d.After(today) {
			if last == nil || d.After(*last) {
				last = &d
			}
			continue
		}
		if next == nil || d.Before(*next) {
			next = &d
		}
	}
	return last, next
}

// SortHearings orders events chronologically, ties broken by insertion order.
// Event IDs are monotonic, so comparing them gives insertion order.
func SortHearings(events []HearingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		di, dj := DateOnly(events[i].HearingDate), DateOnly(events[j].HearingDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return events[i].ID < events[j].ID
	})
}

// UpcomingWindow returns the exclusive start and inclusive end of the upcoming hearings window.
func UpcomingWindow(today time.Time) (after, until time.Time) {
	after = DateOnly(today)
	return after, after.AddDate(0, 0, UpcomingWindowDays)
}

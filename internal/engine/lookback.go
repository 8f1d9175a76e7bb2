package engine

import "time"

// GetMondayNineAM returns the most recent Monday at 9am local time. If today
// is Monday before 9am, it returns last Monday's 9am instead.
func GetMondayNineAM() time.Time {
	now := time.Now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	daysUntilMonday := weekday - 1

	monday := now.AddDate(0, 0, -daysUntilMonday)
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 9, 0, 0, 0, monday.Location())

	if monday.After(now) {
		monday = monday.AddDate(0, 0, -7)
	}

	return monday
}

package domain

import "time"

// SlotDuration is the fixed length of every appointment.
const SlotDuration = time.Hour

// SlotEnd returns the end of the slot that begins at start.
func SlotEnd(start time.Time) time.Time {
	return start.Add(SlotDuration)
}

// SlotsOverlap reports whether the closed slots [a, a+1h] and [b, b+1h]
// intersect. Touching slots overlap, so back-to-back bookings are refused.
func SlotsOverlap(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= SlotDuration
}

// ConflictWindow returns the inclusive range of start times whose slots
// overlap the slot beginning at start.
func ConflictWindow(start time.Time) (time.Time, time.Time) {
	return start.Add(-SlotDuration), start.Add(SlotDuration)
}

// SameDay reports whether t falls on the UTC calendar day of day.
func SameDay(t, day time.Time) bool {
	ty, tm, td := t.UTC().Date()
	dy, dm, dd := day.UTC().Date()
	return ty == dy && tm == dm && td == dd
}

// DayBounds returns the half-open UTC range [00:00, next 00:00) of day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

package progression

import "time"

// StreakResult is the outcome of advancing the daily streak for one review.
type StreakResult struct {
	Streak int
	Active bool
}

// AdvanceStreak computes the learner's daily streak given the date of the
// previous review and the current time. Day comparison uses UTC calendar
// dates throughout, so streaks do not break or double near local midnight.
func AdvanceStreak(lastReview *time.Time, currentStreak int, now time.Time) StreakResult {
	if lastReview == nil {
		// First ever review starts a streak of one.
		return StreakResult{Streak: 1, Active: true}
	}

	last := utcDate(*lastReview)
	today := utcDate(now)

	switch {
	case last.Equal(today):
		// Repeat review on the same day: no increment.
		return StreakResult{Streak: currentStreak, Active: currentStreak > 0}
	case last.AddDate(0, 0, 1).Equal(today):
		return StreakResult{Streak: currentStreak + 1, Active: true}
	default:
		// A gap of two or more days, or a clock that went backwards:
		// the streak restarts at one and today counts toward it.
		return StreakResult{Streak: 1, Active: true}
	}
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return utcDate(a).Equal(utcDate(b))
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package models

import "time"

// UserProgress is the per-learner progression record: cumulative XP, level,
// streaks and review counters. Created lazily on the first review.
type UserProgress struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	TotalXP        int        `json:"total_xp" db:"total_xp"`
	Level          int        `json:"level" db:"level"` // cached; recomputed from TotalXP on every write
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastReviewDate *time.Time `json:"last_review_date" db:"last_review_date"`
	TotalReviews   int        `json:"total_reviews" db:"total_reviews"`
	TotalCorrect   int        `json:"total_correct" db:"total_correct"`
	DailyProgress  int        `json:"daily_progress" db:"daily_progress"` // reviews done today
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

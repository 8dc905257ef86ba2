package models

import "time"

// ReviewEvent is the append-only history record for one submitted review.
// Written for analytics; never read back by the scheduler.
type ReviewEvent struct {
	ID         string    `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	Quality    int       `json:"quality" db:"quality"`
	EaseFactor float64   `json:"ease_factor" db:"ease_factor"` // resulting value
	Interval   int       `json:"interval" db:"interval_days"`  // resulting value
	XPEarned   int       `json:"xp_earned" db:"xp_earned"`
	ReviewedAt time.Time `json:"reviewed_at" db:"reviewed_at"`
}

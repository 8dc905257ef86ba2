package models

import "time"

// ItemState is the coarse lifecycle classification of a learning item,
// derived from its repetition count.
type ItemState string

const (
	StateNew      ItemState = "new"
	StateLearning ItemState = "learning"
	StateReview   ItemState = "review"
	StateLearned  ItemState = "learned"
)

// Rank orders states for due-queue sorting: new items always come first.
func (s ItemState) Rank() int {
	switch s {
	case StateNew:
		return 0
	case StateLearning:
		return 1
	case StateReview:
		return 2
	case StateLearned:
		return 3
	default:
		return 4
	}
}

// LearningItem is one reviewable card owned by a learner.
type LearningItem struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	Front          string     `json:"front" db:"front"`
	Back           string     `json:"back" db:"back"`
	Deck           string     `json:"deck" db:"deck"`
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`   // never below 1.3, starts at 2.5
	Interval       int        `json:"interval" db:"interval_days"`    // days until the next review
	Repetitions    int        `json:"repetitions" db:"repetitions"`   // consecutive successful recalls
	State          ItemState  `json:"state" db:"state"`
	LastReviewed   *time.Time `json:"last_reviewed" db:"last_reviewed"`
	NextReview     *time.Time `json:"next_review" db:"next_review"`
	CorrectCount   int        `json:"correct_count" db:"correct_count"`     // display only
	IncorrectCount int        `json:"incorrect_count" db:"incorrect_count"` // display only
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

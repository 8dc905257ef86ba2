package srs

import (
	"math"
	"sort"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Quality is the learner's self-assessed recall rating for one review.
type Quality int

const (
	// QualityAgain means the answer was not recalled at all.
	QualityAgain Quality = 0
	// QualityHard means the answer was recalled with serious difficulty.
	QualityHard Quality = 1
	// QualityGood means the answer was recalled correctly.
	QualityGood Quality = 2
	// QualityEasy means the answer was recalled instantly.
	QualityEasy Quality = 3
)

// Valid reports whether q is one of the four defined ratings.
func (q Quality) Valid() bool {
	return q >= QualityAgain && q <= QualityEasy
}

// IsCorrect reports whether the rating counts as a successful recall.
func (q Quality) IsCorrect() bool {
	return q >= QualityGood
}

func (q Quality) String() string {
	switch q {
	case QualityAgain:
		return "again"
	case QualityHard:
		return "hard"
	case QualityGood:
		return "good"
	case QualityEasy:
		return "easy"
	default:
		return "unknown"
	}
}

const (
	// InitialEaseFactor is the ease factor assigned to new items.
	InitialEaseFactor = 2.5
	// MinEaseFactor is the floor the ease factor is clamped to.
	MinEaseFactor = 1.3

	easyIntervalBonus = 1.3
	againEasePenalty  = 0.2
	hardEasePenalty   = 0.15
)

// SM2 schedules reviews with a four-rating variant of the SuperMemo-2
// algorithm.
type SM2 struct {
	// MinEase is the ease factor floor.
	MinEase float64
	// LearnedThreshold is the repetition count at which an item is
	// considered learned.
	LearnedThreshold int
}

// NewSM2 creates a scheduler with the default settings.
func NewSM2() *SM2 {
	return &SM2{
		MinEase:          MinEaseFactor,
		LearnedThreshold: 5,
	}
}

// Result is the scheduling state produced by one review.
type Result struct {
	EaseFactor  float64
	Interval    int
	Repetitions int
	State       models.ItemState
	NextReview  time.Time
}

// Schedule computes the next scheduling state for an item given the quality
// of the response. It is a pure function of the item's current
// {easeFactor, interval, repetitions} and never fails for a valid rating.
func (s *SM2) Schedule(item *models.LearningItem, quality Quality, now time.Time) Result {
	ease := item.EaseFactor
	interval := item.Interval
	reps := item.Repetitions
	var state models.ItemState

	if quality.IsCorrect() {
		reps++
		switch reps {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = round(float64(interval) * ease)
		}

		// Quality-weighted ease adjustment: EASY carries weight 3,
		// GOOD weight 2. GOOD leaves the ease factor unchanged.
		w := 2.0
		if quality == QualityEasy {
			w = 3.0
		}
		ease += 0.1 - (3-w)*(0.08+(3-w)*0.02)
		if ease < s.MinEase {
			ease = s.MinEase
		}

		if quality == QualityEasy {
			interval = round(float64(interval) * easyIntervalBonus)
		}

		if reps >= s.LearnedThreshold {
			state = models.StateLearned
		} else {
			state = models.StateReview
		}
	} else if quality == QualityAgain {
		// Full reset.
		reps = 0
		interval = 1
		ease -= againEasePenalty
		if ease < s.MinEase {
			ease = s.MinEase
		}
		state = models.StateLearning
	} else {
		// HARD was still answered, so it keeps a foothold: one
		// repetition and half the interval rather than a full reset.
		reps = 1
		interval = round(float64(interval) * 0.5)
		if interval < 1 {
			interval = 1
		}
		ease -= hardEasePenalty
		if ease < s.MinEase {
			ease = s.MinEase
		}
		state = models.StateLearning
	}

	return Result{
		EaseFactor:  ease,
		Interval:    interval,
		Repetitions: reps,
		State:       state,
		// Whole calendar days, not 24h blocks, so the schedule stays
		// stable across DST boundaries.
		NextReview: now.AddDate(0, 0, interval),
	}
}

// round is round-half-away-from-zero. Truncation would drift the interval
// sequence, so every compounding step must go through this.
func round(v float64) int {
	return int(math.Round(v))
}

// SortDue orders due items for presentation: new items first, then soonest
// next review, then lowest ease factor (hardest) as the tie-break.
func SortDue(items []models.LearningItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.State.Rank() != b.State.Rank() {
			return a.State.Rank() < b.State.Rank()
		}
		switch {
		case a.NextReview == nil && b.NextReview != nil:
			return true
		case a.NextReview != nil && b.NextReview == nil:
			return false
		case a.NextReview != nil && b.NextReview != nil:
			if !a.NextReview.Equal(*b.NextReview) {
				return a.NextReview.Before(*b.NextReview)
			}
		}
		return a.EaseFactor < b.EaseFactor
	})
}

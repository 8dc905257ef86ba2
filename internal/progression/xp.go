package progression

import (
	"math"

	"github.com/example/recallbot/internal/srs"
	"github.com/example/recallbot/pkg/models"
)

// Base XP awards by quality.
const (
	xpAgain = 1
	xpHard  = 5
	xpGood  = 10
	xpEasy  = 15
)

// Additive bonuses; several may apply to a single review.
const (
	streakBonus       = 5  // streak active and the recall succeeded
	firstSuccessBonus = 10 // first success on a new item
	sustainedBonus    = 2  // success on an item already in review
)

// XPForReview computes the XP earned by a single review. priorState is the
// item's coarse state before the review was applied.
func XPForReview(quality srs.Quality, streakActive bool, priorState models.ItemState) int {
	var xp int
	switch quality {
	case srs.QualityAgain:
		xp = xpAgain
	case srs.QualityHard:
		xp = xpHard
	case srs.QualityGood:
		xp = xpGood
	case srs.QualityEasy:
		xp = xpEasy
	}

	if quality.IsCorrect() {
		if streakActive {
			xp += streakBonus
		}
		if priorState == models.StateNew {
			xp += firstSuccessBonus
		}
		if priorState == models.StateReview {
			xp += sustainedBonus
		}
	}
	return xp
}

// LevelProgress describes where a learner sits inside the current level.
type LevelProgress struct {
	Level      int `json:"level"`
	Current    int `json:"current"`    // XP earned inside this level
	Needed     int `json:"needed"`     // XP span of this level
	Percentage int `json:"percentage"` // 0..100
}

// LevelForXP derives the level from cumulative XP:
// level = floor(sqrt(totalXP/100)) + 1.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Sqrt(float64(totalXP)/100.0)) + 1
}

// ComputeLevelProgress recomputes the level and intra-level progress from
// cumulative XP. Callers must not cache the result across XP changes.
func ComputeLevelProgress(totalXP int) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelForXP(totalXP)
	floor := (level - 1) * (level - 1) * 100
	ceil := level * level * 100
	current := totalXP - floor
	needed := ceil - floor
	return LevelProgress{
		Level:      level,
		Current:    current,
		Needed:     needed,
		Percentage: int(math.Round(100 * float64(current) / float64(needed))),
	}
}

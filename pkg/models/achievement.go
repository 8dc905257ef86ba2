package models

import "time"

// Achievement is one rule from the immutable achievement catalog. The key
// prefix names the metric it tests (reviews_, streak_, level_, xp_) and
// Requirement is the threshold the metric must reach.
type Achievement struct {
	Key         string `json:"key" db:"key"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Requirement int    `json:"requirement" db:"requirement"`
	XPReward    int    `json:"xp_reward" db:"xp_reward"`
}

// EarnedAchievement records that a learner unlocked a catalog rule.
// At most one row per (user, key); earning is permanent.
type EarnedAchievement struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	AchievementKey string    `json:"achievement_key" db:"achievement_key"`
	UnlockedAt     time.Time `json:"unlocked_at" db:"unlocked_at"`
}

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallbot/pkg/models"
)

// AchievementRepository handles the read-only achievement catalog and the
// per-learner earned rows.
type AchievementRepository struct{}

// NewAchievementRepository creates a new repository instance.
func NewAchievementRepository() *AchievementRepository {
	return &AchievementRepository{}
}

// Catalog returns every rule in the achievement catalog.
func (r *AchievementRepository) Catalog(ctx context.Context) ([]models.Achievement, error) {
	var catalog []models.Achievement
	err := DB.SelectContext(ctx, &catalog,
		"SELECT * FROM achievements ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement catalog: %w", err)
	}
	return catalog, nil
}

// EarnedKeysForUser returns the set of rule keys the learner has unlocked.
func (r *AchievementRepository) EarnedKeysForUser(ctx context.Context, userID int64) (map[string]bool, error) {
	var keys []string
	err := DB.SelectContext(ctx, &keys,
		"SELECT achievement_key FROM user_achievements WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}
	earned := make(map[string]bool, len(keys))
	for _, k := range keys {
		earned[k] = true
	}
	return earned, nil
}

// EarnedForUser returns the learner's unlocked achievements joined with
// their catalog rules, newest first.
func (r *AchievementRepository) EarnedForUser(ctx context.Context, userID int64) ([]models.Achievement, error) {
	var earned []models.Achievement
	err := DB.SelectContext(ctx, &earned, `
		SELECT a.key, a.name, a.description, a.requirement, a.xp_reward
		FROM user_achievements ua
		JOIN achievements a ON a.key = ua.achievement_key
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}
	return earned, nil
}

// InsertEarned records one unlocked achievement inside the given executor.
// The UNIQUE(user_id, achievement_key) constraint keeps earning idempotent
// at the storage level too.
func (r *AchievementRepository) InsertEarned(ctx context.Context, q sqlx.ExtContext, ea *models.EarnedAchievement) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_key, unlocked_at)
		VALUES ($1, $2, $3)
	`, ea.UserID, ea.AchievementKey, ea.UnlockedAt)
	if err != nil {
		return fmt.Errorf("failed to insert earned achievement %s: %w", ea.AchievementKey, err)
	}
	return nil
}

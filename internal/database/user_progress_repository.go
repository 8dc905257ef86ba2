package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallbot/pkg/models"
)

// UserProgressRepository handles database operations for per-learner
// progression records.
type UserProgressRepository struct{}

// NewUserProgressRepository creates a new repository instance.
func NewUserProgressRepository() *UserProgressRepository {
	return &UserProgressRepository{}
}

// GetByUser returns the learner's progress record, or a fresh zeroed record
// (ID 0, not yet persisted) if none exists. The row itself is only created
// by the first review's transaction.
func (r *UserProgressRepository) GetByUser(ctx context.Context, userID int64) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := DB.GetContext(ctx, &progress,
		"SELECT * FROM user_progress WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserProgress{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return &progress, nil
}

// Save inserts or updates the progress record inside the given executor.
func (r *UserProgressRepository) Save(ctx context.Context, q sqlx.ExtContext, progress *models.UserProgress) error {
	if progress.ID == 0 {
		_, err := q.ExecContext(ctx, `
			INSERT INTO user_progress (
				user_id, total_xp, level, current_streak, longest_streak,
				last_review_date, total_reviews, total_correct, daily_progress
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, progress.UserID, progress.TotalXP, progress.Level, progress.CurrentStreak,
			progress.LongestStreak, progress.LastReviewDate, progress.TotalReviews,
			progress.TotalCorrect, progress.DailyProgress)
		if err != nil {
			return fmt.Errorf("failed to create user progress: %w", err)
		}
		return nil
	}

	_, err := q.ExecContext(ctx, `
		UPDATE user_progress SET
			total_xp = $1,
			level = $2,
			current_streak = $3,
			longest_streak = $4,
			last_review_date = $5,
			total_reviews = $6,
			total_correct = $7,
			daily_progress = $8,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
	`, progress.TotalXP, progress.Level, progress.CurrentStreak, progress.LongestStreak,
		progress.LastReviewDate, progress.TotalReviews, progress.TotalCorrect,
		progress.DailyProgress, progress.ID)
	if err != nil {
		return fmt.Errorf("failed to update user progress: %w", err)
	}
	return nil
}

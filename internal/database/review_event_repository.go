package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallbot/pkg/models"
)

// ReviewEventRepository handles the append-only review history.
type ReviewEventRepository struct{}

// NewReviewEventRepository creates a new repository instance.
func NewReviewEventRepository() *ReviewEventRepository {
	return &ReviewEventRepository{}
}

// Insert appends one review event inside the given executor.
func (r *ReviewEventRepository) Insert(ctx context.Context, q sqlx.ExtContext, event *models.ReviewEvent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO review_events (id, user_id, item_id, quality, ease_factor, interval_days, xp_earned, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.UserID, event.ItemID, event.Quality, event.EaseFactor,
		event.Interval, event.XPEarned, event.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review event: %w", err)
	}
	return nil
}

// RecentForUser returns the learner's latest review events, newest first.
func (r *ReviewEventRepository) RecentForUser(ctx context.Context, userID int64, limit int) ([]models.ReviewEvent, error) {
	var events []models.ReviewEvent
	err := DB.SelectContext(ctx, &events, `
		SELECT * FROM review_events
		WHERE user_id = $1
		ORDER BY reviewed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review events: %w", err)
	}
	return events, nil
}

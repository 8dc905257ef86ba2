package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallbot/pkg/models"
)

// ItemRepository handles database operations for learning items.
type ItemRepository struct{}

// NewItemRepository creates a new repository instance.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

// GetByIDForUser returns the item only if it belongs to the user. A missing
// row surfaces as sql.ErrNoRows for the caller to translate.
func (r *ItemRepository) GetByIDForUser(ctx context.Context, userID, itemID int64) (*models.LearningItem, error) {
	var item models.LearningItem
	err := DB.GetContext(ctx, &item,
		"SELECT * FROM learning_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByFront returns an item by its unique (user, deck, front) key.
func (r *ItemRepository) GetByFront(ctx context.Context, userID int64, deck, front string) (*models.LearningItem, error) {
	var item models.LearningItem
	err := DB.GetContext(ctx, &item,
		"SELECT * FROM learning_items WHERE user_id = $1 AND deck = $2 AND front = $3", userID, deck, front)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetDueForUser returns items due at or before now, plus items never
// scheduled. Ordering is left to the caller.
func (r *ItemRepository) GetDueForUser(ctx context.Context, userID int64, deck string, newOnly bool, now time.Time) ([]models.LearningItem, error) {
	query := `
		SELECT * FROM learning_items
		WHERE user_id = $1
		  AND (next_review IS NULL OR next_review <= $2)
		  AND ($3 = '' OR deck = $3)
	`
	if newOnly {
		query += " AND state = 'new'"
	}
	var items []models.LearningItem
	if err := DB.SelectContext(ctx, &items, query, userID, now, deck); err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	return items, nil
}

// CountDueForUser returns the number of items due at or before now.
func (r *ItemRepository) CountDueForUser(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int
	err := DB.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM learning_items
		WHERE user_id = $1 AND (next_review IS NULL OR next_review <= $2)
	`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return count, nil
}

// UserIDsWithDue returns the learners who have at least one due item.
func (r *ItemRepository) UserIDsWithDue(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := DB.SelectContext(ctx, &ids, `
		SELECT DISTINCT user_id FROM learning_items
		WHERE next_review IS NULL OR next_review <= $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get users with due items: %w", err)
	}
	return ids, nil
}

// Create inserts a new item with fresh scheduling state.
func (r *ItemRepository) Create(ctx context.Context, item *models.LearningItem) error {
	if item.EaseFactor == 0 {
		item.EaseFactor = 2.5
	}
	if item.State == "" {
		item.State = models.StateNew
	}
	_, err := DB.ExecContext(ctx, `
		INSERT INTO learning_items (user_id, front, back, deck, ease_factor, interval_days, repetitions, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.UserID, item.Front, item.Back, item.Deck, item.EaseFactor, item.Interval, item.Repetitions, item.State)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return DB.GetContext(ctx, &item.ID,
		"SELECT id FROM learning_items WHERE user_id = $1 AND deck = $2 AND front = $3",
		item.UserID, item.Deck, item.Front)
}

// UpdateContent rewrites the display fields of an existing item without
// touching its scheduling state.
func (r *ItemRepository) UpdateContent(ctx context.Context, item *models.LearningItem) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE learning_items SET back = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, item.Back, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item content: %w", err)
	}
	return nil
}

// Update writes the full mutable state of an item. It accepts any executor
// so it can run inside the review transaction.
func (r *ItemRepository) Update(ctx context.Context, q sqlx.ExtContext, item *models.LearningItem) error {
	_, err := q.ExecContext(ctx, `
		UPDATE learning_items SET
			ease_factor = $1,
			interval_days = $2,
			repetitions = $3,
			state = $4,
			last_reviewed = $5,
			next_review = $6,
			correct_count = $7,
			incorrect_count = $8,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
	`, item.EaseFactor, item.Interval, item.Repetitions, item.State,
		item.LastReviewed, item.NextReview, item.CorrectCount, item.IncorrectCount, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

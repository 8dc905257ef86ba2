package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
)

// Store implements review.Store over the shared sqlx connection.
type Store struct {
	items        *ItemRepository
	progress     *UserProgressRepository
	achievements *AchievementRepository
	events       *ReviewEventRepository
}

// NewStore creates the persistence collaborator for the review engine.
func NewStore() *Store {
	return &Store{
		items:        NewItemRepository(),
		progress:     NewUserProgressRepository(),
		achievements: NewAchievementRepository(),
		events:       NewReviewEventRepository(),
	}
}

// ItemByID returns the item only if it is owned by userID.
func (s *Store) ItemByID(ctx context.Context, userID, itemID int64) (*models.LearningItem, error) {
	item, err := s.items.GetByIDForUser(ctx, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, review.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ProgressByUser returns the learner's progress, zeroed if none exists yet.
func (s *Store) ProgressByUser(ctx context.Context, userID int64) (*models.UserProgress, error) {
	return s.progress.GetByUser(ctx, userID)
}

// AchievementCatalog returns the full rule catalog.
func (s *Store) AchievementCatalog(ctx context.Context) ([]models.Achievement, error) {
	return s.achievements.Catalog(ctx)
}

// EarnedKeys returns the rule keys the learner has already unlocked.
func (s *Store) EarnedKeys(ctx context.Context, userID int64) (map[string]bool, error) {
	return s.achievements.EarnedKeysForUser(ctx, userID)
}

// DueItems returns the learner's due items without ordering.
func (s *Store) DueItems(ctx context.Context, userID int64, filter review.DueFilter, now time.Time) ([]models.LearningItem, error) {
	return s.items.GetDueForUser(ctx, userID, filter.Deck, filter.NewOnly, now)
}

// ApplyReview persists the whole review mutation in one transaction, so a
// failure at any point leaves no partial state behind.
func (s *Store) ApplyReview(ctx context.Context, m *review.Mutation) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.items.Update(ctx, tx, m.Item); err != nil {
		return err
	}
	if err := s.progress.Save(ctx, tx, m.Progress); err != nil {
		return err
	}
	if err := s.events.Insert(ctx, tx, m.Event); err != nil {
		return err
	}
	for i := range m.NewlyEarned {
		if err := s.achievements.InsertEarned(ctx, tx, &m.NewlyEarned[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	return nil
}

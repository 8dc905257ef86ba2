package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATA_DIR", t.TempDir())
	require.NoError(t, Connect())
	t.Cleanup(func() {
		_ = Close()
		DB = nil
	})
}

func createTestItem(t *testing.T, userID int64, front string) *models.LearningItem {
	t.Helper()
	item := &models.LearningItem{
		UserID: userID,
		Front:  front,
		Back:   "answer",
		Deck:   "default",
	}
	require.NoError(t, NewItemRepository().Create(context.Background(), item))
	require.NotZero(t, item.ID)
	return item
}

func TestSchemaSeedsAchievementCatalog(t *testing.T) {
	setupTestDB(t)

	catalog, err := NewAchievementRepository().Catalog(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, catalog)

	byKey := make(map[string]models.Achievement)
	for _, a := range catalog {
		byKey[a.Key] = a
	}
	require.Contains(t, byKey, "reviews_1")
	assert.Equal(t, 1, byKey["reviews_1"].Requirement)
	require.Contains(t, byKey, "streak_7")
	assert.Equal(t, 7, byKey["streak_7"].Requirement)

	// Re-running schema init must not duplicate the seed rows.
	count := len(catalog)
	require.NoError(t, initializeSchema())
	catalog, err = NewAchievementRepository().Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, count)
}

func TestStoreItemOwnership(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewStore()
	item := createTestItem(t, 42, "hello")

	got, err := store.ItemByID(ctx, 42, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Front)
	assert.Equal(t, models.StateNew, got.State)
	assert.InDelta(t, 2.5, got.EaseFactor, 1e-9)

	_, err = store.ItemByID(ctx, 7, item.ID)
	assert.ErrorIs(t, err, review.ErrItemNotFound)

	_, err = store.ItemByID(ctx, 42, item.ID+1000)
	assert.ErrorIs(t, err, review.ErrItemNotFound)
}

func TestStoreProgressLazy(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewStore()

	progress, err := store.ProgressByUser(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, progress.ID, "no row is created by a read")
	assert.Equal(t, int64(42), progress.UserID)
	assert.Equal(t, 1, progress.Level)
}

func reviewMutation(item *models.LearningItem, now time.Time) *review.Mutation {
	next := now.AddDate(0, 0, 1)
	updated := *item
	updated.EaseFactor = 2.5
	updated.Interval = 1
	updated.Repetitions = 1
	updated.State = models.StateReview
	updated.LastReviewed = &now
	updated.NextReview = &next
	updated.CorrectCount = 1

	return &review.Mutation{
		Item: &updated,
		Progress: &models.UserProgress{
			UserID: item.UserID, TotalXP: 35, Level: 1,
			CurrentStreak: 1, LongestStreak: 1, LastReviewDate: &now,
			TotalReviews: 1, TotalCorrect: 1, DailyProgress: 1,
		},
		Event: &models.ReviewEvent{
			ID: uuid.NewString(), UserID: item.UserID, ItemID: item.ID,
			Quality: 2, EaseFactor: 2.5, Interval: 1, XPEarned: 25, ReviewedAt: now,
		},
		NewlyEarned: []models.EarnedAchievement{
			{UserID: item.UserID, AchievementKey: "reviews_1", UnlockedAt: now},
		},
	}
}

func TestStoreApplyReviewPersistsEverything(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewStore()
	item := createTestItem(t, 42, "hello")
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.ApplyReview(ctx, reviewMutation(item, now)))

	got, err := store.ItemByID(ctx, 42, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateReview, got.State)
	assert.Equal(t, 1, got.Repetitions)
	require.NotNil(t, got.NextReview)

	progress, err := store.ProgressByUser(ctx, 42)
	require.NoError(t, err)
	assert.NotZero(t, progress.ID)
	assert.Equal(t, 35, progress.TotalXP)
	assert.Equal(t, 1, progress.TotalReviews)

	earned, err := store.EarnedKeys(ctx, 42)
	require.NoError(t, err)
	assert.True(t, earned["reviews_1"])

	events, err := NewReviewEventRepository().RecentForUser(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 25, events[0].XPEarned)
}

func TestStoreApplyReviewRollsBackOnFailure(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewStore()
	item := createTestItem(t, 42, "hello")
	now := time.Now().UTC().Truncate(time.Second)

	// A duplicate earned row violates the unique constraint part-way
	// through the write; the whole review must roll back.
	m := reviewMutation(item, now)
	m.NewlyEarned = append(m.NewlyEarned, m.NewlyEarned[0])
	require.Error(t, store.ApplyReview(ctx, m))

	got, err := store.ItemByID(ctx, 42, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateNew, got.State, "item update rolled back")

	progress, err := store.ProgressByUser(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, progress.ID, "progress insert rolled back")

	earned, err := store.EarnedKeys(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, earned)

	events, err := NewReviewEventRepository().RecentForUser(ctx, 42, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStoreDueItems(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()

	fresh := createTestItem(t, 42, "fresh")
	due := createTestItem(t, 42, "due")
	future := createTestItem(t, 42, "future")
	createTestItem(t, 7, "other learner")

	repo := NewItemRepository()
	past := now.AddDate(0, 0, -1)
	due.State = models.StateReview
	due.NextReview = &past
	require.NoError(t, repo.Update(ctx, DB, due))
	ahead := now.AddDate(0, 0, 3)
	future.State = models.StateReview
	future.NextReview = &ahead
	require.NoError(t, repo.Update(ctx, DB, future))

	items, err := store.DueItems(ctx, 42, review.DueFilter{}, now)
	require.NoError(t, err)
	var fronts []string
	for _, it := range items {
		fronts = append(fronts, it.Front)
	}
	assert.ElementsMatch(t, []string{"fresh", "due"}, fronts)

	items, err = store.DueItems(ctx, 42, review.DueFilter{NewOnly: true}, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, fresh.ID, items[0].ID)
}

// Package review coordinates one "submit review" transaction: it reads the
// prior item and progress state, runs the pure scheduling and progression
// engines, and hands the combined mutation to the store as a single atomic
// write.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/recallbot/internal/progression"
	"github.com/example/recallbot/internal/srs"
	"github.com/example/recallbot/pkg/models"
)

// Sentinel errors surfaced to callers.
var (
	// ErrItemNotFound covers both a missing item and an item owned by a
	// different learner; callers cannot distinguish the two.
	ErrItemNotFound = errors.New("learning item not found")
	// ErrInvalidQuality is returned for a rating outside 0..3.
	ErrInvalidQuality = errors.New("quality must be between 0 and 3")
)

// DueFilter narrows a due-items query.
type DueFilter struct {
	Deck    string // empty means all decks
	NewOnly bool   // only items never reviewed
	Limit   int    // 0 means no limit
}

// Store is the persistence collaborator the orchestrator writes through.
type Store interface {
	// ItemByID returns the item only if it is owned by userID,
	// ErrItemNotFound otherwise.
	ItemByID(ctx context.Context, userID, itemID int64) (*models.LearningItem, error)
	// ProgressByUser returns the learner's progress record, creating a
	// zeroed one on first use.
	ProgressByUser(ctx context.Context, userID int64) (*models.UserProgress, error)
	// AchievementCatalog returns every rule in the catalog.
	AchievementCatalog(ctx context.Context) ([]models.Achievement, error)
	// EarnedKeys returns the rule keys the learner has already unlocked.
	EarnedKeys(ctx context.Context, userID int64) (map[string]bool, error)
	// DueItems returns the learner's items due at or before now,
	// respecting Deck and NewOnly (ordering and Limit are applied by the
	// orchestrator).
	DueItems(ctx context.Context, userID int64, filter DueFilter, now time.Time) ([]models.LearningItem, error)
	// ApplyReview persists the whole mutation atomically: either every
	// entity is written or none are.
	ApplyReview(ctx context.Context, m *Mutation) error
}

// Mutation is the multi-entity write produced by one review.
type Mutation struct {
	Item        *models.LearningItem
	Progress    *models.UserProgress
	Event       *models.ReviewEvent
	NewlyEarned []models.EarnedAchievement
}

// Summary is returned to the caller after a successful review.
type Summary struct {
	Item            *models.LearningItem
	Progress        *models.UserProgress
	XPEarned        int // review XP only, excluding achievement rewards
	AchievementXP   int
	NewAchievements []models.Achievement
	NextReview      time.Time
	NewState        models.ItemState
}

// Orchestrator is the engine's public surface. All state it touches is
// scoped to a single learner per call.
type Orchestrator struct {
	store Store
	sm2   *srs.SM2
	now   func() time.Time

	// The catalog changes only out of band, so it is loaded once and
	// cached for the process lifetime.
	catalogMu sync.Mutex
	catalog   []models.Achievement

	// Per-learner locks serialize concurrent submits for the same
	// learner; without them two racing reviews can silently drop an XP
	// or streak delta.
	locks sync.Map // int64 -> *sync.Mutex
}

// New creates an orchestrator over the given store.
func New(store Store) *Orchestrator {
	return &Orchestrator{
		store: store,
		sm2:   srs.NewSM2(),
		now:   time.Now,
	}
}

// SubmitReview applies one quality rating to one item and persists every
// resulting mutation (item, progress, history record, newly earned
// achievements) as a unit.
func (o *Orchestrator) SubmitReview(ctx context.Context, userID, itemID int64, quality srs.Quality) (*Summary, error) {
	if !quality.Valid() {
		return nil, ErrInvalidQuality
	}

	mu := o.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	now := o.now().UTC()

	item, err := o.store.ItemByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	progress, err := o.store.ProgressByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	streak := progression.AdvanceStreak(progress.LastReviewDate, progress.CurrentStreak, now)
	priorState := item.State
	sched := o.sm2.Schedule(item, quality, now)
	xp := progression.XPForReview(quality, streak.Active, priorState)

	reviewedAt := now
	item.EaseFactor = sched.EaseFactor
	item.Interval = sched.Interval
	item.Repetitions = sched.Repetitions
	item.State = sched.State
	item.LastReviewed = &reviewedAt
	nextReview := sched.NextReview
	item.NextReview = &nextReview
	if quality.IsCorrect() {
		item.CorrectCount++
	} else {
		item.IncorrectCount++
	}

	if progress.LastReviewDate != nil && progression.SameDay(*progress.LastReviewDate, now) {
		progress.DailyProgress++
	} else {
		progress.DailyProgress = 1
	}
	progress.CurrentStreak = streak.Streak
	if streak.Streak > progress.LongestStreak {
		progress.LongestStreak = streak.Streak
	}
	progress.LastReviewDate = &reviewedAt
	progress.TotalReviews++
	if quality.IsCorrect() {
		progress.TotalCorrect++
	}
	progress.TotalXP += xp
	progress.Level = progression.LevelForXP(progress.TotalXP)

	catalog, err := o.achievementCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}
	earned, err := o.store.EarnedKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load earned achievements: %w", err)
	}

	// Achievements see the post-review snapshot; their reward lands on
	// top of it afterwards.
	unlocked, bonusXP := progression.EvaluateAchievements(progress, catalog, earned)
	if bonusXP > 0 {
		progress.TotalXP += bonusXP
		progress.Level = progression.LevelForXP(progress.TotalXP)
	}

	newlyEarned := make([]models.EarnedAchievement, 0, len(unlocked))
	for _, a := range unlocked {
		newlyEarned = append(newlyEarned, models.EarnedAchievement{
			UserID:         userID,
			AchievementKey: a.Key,
			UnlockedAt:     now,
		})
	}

	event := &models.ReviewEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemID:     itemID,
		Quality:    int(quality),
		EaseFactor: sched.EaseFactor,
		Interval:   sched.Interval,
		XPEarned:   xp,
		ReviewedAt: now,
	}

	if err := o.store.ApplyReview(ctx, &Mutation{
		Item:        item,
		Progress:    progress,
		Event:       event,
		NewlyEarned: newlyEarned,
	}); err != nil {
		return nil, fmt.Errorf("apply review: %w", err)
	}

	return &Summary{
		Item:            item,
		Progress:        progress,
		XPEarned:        xp,
		AchievementXP:   bonusXP,
		NewAchievements: unlocked,
		NextReview:      nextReview,
		NewState:        sched.State,
	}, nil
}

// DueItems returns the learner's due queue ordered new-first, then soonest
// due, then lowest ease factor.
func (o *Orchestrator) DueItems(ctx context.Context, userID int64, filter DueFilter) ([]models.LearningItem, error) {
	items, err := o.store.DueItems(ctx, userID, filter, o.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("load due items: %w", err)
	}
	srs.SortDue(items)
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

// Progress returns the learner's progress record with the level freshly
// derived from total XP.
func (o *Orchestrator) Progress(ctx context.Context, userID int64) (*models.UserProgress, error) {
	progress, err := o.store.ProgressByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	progress.Level = progression.LevelForXP(progress.TotalXP)
	return progress, nil
}

func (o *Orchestrator) achievementCatalog(ctx context.Context) ([]models.Achievement, error) {
	o.catalogMu.Lock()
	defer o.catalogMu.Unlock()
	if o.catalog != nil {
		return o.catalog, nil
	}
	catalog, err := o.store.AchievementCatalog(ctx)
	if err != nil {
		return nil, err
	}
	o.catalog = catalog
	return catalog, nil
}

func (o *Orchestrator) userLock(userID int64) *sync.Mutex {
	v, _ := o.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newItem(ease float64, interval, reps int, state models.ItemState) *models.LearningItem {
	return &models.LearningItem{
		EaseFactor:  ease,
		Interval:    interval,
		Repetitions: reps,
		State:       state,
	}
}

func TestScheduleGoodSequence(t *testing.T) {
	// With a fixed ease factor of 2.5 and GOOD responses the intervals
	// must follow 1, 6, 15, 38, 95 (GOOD leaves the ease untouched).
	sm := NewSM2()
	item := newItem(InitialEaseFactor, 0, 0, models.StateNew)

	want := []int{1, 6, 15, 38, 95}
	for i, wantInterval := range want {
		res := sm.Schedule(item, QualityGood, testNow)
		assert.Equal(t, wantInterval, res.Interval, "interval after review %d", i+1)
		assert.Equal(t, i+1, res.Repetitions)
		assert.InDelta(t, InitialEaseFactor, res.EaseFactor, 1e-9, "GOOD must not move the ease factor")

		item.EaseFactor = res.EaseFactor
		item.Interval = res.Interval
		item.Repetitions = res.Repetitions
		item.State = res.State
	}
	assert.Equal(t, models.StateLearned, item.State, "five successes graduate the item")
}

func TestScheduleStateTransitions(t *testing.T) {
	sm := NewSM2()

	res := sm.Schedule(newItem(2.5, 0, 0, models.StateNew), QualityGood, testNow)
	assert.Equal(t, models.StateReview, res.State)

	res = sm.Schedule(newItem(2.5, 38, 4, models.StateReview), QualityGood, testNow)
	assert.Equal(t, models.StateLearned, res.State)
	assert.Equal(t, 5, res.Repetitions)
}

func TestScheduleAgainResets(t *testing.T) {
	sm := NewSM2()
	for _, state := range []models.ItemState{models.StateNew, models.StateLearning, models.StateReview, models.StateLearned} {
		res := sm.Schedule(newItem(2.5, 95, 5, state), QualityAgain, testNow)
		assert.Equal(t, 0, res.Repetitions)
		assert.Equal(t, 1, res.Interval)
		assert.Equal(t, models.StateLearning, res.State)
		assert.InDelta(t, 2.3, res.EaseFactor, 1e-9)
	}
}

func TestScheduleHardPartialReset(t *testing.T) {
	sm := NewSM2()

	res := sm.Schedule(newItem(2.5, 15, 3, models.StateReview), QualityHard, testNow)
	assert.Equal(t, 1, res.Repetitions, "HARD keeps a single repetition, not zero")
	assert.Equal(t, 8, res.Interval, "round(15 * 0.5)")
	assert.Equal(t, models.StateLearning, res.State)
	assert.InDelta(t, 2.35, res.EaseFactor, 1e-9)

	// Interval never drops below one day.
	res = sm.Schedule(newItem(2.5, 1, 1, models.StateReview), QualityHard, testNow)
	assert.Equal(t, 1, res.Interval)
}

func TestScheduleEaseFloor(t *testing.T) {
	sm := NewSM2()

	// Repeated failures cannot push the ease factor below 1.3.
	res := sm.Schedule(newItem(1.35, 10, 2, models.StateReview), QualityAgain, testNow)
	assert.InDelta(t, MinEaseFactor, res.EaseFactor, 1e-9)

	res = sm.Schedule(newItem(1.3, 10, 2, models.StateReview), QualityHard, testNow)
	assert.InDelta(t, MinEaseFactor, res.EaseFactor, 1e-9)

	// Successes sit at or above the floor too.
	for _, q := range []Quality{QualityGood, QualityEasy} {
		res = sm.Schedule(newItem(MinEaseFactor, 6, 2, models.StateReview), q, testNow)
		assert.GreaterOrEqual(t, res.EaseFactor, MinEaseFactor)
	}
}

func TestScheduleEasy(t *testing.T) {
	sm := NewSM2()

	// First success on a new item: base interval 1, easy bonus rounds
	// 1.3 back down to 1 at this size.
	res := sm.Schedule(newItem(2.5, 0, 0, models.StateNew), QualityEasy, testNow)
	assert.Equal(t, 1, res.Repetitions)
	assert.Equal(t, 1, res.Interval)
	assert.InDelta(t, 2.6, res.EaseFactor, 1e-9, "EASY raises the ease factor by 0.1")

	// At larger intervals the bonus is visible: growth uses the prior
	// ease, then the 1.3 multiplier applies on top.
	res = sm.Schedule(newItem(2.5, 6, 2, models.StateReview), QualityEasy, testNow)
	assert.Equal(t, 20, res.Interval, "round(round(6*2.5) * 1.3)")
}

func TestScheduleNextReviewWholeDays(t *testing.T) {
	sm := NewSM2()
	res := sm.Schedule(newItem(2.5, 6, 2, models.StateReview), QualityGood, testNow)
	require.Equal(t, 15, res.Interval)
	assert.Equal(t, testNow.AddDate(0, 0, 15), res.NextReview)
}

func TestQualityValid(t *testing.T) {
	for q := QualityAgain; q <= QualityEasy; q++ {
		assert.True(t, q.Valid())
	}
	assert.False(t, Quality(-1).Valid())
	assert.False(t, Quality(4).Valid())
}

func TestSortDue(t *testing.T) {
	at := func(d int) *time.Time {
		ts := testNow.AddDate(0, 0, d)
		return &ts
	}
	items := []models.LearningItem{
		{ID: 1, State: models.StateReview, NextReview: at(-1), EaseFactor: 2.5},
		{ID: 2, State: models.StateNew, EaseFactor: 2.5},
		{ID: 3, State: models.StateReview, NextReview: at(-3), EaseFactor: 2.5},
		{ID: 4, State: models.StateReview, NextReview: at(-1), EaseFactor: 1.4},
		{ID: 5, State: models.StateLearning, NextReview: at(0), EaseFactor: 2.3},
	}
	SortDue(items)

	var order []int64
	for _, it := range items {
		order = append(order, it.ID)
	}
	// New first, then learning, then reviews by due date with the lowest
	// ease factor breaking the tie.
	assert.Equal(t, []int64{2, 5, 3, 4, 1}, order)
}

package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/example/recallbot/pkg/models"
)

func newTestBot() *Bot {
	return &Bot{
		config:   DefaultConfig(),
		log:      zap.NewNop().Sugar(),
		sessions: make(map[int64]*reviewSession),
	}
}

func TestHandleCallbackQueryMissingMessage(t *testing.T) {
	b := newTestBot()
	ctx := context.Background()

	// Telegram delivers callback queries without an accessible message when
	// a learner taps a button on an old card. None of these may crash the
	// update loop.
	assert.NotPanics(t, func() {
		b.handleCallbackQuery(ctx, nil)
	})
	assert.NotPanics(t, func() {
		b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{ID: "cb1", Data: "show:1"})
	})
	assert.NotPanics(t, func() {
		b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: 42},
			Data: "show:1",
		})
	})
}

func TestRecordRatingConcurrent(t *testing.T) {
	b := newTestBot()
	session := &reviewSession{
		items:     make([]models.LearningItem, 128),
		touchedAt: time.Now(),
	}
	b.mu.Lock()
	b.sessions[42] = session
	b.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.recordRating(session, 10, 1)
		}()
		go func() {
			defer wg.Done()
			_ = b.session(42)
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, session.currentIdx)
	assert.Equal(t, 640, session.xpEarned)
	assert.Equal(t, 64, session.unlocked)
}

// Package bot is the Telegram front end of the review engine. It owns no
// scheduling logic: every review flows through the orchestrator, and the
// Telegram user id is the learner id scoping all reads and writes.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/recallbot/internal/progression"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/srs"
	"github.com/example/recallbot/pkg/models"
)

// reviewSession is one learner's in-flight pass over their due queue.
type reviewSession struct {
	items      []models.LearningItem
	currentIdx int
	xpEarned   int
	unlocked   int
	touchedAt  time.Time
}

// Bot is the Telegram application.
type Bot struct {
	api    *tgbotapi.BotAPI
	orch   *review.Orchestrator
	config *Config
	log    *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[int64]*reviewSession
}

// New creates a bot speaking to Telegram with the given token.
func New(token string, orch *review.Orchestrator, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return &Bot{
		api:      api,
		orch:     orch,
		config:   DefaultConfig(),
		log:      log,
		sessions: make(map[int64]*reviewSession),
	}, nil
}

// Start consumes Telegram updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Infow("authorized", "account", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "help":
		b.reply(message.Chat.ID, `This bot schedules your flashcards with spaced repetition.

/review - review the cards due today
/stats - your level, XP and streak
/due - how many cards are waiting`)
	case "review":
		b.startReviewSession(ctx, message.From.ID, message.Chat.ID)
	case "stats":
		b.sendStats(ctx, message.From.ID, message.Chat.ID)
	case "due":
		b.sendDueCount(ctx, message.From.ID, message.Chat.ID)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see the commands.")
	}
}

func (b *Bot) startReviewSession(ctx context.Context, userID, chatID int64) {
	items, err := b.orch.DueItems(ctx, userID, review.DueFilter{Limit: b.config.ReviewBatchSize})
	if err != nil {
		b.log.Errorw("failed to load due items", "user_id", userID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	if len(items) == 0 {
		b.reply(chatID, "Nothing due right now. Come back later! 🎉")
		return
	}

	b.mu.Lock()
	b.sessions[userID] = &reviewSession{items: items, touchedAt: time.Now()}
	b.mu.Unlock()

	b.sendCard(chatID, userID)
}

func (b *Bot) sendCard(chatID, userID int64) {
	session := b.session(userID)
	if session == nil || session.currentIdx >= len(session.items) {
		b.finishSession(chatID, userID)
		return
	}
	item := session.items[session.currentIdx]

	text := fmt.Sprintf("Card %d/%d\n\n%s", session.currentIdx+1, len(session.items), item.Front)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Show answer", fmt.Sprintf("show:%d", item.ID)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("failed to send card", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Buttons on old messages can arrive without an accessible message.
	if callback == nil || callback.Message == nil || callback.From == nil {
		return
	}
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			b.log.Debugw("failed to answer callback", "error", err)
		}
	}()

	parts := strings.Split(callback.Data, ":")
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	switch parts[0] {
	case "show":
		if len(parts) != 2 {
			return
		}
		itemID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		b.showAnswer(chatID, callback.Message.MessageID, userID, itemID)
	case "rate":
		if len(parts) != 3 {
			return
		}
		itemID, err1 := strconv.ParseInt(parts[1], 10, 64)
		q, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return
		}
		b.handleRating(ctx, chatID, callback.Message.MessageID, userID, itemID, srs.Quality(q))
	}
}

func (b *Bot) showAnswer(chatID int64, messageID int, userID, itemID int64) {
	session := b.session(userID)
	if session == nil || session.currentIdx >= len(session.items) {
		b.reply(chatID, "Your session expired. Send /review to start again.")
		return
	}
	item := session.items[session.currentIdx]
	if item.ID != itemID {
		return
	}

	text := fmt.Sprintf("Card %d/%d\n\n%s\n———\n%s\n\nHow well did you recall it?",
		session.currentIdx+1, len(session.items), item.Front, item.Back)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Again", fmt.Sprintf("rate:%d:%d", item.ID, srs.QualityAgain)),
			tgbotapi.NewInlineKeyboardButtonData("😓 Hard", fmt.Sprintf("rate:%d:%d", item.ID, srs.QualityHard)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙂 Good", fmt.Sprintf("rate:%d:%d", item.ID, srs.QualityGood)),
			tgbotapi.NewInlineKeyboardButtonData("🚀 Easy", fmt.Sprintf("rate:%d:%d", item.ID, srs.QualityEasy)),
		),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Errorw("failed to show answer", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleRating(ctx context.Context, chatID int64, messageID int, userID, itemID int64, quality srs.Quality) {
	session := b.session(userID)
	if session == nil {
		b.reply(chatID, "Your session expired. Send /review to start again.")
		return
	}
	// Stale button taps for a card that was already rated are ignored.
	if session.currentIdx >= len(session.items) || session.items[session.currentIdx].ID != itemID {
		return
	}

	summary, err := b.orch.SubmitReview(ctx, userID, itemID, quality)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrItemNotFound):
			b.reply(chatID, "That card no longer exists.")
		case errors.Is(err, review.ErrInvalidQuality):
			b.reply(chatID, "Invalid rating.")
		default:
			// The review was not recorded; never pretend otherwise.
			b.log.Errorw("failed to submit review", "user_id", userID, "item_id", itemID, "error", err)
			b.reply(chatID, "Your review was NOT saved. Please try that card again.")
		}
		return
	}

	b.recordRating(session, summary.XPEarned+summary.AchievementXP, len(summary.NewAchievements))

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s · +%d XP · next review in %dd", quality, summary.XPEarned, summary.Item.Interval)
	for _, a := range summary.NewAchievements {
		fmt.Fprintf(&sb, "\n🏆 %s (+%d XP)", a.Name, a.XPReward)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, sb.String())
	if _, err := b.api.Send(edit); err != nil {
		b.log.Errorw("failed to edit message", "chat_id", chatID, "error", err)
	}

	b.sendCard(chatID, userID)
}

func (b *Bot) finishSession(chatID, userID int64) {
	b.mu.Lock()
	session := b.sessions[userID]
	delete(b.sessions, userID)
	b.mu.Unlock()
	if session == nil {
		return
	}
	text := fmt.Sprintf("Session done: %d cards, +%d XP", len(session.items), session.xpEarned)
	if session.unlocked > 0 {
		text += fmt.Sprintf(", %d new achievements 🏆", session.unlocked)
	}
	b.reply(chatID, text)
}

func (b *Bot) sendStats(ctx context.Context, userID, chatID int64) {
	progress, err := b.orch.Progress(ctx, userID)
	if err != nil {
		b.log.Errorw("failed to load progress", "user_id", userID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	lp := progression.ComputeLevelProgress(progress.TotalXP)

	accuracy := 0
	if progress.TotalReviews > 0 {
		accuracy = 100 * progress.TotalCorrect / progress.TotalReviews
	}
	b.reply(chatID, fmt.Sprintf(`📊 Your progress

Level %d — %d/%d XP (%d%%)
Total XP: %d
Streak: %d days (best %d)
Reviews: %d (%d%% correct)
Today: %d reviews`,
		lp.Level, lp.Current, lp.Needed, lp.Percentage,
		progress.TotalXP,
		progress.CurrentStreak, progress.LongestStreak,
		progress.TotalReviews, accuracy,
		progress.DailyProgress))
}

func (b *Bot) sendDueCount(ctx context.Context, userID, chatID int64) {
	items, err := b.orch.DueItems(ctx, userID, review.DueFilter{})
	if err != nil {
		b.log.Errorw("failed to load due items", "user_id", userID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	if len(items) == 0 {
		b.reply(chatID, "Nothing due right now. 🎉")
		return
	}
	b.reply(chatID, fmt.Sprintf("%d cards are waiting. Send /review to start.", len(items)))
}

// SendDueReminder implements scheduler.Notifier.
func (b *Bot) SendDueReminder(userID int64, count int) error {
	// For direct chats the chat id equals the user id.
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf("You have %d cards due for review! Send /review to start.", count))
	_, err := b.api.Send(msg)
	return err
}

// session returns the learner's live session, dropping it if it idled out.
func (b *Bot) session(userID int64) *reviewSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	session := b.sessions[userID]
	if session == nil {
		return nil
	}
	if time.Since(session.touchedAt) > b.config.SessionTimeout {
		delete(b.sessions, userID)
		return nil
	}
	return session
}

// recordRating advances the session past the rated card. The lock keeps the
// counters consistent with session and finishSession.
func (b *Bot) recordRating(session *reviewSession, xp, unlocked int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	session.currentIdx++
	session.xpEarned += xp
	session.unlocked += unlocked
	session.touchedAt = time.Now()
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}

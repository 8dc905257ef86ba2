package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/recallbot/internal/database"
)

// Default notification window (hours, UTC).
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers due-review reminders to a learner.
type Notifier interface {
	SendDueReminder(userID int64, count int) error
}

// Scheduler runs the periodic due-review reminder job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	items     *database.ItemRepository
	log       *zap.SugaredLogger
}

// New creates a scheduler that reports due items through the notifier.
func New(notifier Notifier, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		items:     database.NewItemRepository(),
		log:       log,
	}
}

// Start begins running all scheduled tasks in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	now := time.Now().UTC()
	currentHour := now.Hour()

	startHour := hourFromEnv("NOTIFICATION_START_HOUR", DefaultNotificationStartHour)
	endHour := hourFromEnv("NOTIFICATION_END_HOUR", DefaultNotificationEndHour)

	if currentHour < startHour || currentHour > endHour {
		s.log.Debugw("outside notification hours, skipping reminders",
			"hour", currentHour, "start", startHour, "end", endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userIDs, err := s.items.UserIDsWithDue(ctx, now)
	if err != nil {
		s.log.Errorw("failed to get users with due items", "error", err)
		return
	}

	for _, userID := range userIDs {
		count, err := s.items.CountDueForUser(ctx, userID, now)
		if err != nil {
			s.log.Errorw("failed to count due items", "user_id", userID, "error", err)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendDueReminder(userID, count); err != nil {
			s.log.Errorw("failed to send reminder", "user_id", userID, "error", err)
		}
	}
}

// RunManualCheck sends a reminder to one learner immediately if they have
// due items.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	count, err := s.items.CountDueForUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return s.notifier.SendDueReminder(userID, count)
}

func hourFromEnv(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}

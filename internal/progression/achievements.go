package progression

import (
	"strings"

	"github.com/example/recallbot/pkg/models"
)

// EvaluateAchievements returns the catalog rules newly satisfied by the
// learner's updated progress snapshot, plus their summed XP reward. Rules
// already present in earned are never returned again, which makes the
// evaluation idempotent; each predicate reads only the snapshot, so the
// result does not depend on catalog order.
func EvaluateAchievements(progress *models.UserProgress, catalog []models.Achievement, earned map[string]bool) ([]models.Achievement, int) {
	var unlocked []models.Achievement
	var totalXP int
	for _, rule := range catalog {
		if earned[rule.Key] {
			continue
		}
		metric, ok := metricFor(rule.Key, progress)
		if !ok {
			continue
		}
		if metric >= rule.Requirement {
			unlocked = append(unlocked, rule)
			totalXP += rule.XPReward
		}
	}
	return unlocked, totalXP
}

// metricFor maps a rule key to the snapshot metric it tests. Keys carry
// their metric as a prefix: reviews_100, streak_7, level_5, xp_1000.
func metricFor(key string, p *models.UserProgress) (int, bool) {
	switch {
	case strings.HasPrefix(key, "reviews_"):
		return p.TotalReviews, true
	case strings.HasPrefix(key, "streak_"):
		return p.CurrentStreak, true
	case strings.HasPrefix(key, "level_"):
		return p.Level, true
	case strings.HasPrefix(key, "xp_"):
		return p.TotalXP, true
	default:
		return 0, false
	}
}

package bot

import "time"

// Config holds the bot's tunables.
type Config struct {
	// ReviewBatchSize caps how many due cards one /review session serves.
	ReviewBatchSize int
	// SessionTimeout is how long an idle review session survives.
	SessionTimeout time.Duration
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *Config {
	return &Config{
		ReviewBatchSize: 20,
		SessionTimeout:  30 * time.Minute,
	}
}

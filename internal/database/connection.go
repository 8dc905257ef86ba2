package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the shared database connection.
var DB *sqlx.DB

// Type returns the configured database backend, "sqlite" or "postgres".
func Type() string {
	if t := os.Getenv("DB_TYPE"); t != "" {
		return t
	}
	return "sqlite"
}

// Connect establishes the database connection and initializes the schema.
func Connect() error {
	var db *sqlx.DB
	var err error

	switch Type() {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err = sqlx.Connect("sqlite3", filepath.Join(dataDir, "recallbot.db"))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite does not support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db
	return initializeSchema()
}

// Close closes the database connection.
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// pk returns the driver-appropriate autoincrementing primary key fragment.
func pk() string {
	if Type() == "postgres" {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates the tables if they don't exist and seeds the
// achievement catalog.
func initializeSchema() error {
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS learning_items (
			id %s,
			user_id BIGINT NOT NULL,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			deck TEXT NOT NULL DEFAULT '',
			ease_factor REAL NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL DEFAULT 'new',
			last_reviewed TIMESTAMP,
			next_review TIMESTAMP,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, deck, front)
		)`, pk()),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS user_progress (
			id %s,
			user_id BIGINT NOT NULL UNIQUE,
			total_xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_review_date TIMESTAMP,
			total_reviews INTEGER NOT NULL DEFAULT 0,
			total_correct INTEGER NOT NULL DEFAULT 0,
			daily_progress INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, pk()),
		`
		CREATE TABLE IF NOT EXISTS achievements (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			requirement INTEGER NOT NULL,
			xp_reward INTEGER NOT NULL DEFAULT 0
		)`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS user_achievements (
			id %s,
			user_id BIGINT NOT NULL,
			achievement_key TEXT NOT NULL,
			unlocked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (achievement_key) REFERENCES achievements(key),
			UNIQUE(user_id, achievement_key)
		)`, pk()),
		`
		CREATE TABLE IF NOT EXISTS review_events (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			quality INTEGER NOT NULL,
			ease_factor REAL NOT NULL,
			interval_days INTEGER NOT NULL,
			xp_earned INTEGER NOT NULL,
			reviewed_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return seedAchievements()
}

// seedAchievements inserts the standard catalog. Existing rows are left
// alone so administrators can tune rewards.
func seedAchievements() error {
	seed := []struct {
		key         string
		name        string
		description string
		requirement int
		xpReward    int
	}{
		{"reviews_1", "First Steps", "Complete your first review", 1, 10},
		{"reviews_10", "Getting Serious", "Complete 10 reviews", 10, 25},
		{"reviews_100", "Century", "Complete 100 reviews", 100, 50},
		{"reviews_500", "Scholar", "Complete 500 reviews", 500, 100},
		{"reviews_1000", "Expert", "Complete 1000 reviews", 1000, 200},
		{"streak_3", "Getting Started", "Keep a 3-day streak", 3, 15},
		{"streak_7", "Week Warrior", "Keep a 7-day streak", 7, 30},
		{"streak_30", "Monthly Master", "Keep a 30-day streak", 30, 100},
		{"streak_100", "Centurion", "Keep a 100-day streak", 100, 500},
		{"level_5", "Climber", "Reach level 5", 5, 50},
		{"level_10", "Veteran", "Reach level 10", 10, 150},
		{"xp_1000", "Rising Star", "Earn 1,000 total XP", 1000, 25},
		{"xp_10000", "Powerhouse", "Earn 10,000 total XP", 10000, 100},
	}

	var query string
	if Type() == "postgres" {
		query = `
			INSERT INTO achievements (key, name, description, requirement, xp_reward)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (key) DO NOTHING
		`
	} else {
		query = `
			INSERT OR IGNORE INTO achievements (key, name, description, requirement, xp_reward)
			VALUES ($1, $2, $3, $4, $5)
		`
	}

	for _, a := range seed {
		if _, err := DB.Exec(query, a.key, a.name, a.description, a.requirement, a.xpReward); err != nil {
			return fmt.Errorf("failed to seed achievement %s: %w", a.key, err)
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/recallbot/internal/bot"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/excel"
	"github.com/example/recallbot/internal/logger"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/scheduler"
)

func main() {
	importPath := flag.String("import", "", "import learning items from an .xlsx/.csv file and exit")
	importUser := flag.Int64("import-user", 0, "learner id the imported items belong to")
	flag.Parse()

	// A missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := database.Connect(); err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer database.Close()

	if *importPath != "" {
		runImport(log, *importPath, *importUser)
		return
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	orch := review.New(database.NewStore())

	b, err := bot.New(token, orch, log)
	if err != nil {
		log.Fatalw("failed to create bot", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if os.Getenv("ENABLE_SCHEDULER") != "false" {
		s := scheduler.New(b, log)
		s.Start()
		defer s.Stop()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		log.Infow("received signal, shutting down", "signal", sig)
		cancel()
	}()

	log.Info("bot started, press Ctrl+C to stop")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Errorw("bot stopped with error", "error", err)
	}
	log.Info("bot stopped")
}

func runImport(log *zap.SugaredLogger, path string, userID int64) {
	if userID == 0 {
		log.Fatalw("missing -import-user flag", "path", path)
	}
	config := excel.DefaultImportConfig()
	config.FilePath = path
	result, err := excel.ImportItems(context.Background(), userID, config)
	if err != nil {
		log.Fatalw("import failed", "error", err)
	}
	log.Infow("import finished",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	for _, e := range result.Errors {
		log.Infow("import row error", "detail", e)
	}
}

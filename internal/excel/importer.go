package excel

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/pkg/models"
)

// ImportConfig defines how an item file is read.
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	SheetName   string // Name of the sheet to import (Excel only)
	StartRow    int    // The row to start importing from (1-based)
	FrontIdx    int    // Column index of the prompt side (0-based)
	BackIdx     int    // Column index of the answer side
	DeckIdx     int    // Column index of the deck name, -1 if absent
	DefaultDeck string // Deck used when the deck column is empty or absent
}

// DefaultImportConfig returns the default import configuration: front,
// back, deck in the first three columns with one header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:   "Sheet1",
		StartRow:    2,
		FrontIdx:    0,
		BackIdx:     1,
		DeckIdx:     2,
		DefaultDeck: "default",
	}
}

// ImportResult holds the outcome of one import run.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportItems imports learning items for a learner from an Excel or CSV
// file. New items start unscheduled in state "new"; existing items get
// their answer side refreshed without touching scheduling state.
func ImportItems(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(ctx, userID, config)
	}
	return importFromExcel(ctx, userID, config)
}

func importFromExcel(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	repo := database.NewItemRepository()

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := processRow(ctx, repo, userID, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func importFromCSV(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	repo := database.NewItemRepository()

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		if err := processRow(ctx, repo, userID, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

func processRow(ctx context.Context, repo *database.ItemRepository, userID int64, row []string, config ImportConfig, result *ImportResult) error {
	front := cell(row, config.FrontIdx)
	back := cell(row, config.BackIdx)
	if front == "" || back == "" {
		result.Skipped++
		return nil
	}

	deck := config.DefaultDeck
	if config.DeckIdx >= 0 {
		if d := cell(row, config.DeckIdx); d != "" {
			deck = d
		}
	}

	existing, err := repo.GetByFront(ctx, userID, deck, front)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up item: %w", err)
	}

	if existing != nil {
		if existing.Back == back {
			result.Skipped++
			return nil
		}
		existing.Back = back
		if err := repo.UpdateContent(ctx, existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	item := &models.LearningItem{
		UserID: userID,
		Front:  front,
		Back:   back,
		Deck:   deck,
	}
	if err := repo.Create(ctx, item); err != nil {
		return err
	}
	result.Created++
	return nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

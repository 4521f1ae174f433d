package sheets

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/waterbill/internal/config"
)

// Repository is the spreadsheet export target for reports and balance sheets.
// Values are written as raw text, so cell content is never parsed as a formula.
type Repository interface {
	EnsureTab(ctx context.Context, title string) error
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository implements Repository with the Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger

	mu   sync.Mutex
	tabs map[string]struct{}
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return newGoogleSheetRepository(service, cfg.SpreadsheetID, logger), nil
}

func newGoogleSheetRepository(service *sheetsapi.Service, spreadsheetID string, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		tabs:          make(map[string]struct{}),
	}
}

// EnsureTab adds a sheet named title to the spreadsheet unless it exists.
func (r *GoogleSheetRepository) EnsureTab(ctx context.Context, title string) error {
	if title == "" {
		return fmt.Errorf("title must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tabs[title]; ok {
		return nil
	}

	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet tabs: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			r.tabs[sheet.Properties.Title] = struct{}{}
		}
	}
	if _, ok := r.tabs[title]; ok {
		return nil
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", title, err)
	}

	r.tabs[title] = struct{}{}
	r.logger.Info("sheet tab created", zap.String("title", title))
	return nil
}

// AppendRows appends rows after the last filled row of the range.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReplaceRange clears the range and writes rows from its top-left cell.
func (r *GoogleSheetRepository) ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, sheetRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", sheetRange, err)
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	if _, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range replaced", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

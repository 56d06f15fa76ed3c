package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/maubernardi/analisipolitiche/internal/common"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

// Writer pushes aggregation tables to a Google Spreadsheet, one tab per
// table.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write replaces the spreadsheet contents with the given tables. Each table
// gets a tab named after it; existing tab data is cleared first.
func (w *Writer) Write(ctx context.Context, tables []*model.Table) error {
	w.logger.Info("starting sheets export", "tables", len(tables))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx, tables)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	tabIDs, err := w.ensureTabs(ctx, spreadsheetID, tables)
	if err != nil {
		return fmt.Errorf("failed to prepare tabs: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for _, tbl := range tables {
		tbl := tbl
		err = common.WithRetry(ctx, func() error {
			return w.writeTable(ctx, spreadsheetID, tbl)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write tab %s: %w", tbl.Name, err)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tables, tabIDs)
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"tables", len(tables))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets the configured spreadsheet or creates a new
// one with a tab per table.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tables []*model.Table) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	tabs := make([]*sheets.Sheet, 0, len(tables))
	for _, tbl := range tables {
		tabs = append(tabs, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: tbl.Name},
		})
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: tabs,
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// ensureTabs adds any missing tabs, clears data from the existing ones, and
// returns the tab ID of every table.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheetID string, tables []*model.Table) (map[string]int64, error) {
	spreadsheet, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	tabIDs := make(map[string]int64, len(tables))
	for _, sheet := range spreadsheet.Sheets {
		tabIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}

	var requests []*sheets.Request
	for _, tbl := range tables {
		if _, ok := tabIDs[tbl.Name]; ok {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tbl.Name},
			},
		})
	}

	if len(requests) > 0 {
		resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to add tabs: %w", err)
		}
		for _, reply := range resp.Replies {
			if reply.AddSheet != nil {
				tabIDs[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
			}
		}
	}

	for _, tbl := range tables {
		rangeStr := fmt.Sprintf("'%s'!A:ZZ", tbl.Name)
		_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, rangeStr, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to clear tab %s: %w", tbl.Name, err)
		}
	}

	return tabIDs, nil
}

// writeTable writes one table to its tab in batches.
func (w *Writer) writeTable(ctx context.Context, spreadsheetID string, tbl *model.Table) error {
	values := prepareValues(tbl)

	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := fmt.Sprintf("'%s'!A%d", tbl.Name, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tbl.Name, "start_row", i+1, "rows", end-i)
	}

	return nil
}

// prepareValues converts a table to the header-plus-rows layout the Values
// API expects. Nil cells become empty strings.
func prepareValues(tbl *model.Table) [][]any {
	values := make([][]any, 0, len(tbl.Rows)+1)

	header := make([]any, len(tbl.Columns))
	for i, name := range tbl.Columns {
		header[i] = name
	}
	values = append(values, header)

	for _, row := range tbl.Rows {
		cells := make([]any, len(row))
		for i, val := range row {
			if val == nil {
				cells[i] = ""
			} else {
				cells[i] = val
			}
		}
		values = append(values, cells)
	}

	return values
}

// applyFormatting bolds and freezes the header row of every tab.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tables []*model.Table, tabIDs map[string]int64) error {
	var requests []*sheets.Request
	for _, tbl := range tables {
		tabID, ok := tabIDs[tbl.Name]
		if !ok {
			continue
		}

		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          tabID,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   int64(len(tbl.Columns)),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
							BackgroundColor: &sheets.Color{
								Red:   0.27,
								Green: 0.45,
								Blue:  0.77,
							},
						},
					},
					Fields: "userEnteredFormat(textFormat,backgroundColor)",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: tabID,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    tabID,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(len(tbl.Columns)),
					},
				},
			},
		)
	}

	if len(requests) == 0 {
		return nil
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

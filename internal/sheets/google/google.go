package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fluxo/internal/core"
	"fluxo/internal/log"
	ports "fluxo/internal/sheets"
)

const lastColumn = "I"

// Config selects the spreadsheet and the service account used to write it.
// CredentialsJSON wins over CredentialsFile; with neither set,
// GOOGLE_APPLICATION_CREDENTIALS is consulted.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	mu     sync.Mutex
	titles map[string]bool
}

// Ensure interface conformance
var (
	_ ports.LedgerExporter = (*Client)(nil)
	_ ports.PeriodReader   = (*Client)(nil)
)

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return newClient(svc, spreadsheetID, logger), nil
}

func newClient(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		titles:        make(map[string]bool),
	}
}

func loadCredentials(ctx context.Context, cfg Config, logger *log.Logger) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		logger.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		logger.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportPeriod rewrites the period's tab: the tab is created if missing,
// cleared, then filled with the header and one row per entry.
func (c *Client) ExportPeriod(ctx context.Context, ownerID, period string, entries []core.LedgerEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if !core.ValidPeriod(period) {
		return fmt.Errorf("export period %q: %w", period, core.ErrInvalidDate)
	}
	title := ports.SheetTitle(ownerID, period)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1Range(title, "A:"+lastColumn),
		&gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: tableValues(ports.RowsFromEntries(entries))}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range(title, "A1"), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Exported period",
		log.FieldOwnerID, ownerID,
		log.FieldPeriod, period,
		"rows", len(entries))
	return nil
}

// ReadPeriod returns the rows currently exported for the period. A missing
// tab reads as empty.
func (c *Client) ReadPeriod(ctx context.Context, ownerID, period string) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	title := ports.SheetTitle(ownerID, period)
	exists, err := c.hasSheet(ctx, title)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1Range(title, "A:"+lastColumn)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", title, err)
	}
	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		values = append(values, toStrings(row))
	}
	return ports.ParseValues(values)
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	exists, err := c.hasSheet(ctx, title)
	if err != nil || exists {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.mu.Lock()
	c.titles[title] = true
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "Created sheet", "title", title)
	return nil
}

// hasSheet answers from the known-titles cache and refreshes it from the
// spreadsheet metadata on a miss.
func (c *Client) hasSheet(ctx context.Context, title string) (bool, error) {
	c.mu.Lock()
	known := c.titles[title]
	c.mu.Unlock()
	if known {
		return true, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields(googleapi.Field("sheets.properties.title")).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.titles[sh.Properties.Title] = true
		}
	}
	return c.titles[title], nil
}

// InvalidateTitles forgets the known tabs, e.g. after one was deleted by hand.
func (c *Client) InvalidateTitles() {
	c.mu.Lock()
	c.titles = make(map[string]bool)
	c.mu.Unlock()
}

func tableValues(rows []ports.Row) [][]any {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}

// a1Range quotes the tab title so titles with spaces or quotes stay valid.
func a1Range(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// Package sheets reads deal rows from a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/aristath/coinvest/internal/modules/deals"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Config selects the spreadsheet and credentials
type Config struct {
	URLOrKey        string // sheet URL or bare spreadsheet key
	Worksheet       string // empty = first worksheet
	CredentialsJSON string // service account JSON, takes precedence over CredentialsFile
	CredentialsFile string
	// ClientOptions are appended after the credential options
	ClientOptions []option.ClientOption
}

// Client for the Google Sheets v4 API
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger

	mu             sync.Mutex
	firstWorksheet string
}

// NewClient creates a Sheets client.
// Without explicit credentials, Application Default Credentials are used.
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	id, err := SpreadsheetID(cfg.URLOrKey)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	opts = append(opts, cfg.ClientOptions...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: id,
		worksheet:     cfg.Worksheet,
		log:           log.With().Str("client", "google-sheets").Logger(),
	}, nil
}

// SpreadsheetID extracts the spreadsheet key from a sheet URL, or returns a bare key unchanged
func SpreadsheetID(urlOrKey string) (string, error) {
	s := strings.TrimSpace(urlOrKey)
	if s == "" {
		return "", errors.New("spreadsheet URL or key is empty")
	}
	if m := spreadsheetIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if strings.Contains(s, "/") {
		return "", fmt.Errorf("cannot find a spreadsheet key in %q", s)
	}
	return s, nil
}

// FetchRows reads the worksheet. Row 1 holds the headers.
func (c *Client) FetchRows(ctx context.Context) ([]map[string]string, error) {
	worksheet, err := c.resolveWorksheet(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("spreadsheet", c.spreadsheetID).Str("worksheet", worksheet).Msg("Fetching sheet values")

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheetName(worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read values of %q: %w", worksheet, err)
	}

	return deals.TableToRows(toTable(resp.Values)), nil
}

// Info describes the spreadsheet and the worksheet in use
func (c *Client) Info(ctx context.Context) (deals.SourceInfo, error) {
	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return deals.SourceInfo{}, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	info := deals.SourceInfo{
		Kind: "google",
		URL:  "https://docs.google.com/spreadsheets/d/" + c.spreadsheetID,
	}
	if ss.Properties != nil {
		info.Title = ss.Properties.Title
	}

	sheet := pickSheet(ss, c.worksheet)
	if sheet == nil {
		return info, fmt.Errorf("worksheet %q not found", c.worksheet)
	}
	info.Worksheet = sheet.Properties.Title
	if grid := sheet.Properties.GridProperties; grid != nil {
		info.Rows = int(grid.RowCount)
		info.Columns = int(grid.ColumnCount)
	}
	return info, nil
}

// resolveWorksheet returns the configured worksheet, or looks up the first one once
func (c *Client) resolveWorksheet(ctx context.Context) (string, error) {
	if c.worksheet != "" {
		return c.worksheet, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstWorksheet != "" {
		return c.firstWorksheet, nil
	}

	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	sheet := pickSheet(ss, "")
	if sheet == nil {
		return "", errors.New("spreadsheet has no worksheets")
	}
	c.firstWorksheet = sheet.Properties.Title
	return c.firstWorksheet, nil
}

func pickSheet(ss *sheets.Spreadsheet, title string) *sheets.Sheet {
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		if title == "" || s.Properties.Title == title {
			return s
		}
	}
	return nil
}

// quoteSheetName turns a worksheet title into an A1 range covering the whole sheet
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toTable(values [][]interface{}) [][]string {
	table := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		table = append(table, cells)
	}
	return table
}

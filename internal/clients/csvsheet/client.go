// Package csvsheet reads deal rows from a published CSV export or a local CSV file.
package csvsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/modules/deals"
)

// maxBodySize caps the size of a downloaded export
const maxBodySize = 16 << 20

// Client reads a CSV deal sheet
type Client struct {
	location string
	client   *http.Client
	maxBody  int64
	log      zerolog.Logger
}

// NewClient creates a client for an http(s) URL or a file path
func NewClient(location string, log zerolog.Logger) *Client {
	return &Client{
		location: strings.TrimSpace(location),
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBody:  maxBodySize,
		log:      log.With().Str("client", "csv-sheet").Logger(),
	}
}

func (c *Client) isRemote() bool {
	return strings.HasPrefix(c.location, "http://") || strings.HasPrefix(c.location, "https://")
}

// FetchRows reads the sheet. The first record holds the headers.
func (c *Client) FetchRows(ctx context.Context) ([]map[string]string, error) {
	table, err := c.readTable(ctx)
	if err != nil {
		return nil, err
	}
	return deals.TableToRows(table), nil
}

// Info describes the CSV source
func (c *Client) Info(ctx context.Context) (deals.SourceInfo, error) {
	table, err := c.readTable(ctx)
	if err != nil {
		return deals.SourceInfo{}, err
	}

	info := deals.SourceInfo{
		Kind:  "csv",
		Title: filepath.Base(c.location),
		Rows:  len(table),
	}
	if c.isRemote() {
		info.URL = c.location
	}
	if len(table) > 0 {
		info.Columns = len(table[0])
	}
	return info, nil
}

func (c *Client) readTable(ctx context.Context) ([][]string, error) {
	if c.location == "" {
		return nil, errors.New("CSV location is empty")
	}

	var body io.Reader
	if c.isRemote() {
		data, err := c.download(ctx)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	} else {
		f, err := os.Open(c.location)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer f.Close()
		body = f
	}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deals.ErrMalformedSource, err)
	}
	return table, nil
}

// download returns the whole export. A body over the size cap is rejected
// rather than cut, since a truncated last row still parses.
func (c *Client) download(ctx context.Context) ([]byte, error) {
	c.log.Debug().Str("url", c.location).Msg("Downloading CSV export")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CSV request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CSV request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV export: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: export exceeds %d bytes", deals.ErrMalformedSource, c.maxBody)
	}
	return data, nil
}

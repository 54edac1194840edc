package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/google"
)

const (
	apiBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	scopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
)

// Client is an authenticated Google Sheets v4 API client scoped to one
// spreadsheet. Every call is a single attempt; failures bubble up.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
}

// NewClient builds a client from service-account JSON credentials.
func NewClient(ctx context.Context, credentials []byte, spreadsheetID string) (*Client, error) {
	cfg, err := google.JWTConfigFromJSON(credentials, scopeSpreadsheets)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	return &Client{
		httpClient:    cfg.Client(ctx),
		baseURL:       apiBaseURL,
		spreadsheetID: spreadsheetID,
	}, nil
}

// NewClientWithHTTP builds a client over an existing HTTP client and
// base URL. Used by tests to point at a fake API server.
func NewClientWithHTTP(httpClient *http.Client, baseURL, spreadsheetID string) *Client {
	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		spreadsheetID: spreadsheetID,
	}
}

// valueRange mirrors the API's ValueRange resource.
type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// ReadRange fetches cell values for an A1 range. Trailing empty cells
// and rows are omitted by the API.
func (c *Client) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/%s/values/%s", c.baseURL, c.spreadsheetID, url.PathEscape(a1))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decoding value range: %w", err)
	}
	return vr.Values, nil
}

// UpdateRange writes values into an A1 range, interpreting input the
// way a user typing into the sheet would.
func (c *Client) UpdateRange(ctx context.Context, a1 string, values [][]string) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=USER_ENTERED",
		c.baseURL, c.spreadsheetID, url.PathEscape(a1))

	_, err := c.do(ctx, http.MethodPut, endpoint, valueRange{Values: values})
	return err
}

// AppendRow appends one row after the last row of the table in range.
func (c *Client) AppendRow(ctx context.Context, a1 string, row []string) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		c.baseURL, c.spreadsheetID, url.PathEscape(a1))

	_, err := c.do(ctx, http.MethodPost, endpoint, valueRange{Values: [][]string{row}})
	return err
}

// spreadsheetMeta mirrors the sheet-listing part of the Spreadsheet resource.
type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

// SheetTitles lists the worksheet titles in the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=sheets.properties.title", c.baseURL, c.spreadsheetID)

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var meta spreadsheetMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding spreadsheet metadata: %w", err)
	}

	titles := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

// AddSheet creates a new worksheet with the given title.
func (c *Client) AddSheet(ctx context.Context, title string) error {
	endpoint := fmt.Sprintf("%s/%s:batchUpdate", c.baseURL, c.spreadsheetID)

	req := map[string]interface{}{
		"requests": []map[string]interface{}{
			{"addSheet": map[string]interface{}{
				"properties": map[string]interface{}{"title": title},
			}},
		},
	}
	_, err := c.do(ctx, http.MethodPost, endpoint, req)
	return err
}

// do performs one API call and returns the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets API request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

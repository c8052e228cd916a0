package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/models"
)

// HTTPClient implements DataSource by calling the FitScan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The server resolves the user from the
// device header, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. An empty
// deviceID suits servers running in dev or tailscale auth mode.
func NewHTTPClient(baseURL, deviceID string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		deviceID:   deviceID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Dashboard(ctx context.Context, _ string) (*app.Dashboard, error) {
	var d app.Dashboard
	if err := c.get(ctx, "/api/v1/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) ListEquipment(ctx context.Context, _ string) ([]models.EquipmentRecord, error) {
	var records []models.EquipmentRecord
	if err := c.get(ctx, "/api/v1/equipment", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) TodayWorkout(ctx context.Context, _ string, day int) (*models.WorkoutPlan, error) {
	var params url.Values
	if day != 0 {
		params = url.Values{"day": []string{strconv.Itoa(day)}}
	}
	var plan models.WorkoutPlan
	if err := c.get(ctx, "/api/v1/workouts/today", params, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) Progress(ctx context.Context, _ string) (*models.WorkoutProgress, error) {
	var p models.WorkoutProgress
	if err := c.get(ctx, "/api/v1/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

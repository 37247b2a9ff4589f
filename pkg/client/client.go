package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Client is the API client for issue-delivery-scorecard
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Scorecard is the ranked scorecard together with the run that produced it
type Scorecard struct {
	Cards []domain.ProductScorecard
	Run   domain.ProcessingRun
}

// RecordFilter narrows GetRecords. Zero fields do not filter.
type RecordFilter struct {
	Status   domain.DeliveryStatus
	Product  string
	Excluded *bool
}

// GetScorecard retrieves the ranked product scorecard
func (c *Client) GetScorecard() (*Scorecard, error) {
	var response struct {
		Data []domain.ProductScorecard `json:"data"`
		Run  domain.ProcessingRun      `json:"run"`
	}
	if err := c.get("/api/v1/scorecard", nil, &response); err != nil {
		return nil, err
	}
	return &Scorecard{Cards: response.Data, Run: response.Run}, nil
}

// GetSummary retrieves the spread of on-time rates
func (c *Client) GetSummary() (*domain.ScorecardSummary, error) {
	var response struct {
		Data *domain.ScorecardSummary `json:"data"`
	}
	if err := c.get("/api/v1/scorecard/summary", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRemovalReport retrieves the exclusion counts
func (c *Client) GetRemovalReport() (*domain.RemovalReport, error) {
	var response struct {
		Data *domain.RemovalReport `json:"data"`
	}
	if err := c.get("/api/v1/removal-report", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRecords retrieves the classified records matching filter
func (c *Client) GetRecords(filter RecordFilter) ([]domain.Record, error) {
	params := url.Values{}
	if filter.Status != domain.StatusUnknown {
		params.Set("status", string(filter.Status))
	}
	if filter.Product != "" {
		params.Set("product", filter.Product)
	}
	if filter.Excluded != nil {
		params.Set("excluded", strconv.FormatBool(*filter.Excluded))
	}

	var response struct {
		Data []domain.Record `json:"data"`
	}
	if err := c.get("/api/v1/records", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

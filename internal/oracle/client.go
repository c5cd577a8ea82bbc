// Package oracle is the HTTP adapter for the external prediction service,
// which estimates how a given MP would vote on a given bill.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/models"
)

// Client is the prediction oracle contract consumed by the job manager.
type Client interface {
	Predict(ctx context.Context, member models.Member, bill models.BillInput) (*models.PredictionResponse, error)
}

// HTTPClient talks to the oracle over its REST API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	MemberUUID string           `json:"memberUuid"`
	Slug       string           `json:"slug"`
	PartyCode  string           `json:"partyCode"`
	Bill       models.BillInput `json:"bill"`
}

// Predict calls POST {base}/predict for a single member. Network failures,
// timeouts and 5xx/429 responses come back as retryable ORACLE_TRANSIENT
// errors; other non-200 responses are ORACLE_FATAL and must not be retried.
func (c *HTTPClient) Predict(ctx context.Context, member models.Member, bill models.BillInput) (*models.PredictionResponse, error) {
	reqBody := predictRequest{
		MemberUUID: member.MemberUUID,
		Slug:       member.Slug,
		PartyCode:  member.PartyCode,
		Bill:       bill,
	}
	data, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/predict", c.BaseURL), bytes.NewBuffer(data))
	if err != nil {
		return nil, apperrors.NewOracleFatalError(member.Slug, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// Covers timeouts, refused connections, DNS failures.
		return nil, apperrors.NewOracleTransientError(member.Slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		cause := fmt.Errorf("oracle error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, apperrors.NewOracleTransientError(member.Slug, cause)
		}
		return nil, apperrors.NewOracleFatalError(member.Slug, cause)
	}

	var pred models.PredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, apperrors.NewOracleTransientError(member.Slug, fmt.Errorf("decode response: %w", err))
	}

	// The oracle does not always echo the member back.
	if pred.Slug == "" {
		pred.Slug = member.Slug
	}
	if pred.Name == "" {
		pred.Name = member.Name
	}
	if pred.PartyCode == "" {
		pred.PartyCode = member.PartyCode
	}

	return &pred, nil
}

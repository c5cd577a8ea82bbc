// internal/oracle/client_test.go
package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/models"
)

var testMember = models.Member{
	MemberUUID: "uuid-1",
	Slug:       "jaak-tamm",
	Name:       "Jaak Tamm",
	PartyCode:  "RE",
}

var testBill = models.BillInput{Title: "Test Bill"}

func TestHTTPClient_Predict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jaak-tamm", req.Slug)
		assert.Equal(t, "Test Bill", req.Bill.Title)

		json.NewEncoder(w).Encode(models.PredictionResponse{
			Slug:       "jaak-tamm",
			Prediction: models.DecisionFor,
			Confidence: 0.87,
			Features: []models.FeatureContribution{
				{Name: "party_alignment", Value: 0.61},
				{Name: "topic_similarity", Value: 0.26},
			},
			ModelVersion: "gbm-2025-06",
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", 5*time.Second)
	pred, err := client.Predict(context.Background(), testMember, testBill)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionFor, pred.Prediction)
	assert.InDelta(t, 0.87, pred.Confidence, 1e-9)
	assert.Len(t, pred.Features, 2)
	assert.Equal(t, "gbm-2025-06", pred.ModelVersion)
}

func TestHTTPClient_Predict_BackfillsMemberFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Oracle response without member identification.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"prediction":   "AGAINST",
			"confidence":   0.52,
			"modelVersion": "baseline-v1",
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second)
	pred, err := client.Predict(context.Background(), testMember, testBill)
	require.NoError(t, err)

	assert.Equal(t, "jaak-tamm", pred.Slug)
	assert.Equal(t, "Jaak Tamm", pred.Name)
	assert.Equal(t, "RE", pred.PartyCode)
}

func TestHTTPClient_Predict_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
		wantCode      apperrors.ErrorCode
	}{
		{name: "server error is transient", status: http.StatusInternalServerError, wantRetryable: true, wantCode: apperrors.ErrCodeOracleTransient},
		{name: "bad gateway is transient", status: http.StatusBadGateway, wantRetryable: true, wantCode: apperrors.ErrCodeOracleTransient},
		{name: "rate limit is transient", status: http.StatusTooManyRequests, wantRetryable: true, wantCode: apperrors.ErrCodeOracleTransient},
		{name: "bad request is fatal", status: http.StatusBadRequest, wantRetryable: false, wantCode: apperrors.ErrCodeOracleFatal},
		{name: "not found is fatal", status: http.StatusNotFound, wantRetryable: false, wantCode: apperrors.ErrCodeOracleFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "oracle says no", tt.status)
			}))
			defer srv.Close()

			client := NewHTTPClient(srv.URL, "", time.Second)
			_, err := client.Predict(context.Background(), testMember, testBill)

			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, apperrors.IsRetryable(err))
			assert.True(t, apperrors.IsCode(err, tt.wantCode))
		})
	}
}

func TestHTTPClient_Predict_ConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.Predict(context.Background(), testMember, testBill)

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeOracleTransient))
}

func TestHTTPClient_Predict_MalformedBodyIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.Predict(context.Background(), testMember, testBill)

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

package api

import (
	"context"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// GetMeetingAnalytics retrieves meeting statistics.
func GetMeetingAnalytics(ctx context.Context, httpClient *http.Client, baseURL string) (types.Analytics, error) {
	return send[types.Analytics](ctx, httpClient, "get meeting analytics", http.MethodGet, baseURL+"/analytics/meetings", nil)
}

// GetParticipantAnalytics retrieves participant statistics.
func GetParticipantAnalytics(ctx context.Context, httpClient *http.Client, baseURL string) (types.Analytics, error) {
	return send[types.Analytics](ctx, httpClient, "get participant analytics", http.MethodGet, baseURL+"/analytics/participants", nil)
}

// GetActionItemAnalytics retrieves action item statistics.
func GetActionItemAnalytics(ctx context.Context, httpClient *http.Client, baseURL string) (types.Analytics, error) {
	return send[types.Analytics](ctx, httpClient, "get action item analytics", http.MethodGet, baseURL+"/analytics/action-items", nil)
}

// GetSentimentAnalytics retrieves sentiment statistics.
func GetSentimentAnalytics(ctx context.Context, httpClient *http.Client, baseURL string) (types.Analytics, error) {
	return send[types.Analytics](ctx, httpClient, "get sentiment analytics", http.MethodGet, baseURL+"/analytics/sentiment", nil)
}

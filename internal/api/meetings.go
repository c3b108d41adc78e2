package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// ListMeetings retrieves all meetings.
func ListMeetings(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.Meeting, error) {
	return send[[]types.Meeting](ctx, httpClient, "get meetings", http.MethodGet, baseURL+"/meetings", nil)
}

// CreateMeeting persists a new meeting and returns the server copy.
func CreateMeeting(ctx context.Context, httpClient *http.Client, baseURL string, req types.MeetingRequest) (*types.Meeting, error) {
	return send[*types.Meeting](ctx, httpClient, "create meeting", http.MethodPost, baseURL+"/meetings", req)
}

// GetMeeting retrieves a specific meeting.
func GetMeeting(ctx context.Context, httpClient *http.Client, baseURL, meetingID string) (*types.Meeting, error) {
	if err := types.ValidateIDPresent(meetingID, "meetingId"); err != nil {
		return nil, err
	}
	return send[*types.Meeting](ctx, httpClient, "get meeting", http.MethodGet, resourceURL(baseURL, "/meetings", meetingID), nil)
}

// UpdateMeeting replaces a meeting and returns the server copy.
func UpdateMeeting(ctx context.Context, httpClient *http.Client, baseURL, meetingID string, req types.MeetingRequest) (*types.Meeting, error) {
	if err := types.ValidateIDPresent(meetingID, "meetingId"); err != nil {
		return nil, err
	}
	return send[*types.Meeting](ctx, httpClient, "update meeting", http.MethodPut, resourceURL(baseURL, "/meetings", meetingID), req)
}

// DeleteMeeting deletes a meeting. The backend may answer 200 or 204.
func DeleteMeeting(ctx context.Context, httpClient *http.Client, baseURL, meetingID string) error {
	if err := types.ValidateIDPresent(meetingID, "meetingId"); err != nil {
		return err
	}
	_, err := send[json.RawMessage](ctx, httpClient, "delete meeting", http.MethodDelete, resourceURL(baseURL, "/meetings", meetingID), nil)
	return err
}

// GetMeetingSummary retrieves the generated summary of a meeting.
func GetMeetingSummary(ctx context.Context, httpClient *http.Client, baseURL, meetingID string) (*types.MeetingSummary, error) {
	if err := types.ValidateIDPresent(meetingID, "meetingId"); err != nil {
		return nil, err
	}
	return send[*types.MeetingSummary](ctx, httpClient, "get meeting summary", http.MethodGet, resourceURL(baseURL, "/meetings", meetingID)+"/summary", nil)
}

// AnalyzeMeeting asks the backend to run retrieval-augmented analysis.
func AnalyzeMeeting(ctx context.Context, httpClient *http.Client, baseURL string, req types.AnalyzeMeetingRequest) (*types.AnalysisResult, error) {
	if err := types.ValidateIDPresent(req.MeetingID, "meeting_id"); err != nil {
		return nil, err
	}
	return send[*types.AnalysisResult](ctx, httpClient, "analyze meeting", http.MethodPost, baseURL+"/meetings/analyze", req)
}

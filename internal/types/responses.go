package types

import (
	"encoding/json"
	"time"
)

// ------------------------------
// Response Types
// ------------------------------

// Envelope is the success shape of every backend response: {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the error shape of a backend response: {"error": {"message": ...}}.
type ErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// BotResponse is the assistant reply embedded in a send-message response.
type BotResponse struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sources   []Source  `json:"sources,omitempty"`
}

// SendMessageResponse is the data member of a send-message response. BotResponse
// is nil when the backend answers asynchronously.
type SendMessageResponse struct {
	UserMessage *Message     `json:"user_message,omitempty"`
	BotResponse *BotResponse `json:"bot_response,omitempty"`
}

// MeetingSummary is the data member of GET /meetings/{id}/summary.
type MeetingSummary struct {
	MeetingID        string   `json:"meeting_id"`
	Summary          string   `json:"summary"`
	Summary5         []string `json:"summary5,omitempty"`
	KeyTopics        []string `json:"key_topics,omitempty"`
	SentimentOverall string   `json:"sentiment_overall,omitempty"`
}

// AnalysisResult is the data member of POST /meetings/analyze.
type AnalysisResult struct {
	MeetingID string          `json:"meeting_id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// AudioStatus is the data member of GET /audio/{id}/status.
type AudioStatus struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress,omitempty"`
}

// Transcription is the data member of GET /audio/{id}/transcription.
type Transcription struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Segments json.RawMessage `json:"segments,omitempty"`
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Analytics is a free-form analytics document.
type Analytics map[string]any

// Package client is the meetnote SDK: typed access to the meeting backend plus
// the orchestration objects (Chat, MeetingChat, Meetings, MeetingDetail,
// Uploader) that keep per-surface state and degrade to local data when the
// backend is unreachable.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/meetnote/client/internal/api"
	"github.com/meetnote/client/internal/availability"
	"github.com/meetnote/client/internal/config"
	"github.com/meetnote/client/internal/types"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	baseURL   string
	healthURL string
	http      *http.Client
	exec      executor
	checker   availability.Checker

	probeTimeout       time.Duration
	replyDelay         time.Duration
	resetDelay         time.Duration
	mockUploadDuration time.Duration
	now                func() time.Time

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for the versioned API root baseURL (for example
// http://localhost:5000/v1). Additional options can be provided via functional
// arguments.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	c := &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		healthURL:          config.DefaultHealthURL,
		http:               &http.Client{Timeout: config.DefaultHTTPTimeout},
		probeTimeout:       config.DefaultProbeTimeout,
		replyDelay:         config.DefaultReplyDelay,
		resetDelay:         config.DefaultProgressResetDelay,
		mockUploadDuration: config.DefaultMockUploadDuration,
		now:                time.Now,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.checker == nil {
		c.checker = availability.NewProber(c.healthURL, c.probeTimeout, c.http)
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor()
	}
	return c, nil
}

// Close stops the send queue. Chats and uploaders built from c fail with
// ErrClosed afterwards. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

func (c *Client) closed() bool { return atomic.LoadUint32(&c.closedOnce) == 1 }

// AwaitSession blocks until every send previously queued for sessionID has
// been reconciled.
func (c *Client) AwaitSession(ctx context.Context, sessionID string) error {
	if c.closed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.exec.Barrier(ctx, sessionID)
}

// IsBackendAvailable probes the health endpoint. It never fails.
func (c *Client) IsBackendAvailable(ctx context.Context) bool {
	return c.checker.Available(ctx)
}

// CheckHealth fetches the health document.
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	return api.CheckHealth(ctx, c.http, c.healthURL)
}

// localID mints an id of the form prefix-<unix-ms>.
func (c *Client) localID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, c.now().UnixMilli())
}

// --------------------------------------------------------------------
// Meeting operations - delegated to internal/api
// --------------------------------------------------------------------

// ListMeetings retrieves all meetings.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	return api.ListMeetings(ctx, c.http, c.baseURL)
}

// CreateMeeting persists a meeting.
func (c *Client) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	return api.CreateMeeting(ctx, c.http, c.baseURL, req)
}

// GetMeeting retrieves a meeting by id.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	return api.GetMeeting(ctx, c.http, c.baseURL, meetingID)
}

// UpdateMeeting replaces a meeting.
func (c *Client) UpdateMeeting(ctx context.Context, meetingID string, req MeetingRequest) (*Meeting, error) {
	return api.UpdateMeeting(ctx, c.http, c.baseURL, meetingID, req)
}

// DeleteMeeting deletes a meeting.
func (c *Client) DeleteMeeting(ctx context.Context, meetingID string) error {
	return api.DeleteMeeting(ctx, c.http, c.baseURL, meetingID)
}

// GetMeetingSummary retrieves a meeting's generated summary.
func (c *Client) GetMeetingSummary(ctx context.Context, meetingID string) (*MeetingSummary, error) {
	return api.GetMeetingSummary(ctx, c.http, c.baseURL, meetingID)
}

// AnalyzeMeeting runs backend analysis on a meeting.
func (c *Client) AnalyzeMeeting(ctx context.Context, req AnalyzeMeetingRequest) (*AnalysisResult, error) {
	return api.AnalyzeMeeting(ctx, c.http, c.baseURL, req)
}

// --------------------------------------------------------------------
// Chat operations - delegated to internal/api
// --------------------------------------------------------------------

// ListChatSessions retrieves all chat sessions.
func (c *Client) ListChatSessions(ctx context.Context) ([]Session, error) {
	return api.ListChatSessions(ctx, c.http, c.baseURL)
}

// CreateChatSession creates a session on the backend.
func (c *Client) CreateChatSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	return api.CreateChatSession(ctx, c.http, c.baseURL, req)
}

// GetChatSession retrieves a session with its messages.
func (c *Client) GetChatSession(ctx context.Context, sessionID string) (*Session, error) {
	return api.GetChatSession(ctx, c.http, c.baseURL, sessionID)
}

// SendChatMessage posts a message without any local state or fallback. Use
// Chat.SendMessage for the orchestrated flow.
func (c *Client) SendChatMessage(ctx context.Context, sessionID string, req SendMessageRequest) (*SendMessageResponse, error) {
	return api.SendMessage(ctx, c.http, c.baseURL, sessionID, req)
}

// --------------------------------------------------------------------
// File operations - delegated to internal/api
// --------------------------------------------------------------------

// ListFiles retrieves all file records.
func (c *Client) ListFiles(ctx context.Context) ([]UploadedFile, error) {
	return api.ListFiles(ctx, c.http, c.baseURL)
}

// GetFile retrieves a file record.
func (c *Client) GetFile(ctx context.Context, fileID string) (*UploadedFile, error) {
	return api.GetFile(ctx, c.http, c.baseURL, fileID)
}

// CreateFileMetadata registers file metadata.
func (c *Client) CreateFileMetadata(ctx context.Context, req FileMetadataRequest) (*UploadedFile, error) {
	return api.CreateFileMetadata(ctx, c.http, c.baseURL, req)
}

// UpdateFileMetadata replaces file metadata.
func (c *Client) UpdateFileMetadata(ctx context.Context, fileID string, req FileMetadataRequest) (*UploadedFile, error) {
	return api.UpdateFileMetadata(ctx, c.http, c.baseURL, fileID, req)
}

// DeleteFile deletes a file record.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return api.DeleteFile(ctx, c.http, c.baseURL, fileID)
}

// UploadTextFile uploads f as a text file. No validation or progress tracking
// is done here; see Uploader.UploadText.
func (c *Client) UploadTextFile(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	form, err := newUploadForm(f, metadata, KindText)
	if err != nil {
		return nil, err
	}
	rec, err := api.UploadTextFile(ctx, c.http, c.baseURL, form)
	return c.completeFile(f, KindText, metadata, rec, err)
}

// UploadAudioFile uploads f as an audio file.
func (c *Client) UploadAudioFile(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	form, err := newUploadForm(f, metadata, KindAudio)
	if err != nil {
		return nil, err
	}
	rec, err := api.UploadAudioFile(ctx, c.http, c.baseURL, form)
	return c.completeFile(f, KindAudio, metadata, rec, err)
}

// --------------------------------------------------------------------
// Audio operations - delegated to internal/api
// --------------------------------------------------------------------

// UploadAudio posts a recording for transcription.
func (c *Client) UploadAudio(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	form, err := newUploadForm(f, metadata, KindAudio)
	if err != nil {
		return nil, err
	}
	rec, err := api.UploadAudio(ctx, c.http, c.baseURL, form)
	return c.completeFile(f, KindAudio, metadata, rec, err)
}

// GetAudioStatus reports a recording's processing state.
func (c *Client) GetAudioStatus(ctx context.Context, audioID string) (*AudioStatus, error) {
	return api.GetAudioStatus(ctx, c.http, c.baseURL, audioID)
}

// GetTranscription retrieves a recording's transcription.
func (c *Client) GetTranscription(ctx context.Context, audioID string) (*Transcription, error) {
	return api.GetTranscription(ctx, c.http, c.baseURL, audioID)
}

// --------------------------------------------------------------------
// Employee and action item operations - delegated to internal/api
// --------------------------------------------------------------------

// ListEmployees retrieves all employees.
func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	return api.ListEmployees(ctx, c.http, c.baseURL)
}

// CreateEmployee registers an employee.
func (c *Client) CreateEmployee(ctx context.Context, req EmployeeRequest) (*Employee, error) {
	return api.CreateEmployee(ctx, c.http, c.baseURL, req)
}

// GetEmployee retrieves an employee.
func (c *Client) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return api.GetEmployee(ctx, c.http, c.baseURL, employeeID)
}

// UpdateEmployee replaces an employee record.
func (c *Client) UpdateEmployee(ctx context.Context, employeeID string, req EmployeeRequest) (*Employee, error) {
	return api.UpdateEmployee(ctx, c.http, c.baseURL, employeeID, req)
}

// DeleteEmployee deactivates an employee.
func (c *Client) DeleteEmployee(ctx context.Context, employeeID string) error {
	return api.DeleteEmployee(ctx, c.http, c.baseURL, employeeID)
}

// ListActionItems retrieves all action items.
func (c *Client) ListActionItems(ctx context.Context) ([]ActionItemRecord, error) {
	return api.ListActionItems(ctx, c.http, c.baseURL)
}

// CreateActionItem creates an action item.
func (c *Client) CreateActionItem(ctx context.Context, req ActionItemRequest) (*ActionItemRecord, error) {
	return api.CreateActionItem(ctx, c.http, c.baseURL, req)
}

// UpdateActionItem replaces an action item.
func (c *Client) UpdateActionItem(ctx context.Context, itemID string, req ActionItemRequest) (*ActionItemRecord, error) {
	return api.UpdateActionItem(ctx, c.http, c.baseURL, itemID, req)
}

// DeleteActionItem deletes an action item.
func (c *Client) DeleteActionItem(ctx context.Context, itemID string) error {
	return api.DeleteActionItem(ctx, c.http, c.baseURL, itemID)
}

// --------------------------------------------------------------------
// Analytics - delegated to internal/api
// --------------------------------------------------------------------

// MeetingAnalytics retrieves meeting statistics.
func (c *Client) MeetingAnalytics(ctx context.Context) (Analytics, error) {
	return api.GetMeetingAnalytics(ctx, c.http, c.baseURL)
}

// ParticipantAnalytics retrieves participant statistics.
func (c *Client) ParticipantAnalytics(ctx context.Context) (Analytics, error) {
	return api.GetParticipantAnalytics(ctx, c.http, c.baseURL)
}

// ActionItemAnalytics retrieves action item statistics.
func (c *Client) ActionItemAnalytics(ctx context.Context) (Analytics, error) {
	return api.GetActionItemAnalytics(ctx, c.http, c.baseURL)
}

// SentimentAnalytics retrieves sentiment statistics.
func (c *Client) SentimentAnalytics(ctx context.Context) (Analytics, error) {
	return api.GetSentimentAnalytics(ctx, c.http, c.baseURL)
}

// completeFile fills identity fields an upload answer left empty from a
// locally built record for f.
func (c *Client) completeFile(f File, kind FileKind, metadata map[string]string, rec *types.UploadedFile, err error) (*UploadedFile, error) {
	if err != nil {
		return nil, err
	}
	return completeUpload(rec, c.fileCandidate("file", f, kind, metadata)), nil
}

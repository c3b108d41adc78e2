package types

import "time"

// ------------------------------
// Request Types
// ------------------------------

// CreateSessionRequest is the body of POST /chat/sessions.
type CreateSessionRequest struct {
	ID          string        `json:"id,omitempty"`
	ContextType ContextType   `json:"context_type"`
	MeetingID   string        `json:"meeting_id,omitempty"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SendMessageRequest is the body of POST /chat/sessions/{id}/messages.
type SendMessageRequest struct {
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
}

// MeetingRequest is the body of POST /meetings and PUT /meetings/{id}.
// It carries the full meeting document.
type MeetingRequest = Meeting

// AnalyzeMeetingRequest is the body of POST /meetings/analyze.
type AnalyzeMeetingRequest struct {
	MeetingID string         `json:"meeting_id"`
	Options   map[string]any `json:"options,omitempty"`
	Query     string         `json:"query,omitempty"`
}

// FileMetadataRequest is the body of POST /files and PUT /files/{id}.
type FileMetadataRequest struct {
	Kind     FileKind          `json:"kind,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	FileSize int64             `json:"file_size,omitempty"`
	Status   FileStatus        `json:"status,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// EmployeeRequest is the body of POST /employees and PUT /employees/{id}.
type EmployeeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

// ActionItemRequest is the body of POST /action-items and PUT /action-items/{id}.
type ActionItemRequest struct {
	MeetingID string `json:"meeting_id,omitempty"`
	Assignee  string `json:"assignee"`
	Task      string `json:"task"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status,omitempty"`
}

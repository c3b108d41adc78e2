package types

import "time"

// ------------------------------
// Enumerations
// ------------------------------

// ContextType scopes a chat session.
type ContextType string

const (
	ContextGeneral ContextType = "general"
	ContextMeeting ContextType = "meeting"
)

// SessionStatus is the lifecycle state of a chat session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// MessageType identifies the author of a chat message.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageBot  MessageType = "bot"
)

// MeetingStatus is the processing state of a meeting.
type MeetingStatus string

const (
	MeetingProcessing MeetingStatus = "processing"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingFailed     MeetingStatus = "failed"
)

// FileKind discriminates uploaded files. KindUnknown is never sent to the backend
// as a discriminator; it only results from type detection.
type FileKind string

const (
	KindText    FileKind = "text"
	KindAudio   FileKind = "audio"
	KindUnknown FileKind = "unknown"
)

// FileStatus is the server-owned state of an uploaded file.
type FileStatus string

const (
	FileUploaded   FileStatus = "uploaded"
	FileProcessing FileStatus = "processing"
	FileFailed     FileStatus = "failed"
	FileDeleted    FileStatus = "deleted"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Source is a reference attached to a bot answer.
type Source struct {
	MeetingID string  `json:"meeting_id,omitempty"`
	Title     string  `json:"title,omitempty"`
	Snippet   string  `json:"snippet,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// Message is a single chat message.
type Message struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Sources   []Source    `json:"sources,omitempty"`
}

// Session is a conversation context, optionally scoped to a meeting.
type Session struct {
	ID          string        `json:"id"`
	ContextType ContextType   `json:"context_type"`
	MeetingID   string        `json:"meeting_id,omitempty"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Messages    []Message     `json:"messages,omitempty"`
}

// Participant attended a meeting.
type Participant struct {
	Name string `json:"name"`
}

// ActionItem is a task attached to a meeting.
type ActionItem struct {
	Assignee string `json:"assignee"`
	Task     string `json:"task"`
	DueDate  string `json:"due_date"`
}

// Meeting is a processed record derived from an uploaded file.
type Meeting struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	FileID           string        `json:"file_id,omitempty"`
	Description      string        `json:"description,omitempty"`
	Status           MeetingStatus `json:"status"`
	DateYMD          string        `json:"date_ymd"`
	TimeHM           string        `json:"time_hm"`
	Summary          string        `json:"summary"`
	Summary5         []string      `json:"summary5,omitempty"`
	Participants     []Participant `json:"participants"`
	ActionItems      []ActionItem  `json:"action_items"`
	KeyTopics        []string      `json:"key_topics,omitempty"`
	SentimentOverall string        `json:"sentiment_overall,omitempty"`
	FullTranscript   string        `json:"full_transcript,omitempty"`
}

// UploadedFile is the record the backend keeps for an upload.
type UploadedFile struct {
	ID         string            `json:"id"`
	Kind       FileKind          `json:"kind"`
	FileName   string            `json:"file_name"`
	FileSize   int64             `json:"file_size"`
	Status     FileStatus        `json:"status"`
	UploadTime time.Time         `json:"upload_time"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Employee is a member of staff known to the backend.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ActionItemRecord is a standalone action item as served by /action-items.
type ActionItemRecord struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id,omitempty"`
	Assignee  string `json:"assignee"`
	Task      string `json:"task"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status,omitempty"`
}

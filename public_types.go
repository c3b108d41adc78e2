package client

import "github.com/meetnote/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	CreateSessionRequest  = types.CreateSessionRequest
	SendMessageRequest    = types.SendMessageRequest
	MeetingRequest        = types.MeetingRequest
	AnalyzeMeetingRequest = types.AnalyzeMeetingRequest
	FileMetadataRequest   = types.FileMetadataRequest
	EmployeeRequest       = types.EmployeeRequest
	ActionItemRequest     = types.ActionItemRequest

	// Domain entities
	Session          = types.Session
	Message          = types.Message
	Source           = types.Source
	Meeting          = types.Meeting
	Participant      = types.Participant
	ActionItem       = types.ActionItem
	UploadedFile     = types.UploadedFile
	Employee         = types.Employee
	ActionItemRecord = types.ActionItemRecord

	// Responses
	SendMessageResponse = types.SendMessageResponse
	BotResponse         = types.BotResponse
	MeetingSummary      = types.MeetingSummary
	AnalysisResult      = types.AnalysisResult
	AudioStatus         = types.AudioStatus
	Transcription       = types.Transcription
	HealthStatus        = types.HealthStatus
	Analytics           = types.Analytics

	// Enumerations
	ContextType   = types.ContextType
	SessionStatus = types.SessionStatus
	MessageType   = types.MessageType
	MeetingStatus = types.MeetingStatus
	FileKind      = types.FileKind
	FileStatus    = types.FileStatus
)

const (
	ContextGeneral = types.ContextGeneral
	ContextMeeting = types.ContextMeeting

	SessionActive = types.SessionActive
	SessionClosed = types.SessionClosed

	MessageUser = types.MessageUser
	MessageBot  = types.MessageBot

	MeetingProcessing = types.MeetingProcessing
	MeetingCompleted  = types.MeetingCompleted
	MeetingFailed     = types.MeetingFailed

	KindText    = types.KindText
	KindAudio   = types.KindAudio
	KindUnknown = types.KindUnknown

	FileUploaded   = types.FileUploaded
	FileProcessing = types.FileProcessing
	FileFailed     = types.FileFailed
	FileDeleted    = types.FileDeleted
)

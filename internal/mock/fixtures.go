// Package mock holds the data served when the backend cannot answer: the
// built-in meeting list and the canned assistant texts.
package mock

import (
	"fmt"

	"github.com/meetnote/client/internal/types"
)

// Fixed message ids of the canned session openers.
const (
	WelcomeMessageID  = "welcome-msg"
	FallbackMessageID = "fallback-msg"
)

// Canned assistant texts.
const (
	WelcomeText         = "Hello! Ask me anything about your meetings. (offline mode)"
	FallbackSessionText = "You are in offline mode. Chat will work normally once the server is connected."
	FailedReplyText     = "Sorry, the server cannot be reached right now, so I cannot give an accurate answer. Please try again shortly."

	MeetingCandidateSummary = "File upload complete. Meeting analysis is in progress."
	MeetingOfflineSummary   = "This meeting was created in offline mode. Full analysis becomes available once the server is connected."

	DefaultMeetingTitle        = "New meeting"
	DefaultOfflineMeetingTitle = "New meeting (offline)"
)

// OfflineReply is the canned answer to question while the backend is down.
func OfflineReply(question string) string {
	return fmt.Sprintf("Here is a reply to %q. Offline mode is active, so no real AI answer is available. Start the backend server to get normal answers.", question)
}

// Meetings returns a fresh copy of the built-in meeting list.
func Meetings() []types.Meeting {
	return []types.Meeting{
		{
			ID:      "mock-meeting-1",
			Title:   "Q3 marketing strategy meeting",
			DateYMD: "2025-09-26",
			TimeHM:  "14:30",
			Status:  types.MeetingCompleted,
			Summary: "Discussed the new product launch plan and marketing budget allocation. Analyzed target customers and set the promotion strategy.",
			Summary5: []string{
				"Planned the new product launch",
				"Discussed marketing budget allocation",
				"Analyzed the target customer base",
				"Developed the promotion strategy",
				"Completed the competitor analysis",
			},
			KeyTopics:        []string{"new product", "marketing", "budget", "customers", "promotion"},
			SentimentOverall: "positive",
			Participants: []types.Participant{
				{Name: "Kim Cheolsu"},
				{Name: "Lee Younghee"},
				{Name: "Park Minsu"},
				{Name: "Choi Jiyeon"},
			},
			ActionItems: []types.ActionItem{
				{Assignee: "Kim Cheolsu", Task: "Write the market research report", DueDate: "2025-09-30"},
				{Assignee: "Lee Younghee", Task: "Prepare the advertising budget proposal", DueDate: "2025-10-05"},
			},
		},
		{
			ID:      "mock-meeting-2",
			Title:   "Dev team sprint review",
			DateYMD: "2025-09-25",
			TimeHM:  "10:00",
			Status:  types.MeetingCompleted,
			Summary: "Reviewed the completed two-week sprint and planned the next one. Checked the status of bug fixes.",
			Summary5: []string{
				"Reviewed the completed sprint",
				"Planned the next sprint",
				"Checked bug fix status",
				"Discussed performance improvements",
				"Set team goals",
			},
			KeyTopics:        []string{"sprint", "development", "bugs", "performance", "planning"},
			SentimentOverall: "neutral",
			Participants: []types.Participant{
				{Name: "Jung Hyunwoo"},
				{Name: "Kim Cheolsu"},
				{Name: "Park Minsu"},
			},
			ActionItems: []types.ActionItem{
				{Assignee: "Jung Hyunwoo", Task: "Add more test cases", DueDate: "2025-09-27"},
				{Assignee: "Kim Cheolsu", Task: "Update the API documentation", DueDate: "2025-09-29"},
			},
		},
	}
}

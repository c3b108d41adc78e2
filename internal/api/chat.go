package api

import (
	"context"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// ListChatSessions retrieves all chat sessions.
func ListChatSessions(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.Session, error) {
	return send[[]types.Session](ctx, httpClient, "get chat sessions", http.MethodGet, baseURL+"/chat/sessions", nil)
}

// CreateChatSession creates a session and returns the server copy.
func CreateChatSession(ctx context.Context, httpClient *http.Client, baseURL string, req types.CreateSessionRequest) (*types.Session, error) {
	if err := types.ValidateContextType(req.ContextType); err != nil {
		return nil, err
	}
	return send[*types.Session](ctx, httpClient, "create chat session", http.MethodPost, baseURL+"/chat/sessions", req)
}

// GetChatSession retrieves a session including its message history.
func GetChatSession(ctx context.Context, httpClient *http.Client, baseURL, sessionID string) (*types.Session, error) {
	if err := types.ValidateIDPresent(sessionID, "sessionId"); err != nil {
		return nil, err
	}
	return send[*types.Session](ctx, httpClient, "get chat session", http.MethodGet, resourceURL(baseURL, "/chat/sessions", sessionID), nil)
}

// SendMessage posts a user message. The response embeds the bot reply when the
// backend answers synchronously.
func SendMessage(ctx context.Context, httpClient *http.Client, baseURL, sessionID string, req types.SendMessageRequest) (*types.SendMessageResponse, error) {
	if err := types.ValidateIDPresent(sessionID, "sessionId"); err != nil {
		return nil, err
	}
	return send[*types.SendMessageResponse](ctx, httpClient, "send message", http.MethodPost, resourceURL(baseURL, "/chat/sessions", sessionID)+"/messages", req)
}

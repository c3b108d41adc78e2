package api

import (
	"context"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// UploadAudio posts audio for transcription.
func UploadAudio(ctx context.Context, httpClient *http.Client, baseURL string, form *Form) (*types.UploadedFile, error) {
	return postForm[*types.UploadedFile](ctx, httpClient, "upload audio", baseURL+"/audio/upload", form)
}

// GetAudioStatus reports the processing state of an uploaded recording.
func GetAudioStatus(ctx context.Context, httpClient *http.Client, baseURL, audioID string) (*types.AudioStatus, error) {
	if err := types.ValidateIDPresent(audioID, "audioId"); err != nil {
		return nil, err
	}
	return send[*types.AudioStatus](ctx, httpClient, "get audio status", http.MethodGet, resourceURL(baseURL, "/audio", audioID)+"/status", nil)
}

// GetTranscription retrieves the transcription of an uploaded recording.
func GetTranscription(ctx context.Context, httpClient *http.Client, baseURL, audioID string) (*types.Transcription, error) {
	if err := types.ValidateIDPresent(audioID, "audioId"); err != nil {
		return nil, err
	}
	return send[*types.Transcription](ctx, httpClient, "get transcription", http.MethodGet, resourceURL(baseURL, "/audio", audioID)+"/transcription", nil)
}

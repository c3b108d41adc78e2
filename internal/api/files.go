package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// ListFiles retrieves all uploaded files.
func ListFiles(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.UploadedFile, error) {
	return send[[]types.UploadedFile](ctx, httpClient, "get files", http.MethodGet, baseURL+"/files", nil)
}

// GetFile retrieves a specific file record.
func GetFile(ctx context.Context, httpClient *http.Client, baseURL, fileID string) (*types.UploadedFile, error) {
	if err := types.ValidateIDPresent(fileID, "fileId"); err != nil {
		return nil, err
	}
	return send[*types.UploadedFile](ctx, httpClient, "get file", http.MethodGet, resourceURL(baseURL, "/files", fileID), nil)
}

// CreateFileMetadata registers file metadata without uploading content.
func CreateFileMetadata(ctx context.Context, httpClient *http.Client, baseURL string, req types.FileMetadataRequest) (*types.UploadedFile, error) {
	return send[*types.UploadedFile](ctx, httpClient, "create file metadata", http.MethodPost, baseURL+"/files", req)
}

// UpdateFileMetadata replaces the metadata of a file record.
func UpdateFileMetadata(ctx context.Context, httpClient *http.Client, baseURL, fileID string, req types.FileMetadataRequest) (*types.UploadedFile, error) {
	if err := types.ValidateIDPresent(fileID, "fileId"); err != nil {
		return nil, err
	}
	return send[*types.UploadedFile](ctx, httpClient, "update file metadata", http.MethodPut, resourceURL(baseURL, "/files", fileID), req)
}

// DeleteFile deletes a file record.
func DeleteFile(ctx context.Context, httpClient *http.Client, baseURL, fileID string) error {
	if err := types.ValidateIDPresent(fileID, "fileId"); err != nil {
		return err
	}
	_, err := send[json.RawMessage](ctx, httpClient, "delete file", http.MethodDelete, resourceURL(baseURL, "/files", fileID), nil)
	return err
}

// UploadTextFile posts a multipart text upload.
func UploadTextFile(ctx context.Context, httpClient *http.Client, baseURL string, form *Form) (*types.UploadedFile, error) {
	return postForm[*types.UploadedFile](ctx, httpClient, "upload text file", baseURL+"/files/text/upload", form)
}

// UploadAudioFile posts a multipart audio upload.
func UploadAudioFile(ctx context.Context, httpClient *http.Client, baseURL string, form *Form) (*types.UploadedFile, error) {
	return postForm[*types.UploadedFile](ctx, httpClient, "upload audio file", baseURL+"/files/audio/upload", form)
}

func postForm[T any](ctx context.Context, httpClient *http.Client, op, endpoint string, form *Form) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, form.Body)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", form.ContentType)
	req.Header.Set("Accept", "application/json")
	return roundTrip[T](httpClient, op, req)
}

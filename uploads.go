package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meetnote/client/internal/api"
	"github.com/meetnote/client/internal/resolve"
	"github.com/meetnote/client/internal/sched"
	"github.com/meetnote/client/internal/types"
)

// MaxFileSize is the largest upload accepted by ValidateFile.
const MaxFileSize int64 = 50 * 1024 * 1024

// Violation messages returned by ValidateFile.
const (
	MsgFileTooLarge         = "File size exceeds 50MB."
	MsgUnsupportedTextType  = "Unsupported text file format."
	MsgUnsupportedAudioType = "Unsupported audio file format."
)

var (
	allowedText = map[string]bool{
		"text/plain":         true,
		"text/csv":           true,
		"application/json":   true,
		"text/markdown":      true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}
	allowedAudio = map[string]bool{
		"audio/mpeg": true,
		"audio/wav":  true,
		"audio/mp4":  true,
		"audio/m4a":  true,
		"audio/webm": true,
		"audio/ogg":  true,
	}
)

// Progress ramps.
const (
	progressCap       = 90
	textRampStep      = 10
	textRampInterval  = 200 * time.Millisecond
	audioRampStep     = 5
	audioRampInterval = 300 * time.Millisecond
	mockRampStep      = 20
	mockRampInterval  = 200 * time.Millisecond
)

// File is an upload candidate. Open is called once per upload attempt.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// NewFile builds an in-memory File.
func NewFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// extensionTypes covers the allow-listed formats whose system MIME mapping is
// missing or differs between platforms.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".md":   "text/markdown",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/m4a",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
}

// OpenFile describes the file at path. The content type comes from the
// extension, falling back to sniffing the first 512 bytes.
func OpenFile(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if st.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	ct, err := contentTypeOf(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		Size:        st.Size(),
		ContentType: ct,
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func contentTypeOf(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionTypes[ext]; ok {
		return ct, nil
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return baseMediaType(ct), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return baseMediaType(http.DetectContentType(head[:n])), nil
}

func baseMediaType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

// DetectFileType classifies a MIME type: audio/* is audio; text/*, any
// *document* type and application/json are text; everything else is unknown.
func DetectFileType(contentType string) FileKind {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio
	case strings.HasPrefix(contentType, "text/"),
		strings.Contains(contentType, "document"),
		contentType == "application/json":
		return KindText
	default:
		return KindUnknown
	}
}

// ValidateFile returns the human-readable violations of f for kind. Size is
// always checked; the MIME allow-list only applies to text and audio.
func ValidateFile(f File, kind FileKind) []string {
	var violations []string
	if f.Size > MaxFileSize {
		violations = append(violations, MsgFileTooLarge)
	}
	switch kind {
	case KindText:
		if !allowedText[f.ContentType] {
			violations = append(violations, MsgUnsupportedTextType)
		}
	case KindAudio:
		if !allowedAudio[f.ContentType] {
			violations = append(violations, MsgUnsupportedAudioType)
		}
	}
	return violations
}

// ValidationError carries the violations found by ValidateFile.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Violations, " ") }

func validate(f File, kind FileKind) error {
	if v := ValidateFile(f, kind); len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

func newUploadForm(f File, metadata map[string]string, kind FileKind) (*api.Form, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	fields := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		fields[k] = v
	}
	fields["kind"] = string(kind)
	return api.NewFileForm(api.Upload{FileName: f.Name, ContentType: f.ContentType, Content: rc}, fields)
}

// --------------------------------------------------------------------
// Uploader
// --------------------------------------------------------------------

// UploadSnapshot is a copy of an Uploader's state.
type UploadSnapshot struct {
	Uploading bool
	Progress  int
	Err       string
	Files     []UploadedFile
}

// Uploader orchestrates file uploads for one surface. Progress only grows
// between resets; a reset happens when an upload starts and a fixed delay
// after it finishes.
type Uploader struct {
	c     *Client
	tasks *sched.Group

	mu        sync.Mutex
	closed    bool
	uploading int
	progress  int
	gen       uint64
	ramp      sched.Cancel
	reset     sched.Cancel
	errMsg    string
	files     []UploadedFile
}

// NewUploader returns an Uploader bound to c.
func (c *Client) NewUploader() *Uploader {
	return &Uploader{c: c, tasks: sched.NewGroup()}
}

// Snapshot returns a copy of the current state.
func (u *Uploader) Snapshot() UploadSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UploadSnapshot{
		Uploading: u.uploading > 0,
		Progress:  u.progress,
		Err:       u.errMsg,
		Files:     copyFiles(u.files),
	}
}

// Progress returns the current upload percentage.
func (u *Uploader) Progress() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.progress
}

// Err returns the reported error, or "".
func (u *Uploader) Err() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.errMsg
}

// ClearError clears the reported error.
func (u *Uploader) ClearError() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errMsg = ""
}

// Close cancels pending progress updates. Later uploads fail with ErrClosed.
func (u *Uploader) Close() {
	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()
	u.tasks.Stop()
}

// begin starts a new progress generation and returns it.
func (u *Uploader) begin() (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed || u.c.closed() {
		return 0, ErrClosed
	}
	u.stopTimersLocked()
	u.gen++
	u.uploading++
	u.progress = 0
	u.errMsg = ""
	return u.gen, nil
}

func (u *Uploader) stopTimersLocked() {
	if u.ramp != nil {
		u.ramp()
		u.ramp = nil
	}
	if u.reset != nil {
		u.reset()
		u.reset = nil
	}
}

// startRamp grows progress by step every interval, capped at progressCap.
func (u *Uploader) startRamp(gen uint64, step int, every time.Duration) {
	cancel := u.tasks.Every(every, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.gen != gen || u.closed {
			return
		}
		if next := min(u.progress+step, progressCap); next > u.progress {
			u.progress = next
		}
	})
	u.mu.Lock()
	if u.gen == gen {
		u.ramp = cancel
	} else {
		cancel()
	}
	u.mu.Unlock()
}

// complete stops the ramp, optionally sets progress to 100, and schedules
// the reset to 0.
func (u *Uploader) complete(gen uint64, succeeded bool) {
	u.mu.Lock()
	if u.gen != gen {
		u.mu.Unlock()
		return
	}
	if u.ramp != nil {
		u.ramp()
		u.ramp = nil
	}
	if succeeded {
		u.progress = 100
	}
	u.mu.Unlock()

	cancel := u.tasks.AfterFunc(u.c.resetDelay, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.gen == gen && !u.closed {
			u.progress = 0
			u.reset = nil
		}
	})
	u.mu.Lock()
	if u.gen == gen {
		u.reset = cancel
	} else {
		cancel()
	}
	u.mu.Unlock()
}

func (u *Uploader) finish() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploading--
}

func (u *Uploader) fail(err error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.closed {
		u.errMsg = HumanMessage(err)
	}
	return err
}

// UploadText validates f as text and uploads it. Failures are reported and
// returned.
func (u *Uploader) UploadText(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	return u.uploadKind(ctx, f, metadata, KindText)
}

// UploadAudio validates f as audio and uploads it. Failures are reported and
// returned.
func (u *Uploader) UploadAudio(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	return u.uploadKind(ctx, f, metadata, KindAudio)
}

func (u *Uploader) uploadKind(ctx context.Context, f File, metadata map[string]string, kind FileKind) (*UploadedFile, error) {
	gen, err := u.begin()
	if err != nil {
		return nil, err
	}
	defer u.finish()

	if err := validate(f, kind); err != nil {
		u.complete(gen, false)
		return nil, u.fail(err)
	}

	step, every := textRampStep, textRampInterval
	upload := api.UploadTextFile
	if kind == KindAudio {
		step, every = audioRampStep, audioRampInterval
		upload = api.UploadAudioFile
	}

	candidate := u.c.fileCandidate("file", f, kind, metadata)
	u.startRamp(gen, step, every)
	rec, _, err := resolve.Attempt(ctx, "upload_"+string(kind), u.c.checker, resolve.Surface,
		func(ctx context.Context) (*UploadedFile, error) {
			form, err := newUploadForm(f, metadata, kind)
			if err != nil {
				return nil, err
			}
			rec, err := upload(ctx, u.c.http, u.c.baseURL, form)
			if err != nil {
				return nil, err
			}
			return completeUpload(rec, candidate), nil
		}, nil)
	if err != nil {
		u.complete(gen, false)
		uploadsTotal.WithLabelValues(string(kind), "error").Inc()
		log.Error().Err(err).Str("file", f.Name).Str("kind", string(kind)).Msg("upload failed")
		return nil, u.fail(err)
	}
	u.complete(gen, true)
	uploadsTotal.WithLabelValues(string(kind), pathRemote).Inc()

	u.mu.Lock()
	if !u.closed {
		u.files = append(u.files, copyFile(*rec))
	}
	u.mu.Unlock()
	return rec, nil
}

// UploadFile detects f's kind, validates it and uploads it. Validation
// failures are returned. When the backend is unreachable a local record is
// produced after the simulated progress ramp; when dispatch fails a fallback
// record is produced and the error is suppressed.
func (u *Uploader) UploadFile(ctx context.Context, f File, metadata map[string]string) (*UploadedFile, error) {
	kind := DetectFileType(f.ContentType)
	if err := validate(f, kind); err != nil {
		return nil, u.fail(err)
	}
	gen, err := u.begin()
	if err != nil {
		return nil, err
	}
	defer u.finish()

	rec, out, err := resolve.Attempt(ctx, "upload_file", u.c.checker, resolve.Degrade,
		func(ctx context.Context) (*UploadedFile, error) {
			switch kind {
			case KindText:
				return u.UploadText(ctx, f, metadata)
			case KindAudio:
				return u.UploadAudio(ctx, f, metadata)
			default:
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, f.ContentType)
			}
		},
		func(ctx context.Context, reason resolve.Reason) (*UploadedFile, error) {
			if reason == resolve.ReasonUnavailable {
				return u.mockUpload(ctx, gen, f, kind, metadata)
			}
			rec := u.c.fileCandidate("fallback-file", f, kind, metadata)
			return &rec, nil
		})
	if err != nil {
		return nil, err
	}
	if out.Remote {
		return rec, nil
	}

	path := pathOffline
	if out.Reason == resolve.ReasonFailed {
		path = pathFallback
	}
	uploadsTotal.WithLabelValues(string(kind), path).Inc()
	u.mu.Lock()
	if !u.closed {
		u.files = append(u.files, copyFile(*rec))
		u.errMsg = ""
	}
	u.mu.Unlock()
	return rec, nil
}

func (u *Uploader) mockUpload(ctx context.Context, gen uint64, f File, kind FileKind, metadata map[string]string) (*UploadedFile, error) {
	u.startRamp(gen, mockRampStep, mockRampInterval)
	if !u.tasks.Sleep(ctx, u.c.mockUploadDuration) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrClosed
	}
	u.complete(gen, true)
	rec := u.c.fileCandidate("mock-file", f, kind, metadata)
	return &rec, nil
}

// FetchFiles replaces the local list with the backend's. Failures are
// reported and returned.
func (u *Uploader) FetchFiles(ctx context.Context) ([]UploadedFile, error) {
	files, _, err := resolve.Attempt(ctx, "fetch_files", u.c.checker, resolve.Surface,
		func(ctx context.Context) ([]UploadedFile, error) { return api.ListFiles(ctx, u.c.http, u.c.baseURL) }, nil)
	if err != nil {
		return nil, u.fail(err)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files = copyFiles(files)
	return files, nil
}

// FetchFile retrieves one file record. Failures are reported and returned.
func (u *Uploader) FetchFile(ctx context.Context, fileID string) (*UploadedFile, error) {
	rec, _, err := resolve.Attempt(ctx, "fetch_file", u.c.checker, resolve.Surface,
		func(ctx context.Context) (*UploadedFile, error) { return api.GetFile(ctx, u.c.http, u.c.baseURL, fileID) }, nil)
	if err != nil {
		return nil, u.fail(err)
	}
	return rec, nil
}

// RemoveUploadedFile drops a record from the local list only.
func (u *Uploader) RemoveUploadedFile(fileID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	kept := u.files[:0]
	for _, f := range u.files {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	u.files = kept
}

func (c *Client) fileCandidate(prefix string, f File, kind FileKind, metadata map[string]string) UploadedFile {
	rec := UploadedFile{
		ID:         c.localID(prefix),
		Kind:       kind,
		FileName:   f.Name,
		FileSize:   f.Size,
		Status:     FileUploaded,
		UploadTime: c.now().UTC(),
	}
	if len(metadata) > 0 {
		rec.Meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			rec.Meta[k] = v
		}
	}
	return rec
}

func copyFile(f UploadedFile) UploadedFile {
	f.Meta = maps.Clone(f.Meta)
	return f
}

func copyFiles(in []UploadedFile) []UploadedFile {
	if in == nil {
		return nil
	}
	out := make([]UploadedFile, len(in))
	for i, f := range in {
		out[i] = copyFile(f)
	}
	return out
}

// completeUpload fills identity fields the backend left empty.
func completeUpload(rec *types.UploadedFile, candidate types.UploadedFile) *types.UploadedFile {
	if rec == nil {
		c := candidate
		return &c
	}
	if rec.ID == "" {
		rec.ID = candidate.ID
	}
	if rec.UploadTime.IsZero() {
		rec.UploadTime = candidate.UploadTime
	}
	if rec.FileName == "" {
		rec.FileName = candidate.FileName
	}
	if rec.Kind == "" {
		rec.Kind = candidate.Kind
	}
	if rec.Status == "" {
		rec.Status = candidate.Status
	}
	return rec
}

package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meetnote/client/internal/backendtest"
	"github.com/meetnote/client/internal/config"
	"github.com/meetnote/client/internal/job"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New("http://example.com/v1/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.baseURL != "http://example.com/v1" {
		t.Fatalf("trailing slash not trimmed: %q", c.baseURL)
	}
	if c.healthURL != config.DefaultHealthURL {
		t.Fatalf("health url = %q", c.healthURL)
	}
	if c.replyDelay != config.DefaultReplyDelay || c.resetDelay != config.DefaultProgressResetDelay {
		t.Fatalf("unexpected delays: %v %v", c.replyDelay, c.resetDelay)
	}
	if c.checker == nil || c.exec == nil {
		t.Fatalf("checker and executor must be set")
	}
}

func TestNew_EmptyBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	bad := map[string]Option{
		"nil http client":  WithHTTPClient(nil),
		"zero timeout":     WithHTTPTimeout(0),
		"empty health url": WithHealthURL(""),
		"zero probe":       WithProbeTimeout(0),
		"nil checker":      WithAvailabilityChecker(nil),
		"negative reply":   WithReplyDelay(-time.Second),
		"negative reset":   WithProgressResetDelay(-time.Second),
		"negative mock":    WithMockUploadDuration(-time.Second),
		"nil clock":        WithClock(nil),
		"nil config":       WithConfig(nil),
	}
	for name, opt := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := New("http://example.com", opt); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestWithHTTPClientAndDebugLogging(t *testing.T) {
	c := &Client{http: &http.Client{}}
	if err := WithHTTPTimeout(5 * time.Second)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("http timeout not set")
	}

	var called bool
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	c2, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true), WithDebugLogging(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c2.Close()
	dt, ok := c2.http.Transport.(*debugTransport)
	if !ok {
		t.Fatalf("expected debugTransport, got %T", c2.http.Transport)
	}
	if _, double := dt.base.(*debugTransport); double {
		t.Fatalf("debug transport wrapped twice")
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", strings.NewReader(""))
	if _, err := c2.http.Do(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !called {
		t.Fatalf("base transport not invoked")
	}
}

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	for _, name := range []string{"MEETNOTE_DEBUG", "DEBUG"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "true")
			c, err := New("http://example.com")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer c.Close()
			if _, ok := c.http.Transport.(*debugTransport); !ok {
				t.Fatalf("expected debugTransport to be installed when %s=true", name)
			}
		})
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := c.http.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HealthURL = "http://health.local/health"
	cfg.HTTPTimeout = 7 * time.Second
	cfg.ReplyDelay = 5 * time.Millisecond
	cfg.ProgressResetDelay = 6 * time.Millisecond
	cfg.MockUploadDuration = 8 * time.Millisecond
	cfg.Debug = true

	c, err := New(cfg.APIBaseURL, WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.healthURL != cfg.HealthURL || c.http.Timeout != cfg.HTTPTimeout {
		t.Fatalf("config not applied: %q %v", c.healthURL, c.http.Timeout)
	}
	if c.replyDelay != cfg.ReplyDelay || c.resetDelay != cfg.ProgressResetDelay || c.mockUploadDuration != cfg.MockUploadDuration {
		t.Fatalf("delays not applied")
	}
	if _, ok := c.http.Transport.(*debugTransport); !ok {
		t.Fatalf("debug not applied")
	}

	cfg.ProbeTimeout = 0
	if _, err := New(cfg.APIBaseURL, WithConfig(cfg)); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}

func TestIsBackPressure(t *testing.T) {
	if !IsBackPressure(ErrBackPressure) {
		t.Fatalf("expected back pressure")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected back pressure detection")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := &stubExec{}
	c := &Client{exec: s}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.stops != 1 {
		t.Fatalf("executor stop called %d times", s.stops)
	}
	if !c.closed() {
		t.Fatalf("client should report closed")
	}
}

func TestClose_RejectsLaterWork(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	u := c.NewUploader()
	defer u.Close()

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	ctx := ctxWithTimeout(t)
	if _, err := ch.CreateSession(ctx, SessionOptions{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("CreateSession after close: expected ErrClosed, got %v", err)
	}
	if _, err := c.NewChat().FetchSessions(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("FetchSessions after close: expected ErrClosed, got %v", err)
	}
	if _, err := u.UploadFile(ctx, NewFile("a.txt", "text/plain", []byte("x")), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("UploadFile after close: expected ErrClosed, got %v", err)
	}
	if err := c.AwaitSession(ctx, "session-1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("AwaitSession after close: expected ErrClosed, got %v", err)
	}
	if n := srv.Hits(backendtest.RouteCreateSession) + srv.Hits(backendtest.RouteUploadText); n != 0 {
		t.Fatalf("expected no backend calls after close, got %d", n)
	}
}

func TestAwaitSession(t *testing.T) {
	c, err := New("http://example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	sessionID := "session-123"
	var ranFirst int32
	if err := c.exec.Submit(context.Background(), sessionID, job.New(func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&ranFirst, 1)
		return nil
	})); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	if err := c.AwaitSession(ctx, sessionID); err != nil {
		t.Fatalf("await session: %v", err)
	}
	if atomic.LoadInt32(&ranFirst) == 0 {
		t.Fatalf("barrier returned before previous job executed")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("AwaitSession returned too quickly: %v", elapsed)
	}

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := c.AwaitSession(canceled, sessionID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)

	if !c.IsBackendAvailable(ctx) {
		t.Fatalf("expected backend available")
	}
	h, err := c.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if h.Status != "ok" || h.Version != "test" {
		t.Fatalf("unexpected health: %+v", h)
	}

	srv.SetHealthy(false)
	if c.IsBackendAvailable(ctx) {
		t.Fatalf("expected backend unavailable")
	}
	if _, err := c.CheckHealth(ctx); err == nil {
		t.Fatalf("expected error from unhealthy backend")
	}
}

func TestDelegations_RoundTrip(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)

	m, err := c.CreateMeeting(ctx, Meeting{Title: "Weekly"})
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	got, err := c.GetMeeting(ctx, m.ID)
	if err != nil || got.Title != "Weekly" {
		t.Fatalf("GetMeeting: %v %+v", err, got)
	}
	if _, err := c.UpdateMeeting(ctx, m.ID, Meeting{Title: "Weekly sync"}); err != nil {
		t.Fatalf("UpdateMeeting: %v", err)
	}
	list, err := c.ListMeetings(ctx)
	if err != nil || len(list) != 1 || list[0].Title != "Weekly sync" {
		t.Fatalf("ListMeetings: %v %+v", err, list)
	}
	if _, err := c.GetMeetingSummary(ctx, m.ID); err != nil {
		t.Fatalf("GetMeetingSummary: %v", err)
	}
	if _, err := c.AnalyzeMeeting(ctx, AnalyzeMeetingRequest{MeetingID: m.ID}); err != nil {
		t.Fatalf("AnalyzeMeeting: %v", err)
	}
	if err := c.DeleteMeeting(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}

	s, err := c.CreateChatSession(ctx, CreateSessionRequest{ContextType: ContextGeneral, Status: SessionActive})
	if err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}
	resp, err := c.SendChatMessage(ctx, s.ID, SendMessageRequest{Content: "hi", Type: MessageUser})
	if err != nil || resp.BotResponse == nil || resp.BotResponse.Content != "answer: hi" {
		t.Fatalf("SendChatMessage: %v %+v", err, resp)
	}
	sessions, err := c.ListChatSessions(ctx)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("ListChatSessions: %v %d", err, len(sessions))
	}

	rec, err := c.UploadTextFile(ctx, NewFile("a.txt", "text/plain", []byte("x")), nil)
	if err != nil {
		t.Fatalf("UploadTextFile: %v", err)
	}
	if _, err := c.GetFile(ctx, rec.ID); err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if _, err := c.UploadAudioFile(ctx, NewFile("a.ogg", "audio/ogg", []byte("O")), nil); err != nil {
		t.Fatalf("UploadAudioFile: %v", err)
	}
	files, err := c.ListFiles(ctx)
	if err != nil || len(files) != 2 {
		t.Fatalf("ListFiles: %v %d", err, len(files))
	}
}

func TestUploadTextFile_CompletesEmptyAnswer(t *testing.T) {
	c := newCannedClient(t, http.StatusCreated, "")

	rec, err := c.UploadTextFile(ctxWithTimeout(t), NewFile("a.txt", "text/plain", []byte("x")), map[string]string{"speakers": "2"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "file-") {
		t.Fatalf("expected a local id, got %q", rec.ID)
	}
	if rec.Kind != KindText || rec.FileName != "a.txt" || rec.Status != FileUploaded {
		t.Fatalf("record not completed: %+v", rec)
	}
	if rec.UploadTime.IsZero() {
		t.Fatalf("upload time not set")
	}
	if rec.Meta["speakers"] != "2" {
		t.Fatalf("metadata not carried: %v", rec.Meta)
	}
}

func TestUploadAudioFile_CompletesPartialAnswer(t *testing.T) {
	c := newCannedClient(t, http.StatusCreated, `{"data":{"id":"srv-file-9"}}`)

	rec, err := c.UploadAudioFile(ctxWithTimeout(t), NewFile("a.mp3", "audio/mpeg", []byte("x")), nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.ID != "srv-file-9" {
		t.Fatalf("server id must win, got %q", rec.ID)
	}
	if rec.Kind != KindAudio || rec.FileName != "a.mp3" || rec.UploadTime.IsZero() {
		t.Fatalf("record not completed: %+v", rec)
	}
}

func TestLocalID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	c := &Client{now: func() time.Time { return at }}
	if got := c.localID("session"); got != "session-1700000000123" {
		t.Fatalf("localID = %q", got)
	}
}

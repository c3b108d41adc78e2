// Package backendtest provides an in-memory backend for exercising the client
// end to end over real HTTP.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/meetnote/client/internal/types"
)

// Route names accepted by Fail.
const (
	RouteHealth        = "health"
	RouteListMeetings  = "listMeetings"
	RouteCreateMeeting = "createMeeting"
	RouteGetMeeting    = "getMeeting"
	RouteUpdateMeeting = "updateMeeting"
	RouteDeleteMeeting = "deleteMeeting"
	RouteSummary       = "meetingSummary"
	RouteAnalyze       = "analyzeMeeting"
	RouteListSessions  = "listSessions"
	RouteCreateSession = "createSession"
	RouteGetSession    = "getSession"
	RouteSendMessage   = "sendMessage"
	RouteListFiles     = "listFiles"
	RouteGetFile       = "getFile"
	RouteUploadText    = "uploadText"
	RouteUploadAudio   = "uploadAudio"
)

type failure struct {
	status  int
	message string
}

// Server is a fake backend. It starts healthy with no data.
type Server struct {
	srv *httptest.Server

	healthy atomic.Bool
	seq     atomic.Int64

	mu       sync.Mutex
	meetings []types.Meeting
	sessions map[string]*types.Session
	files    []types.UploadedFile
	failures map[string]failure
	hits     map[string]int
	uploads  []map[string]string
	reply    func(content string) *types.BotResponse
	onSend   func(sessionID, content string)
}

// New starts a Server that is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		sessions: make(map[string]*types.Session),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
		reply: func(content string) *types.BotResponse {
			return &types.BotResponse{Content: "answer: " + content, CreatedAt: time.Now().UTC()}
		},
	}
	s.healthy.Store(true)
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the versioned API root.
func (s *Server) BaseURL() string { return s.srv.URL + "/v1" }

// HealthURL is the absolute health endpoint.
func (s *Server) HealthURL() string { return s.srv.URL + "/health" }

// Client returns an *http.Client wired to the server.
func (s *Server) Client() *http.Client { return s.srv.Client() }

// SetHealthy controls the health endpoint's answer.
func (s *Server) SetHealthy(v bool) { s.healthy.Store(v) }

// Fail makes the named route answer status. An empty message produces a body
// without an error message.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover clears an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hits reports how many requests reached the named route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// SeedMeetings replaces the stored meetings.
func (s *Server) SeedMeetings(ms ...types.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append([]types.Meeting(nil), ms...)
}

// Meetings returns the stored meetings.
func (s *Server) Meetings() []types.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Meeting(nil), s.meetings...)
}

// SetReply controls the bot response embedded in send-message answers. A nil
// result omits bot_response.
func (s *Server) SetReply(fn func(content string) *types.BotResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = fn
}

// OnSend registers a hook run before each send-message answer.
func (s *Server) OnSend(fn func(sessionID, content string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSend = fn
}

// Uploads returns the non-file form fields of each upload received.
func (s *Server) Uploads() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.uploads...)
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.inject)

	r.HandleFunc("/health", s.health).Methods("GET").Name(RouteHealth)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/meetings", s.listMeetings).Methods("GET").Name(RouteListMeetings)
	v1.HandleFunc("/meetings", s.createMeeting).Methods("POST").Name(RouteCreateMeeting)
	v1.HandleFunc("/meetings/analyze", s.analyze).Methods("POST").Name(RouteAnalyze)
	v1.HandleFunc("/meetings/{id}", s.getMeeting).Methods("GET").Name(RouteGetMeeting)
	v1.HandleFunc("/meetings/{id}", s.updateMeeting).Methods("PUT").Name(RouteUpdateMeeting)
	v1.HandleFunc("/meetings/{id}", s.deleteMeeting).Methods("DELETE").Name(RouteDeleteMeeting)
	v1.HandleFunc("/meetings/{id}/summary", s.summary).Methods("GET").Name(RouteSummary)

	v1.HandleFunc("/chat/sessions", s.listSessions).Methods("GET").Name(RouteListSessions)
	v1.HandleFunc("/chat/sessions", s.createSession).Methods("POST").Name(RouteCreateSession)
	v1.HandleFunc("/chat/sessions/{id}", s.getSession).Methods("GET").Name(RouteGetSession)
	v1.HandleFunc("/chat/sessions/{id}/messages", s.sendMessage).Methods("POST").Name(RouteSendMessage)

	v1.HandleFunc("/files", s.listFiles).Methods("GET").Name(RouteListFiles)
	v1.HandleFunc("/files/text/upload", s.upload(types.KindText)).Methods("POST").Name(RouteUploadText)
	v1.HandleFunc("/files/audio/upload", s.upload(types.KindAudio)).Methods("POST").Name(RouteUploadAudio)
	v1.HandleFunc("/files/{id}", s.getFile).Methods("GET").Name(RouteGetFile)
	return r
}

// inject counts hits and answers injected failures before the handler runs.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.mu.Lock()
		s.hits[name]++
		f, failing := s.failures[name]
		s.mu.Unlock()
		if failing {
			if f.message == "" {
				writeJSON(w, f.status, map[string]any{})
				return
			}
			writeJSON(w, f.status, map[string]any{"error": map[string]any{"message": f.message}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.seq.Add(1))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if !s.healthy.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, types.HealthStatus{Status: "ok", Version: "test"})
}

func (s *Server) listMeetings(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.Meetings())
}

func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var m types.Meeting
	if !decode(w, r, &m) {
		return
	}
	m.ID = s.nextID("srv-meeting")
	s.mu.Lock()
	s.meetings = append(s.meetings, m)
	s.mu.Unlock()
	writeData(w, http.StatusCreated, m)
}

func (s *Server) findMeeting(id string) (int, bool) {
	for i, m := range s.meetings {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i, ok := s.findMeeting(id)
	var m types.Meeting
	if ok {
		m = s.meetings[i]
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeData(w, http.StatusOK, m)
}

func (s *Server) updateMeeting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var m types.Meeting
	if !decode(w, r, &m) {
		return
	}
	m.ID = id
	s.mu.Lock()
	i, ok := s.findMeeting(id)
	if ok {
		s.meetings[i] = m
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeData(w, http.StatusOK, m)
}

func (s *Server) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i, ok := s.findMeeting(id)
	if ok {
		s.meetings = append(s.meetings[:i], s.meetings[i+1:]...)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i, ok := s.findMeeting(id)
	var m types.Meeting
	if ok {
		m = s.meetings[i]
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeData(w, http.StatusOK, types.MeetingSummary{MeetingID: m.ID, Summary: m.Summary, Summary5: m.Summary5, KeyTopics: m.KeyTopics})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeMeetingRequest
	if !decode(w, r, &req) {
		return
	}
	writeData(w, http.StatusOK, types.AnalysisResult{MeetingID: req.MeetingID, Status: "completed", Result: json.RawMessage(`{"answer":"ok"}`)})
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	s.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	sess := &types.Session{
		ID:          s.nextID("srv-session"),
		ContextType: req.ContextType,
		MeetingID:   req.MeetingID,
		Status:      types.SessionActive,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	writeData(w, http.StatusCreated, sess)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	sess, ok := s.sessions[id]
	var out types.Session
	if ok {
		out = *sess
		out.Messages = append([]types.Message(nil), sess.Messages...)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	hook, reply := s.onSend, s.reply
	s.mu.Unlock()
	if hook != nil {
		hook(id, req.Content)
	}

	now := time.Now().UTC()
	user := types.Message{ID: s.nextID("srv-msg"), Type: types.MessageUser, Content: req.Content, CreatedAt: now}
	resp := types.SendMessageResponse{UserMessage: &user}
	if reply != nil {
		resp.BotResponse = reply(req.Content)
	}
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.Messages = append(sess.Messages, user)
		if resp.BotResponse != nil {
			sess.Messages = append(sess.Messages, types.Message{Type: types.MessageBot, Content: resp.BotResponse.Content, CreatedAt: resp.BotResponse.CreatedAt})
		}
	}
	s.mu.Unlock()
	writeData(w, http.StatusOK, resp)
}

func (s *Server) listFiles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]types.UploadedFile(nil), s.files...)
	s.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.ID == id {
			writeData(w, http.StatusOK, f)
			return
		}
	}
	writeError(w, http.StatusNotFound, "file not found")
}

func (s *Server) upload(kind types.FileKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fh, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file part is required")
			return
		}
		_ = fh.Close()
		fields := make(map[string]string)
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		rec := types.UploadedFile{
			ID:         s.nextID("srv-file"),
			Kind:       kind,
			FileName:   hdr.Filename,
			FileSize:   hdr.Size,
			Status:     types.FileUploaded,
			UploadTime: time.Now().UTC(),
			Meta:       fields,
		}
		s.mu.Lock()
		s.files = append(s.files, rec)
		s.uploads = append(s.uploads, fields)
		s.mu.Unlock()
		writeData(w, http.StatusCreated, rec)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, types.Envelope[any]{Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"message": msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

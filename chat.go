package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meetnote/client/internal/api"
	"github.com/meetnote/client/internal/job"
	"github.com/meetnote/client/internal/mock"
	"github.com/meetnote/client/internal/resolve"
	"github.com/meetnote/client/internal/sched"
	"github.com/meetnote/client/internal/shardqueue"
	"github.com/meetnote/client/internal/types"
)

// ChatState is the coarse state of a chat surface.
type ChatState int

const (
	StateNoSession ChatState = iota
	StateActive
	StateSending
)

func (s ChatState) String() string {
	switch s {
	case StateNoSession:
		return "no-session"
	case StateActive:
		return "session-active"
	case StateSending:
		return "sending"
	default:
		return fmt.Sprintf("ChatState(%d)", int(s))
	}
}

// SessionOptions scopes a new session. An empty ContextType means general.
type SessionOptions struct {
	ContextType ContextType
	MeetingID   string
}

// ChatSnapshot is a copy of a Chat's state.
type ChatSnapshot struct {
	State    ChatState
	Sessions []Session
	Current  *Session
	Messages []Message
	Loading  bool
	Typing   bool
	Err      string
}

// Chat owns the state of one chat surface: the session list, the current
// session and its messages. It is safe for concurrent use.
//
// Sends are two-phase: the user message is appended at once, then reconciled
// when the reply path finishes. Sends on one session run one at a time in
// submission order, so every reply follows the message that triggered it.
// A reply that arrives after the current session changed, or after Close, is
// discarded.
type Chat struct {
	c     *Client
	tasks *sched.Group

	sendMu sync.Mutex // orders append+enqueue across concurrent SendMessage calls

	mu       sync.Mutex
	closed   bool
	sessions []Session
	current  *Session
	messages []Message
	loading  int
	pending  int
	errMsg   string
}

// NewChat returns a Chat with no session.
func (c *Client) NewChat() *Chat {
	return &Chat{c: c, tasks: sched.NewGroup()}
}

// pendingSend tracks one in-flight send; settled is guarded by Chat.mu.
type pendingSend struct {
	settled bool
}

// sendReply is what a reply path produces.
type sendReply struct {
	user *Message // server copy of the user message, when returned
	bot  *Message
	path string
}

type sessionResult struct {
	session  Session
	messages []Message
	listed   bool
	path     string
}

// --------------------------------------------------------------------
// State access
// --------------------------------------------------------------------

// Snapshot returns a copy of the current state.
func (ch *Chat) Snapshot() ChatSnapshot {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	snap := ChatSnapshot{
		State:    ch.stateLocked(),
		Sessions: copySessions(ch.sessions),
		Messages: copyMessages(ch.messages),
		Loading:  ch.loading > 0,
		Typing:   ch.pending > 0,
		Err:      ch.errMsg,
	}
	if ch.current != nil {
		s := copySession(*ch.current)
		snap.Current = &s
	}
	return snap
}

// State returns the coarse state.
func (ch *Chat) State() ChatState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.stateLocked()
}

func (ch *Chat) stateLocked() ChatState {
	switch {
	case ch.current == nil:
		return StateNoSession
	case ch.pending > 0:
		return StateSending
	default:
		return StateActive
	}
}

// Messages returns a copy of the current message list.
func (ch *Chat) Messages() []Message {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return copyMessages(ch.messages)
}

// Current returns a copy of the current session, or nil.
func (ch *Chat) Current() *Session {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.current == nil {
		return nil
	}
	s := copySession(*ch.current)
	return &s
}

// Typing reports whether at least one send is awaiting its reply.
func (ch *Chat) Typing() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.pending > 0
}

// Err returns the reported error, or "".
func (ch *Chat) Err() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.errMsg
}

// Close cancels pending offline replies. Replies still in flight are dropped.
func (ch *Chat) Close() {
	ch.mu.Lock()
	ch.closed = true
	ch.mu.Unlock()
	ch.tasks.Stop()
}

func (ch *Chat) startLoading() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed || ch.c.closed() {
		return ErrClosed
	}
	ch.loading++
	ch.errMsg = ""
	return nil
}

func (ch *Chat) stopLoading() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.loading--
}

func (ch *Chat) report(err error) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.closed {
		ch.errMsg = HumanMessage(err)
	}
	return err
}

// --------------------------------------------------------------------
// Sessions
// --------------------------------------------------------------------

// FetchSessions replaces the session list with the backend's. Failures are
// reported and returned.
func (ch *Chat) FetchSessions(ctx context.Context) ([]Session, error) {
	if err := ch.startLoading(); err != nil {
		return nil, err
	}
	defer ch.stopLoading()

	sessions, _, err := resolve.Attempt(ctx, "fetch_sessions", ch.c.checker, resolve.Surface,
		func(ctx context.Context) ([]Session, error) { return api.ListChatSessions(ctx, ch.c.http, ch.c.baseURL) }, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch chat sessions")
		return nil, ch.report(err)
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.sessions = copySessions(sessions)
	return sessions, nil
}

// CreateSession makes a session current. A current session with the same
// scope is returned unchanged. Otherwise the session is created on the
// backend, or locally with a welcome message when the backend is down, or
// locally with an offline notice when creation fails. Backend failures never
// surface.
func (ch *Chat) CreateSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if opts.ContextType == "" {
		opts.ContextType = ContextGeneral
	}
	if err := types.ValidateContextType(opts.ContextType); err != nil {
		return nil, err
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil, ErrClosed
	}
	if cur := ch.current; cur != nil && cur.ContextType == opts.ContextType && cur.MeetingID == opts.MeetingID {
		s := copySession(*cur)
		ch.mu.Unlock()
		return &s, nil
	}
	ch.mu.Unlock()

	if err := ch.startLoading(); err != nil {
		return nil, err
	}
	defer ch.stopLoading()

	candidate := Session{
		ID:          ch.c.localID("session"),
		ContextType: opts.ContextType,
		MeetingID:   opts.MeetingID,
		Status:      SessionActive,
		CreatedAt:   ch.c.now().UTC(),
	}

	res, _, err := resolve.Attempt(ctx, "create_session", ch.c.checker, resolve.Degrade,
		func(ctx context.Context) (sessionResult, error) {
			s, err := api.CreateChatSession(ctx, ch.c.http, ch.c.baseURL, CreateSessionRequest{
				ID:          candidate.ID,
				ContextType: candidate.ContextType,
				MeetingID:   candidate.MeetingID,
				Status:      candidate.Status,
				CreatedAt:   candidate.CreatedAt,
			})
			if err != nil {
				return sessionResult{}, err
			}
			return sessionResult{session: completeSession(s, candidate), listed: true, path: pathRemote}, nil
		},
		func(_ context.Context, reason resolve.Reason) (sessionResult, error) {
			if reason == resolve.ReasonUnavailable {
				return sessionResult{
					session:  candidate,
					messages: []Message{ch.botMessage(mock.WelcomeMessageID, mock.WelcomeText, nil)},
					listed:   true,
					path:     pathOffline,
				}, nil
			}
			fb := candidate
			fb.ID = ch.c.localID("local-session")
			return sessionResult{
				session:  fb,
				messages: []Message{ch.botMessage(mock.FallbackMessageID, mock.FallbackSessionText, nil)},
				path:     pathFallback,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return nil, ErrClosed
	}
	s := res.session
	s.Messages = nil
	if res.listed {
		ch.sessions = append([]Session{s}, ch.sessions...)
	}
	ch.current = &s
	ch.messages = copyMessages(res.messages)
	ch.errMsg = ""
	log.Debug().Str("session_id", s.ID).Str("context_type", string(s.ContextType)).Str("path", res.path).Msg("chat session ready")
	out := copySession(s)
	return &out, nil
}

// FetchSessionHistory makes the backend's copy of sessionID current along with
// its messages. An empty id is a no-op. Failures are reported and returned.
func (ch *Chat) FetchSessionHistory(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	if err := ch.startLoading(); err != nil {
		return nil, err
	}
	defer ch.stopLoading()

	s, _, err := resolve.Attempt(ctx, "fetch_session_history", ch.c.checker, resolve.Surface,
		func(ctx context.Context) (*Session, error) {
			return api.GetChatSession(ctx, ch.c.http, ch.c.baseURL, sessionID)
		}, nil)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to fetch session history")
		return nil, ch.report(err)
	}
	if s == nil {
		s = &Session{ID: sessionID}
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return nil, ErrClosed
	}
	cur := copySession(*s)
	ch.messages = cur.Messages
	cur.Messages = nil
	ch.current = &cur
	out := copySession(*s)
	return &out, nil
}

// SelectSession makes s current, shows the messages it carries, then loads
// its history.
func (ch *Chat) SelectSession(ctx context.Context, s Session) (*Session, error) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil, ErrClosed
	}
	cur := copySession(s)
	ch.messages = cur.Messages
	cur.Messages = nil
	ch.current = &cur
	ch.mu.Unlock()
	return ch.FetchSessionHistory(ctx, s.ID)
}

// RemoveSession drops a session from the local list. Removing the current
// session also clears the message list. The backend is not touched.
func (ch *Chat) RemoveSession(sessionID string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	kept := ch.sessions[:0]
	for _, s := range ch.sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	ch.sessions = kept
	if ch.current != nil && ch.current.ID == sessionID {
		ch.current = nil
		ch.messages = nil
	}
}

// ClearMessages empties the message list of the current session locally.
func (ch *Chat) ClearMessages() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.messages = nil
}

// --------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------

// SendMessage appends content as a user message and waits for its reply.
//
// Without a current session the "session required" error is reported and
// ErrSessionRequired returned; blank content is ignored. When the backend
// answers, its bot reply (if any) is appended. When it is down or the send
// fails, a canned reply is appended after the reply delay and no error is
// returned. The returned message is the reply, or nil when there is none.
func (ch *Chat) SendMessage(ctx context.Context, content string) (*Message, error) {
	ch.sendMu.Lock()

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		ch.sendMu.Unlock()
		return nil, ErrClosed
	}
	if ch.current == nil {
		ch.errMsg = MsgSessionRequired
		ch.mu.Unlock()
		ch.sendMu.Unlock()
		return nil, ErrSessionRequired
	}
	text := strings.TrimSpace(content)
	if text == "" {
		ch.mu.Unlock()
		ch.sendMu.Unlock()
		return nil, nil
	}
	sessionID := ch.current.ID
	tentative := Message{
		ID:        uuid.NewString(),
		Type:      MessageUser,
		Content:   text,
		CreatedAt: ch.c.now().UTC(),
	}
	ch.messages = append(ch.messages, tentative)
	ch.pending++
	ch.errMsg = ""
	ch.mu.Unlock()

	p := &pendingSend{}
	type result struct {
		reply *Message
		err   error
	}
	done := make(chan result, 1)
	err := ch.c.exec.Submit(ctx, sessionID, job.New(func(jobCtx context.Context) error {
		reply, err := ch.deliver(jobCtx, sessionID, tentative, p)
		done <- result{reply: reply, err: err}
		return nil
	}))
	ch.sendMu.Unlock()

	if err != nil {
		ch.rollback(tentative.ID, p)
		switch {
		case errors.Is(err, shardqueue.ErrExecutorClosed):
			return nil, ErrClosed
		case errors.Is(err, shardqueue.ErrQueueFull):
			err = fmt.Errorf("%w: %v", ErrBackPressure, err)
			return nil, ch.report(err)
		default:
			return nil, err
		}
	}

	select {
	case r := <-done:
		return r.reply, r.err
	case <-ctx.Done():
		ch.mu.Lock()
		ch.settleLocked(p)
		ch.mu.Unlock()
		return nil, ctx.Err()
	}
}

// deliver runs on the session's queue lane and reconciles the reply.
func (ch *Chat) deliver(ctx context.Context, sessionID string, tentative Message, p *pendingSend) (*Message, error) {
	res, _, err := resolve.Attempt(ctx, "send_message", ch.c.checker, resolve.Degrade,
		func(ctx context.Context) (sendReply, error) {
			resp, err := api.SendMessage(ctx, ch.c.http, ch.c.baseURL, sessionID, SendMessageRequest{
				Content: tentative.Content,
				Type:    MessageUser,
			})
			if err != nil {
				return sendReply{}, err
			}
			return ch.replyFromResponse(resp), nil
		},
		func(ctx context.Context, reason resolve.Reason) (sendReply, error) {
			if !ch.tasks.Sleep(ctx, ch.c.replyDelay) {
				if err := ctx.Err(); err != nil {
					return sendReply{}, err
				}
				return sendReply{}, ErrClosed
			}
			text, path := mock.FailedReplyText, pathFallback
			if reason == resolve.ReasonUnavailable {
				text, path = mock.OfflineReply(tentative.Content), pathOffline
			}
			bot := ch.botMessage(uuid.NewString(), text, nil)
			return sendReply{bot: &bot, path: path}, nil
		})

	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.settleLocked(p)
	if err != nil {
		return nil, err
	}
	if ch.closed || ch.current == nil || ch.current.ID != sessionID {
		messagesDroppedTotal.WithLabelValues(job.ShardLabel(sessionID)).Inc()
		log.Debug().Str("session_id", sessionID).Msg("reply dropped, session no longer current")
		if ch.closed {
			return nil, ErrClosed
		}
		return copyMessagePtr(res.bot), nil
	}
	if res.user != nil {
		ch.reconcileLocked(tentative.ID, *res.user)
	}
	if res.bot != nil {
		ch.messages = append(ch.messages, *res.bot)
	}
	messagesSentTotal.WithLabelValues(res.path).Inc()
	return copyMessagePtr(res.bot), nil
}

func (ch *Chat) replyFromResponse(resp *SendMessageResponse) sendReply {
	out := sendReply{path: pathRemote}
	if resp == nil {
		return out
	}
	if resp.UserMessage != nil {
		u := *resp.UserMessage
		out.user = &u
	}
	if b := resp.BotResponse; b != nil {
		bot := Message{
			ID:        uuid.NewString(),
			Type:      MessageBot,
			Content:   b.Content,
			CreatedAt: b.CreatedAt,
			Sources:   append([]Source(nil), b.Sources...),
		}
		if bot.CreatedAt.IsZero() {
			bot.CreatedAt = ch.c.now().UTC()
		}
		out.bot = &bot
	}
	return out
}

// reconcileLocked adopts the server identity of a tentative message. A
// message cleared in the meantime stays cleared.
func (ch *Chat) reconcileLocked(tentativeID string, server Message) {
	for i := range ch.messages {
		if ch.messages[i].ID != tentativeID {
			continue
		}
		if server.ID != "" {
			ch.messages[i].ID = server.ID
		}
		if !server.CreatedAt.IsZero() {
			ch.messages[i].CreatedAt = server.CreatedAt
		}
		return
	}
}

// rollback removes a tentative message whose send never started.
func (ch *Chat) rollback(tentativeID string, p *pendingSend) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.settleLocked(p)
	for i := range ch.messages {
		if ch.messages[i].ID == tentativeID {
			ch.messages = append(ch.messages[:i], ch.messages[i+1:]...)
			return
		}
	}
}

func (ch *Chat) settleLocked(p *pendingSend) {
	if !p.settled {
		p.settled = true
		ch.pending--
	}
}

func (ch *Chat) botMessage(id, content string, sources []Source) Message {
	return Message{
		ID:        id,
		Type:      MessageBot,
		Content:   content,
		CreatedAt: ch.c.now().UTC(),
		Sources:   sources,
	}
}

// --------------------------------------------------------------------
// Meeting-scoped chat
// --------------------------------------------------------------------

// MeetingChat is a Chat bound to one meeting.
type MeetingChat struct {
	*Chat
	meetingID string
}

// NewMeetingChat returns a chat surface scoped to meetingID.
func (c *Client) NewMeetingChat(meetingID string) *MeetingChat {
	return &MeetingChat{Chat: c.NewChat(), meetingID: meetingID}
}

// MeetingID returns the bound meeting id.
func (m *MeetingChat) MeetingID() string { return m.meetingID }

// CreateMeetingSession makes a meeting-scoped session current.
func (m *MeetingChat) CreateMeetingSession(ctx context.Context) (*Session, error) {
	if strings.TrimSpace(m.meetingID) == "" {
		m.mu.Lock()
		m.errMsg = MsgMeetingIDRequired
		m.mu.Unlock()
		return nil, ErrMeetingIDRequired
	}
	return m.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: m.meetingID})
}

// AskAboutMeeting sends question in a session for the bound meeting, creating
// one first when the current session is missing or belongs elsewhere.
func (m *MeetingChat) AskAboutMeeting(ctx context.Context, question string) (*Message, error) {
	if cur := m.Current(); cur == nil || cur.MeetingID != m.meetingID {
		if _, err := m.CreateMeetingSession(ctx); err != nil {
			return nil, err
		}
	}
	return m.SendMessage(ctx, question)
}

// --------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------

// completeSession fills identity fields the backend left empty.
func completeSession(s *types.Session, candidate types.Session) types.Session {
	if s == nil {
		return candidate
	}
	out := *s
	if out.ID == "" {
		out.ID = candidate.ID
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = candidate.CreatedAt
	}
	if out.ContextType == "" {
		out.ContextType = candidate.ContextType
	}
	if out.MeetingID == "" {
		out.MeetingID = candidate.MeetingID
	}
	if out.Status == "" {
		out.Status = candidate.Status
	}
	return out
}

func copyMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		m.Sources = append([]Source(nil), m.Sources...)
		out[i] = m
	}
	return out
}

func copyMessagePtr(m *Message) *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Sources = append([]Source(nil), m.Sources...)
	return &c
}

func copySession(s Session) Session {
	s.Messages = copyMessages(s.Messages)
	return s
}

func copySessions(in []Session) []Session {
	if in == nil {
		return nil
	}
	out := make([]Session, len(in))
	for i, s := range in {
		out[i] = copySession(s)
	}
	return out
}

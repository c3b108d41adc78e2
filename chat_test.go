package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetnote/client/internal/backendtest"
	"github.com/meetnote/client/internal/mock"
	"github.com/meetnote/client/internal/shardqueue"
	"github.com/meetnote/client/internal/types"
)

func TestCreateSession_Remote(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()

	require.Equal(t, StateNoSession, ch.State())
	s, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "srv-session-"), s.ID)
	assert.Equal(t, ContextGeneral, s.ContextType)

	snap := ch.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Empty(t, snap.Messages)
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, s.ID, snap.Sessions[0].ID)
	assert.Equal(t, 1, srv.Hits(backendtest.RouteCreateSession))
}

func TestCreateSession_SameScopeReturnsCurrent(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	first, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m1"})
	require.NoError(t, err)
	again, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, srv.Hits(backendtest.RouteCreateSession))

	other, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Len(t, ch.Snapshot().Sessions, 2)
	assert.Equal(t, other.ID, ch.Snapshot().Sessions[0].ID, "newest session is listed first")
}

func TestCreateSession_RejectsUnknownContext(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()

	_, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{ContextType: "team"})
	require.Error(t, err)
	assert.Equal(t, 0, srv.Hits(backendtest.RouteCreateSession))
}

func TestCreateSession_BackendUnavailable(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetHealthy(false)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()

	s, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "session-"), s.ID)
	assert.Equal(t, SessionActive, s.Status)

	snap := ch.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, mock.WelcomeMessageID, snap.Messages[0].ID)
	assert.Equal(t, MessageBot, snap.Messages[0].Type)
	assert.Equal(t, mock.WelcomeText, snap.Messages[0].Content)
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, s.ID, snap.Sessions[0].ID)
	assert.Empty(t, snap.Err)
	assert.Equal(t, 0, srv.Hits(backendtest.RouteCreateSession))
}

func TestCreateSession_RemoteFailureFallsBack(t *testing.T) {
	srv := backendtest.New(t)
	srv.Fail(backendtest.RouteCreateSession, http.StatusInternalServerError, "")
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()

	s, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "local-session-"), s.ID)

	snap := ch.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, mock.FallbackMessageID, snap.Messages[0].ID)
	assert.Equal(t, mock.FallbackSessionText, snap.Messages[0].Content)
	assert.Empty(t, snap.Sessions, "fallback sessions are not listed")
	assert.Empty(t, snap.Err)
	assert.Equal(t, StateActive, snap.State)
}

func TestCreateSession_ThrowingNetworkNeverFails(t *testing.T) {
	for _, available := range []bool{true, false} {
		t.Run(fmt.Sprintf("available=%v", available), func(t *testing.T) {
			c := newThrowingClient(t, available)
			ch := c.NewChat()
			defer ch.Close()

			s, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{})
			require.NoError(t, err)
			require.NotNil(t, s)
			assert.NotEmpty(t, ch.Messages())
			assert.Empty(t, ch.Err())
		})
	}
}

func TestSendMessage_RemoteBotReply(t *testing.T) {
	srv := backendtest.New(t)
	at := time.Date(2025, 9, 28, 8, 0, 0, 0, time.UTC)
	srv.SetReply(func(string) *types.BotResponse {
		return &types.BotResponse{Content: "X", CreatedAt: at}
	})
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	reply, err := ch.SendMessage(ctx, "  hi  ")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "X", reply.Content)

	msgs := ch.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, MessageUser, msgs[0].Type)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.True(t, strings.HasPrefix(msgs[0].ID, "srv-msg-"), "user message adopts the server id, got %q", msgs[0].ID)
	last := msgs[len(msgs)-1]
	assert.Equal(t, MessageBot, last.Type)
	assert.Equal(t, "X", last.Content)
	assert.True(t, last.CreatedAt.Equal(at))
	assert.False(t, ch.Typing())
	assert.Equal(t, StateActive, ch.State())
}

func TestSendMessage_NoEmbeddedReply(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetReply(nil)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	reply, err := ch.SendMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Nil(t, reply)

	msgs := ch.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageUser, msgs[0].Type)
	assert.False(t, ch.Typing())
}

func TestSendMessage_BackendUnavailable(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	srv.SetHealthy(false)

	start := time.Now()
	reply, err := ch.SendMessage(ctx, "hi")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "offline reply waits for the reply delay")
	require.NotNil(t, reply)
	assert.Equal(t, mock.OfflineReply("hi"), reply.Content)

	msgs := ch.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, MessageUser, msgs[0].Type)
	assert.Equal(t, MessageBot, msgs[1].Type)
	assert.Equal(t, 0, srv.Hits(backendtest.RouteSendMessage))
	assert.Empty(t, ch.Err())
}

func TestSendMessage_RemoteFailureFallsBack(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	srv.Fail(backendtest.RouteSendMessage, http.StatusInternalServerError, "boom")

	reply, err := ch.SendMessage(ctx, "hi")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, mock.FailedReplyText, reply.Content)

	msgs := ch.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, mock.FailedReplyText, msgs[1].Content)
	assert.Empty(t, ch.Err())
	assert.False(t, ch.Typing())
}

func TestSendMessage_ThrowingNetworkKeepsOrder(t *testing.T) {
	for _, available := range []bool{true, false} {
		t.Run(fmt.Sprintf("available=%v", available), func(t *testing.T) {
			c := newThrowingClient(t, available)
			ch := c.NewChat()
			defer ch.Close()
			ctx := ctxWithTimeout(t)

			_, err := ch.CreateSession(ctx, SessionOptions{})
			require.NoError(t, err)
			_, err = ch.SendMessage(ctx, "hi")
			require.NoError(t, err)

			msgs := ch.Messages()
			userAt, botAt := -1, -1
			for i, m := range msgs {
				if m.Type == MessageUser && m.Content == "hi" && userAt < 0 {
					userAt = i
				}
				if m.Type == MessageBot && i > 0 {
					botAt = i
				}
			}
			require.GreaterOrEqual(t, userAt, 0)
			require.Greater(t, botAt, userAt)
		})
	}
}

func TestSendMessage_RequiresSession(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()

	_, err := ch.SendMessage(ctxWithTimeout(t), "hi")
	require.ErrorIs(t, err, ErrSessionRequired)
	assert.Equal(t, MsgSessionRequired, ch.Err())
	assert.Empty(t, ch.Messages())
	assert.Equal(t, 0, srv.Hits(backendtest.RouteSendMessage))
}

func TestSendMessage_BlankIsNoop(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	for _, content := range []string{"", "   ", "\n\t"} {
		reply, err := ch.SendMessage(ctx, content)
		require.NoError(t, err)
		assert.Nil(t, reply)
	}
	assert.Empty(t, ch.Messages())
	assert.Equal(t, 0, srv.Hits(backendtest.RouteSendMessage))
}

func TestSendMessage_TypingWhilePending(t *testing.T) {
	srv := backendtest.New(t)
	release := make(chan struct{})
	srv.OnSend(func(string, string) { <-release })
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ch.SendMessage(ctx, "hi")
		done <- err
	}()

	require.Eventually(t, func() bool { return ch.State() == StateSending }, time.Second, 5*time.Millisecond)
	snap := ch.Snapshot()
	assert.True(t, snap.Typing)
	require.Len(t, snap.Messages, 1, "user message is visible before the reply")
	assert.Equal(t, "hi", snap.Messages[0].Content)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, ch.Typing())
	assert.Equal(t, StateActive, ch.State())
}

func TestSendMessage_ConcurrentSendsStayPaired(t *testing.T) {
	srv := backendtest.New(t)
	var mu sync.Mutex
	n := 0
	srv.OnSend(func(string, string) {
		mu.Lock()
		n++
		d := time.Duration(10-n%10) * time.Millisecond
		mu.Unlock()
		time.Sleep(d)
	})
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)

	const sends = 8
	var wg sync.WaitGroup
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ch.SendMessage(ctx, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var users, bots []string
	for _, m := range ch.Messages() {
		switch m.Type {
		case MessageUser:
			users = append(users, m.Content)
		case MessageBot:
			bots = append(bots, m.Content)
		}
	}
	require.Len(t, users, sends)
	require.Len(t, bots, sends)
	for i := range users {
		assert.Equal(t, "answer: "+users[i], bots[i], "reply %d answers the message sent %d-th", i, i)
	}
}

func TestSendMessage_SurfacesOnOneShardDoNotStall(t *testing.T) {
	t.Setenv("MEETNOTE_SQ_SHARDS", "1")
	srv := backendtest.New(t)
	release := make(chan struct{})
	srv.OnSend(func(_ string, content string) {
		if content == "hold" {
			<-release
		}
	})
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)

	a, b := c.NewChat(), c.NewChat()
	defer a.Close()
	defer b.Close()
	_, err := a.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = b.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m1"})
	require.NoError(t, err)
	require.NotEqual(t, a.Current().ID, b.Current().ID)

	doneA := make(chan error, 1)
	go func() {
		_, err := a.SendMessage(ctx, "hold")
		doneA <- err
	}()
	require.Eventually(t, func() bool { return a.State() == StateSending }, time.Second, 5*time.Millisecond)

	reply, err := b.SendMessage(ctx, "quick")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "answer: quick", reply.Content)
	assert.True(t, a.Typing(), "first surface is still waiting on its own reply")

	close(release)
	require.NoError(t, <-doneA)
	assert.False(t, a.Typing())
}

func TestSendMessage_ConcurrentOfflineSendsStayPaired(t *testing.T) {
	c := newThrowingClient(t, false)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)

	const sends = 5
	var wg sync.WaitGroup
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ch.SendMessage(ctx, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var users, bots []string
	for _, m := range ch.Messages()[1:] { // skip the welcome message
		switch m.Type {
		case MessageUser:
			users = append(users, m.Content)
		case MessageBot:
			bots = append(bots, m.Content)
		}
	}
	require.Len(t, users, sends)
	require.Len(t, bots, sends)
	for i := range users {
		assert.Equal(t, mock.OfflineReply(users[i]), bots[i])
	}
}

func TestSendMessage_ReplyDroppedAfterSessionChange(t *testing.T) {
	c := newThrowingClient(t, false, WithReplyDelay(100*time.Millisecond))
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ch.SendMessage(ctx, "hi")
		done <- err
	}()
	require.Eventually(t, ch.Typing, time.Second, 2*time.Millisecond)

	next, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m1"})
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, next.ID, ch.Current().ID)
	msgs := ch.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, mock.WelcomeMessageID, msgs[0].ID, "the old session's reply is not shown in the new one")
	assert.False(t, ch.Typing())
}

func TestChat_CloseCancelsPendingReply(t *testing.T) {
	c := newThrowingClient(t, false, WithReplyDelay(time.Minute))
	ch := c.NewChat()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ch.SendMessage(ctx, "hi")
		done <- err
	}()
	require.Eventually(t, ch.Typing, time.Second, 2*time.Millisecond)
	before := ch.Messages()

	ch.Close()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not return after Close")
	}
	assert.Equal(t, before, ch.Messages(), "no mutation after close")

	_, err = ch.SendMessage(ctx, "again")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "m"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSendMessage_ContextCanceled(t *testing.T) {
	c := newThrowingClient(t, false, WithReplyDelay(time.Minute))
	ch := c.NewChat()
	defer ch.Close()

	_, err := ch.CreateSession(ctxWithTimeout(t), SessionOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ch.SendMessage(ctx, "hi")
		done <- err
	}()
	require.Eventually(t, ch.Typing, time.Second, 2*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Eventually(t, func() bool { return !ch.Typing() }, time.Second, 2*time.Millisecond)
}

func TestSendMessage_BackPressureRollsBack(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	c.exec.Stop()
	c.exec = &stubExec{submitErr: &shardqueue.QueueFullError{Shard: 1, Length: 64, Capacity: 64}}
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = ch.SendMessage(ctx, "hi")
	require.Error(t, err)
	assert.True(t, IsBackPressure(err))
	assert.Empty(t, ch.Messages(), "tentative message is rolled back")
	assert.False(t, ch.Typing())
	assert.NotEmpty(t, ch.Err())
}

func TestSendMessage_ExecutorClosed(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = ch.SendMessage(ctx, "hi")
	require.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, ch.Messages())
	assert.False(t, ch.Typing())
}

func TestClearMessages_Idempotent(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = ch.SendMessage(ctx, "hi")
	require.NoError(t, err)
	require.NotEmpty(t, ch.Messages())

	ch.ClearMessages()
	once := ch.Snapshot()
	ch.ClearMessages()
	twice := ch.Snapshot()
	assert.Empty(t, once.Messages)
	assert.Equal(t, once, twice)
	assert.NotNil(t, twice.Current, "clearing keeps the session")

	srvSession, err := c.GetChatSession(ctx, twice.Current.ID)
	require.NoError(t, err)
	assert.Len(t, srvSession.Messages, 2, "backend is untouched")
}

func TestRemoveSession(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	first, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "a"})
	require.NoError(t, err)
	second, err := ch.CreateSession(ctx, SessionOptions{ContextType: ContextMeeting, MeetingID: "b"})
	require.NoError(t, err)
	_, err = ch.SendMessage(ctx, "hi")
	require.NoError(t, err)

	ch.RemoveSession(first.ID)
	snap := ch.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, second.ID, snap.Current.ID)
	assert.NotEmpty(t, snap.Messages)

	ch.RemoveSession(second.ID)
	snap = ch.Snapshot()
	assert.Empty(t, snap.Sessions)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, StateNoSession, snap.State)
}

func TestFetchSessions(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)
	_, err := c.CreateChatSession(ctx, CreateSessionRequest{ContextType: ContextGeneral, Status: SessionActive})
	require.NoError(t, err)

	ch := c.NewChat()
	defer ch.Close()
	sessions, err := ch.FetchSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Len(t, ch.Snapshot().Sessions, 1)

	srv.Fail(backendtest.RouteListSessions, http.StatusInternalServerError, "")
	_, err = ch.FetchSessions(ctx)
	require.Error(t, err)
	assert.Equal(t, "The server encountered an internal error. Please try again later.", ch.Err())
	assert.Len(t, ch.Snapshot().Sessions, 1, "failed refresh keeps the old list")
}

func TestFetchSessionHistory(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)

	writer := c.NewChat()
	defer writer.Close()
	s, err := writer.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = writer.SendMessage(ctx, "hi")
	require.NoError(t, err)

	reader := c.NewChat()
	defer reader.Close()
	got, err := reader.FetchSessionHistory(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	msgs := reader.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "answer: hi", msgs[1].Content)
	assert.Equal(t, StateActive, reader.State())

	none, err := reader.FetchSessionHistory(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = reader.FetchSessionHistory(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "session not found", reader.Err())
}

func TestSelectSession(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := ctxWithTimeout(t)

	writer := c.NewChat()
	defer writer.Close()
	s, err := writer.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = writer.SendMessage(ctx, "hi")
	require.NoError(t, err)

	reader := c.NewChat()
	defer reader.Close()
	_, err = reader.SelectSession(ctx, *s)
	require.NoError(t, err)
	assert.Equal(t, s.ID, reader.Current().ID)
	assert.Len(t, reader.Messages(), 2)
}

func TestMeetingChat_RequiresMeetingID(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	mc := c.NewMeetingChat(" ")
	defer mc.Close()

	_, err := mc.CreateMeetingSession(ctxWithTimeout(t))
	require.ErrorIs(t, err, ErrMeetingIDRequired)
	assert.Equal(t, MsgMeetingIDRequired, mc.Err())

	_, err = mc.AskAboutMeeting(ctxWithTimeout(t), "what happened?")
	require.ErrorIs(t, err, ErrMeetingIDRequired)
	assert.Equal(t, 0, srv.Hits(backendtest.RouteCreateSession))
}

func TestMeetingChat_AskAboutMeeting(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	mc := c.NewMeetingChat("meeting-7")
	defer mc.Close()
	ctx := ctxWithTimeout(t)

	reply, err := mc.AskAboutMeeting(ctx, "who owns the budget?")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "answer: who owns the budget?", reply.Content)

	cur := mc.Current()
	require.NotNil(t, cur)
	assert.Equal(t, ContextMeeting, cur.ContextType)
	assert.Equal(t, "meeting-7", cur.MeetingID)

	_, err = mc.AskAboutMeeting(ctx, "and the deadline?")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits(backendtest.RouteCreateSession), "the meeting session is reused")
	assert.Len(t, mc.Messages(), 4)
}

func TestChatState_String(t *testing.T) {
	assert.Equal(t, "no-session", StateNoSession.String())
	assert.Equal(t, "session-active", StateActive.String())
	assert.Equal(t, "sending", StateSending.String())
	assert.Equal(t, "ChatState(9)", ChatState(9).String())
}

func TestSnapshot_ReturnsCopies(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ch := c.NewChat()
	defer ch.Close()
	ctx := ctxWithTimeout(t)

	_, err := ch.CreateSession(ctx, SessionOptions{})
	require.NoError(t, err)
	_, err = ch.SendMessage(ctx, "hi")
	require.NoError(t, err)

	snap := ch.Snapshot()
	snap.Messages[0].Content = "changed"
	snap.Current.ID = "changed"
	assert.Equal(t, "hi", ch.Messages()[0].Content)
	assert.NotEqual(t, "changed", ch.Current().ID)
}

package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/meetnote/client/internal/api"
	"github.com/meetnote/client/internal/mock"
	"github.com/meetnote/client/internal/resolve"
	"github.com/meetnote/client/internal/types"
)

// Date and time layouts of Meeting.DateYMD and Meeting.TimeHM.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MeetingsSnapshot is a copy of a Meetings list state.
type MeetingsSnapshot struct {
	Meetings []Meeting
	Loading  bool
	Err      string
}

// Meetings owns a meeting list. Reads degrade to the built-in list when the
// backend cannot answer; writes always hit the backend and surface failures.
type Meetings struct {
	c *Client

	mu       sync.Mutex
	meetings []Meeting
	loading  int
	errMsg   string
}

// NewMeetings returns an empty meeting list bound to c.
func (c *Client) NewMeetings() *Meetings {
	return &Meetings{c: c}
}

// Snapshot returns a copy of the current state.
func (m *Meetings) Snapshot() MeetingsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MeetingsSnapshot{
		Meetings: copyMeetings(m.meetings),
		Loading:  m.loading > 0,
		Err:      m.errMsg,
	}
}

// List returns a copy of the meeting list.
func (m *Meetings) List() []Meeting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMeetings(m.meetings)
}

// Err returns the reported error, or "".
func (m *Meetings) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Meetings) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading++
	m.errMsg = ""
}

func (m *Meetings) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--
}

func (m *Meetings) report(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = HumanMessage(err)
	return err
}

// FetchMeetings replaces the list with the backend's, or with the built-in
// meetings when the backend is down or fails. It only fails when ctx ends.
func (m *Meetings) FetchMeetings(ctx context.Context) ([]Meeting, error) {
	m.start()
	defer m.stop()

	list, _, err := resolve.Attempt(ctx, "fetch_meetings", m.c.checker, resolve.Degrade,
		func(ctx context.Context) ([]Meeting, error) {
			list, err := api.ListMeetings(ctx, m.c.http, m.c.baseURL)
			if err != nil {
				return nil, err
			}
			if list == nil {
				list = []Meeting{}
			}
			return list, nil
		},
		func(context.Context, resolve.Reason) ([]Meeting, error) {
			return mock.Meetings(), nil
		})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings = copyMeetings(list)
	m.errMsg = ""
	return list, nil
}

// AddMeeting creates a meeting and appends it. Failures are reported and
// returned.
func (m *Meetings) AddMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	m.start()
	defer m.stop()

	candidate := copyMeeting(req)
	if candidate.ID == "" {
		candidate.ID = m.c.localID("meeting")
	}
	now := m.c.now()
	if candidate.DateYMD == "" {
		candidate.DateYMD = now.Format(DateLayout)
	}
	if candidate.TimeHM == "" {
		candidate.TimeHM = now.Format(TimeLayout)
	}

	mt, _, err := resolve.Attempt(ctx, "add_meeting", m.c.checker, resolve.Surface,
		func(ctx context.Context) (*Meeting, error) {
			mt, err := api.CreateMeeting(ctx, m.c.http, m.c.baseURL, req)
			if err != nil {
				return nil, err
			}
			return completeMeeting(mt, candidate), nil
		}, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to create meeting")
		return nil, m.report(err)
	}
	m.mu.Lock()
	m.meetings = append(m.meetings, copyMeeting(*mt))
	m.mu.Unlock()
	return mt, nil
}

// EditMeeting replaces meeting id with the backend's updated copy. Failures
// are reported and returned.
func (m *Meetings) EditMeeting(ctx context.Context, id string, req MeetingRequest) (*Meeting, error) {
	m.start()
	defer m.stop()

	candidate := copyMeeting(req)
	candidate.ID = id

	mt, _, err := resolve.Attempt(ctx, "edit_meeting", m.c.checker, resolve.Surface,
		func(ctx context.Context) (*Meeting, error) {
			mt, err := api.UpdateMeeting(ctx, m.c.http, m.c.baseURL, id, req)
			if err != nil {
				return nil, err
			}
			return completeMeeting(mt, candidate), nil
		}, nil)
	if err != nil {
		log.Error().Err(err).Str("meeting_id", id).Msg("failed to update meeting")
		return nil, m.report(err)
	}
	m.mu.Lock()
	for i := range m.meetings {
		if m.meetings[i].ID == id {
			m.meetings[i] = copyMeeting(*mt)
		}
	}
	m.mu.Unlock()
	return mt, nil
}

// RemoveMeeting deletes meeting id on the backend and drops it locally.
// Failures are reported and returned.
func (m *Meetings) RemoveMeeting(ctx context.Context, id string) error {
	m.start()
	defer m.stop()

	_, _, err := resolve.Attempt(ctx, "remove_meeting", m.c.checker, resolve.Surface,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, api.DeleteMeeting(ctx, m.c.http, m.c.baseURL, id)
		}, nil)
	if err != nil {
		log.Error().Err(err).Str("meeting_id", id).Msg("failed to delete meeting")
		return m.report(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.meetings[:0]
	for _, mt := range m.meetings {
		if mt.ID != id {
			kept = append(kept, mt)
		}
	}
	m.meetings = kept
	return nil
}

// CreateMeetingFromFile builds a meeting for an uploaded file. Non-zero
// fields of input override the defaults. The backend's copy is returned when
// it is reachable, the local candidate when it is not, and an offline
// candidate when the create call fails. Backend failures never surface.
func (c *Client) CreateMeetingFromFile(ctx context.Context, fileID string, input Meeting) (*Meeting, error) {
	now := c.now()
	base := Meeting{
		FileID:       fileID,
		Status:       MeetingCompleted,
		DateYMD:      now.Format(DateLayout),
		TimeHM:       now.Format(TimeLayout),
		Participants: []Participant{},
		ActionItems:  []ActionItem{},
	}
	candidate := base
	candidate.ID = c.localID("meeting")
	candidate.Title = mock.DefaultMeetingTitle
	candidate.Summary = mock.MeetingCandidateSummary
	candidate = mergeMeeting(candidate, input)

	mt, _, err := resolve.Attempt(ctx, "create_meeting_from_file", c.checker, resolve.Degrade,
		func(ctx context.Context) (*Meeting, error) {
			mt, err := api.CreateMeeting(ctx, c.http, c.baseURL, candidate)
			if err != nil {
				return nil, err
			}
			return completeMeeting(mt, candidate), nil
		},
		func(_ context.Context, reason resolve.Reason) (*Meeting, error) {
			if reason == resolve.ReasonUnavailable {
				cp := copyMeeting(candidate)
				return &cp, nil
			}
			fb := base
			fb.ID = c.localID("fallback-meeting")
			fb.Title = mock.DefaultOfflineMeetingTitle
			fb.Summary = mock.MeetingOfflineSummary
			fb = mergeMeeting(fb, input)
			return &fb, nil
		})
	if err != nil {
		return nil, err
	}
	return mt, nil
}

// completeMeeting fills identity fields the backend left empty.
func completeMeeting(mt *types.Meeting, candidate types.Meeting) *types.Meeting {
	if mt == nil {
		cp := copyMeeting(candidate)
		return &cp
	}
	if mt.ID == "" {
		mt.ID = candidate.ID
	}
	if mt.FileID == "" {
		mt.FileID = candidate.FileID
	}
	if mt.Status == "" {
		mt.Status = candidate.Status
	}
	if mt.DateYMD == "" {
		mt.DateYMD = candidate.DateYMD
	}
	if mt.TimeHM == "" {
		mt.TimeHM = candidate.TimeHM
	}
	if mt.Participants == nil {
		mt.Participants = []Participant{}
	}
	if mt.ActionItems == nil {
		mt.ActionItems = []ActionItem{}
	}
	return mt
}

// mergeMeeting overlays the non-zero fields of over onto m.
func mergeMeeting(m, over Meeting) Meeting {
	if over.ID != "" {
		m.ID = over.ID
	}
	if over.Title != "" {
		m.Title = over.Title
	}
	if over.FileID != "" {
		m.FileID = over.FileID
	}
	if over.Description != "" {
		m.Description = over.Description
	}
	if over.Status != "" {
		m.Status = over.Status
	}
	if over.DateYMD != "" {
		m.DateYMD = over.DateYMD
	}
	if over.TimeHM != "" {
		m.TimeHM = over.TimeHM
	}
	if over.Summary != "" {
		m.Summary = over.Summary
	}
	if over.Summary5 != nil {
		m.Summary5 = append([]string(nil), over.Summary5...)
	}
	if over.Participants != nil {
		m.Participants = append([]Participant{}, over.Participants...)
	}
	if over.ActionItems != nil {
		m.ActionItems = append([]ActionItem{}, over.ActionItems...)
	}
	if over.KeyTopics != nil {
		m.KeyTopics = append([]string(nil), over.KeyTopics...)
	}
	if over.SentimentOverall != "" {
		m.SentimentOverall = over.SentimentOverall
	}
	if over.FullTranscript != "" {
		m.FullTranscript = over.FullTranscript
	}
	return m
}

// --------------------------------------------------------------------
// Meeting detail
// --------------------------------------------------------------------

// MeetingDetailSnapshot is a copy of a MeetingDetail state.
type MeetingDetailSnapshot struct {
	Meeting *Meeting
	Summary *MeetingSummary
	Loading bool
	Err     string
}

// MeetingDetail owns the detail view of one meeting.
type MeetingDetail struct {
	c         *Client
	meetingID string

	mu      sync.Mutex
	meeting *Meeting
	summary *MeetingSummary
	loading int
	errMsg  string
}

// NewMeetingDetail returns a detail view for meetingID.
func (c *Client) NewMeetingDetail(meetingID string) *MeetingDetail {
	return &MeetingDetail{c: c, meetingID: meetingID}
}

// Snapshot returns a copy of the current state.
func (d *MeetingDetail) Snapshot() MeetingDetailSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := MeetingDetailSnapshot{Loading: d.loading > 0, Err: d.errMsg}
	if d.meeting != nil {
		mt := copyMeeting(*d.meeting)
		snap.Meeting = &mt
	}
	if d.summary != nil {
		s := *d.summary
		snap.Summary = &s
	}
	return snap
}

// Err returns the reported error, or "".
func (d *MeetingDetail) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

func (d *MeetingDetail) start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading++
	d.errMsg = ""
}

func (d *MeetingDetail) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading--
}

func (d *MeetingDetail) report(err error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errMsg = HumanMessage(err)
	return err
}

// FetchMeeting loads the meeting. Without a meeting id it does nothing.
// Failures are reported and returned.
func (d *MeetingDetail) FetchMeeting(ctx context.Context) (*Meeting, error) {
	if d.meetingID == "" {
		return nil, nil
	}
	d.start()
	defer d.stop()

	mt, _, err := resolve.Attempt(ctx, "fetch_meeting", d.c.checker, resolve.Surface,
		func(ctx context.Context) (*Meeting, error) { return api.GetMeeting(ctx, d.c.http, d.c.baseURL, d.meetingID) }, nil)
	if err != nil {
		log.Error().Err(err).Str("meeting_id", d.meetingID).Msg("failed to fetch meeting")
		return nil, d.report(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if mt != nil {
		cp := copyMeeting(*mt)
		d.meeting = &cp
	}
	return mt, nil
}

// FetchSummary loads the generated summary. Without a meeting id it does
// nothing. Failures are reported and returned.
func (d *MeetingDetail) FetchSummary(ctx context.Context) (*MeetingSummary, error) {
	if d.meetingID == "" {
		return nil, nil
	}
	d.start()
	defer d.stop()

	s, _, err := resolve.Attempt(ctx, "fetch_summary", d.c.checker, resolve.Surface,
		func(ctx context.Context) (*MeetingSummary, error) {
			return api.GetMeetingSummary(ctx, d.c.http, d.c.baseURL, d.meetingID)
		}, nil)
	if err != nil {
		log.Error().Err(err).Str("meeting_id", d.meetingID).Msg("failed to fetch meeting summary")
		return nil, d.report(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if s != nil {
		cp := *s
		d.summary = &cp
	}
	return s, nil
}

// PerformAnalysis runs backend analysis on the meeting. Failures are reported
// and returned.
func (d *MeetingDetail) PerformAnalysis(ctx context.Context, req AnalyzeMeetingRequest) (*AnalysisResult, error) {
	d.start()
	defer d.stop()

	if req.MeetingID == "" {
		req.MeetingID = d.meetingID
	}
	res, _, err := resolve.Attempt(ctx, "analyze_meeting", d.c.checker, resolve.Surface,
		func(ctx context.Context) (*AnalysisResult, error) { return api.AnalyzeMeeting(ctx, d.c.http, d.c.baseURL, req) }, nil)
	if err != nil {
		log.Error().Err(err).Str("meeting_id", req.MeetingID).Msg("failed to analyze meeting")
		return nil, d.report(err)
	}
	return res, nil
}

func copyMeeting(m Meeting) Meeting {
	if m.Summary5 != nil {
		m.Summary5 = append([]string(nil), m.Summary5...)
	}
	if m.Participants != nil {
		m.Participants = append([]Participant{}, m.Participants...)
	}
	if m.ActionItems != nil {
		m.ActionItems = append([]ActionItem{}, m.ActionItems...)
	}
	if m.KeyTopics != nil {
		m.KeyTopics = append([]string(nil), m.KeyTopics...)
	}
	return m
}

func copyMeetings(in []Meeting) []Meeting {
	if in == nil {
		return nil
	}
	out := make([]Meeting, len(in))
	for i, m := range in {
		out[i] = copyMeeting(m)
	}
	return out
}

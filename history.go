package client

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SortOrder orders the meeting history.
type SortOrder string

const (
	SortByTime        SortOrder = "time"
	SortByParticipant SortOrder = "participant"
)

// ParseSortOrder maps a sort query value to a SortOrder. Anything other than
// "participant" means time.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.TrimSpace(strings.ToLower(s))) == SortByParticipant {
		return SortByParticipant
	}
	return SortByTime
}

// SortMeetings returns a sorted copy of meetings. By time the newest come
// first; a missing date counts as today and a missing time as 00:00. By
// participant the meetings with more participants come first. Ties keep their
// input order.
func SortMeetings(meetings []Meeting, order SortOrder) []Meeting {
	return sortMeetings(meetings, order, time.Now())
}

func sortMeetings(meetings []Meeting, order SortOrder, now time.Time) []Meeting {
	out := copyMeetings(meetings)
	if order == SortByParticipant {
		slices.SortStableFunc(out, func(a, b Meeting) int {
			return len(b.Participants) - len(a.Participants)
		})
		return out
	}
	slices.SortStableFunc(out, func(a, b Meeting) int {
		return meetingTime(b, now).Compare(meetingTime(a, now))
	})
	return out
}

// meetingTime is the start of m in now's location. Unparseable values sort
// last.
func meetingTime(m Meeting, now time.Time) time.Time {
	date := m.DateYMD
	if date == "" {
		date = now.Format(DateLayout)
	}
	hm := m.TimeHM
	if hm == "" {
		hm = "00:00"
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+hm, now.Location())
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParticipantStat summarizes one participant across meetings.
type ParticipantStat struct {
	Name            string
	MeetingCount    int
	ActionItemCount int
	MeetingIDs      []string
}

// ParticipantStats counts, per distinct participant, the meetings attended
// and the action items assigned in them. Participants appear in the order
// they are first seen.
func ParticipantStats(meetings []Meeting) []ParticipantStat {
	var stats []ParticipantStat
	index := make(map[string]int)
	for _, m := range meetings {
		seen := make(map[string]bool, len(m.Participants))
		for _, p := range m.Participants {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			i, ok := index[p.Name]
			if !ok {
				i = len(stats)
				index[p.Name] = i
				stats = append(stats, ParticipantStat{Name: p.Name})
			}
			stats[i].MeetingCount++
			stats[i].MeetingIDs = append(stats[i].MeetingIDs, m.ID)
			for _, a := range m.ActionItems {
				if a.Assignee == p.Name {
					stats[i].ActionItemCount++
				}
			}
		}
	}
	return stats
}

// HistoryEntry is a meeting prepared for the history listing.
type HistoryEntry struct {
	ID           string
	Date         string
	Time         string
	Title        string
	Summary      string
	Participants []string
	ActionItems  []string
	Status       MeetingStatus
	KeyTopics    []string
	Sentiment    string
}

// Placeholders used by NewHistoryEntry.
const (
	UntitledMeeting = "Untitled"
	NoSummary       = "No summary available."
)

// NewHistoryEntry flattens m for display. Missing dates are filled from now.
func NewHistoryEntry(m Meeting, now time.Time) HistoryEntry {
	e := HistoryEntry{
		ID:           m.ID,
		Date:         m.DateYMD,
		Time:         m.TimeHM,
		Title:        m.Title,
		Summary:      m.Summary,
		Participants: make([]string, 0, len(m.Participants)),
		ActionItems:  make([]string, 0, len(m.ActionItems)),
		Status:       m.Status,
		KeyTopics:    append([]string{}, m.KeyTopics...),
		Sentiment:    m.SentimentOverall,
	}
	if e.Date == "" {
		e.Date = now.Format(DateLayout)
	}
	if e.Time == "" {
		e.Time = "00:00"
	}
	if e.Title == "" {
		e.Title = UntitledMeeting
	}
	if e.Summary == "" {
		e.Summary = strings.Join(m.Summary5, " ")
	}
	if e.Summary == "" {
		e.Summary = NoSummary
	}
	for _, p := range m.Participants {
		e.Participants = append(e.Participants, p.Name)
	}
	for _, a := range m.ActionItems {
		e.ActionItems = append(e.ActionItems, fmt.Sprintf("%s: %s (due %s)", a.Assignee, a.Task, a.DueDate))
	}
	return e
}

// --------------------------------------------------------------------
// Status helpers
// --------------------------------------------------------------------

// MeetingStatusInfo breaks a meeting's state into flags.
type MeetingStatusInfo struct {
	Processing    bool
	Completed     bool
	Failed        bool
	HasTranscript bool
	HasSummary    bool
	HasAnalysis   bool
}

// MeetingStatusOf reports m's flags; ok is false for a nil meeting.
func MeetingStatusOf(m *Meeting) (info MeetingStatusInfo, ok bool) {
	if m == nil {
		return info, false
	}
	return MeetingStatusInfo{
		Processing:    m.Status == MeetingProcessing,
		Completed:     m.Status == MeetingCompleted,
		Failed:        m.Status == MeetingFailed,
		HasTranscript: m.FullTranscript != "",
		HasSummary:    m.Summary != "",
		HasAnalysis:   m.KeyTopics != nil || m.SentimentOverall != "",
	}, true
}

// FileStatusInfo breaks a file record's state into flags.
type FileStatusInfo struct {
	Uploaded    bool
	Processing  bool
	Failed      bool
	Deleted     bool
	Text        bool
	Audio       bool
	HasMetadata bool
}

// FileStatusOf reports f's flags; ok is false for a nil record.
func FileStatusOf(f *UploadedFile) (info FileStatusInfo, ok bool) {
	if f == nil {
		return info, false
	}
	return FileStatusInfo{
		Uploaded:    f.Status == FileUploaded,
		Processing:  f.Status == FileProcessing,
		Failed:      f.Status == FileFailed,
		Deleted:     f.Status == FileDeleted,
		Text:        f.Kind == KindText,
		Audio:       f.Kind == KindAudio,
		HasMetadata: len(f.Meta) > 0,
	}, true
}

// SessionStatusInfo breaks a session's state into flags.
type SessionStatusInfo struct {
	Active         bool
	Closed         bool
	MeetingContext bool
	GeneralContext bool
	HasMessages    bool
}

// SessionStatusOf reports s's flags; ok is false for a nil session.
func SessionStatusOf(s *Session) (info SessionStatusInfo, ok bool) {
	if s == nil {
		return info, false
	}
	return SessionStatusInfo{
		Active:         s.Status == SessionActive,
		Closed:         s.Status == SessionClosed,
		MeetingContext: s.ContextType == ContextMeeting,
		GeneralContext: s.ContextType == ContextGeneral,
		HasMessages:    len(s.Messages) > 0,
	}, true
}

// MessageKind breaks a message into display flags.
type MessageKind struct {
	User       bool
	Bot        bool
	HasSources bool
	Timestamp  time.Time
}

// MessageKindOf reports m's display flags.
func MessageKindOf(m Message) MessageKind {
	return MessageKind{
		User:       m.Type == MessageUser,
		Bot:        m.Type == MessageBot,
		HasSources: len(m.Sources) > 0,
		Timestamp:  m.CreatedAt,
	}
}

// --------------------------------------------------------------------
// Formatting
// --------------------------------------------------------------------

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes in binary units with at most two decimals,
// e.g. "1.5 KB". Sizes of GB and above are given in GB.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	i = min(max(i, 0), len(sizeUnits)-1)
	v := float64(bytes) / math.Pow(k, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

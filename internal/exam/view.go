package exam

import (
	"time"

	"github.com/srbmarine/exam-portal/internal/model"
)

// EventType tags an outgoing runtime event.
type EventType string

const (
	EventState      EventType = "state"
	EventNotice     EventType = "notice"
	EventPrompt     EventType = "prompt"
	EventTerminated EventType = "terminated"
	EventFatal      EventType = "fatal"
)

// Event is pushed to the Sink after every change the client must render.
type Event struct {
	Type        EventType    `json:"type"`
	State       *View        `json:"state,omitempty"`
	Notice      *Notice      `json:"notice,omitempty"`
	Termination *Termination `json:"termination,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Notice is a dismissible message.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	TTLMs   int64  `json:"ttl_ms,omitempty"`
}

// Termination tells the client to leave for the result view.
type Termination struct {
	Trigger Trigger           `json:"trigger"`
	Reason  string            `json:"reason,omitempty"`
	Result  *model.ExamResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// PaletteEntry is one cell of the question overview sidebar.
type PaletteEntry struct {
	Ordinal  int  `json:"ordinal"`
	Answered bool `json:"answered"`
	Flagged  bool `json:"flagged"`
	Current  bool `json:"current"`
}

// View is the client rendering of the run.
type View struct {
	Phase       string          `json:"phase"`
	Ordinal     int             `json:"ordinal"`
	Total       int             `json:"total"`
	Question    *model.Question `json:"question,omitempty"`
	Selected    model.Choice    `json:"selected,omitempty"`
	Flagged     bool            `json:"flagged"`
	Remaining   int             `json:"remaining_seconds"`
	TabSwitches int             `json:"tab_switches"`
	Refreshes   int             `json:"refreshes"`
	Palette     []PaletteEntry  `json:"palette,omitempty"`
}

// Sink receives runtime events. Emit is called from the runtime goroutine
// and must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// View renders the machine for the client.
func (m *Machine) View() View {
	v := View{
		Phase:       m.phase.String(),
		Ordinal:     m.cursor,
		Total:       QuestionCount,
		Remaining:   m.remaining,
		TabSwitches: m.tabSwitches,
		Refreshes:   m.refreshes,
	}
	if m.phase != PhaseInProgress {
		return v
	}
	q := m.questions[m.cursor-1]
	v.Question = &q
	cur := m.attempts[m.cursor-1]
	v.Selected = cur.Selected
	v.Flagged = cur.Flagged
	v.Palette = make([]PaletteEntry, len(m.attempts))
	for i, a := range m.attempts {
		v.Palette[i] = PaletteEntry{
			Ordinal:  i + 1,
			Answered: a.Answered,
			Flagged:  a.Flagged,
			Current:  i+1 == m.cursor,
		}
	}
	return v
}

func noticeFrom(level, msg string, ttl time.Duration) *Notice {
	return &Notice{Level: level, Message: msg, TTLMs: ttl.Milliseconds()}
}

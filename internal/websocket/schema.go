package websocket

import "github.com/srbmarine/exam-portal/internal/exam"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect     Action = "select"
	ActionFlag       Action = "flag"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionJump       Action = "jump"
	ActionSignal     Action = "signal"
	ActionNavigation Action = "navigation"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"
)

// ClientMessage is every request the exam page can send. Fields not used by
// an action are ignored.
type ClientMessage struct {
	Action  Action `json:"action"`
	Ordinal int    `json:"ordinal,omitempty"`
	Choice  string `json:"choice,omitempty"`
	Signal  string `json:"signal,omitempty"`
	Key     string `json:"key,omitempty"`
	Ctrl    bool   `json:"ctrl,omitempty"`
	Shift   bool   `json:"shift,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

// Command converts the message into a runtime command.
func (m ClientMessage) Command() (exam.Command, bool) {
	switch m.Action {
	case ActionSelect:
		return exam.Command{Action: exam.ActionSelect, Ordinal: m.Ordinal, Choice: m.Choice}, true
	case ActionFlag:
		return exam.Command{Action: exam.ActionFlag}, true
	case ActionNext:
		return exam.Command{Action: exam.ActionNext}, true
	case ActionPrevious:
		return exam.Command{Action: exam.ActionPrevious}, true
	case ActionJump:
		return exam.Command{Action: exam.ActionJump, Ordinal: m.Ordinal}, true
	case ActionSubmit:
		return exam.Command{Action: exam.ActionSubmit}, true
	case ActionSignal:
		return exam.Command{Action: exam.ActionSignal, Signal: exam.Signal{
			Kind:  exam.SignalKind(m.Signal),
			Key:   m.Key,
			Ctrl:  m.Ctrl,
			Shift: m.Shift,
		}}, true
	case ActionNavigation:
		kind := exam.SignalNavigationCancel
		if m.Confirm {
			kind = exam.SignalNavigationConfirm
		}
		return exam.Command{Action: exam.ActionSignal, Signal: exam.Signal{Kind: kind}}, true
	}
	return exam.Command{}, false
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventAck   Event = "ack"
	EventError Event = "error"
	EventPong  Event = "pong"
)

type AckResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type ErrorResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action,omitempty"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// RuntimeResponse wraps a runtime event; Event carries its type
// (state, notice, prompt, terminated or fatal).
type RuntimeResponse struct {
	Event exam.EventType `json:"event"`
	Data  exam.Event     `json:"data"`
}

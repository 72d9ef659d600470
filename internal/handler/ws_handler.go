package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/exam"
	"github.com/srbmarine/exam-portal/internal/middleware"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/session"
	ws "github.com/srbmarine/exam-portal/internal/websocket"
)

const supersedeWait = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
func buildUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}
}

type liveRun struct {
	runtime *exam.Runtime
	conn    *ws.Conn
}

// registry keeps at most one live runtime per session.
type registry struct {
	mu   sync.Mutex
	runs map[string]liveRun
}

// attach installs run for sid and shuts down the run it replaces.
func (r *registry) attach(sid string, run liveRun) {
	r.mu.Lock()
	old, ok := r.runs[sid]
	r.runs[sid] = run
	r.mu.Unlock()
	if !ok {
		return
	}

	old.runtime.Close()
	select {
	case <-old.runtime.Done():
	case <-time.After(supersedeWait):
	}
	_ = old.conn.Close("superseded by a new connection")
}

func (r *registry) detach(sid string, rt *exam.Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.runs[sid]; ok && cur.runtime == rt {
		delete(r.runs, sid)
	}
}

// WSHandler streams the exam runtime over a WebSocket.
type WSHandler struct {
	cfg       *config.Config
	store     session.Store
	questions exam.QuestionProvider
	scorer    exam.Scorer
	recorder  exam.Recorder
	log       zerolog.Logger
	upgrader  websocket.Upgrader
	runs      *registry

	// ticks overrides the runtime clock in tests.
	ticks func() <-chan time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	cfg *config.Config,
	store session.Store,
	questions exam.QuestionProvider,
	scorer exam.Scorer,
	recorder exam.Recorder,
	log zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		cfg:       cfg,
		store:     store,
		questions: questions,
		scorer:    scorer,
		recorder:  recorder,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(cfg),
		runs:      &registry{runs: make(map[string]liveRun)},
	}
}

// ExamStream godoc
// WS /ws/v1/exam/stream?token=
// Mounts the candidate's exam and relays commands and events.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	sid := claims.SessionID()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)

	wsLog := h.log.With().
		Str("candidate_id", claims.CandidateID).
		Str("session_id", sid).
		Logger()

	opts := exam.Options{
		SessionID: sid,
		Store:     h.store,
		Provider:  h.questions,
		Scorer:    h.scorer,
		Sink:      conn,
		Recorder:  h.recorder,
		Budget:    h.cfg.ExamDuration,
		Grace:     h.cfg.ExamGraceDelay,
		Log:       h.log,
	}
	if h.ticks != nil {
		opts.Ticks = h.ticks()
	}
	rt := exam.NewRuntime(opts)

	h.runs.attach(sid, liveRun{runtime: rt, conn: conn})
	defer h.runs.detach(sid, rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Start(ctx); err != nil {
		var fetchErr *exam.FetchError
		switch {
		case errors.Is(err, exam.ErrNoIdentity):
			_ = conn.WriteError("", string(response.ErrNoActiveSession), response.GetMessage(response.ErrNoActiveSession))
		case errors.As(err, &fetchErr), errors.Is(err, exam.ErrSubmissionPending):
			// The runtime already emitted a fatal or terminated event.
		default:
			wsLog.Error().Err(err).Msg("Exam mount failed")
			_ = conn.WriteError("", string(response.ErrInternal), response.GetMessage(response.ErrInternal))
		}
		_ = conn.Close("exam unavailable")
		return
	}
	wsLog.Info().Msg("Candidate connected")

	// Unblock the read loop once the run has terminated.
	go func() {
		<-rt.Done()
		_ = conn.Close("exam finished")
	}()

	for {
		var msg ws.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		if msg.Action == ws.ActionPing {
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}

		cmd, ok := msg.Command()
		if !ok {
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError(msg.Action, string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
			continue
		}

		if err := rt.Dispatch(ctx, cmd); err != nil {
			code, text := commandError(err)
			_ = conn.WriteError(msg.Action, string(code), text)
			if errors.Is(err, exam.ErrRuntimeClosed) {
				break
			}
			continue
		}
		_ = conn.WriteAck(msg.Action)
	}

	rt.Close()
}

// commandError maps a runtime error to a wire code and message.
func commandError(err error) (response.ErrCode, string) {
	var verr *exam.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ErrValidation, verr.Error()
	case errors.Is(err, exam.ErrAnswerRequired):
		return response.ErrAnswerRequired, response.GetMessage(response.ErrAnswerRequired)
	case errors.Is(err, exam.ErrJumpNotAllowed):
		return response.ErrJumpNotAllowed, response.GetMessage(response.ErrJumpNotAllowed)
	case errors.Is(err, exam.ErrSubmissionDropped):
		return response.ErrSubmissionDropped, response.GetMessage(response.ErrSubmissionDropped)
	case errors.Is(err, exam.ErrNotInProgress), errors.Is(err, exam.ErrRuntimeClosed):
		return response.ErrExamNotInProgress, response.GetMessage(response.ErrExamNotInProgress)
	}
	return response.ErrInternal, response.GetMessage(response.ErrInternal)
}

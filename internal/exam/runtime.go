package exam

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/session"
)

// Action is a candidate command forwarded by the client.
type Action string

const (
	ActionSelect   Action = "select"
	ActionFlag     Action = "flag"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionJump     Action = "jump"
	ActionSignal   Action = "signal"
	ActionSubmit   Action = "submit"
)

// Command is one client request. Ordinal is used by select and jump,
// Choice by select and Signal by signal.
type Command struct {
	Action  Action
	Ordinal int
	Choice  string
	Signal  Signal
}

// Recorder publishes integrity decisions for audit.
type Recorder interface {
	Record(ctx context.Context, evt model.IntegrityEvent) error
}

// Options configures a Runtime. Store, Provider, Scorer and Sink are required.
type Options struct {
	SessionID string
	Store     session.Store
	Provider  QuestionProvider
	Scorer    Scorer
	Sink      Sink
	Recorder  Recorder
	Budget    time.Duration
	Grace     time.Duration
	Watchers  []Watcher
	// Ticks replaces the one second ticker when set.
	Ticks <-chan time.Time
	Now   func() time.Time
	Log   zerolog.Logger
}

type request struct {
	cmd   Command
	reply chan error
}

type delayedSubmit struct {
	trigger   Trigger
	violation *IntegrityViolation
}

// Runtime is the event loop of one exam session. Commands, ticks, delayed
// forced submissions and submission outcomes are all handled on a single
// goroutine, so the Machine never sees concurrent calls.
type Runtime struct {
	opts    Options
	log     zerolog.Logger
	machine *Machine
	guard   *Guard
	coord   *Coordinator

	identity model.CandidateIdentity
	deadline time.Time
	reason   *IntegrityViolation
	pending  bool

	ctx    context.Context
	cancel context.CancelFunc

	cmds     chan request
	delayed  chan delayedSubmit
	outcomes chan Outcome
	done     chan struct{}

	mu     sync.Mutex
	timers []*time.Timer
	ticker *time.Ticker
	closed bool
}

// NewRuntime creates an unmounted runtime.
func NewRuntime(opts Options) *Runtime {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Watchers == nil {
		opts.Watchers = DefaultWatchers()
	}
	log := opts.Log.With().Str("component", "exam_runtime").Str("session_id", opts.SessionID).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		opts:     opts,
		log:      log,
		machine:  NewMachine(),
		guard:    NewGuard(opts.Grace, opts.Watchers...),
		coord:    NewCoordinator(opts.Scorer, opts.Store, log),
		ctx:      ctx,
		cancel:   cancel,
		cmds:     make(chan request),
		delayed:  make(chan delayedSubmit, 1),
		outcomes: make(chan Outcome, 1),
		done:     make(chan struct{}),
	}
}

// Start mounts the exam and runs the event loop in a new goroutine. When
// mounting fails the runtime is closed and the error is returned.
func (r *Runtime) Start(ctx context.Context) error {
	if err := r.mount(ctx); err != nil {
		r.Close()
		close(r.done)
		return err
	}
	ticks := r.opts.Ticks
	if ticks == nil {
		r.mu.Lock()
		if !r.closed {
			r.ticker = time.NewTicker(time.Second)
			ticks = r.ticker.C
		}
		r.mu.Unlock()
	}
	go r.loop(ticks)
	return nil
}

// Done is closed once the loop has exited.
func (r *Runtime) Done() <-chan struct{} { return r.done }

// Close stops the loop and any pending timers. A submission already in
// flight still completes and tears the session down.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()
	for _, t := range r.timers {
		t.Stop()
	}
	if r.ticker != nil {
		r.ticker.Stop()
	}
}

// Dispatch runs cmd on the event loop and waits for it to be applied.
func (r *Runtime) Dispatch(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case r.cmds <- req:
	case <-r.done:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-r.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrRuntimeClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) mount(ctx context.Context) error {
	sid := r.opts.SessionID
	identity, err := r.opts.Store.Identity(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrNoIdentity
		}
		return err
	}
	r.identity = identity

	progress, err := r.opts.Store.Progress(ctx, sid)
	if err != nil {
		return err
	}
	if progress.Submitting {
		r.log.Info().Str("candidate_id", identity.CandidateID).Msg("Mount refused, submission in flight")
		r.emit(Event{Type: EventTerminated, Termination: &Termination{
			Error: "Your exam is already being submitted. Please wait for your result.",
		}})
		return ErrSubmissionPending
	}

	if err := r.machine.Load(ctx, r.opts.Provider); err != nil {
		r.log.Error().Err(err).Msg("Question set unavailable")
		r.emit(Event{Type: EventFatal, Error: "Failed to load exam questions. Please try again later."})
		return err
	}

	var restored *model.AttemptSnapshot
	now := r.opts.Now()
	r.deadline = now.Add(r.opts.Budget)
	if snap, err := r.opts.Store.Attempt(ctx, sid); err == nil {
		restored = &snap
		r.deadline = snap.Deadline
	} else if !errors.Is(err, session.ErrNotFound) {
		return err
	}

	if err := r.machine.Start(secondsUntil(now, r.deadline), restored, progress); err != nil {
		return err
	}
	r.persist()

	switch {
	case progress.SubmitOnLoad:
		r.emitState()
		r.submit(TriggerIntegrity, &IntegrityViolation{Signal: SignalReload, Count: progress.RefreshCount})
		return nil
	case progress.PageLoaded:
		r.emitState()
		r.signal(Signal{Kind: SignalReload})
	default:
		if err := r.opts.Store.MarkPageLoaded(ctx, sid); err != nil {
			return err
		}
		r.emitState()
	}

	if r.machine.Remaining() == 0 {
		r.tick()
	}
	r.log.Info().
		Str("candidate_id", identity.CandidateID).
		Int("remaining", r.machine.Remaining()).
		Bool("restored", restored != nil).
		Msg("Exam mounted")
	return nil
}

func secondsUntil(now, deadline time.Time) int {
	s := math.Ceil(deadline.Sub(now).Seconds())
	if s < 0 {
		return 0
	}
	return int(s)
}

func (r *Runtime) loop(ticks <-chan time.Time) {
	defer close(r.done)
	defer r.Close()
	for {
		select {
		case <-r.ctx.Done():
			return
		case req := <-r.cmds:
			req.reply <- r.handle(req.cmd)
		case <-ticks:
			r.tick()
		case d := <-r.delayed:
			r.pending = false
			r.submit(d.trigger, d.violation)
		case out := <-r.outcomes:
			r.finish(out)
			return
		}
	}
}

func (r *Runtime) handle(cmd Command) error {
	if r.pending && mutatesAttempt(cmd.Action) {
		r.notice(LevelWarning, "Your exam is being submitted. Answers can no longer be changed.", 3*time.Second)
		return ErrNotInProgress
	}

	m := r.machine
	var err error
	switch cmd.Action {
	case ActionSelect:
		err = m.SelectAnswer(cmd.Ordinal, cmd.Choice)
	case ActionFlag:
		err = m.ToggleFlag()
	case ActionNext:
		err = m.GoToNext()
	case ActionPrevious:
		err = m.GoToPrevious()
	case ActionJump:
		err = m.JumpTo(cmd.Ordinal)
	case ActionSignal:
		r.signal(cmd.Signal)
		return nil
	case ActionSubmit:
		return r.submit(TriggerExplicit, nil)
	default:
		return &ValidationError{Field: "action", Reason: "unknown action"}
	}

	switch {
	case errors.Is(err, ErrAnswerRequired):
		r.notice(LevelWarning, "Please answer the current question before proceeding to the next one.", 3*time.Second)
		return err
	case errors.Is(err, ErrJumpNotAllowed):
		r.notice(LevelWarning, "You can only navigate to questions that have been answered.", 3*time.Second)
		return err
	case err != nil:
		return err
	}
	r.persist()
	r.emitState()
	return nil
}

func mutatesAttempt(a Action) bool {
	switch a {
	case ActionSelect, ActionFlag, ActionNext, ActionPrevious, ActionJump:
		return true
	}
	return false
}

func (r *Runtime) tick() {
	if !r.machine.Tick() {
		if r.machine.Phase() == PhaseInProgress {
			r.emitState()
		}
		return
	}
	r.emitState()
	r.signal(Signal{Kind: SignalTimerExpired})
}

// signal runs sig through the guard and applies the resulting effect.
func (r *Runtime) signal(sig Signal) {
	eff := r.guard.Handle(sig, r.machine)
	if eff.Kind == EffectNone {
		return
	}
	ctx := r.ctx
	sid := r.opts.SessionID

	switch eff.Bump {
	case CounterTabSwitch:
		r.machine.RecordTabSwitch()
		if _, err := r.opts.Store.IncrTabSwitch(ctx, sid); err != nil {
			r.log.Error().Err(err).Msg("Failed to persist tab switch count")
		}
	case CounterRefresh:
		n, err := r.opts.Store.IncrRefresh(ctx, sid)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to persist refresh count")
			n = r.machine.Refreshes() + 1
		}
		r.machine.RecordRefresh(n)
	}
	if eff.SubmitOnLoad {
		if err := r.opts.Store.SetSubmitOnLoad(ctx, sid); err != nil {
			r.log.Error().Err(err).Msg("Failed to persist submit-on-load flag")
		}
	}

	if eff.Kind != EffectSuppress {
		r.record(sig, eff)
	}

	if eff.Message != "" {
		typ := EventNotice
		if eff.Kind == EffectPrompt {
			typ = EventPrompt
		}
		r.emit(Event{Type: typ, Notice: noticeFrom(eff.Level, eff.Message, eff.TTL)})
	}
	if eff.Bump != CounterNone {
		r.emitState()
	}

	if eff.Kind == EffectForceSubmit {
		trigger := TriggerIntegrity
		if sig.Kind == SignalTimerExpired {
			trigger = TriggerTimer
		}
		if eff.Delay > 0 {
			r.schedule(eff.Delay, trigger, eff.Violation)
		} else {
			_ = r.submit(trigger, eff.Violation)
		}
	}
}

// schedule fires a forced submission after delay. Only one can be pending.
func (r *Runtime) schedule(delay time.Duration, trigger Trigger, v *IntegrityViolation) {
	if r.pending {
		return
	}
	r.pending = true
	r.guard.Freeze()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	t := time.AfterFunc(delay, func() {
		select {
		case r.delayed <- delayedSubmit{trigger: trigger, violation: v}:
		case <-r.ctx.Done():
		}
	})
	r.timers = append(r.timers, t)
}

// submit starts the single submission of this run. Later triggers are dropped.
func (r *Runtime) submit(trigger Trigger, v *IntegrityViolation) error {
	sid := r.opts.SessionID
	sub, err := r.coord.Begin(context.WithoutCancel(r.ctx), sid, r.machine, r.identity, trigger)
	if err != nil {
		r.log.Debug().Str("trigger", string(trigger)).Msg("Submission trigger dropped")
		return err
	}
	r.reason = v
	r.emitState()

	ctx := context.WithoutCancel(r.ctx)
	go func() {
		out := r.coord.Deliver(ctx, sid, sub)
		r.outcomes <- out
	}()
	return nil
}

func (r *Runtime) finish(out Outcome) {
	r.coord.Complete(r.machine)
	t := &Termination{Trigger: out.Trigger, Result: out.Result}
	if r.reason != nil {
		t.Reason = r.reason.Error()
	}
	if out.Err != nil {
		t.Error = out.Err.Error()
	}
	r.emit(Event{Type: EventTerminated, Termination: t})
}

func (r *Runtime) persist() {
	if r.machine.Phase() != PhaseInProgress {
		return
	}
	snap := r.machine.Snapshot()
	snap.Deadline = r.deadline
	if err := r.opts.Store.SaveAttempt(r.ctx, r.opts.SessionID, snap); err != nil {
		r.log.Error().Err(err).Msg("Failed to persist attempt")
	}
}

func (r *Runtime) record(sig Signal, eff Effect) {
	if r.opts.Recorder == nil {
		return
	}
	err := r.opts.Recorder.Record(r.ctx, model.IntegrityEvent{
		SessionID:   r.opts.SessionID,
		CandidateID: r.identity.CandidateID,
		Signal:      string(sig.Kind),
		Effect:      eff.Kind.String(),
		Detail:      eff.Message,
		RecordedAt:  r.opts.Now(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("signal", string(sig.Kind)).Msg("Failed to record integrity event")
	}
}

func (r *Runtime) notice(level, msg string, ttl time.Duration) {
	r.emit(Event{Type: EventNotice, Notice: noticeFrom(level, msg, ttl)})
}

func (r *Runtime) emitState() {
	v := r.machine.View()
	r.emit(Event{Type: EventState, State: &v})
}

func (r *Runtime) emit(e Event) {
	if r.opts.Sink != nil {
		r.opts.Sink.Emit(e)
	}
}

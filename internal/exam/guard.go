package exam

import (
	"fmt"
	"strings"
	"time"
)

// SignalKind names a browser-level event forwarded by the client.
type SignalKind string

const (
	SignalReloadAttempt     SignalKind = "reload_attempt"
	SignalReload            SignalKind = "reload"
	SignalHistoryNavigation SignalKind = "history_navigation"
	SignalNavigationConfirm SignalKind = "navigation_confirm"
	SignalNavigationCancel  SignalKind = "navigation_cancel"
	SignalVisibilityHidden  SignalKind = "visibility_hidden"
	SignalContextMenu       SignalKind = "context_menu"
	SignalTextSelect        SignalKind = "text_select"
	SignalDragStart         SignalKind = "drag_start"
	SignalKeyDown           SignalKind = "key_down"
	SignalTimerExpired      SignalKind = "timer_expired"
)

// Signal is one occurrence of a SignalKind. Key modifiers are only set for
// SignalKeyDown.
type Signal struct {
	Kind  SignalKind
	Key   string
	Ctrl  bool
	Shift bool
}

// EffectKind is the decision a watcher takes on a signal.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectSuppress
	EffectWarn
	EffectPrompt
	EffectResume
	EffectForceSubmit
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectSuppress:
		return "suppress"
	case EffectWarn:
		return "warn"
	case EffectPrompt:
		return "prompt"
	case EffectResume:
		return "resume"
	case EffectForceSubmit:
		return "force_submit"
	}
	return "unknown"
}

// Counter names the durable counter an effect increments.
type Counter int

const (
	CounterNone Counter = iota
	CounterTabSwitch
	CounterRefresh
)

// Notice levels shown by the client.
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Effect is a watcher's verdict. Watchers only describe what should happen;
// the Runtime applies it.
type Effect struct {
	Kind     EffectKind
	Suppress bool
	Level    string
	Message  string
	TTL      time.Duration
	Bump     Counter
	// SubmitOnLoad marks the session so the next mount submits immediately.
	SubmitOnLoad bool
	Delay        time.Duration
	Violation    *IntegrityViolation
}

// GuardContext is the read-only view of the run a watcher decides on.
type GuardContext struct {
	Signal      Signal
	Phase       Phase
	TabSwitches int
	Refreshes   int
	PromptOpen  bool
	Grace       time.Duration
}

// Watcher translates one kind of signal into an Effect.
type Watcher interface {
	Signal() SignalKind
	OnTrigger(GuardContext) Effect
}

// Guard routes signals to their watcher. It is the single place where
// integrity decisions are made, and never mutates the attempt.
type Guard struct {
	watchers   map[SignalKind]Watcher
	grace      time.Duration
	promptOpen bool
	frozen     bool
}

// NewGuard composes watchers. A later watcher for the same signal replaces
// an earlier one.
func NewGuard(grace time.Duration, watchers ...Watcher) *Guard {
	g := &Guard{watchers: make(map[SignalKind]Watcher, len(watchers)), grace: grace}
	for _, w := range watchers {
		g.watchers[w.Signal()] = w
	}
	return g
}

// DefaultWatchers returns the standard exam watchers.
func DefaultWatchers() []Watcher {
	return []Watcher{
		reloadAttemptWatcher{},
		reloadWatcher{},
		historyWatcher{},
		navigationConfirmWatcher{},
		navigationCancelWatcher{},
		visibilityWatcher{},
		contextMenuWatcher{},
		silentWatcher{kind: SignalTextSelect},
		silentWatcher{kind: SignalDragStart},
		keyWatcher{},
		timerWatcher{},
	}
}

// PromptOpen reports whether the navigation prompt is showing.
func (g *Guard) PromptOpen() bool { return g.promptOpen }

// Freeze is called once a forced submission is scheduled. From then on the
// guard only suppresses browser defaults; it warns, prompts and counts
// nothing, and its prompt state no longer changes.
func (g *Guard) Freeze() { g.frozen = true }

// Handle decides the effect of sig against the current run. Signals outside
// PhaseInProgress and unknown signals are no-ops.
func (g *Guard) Handle(sig Signal, m *Machine) Effect {
	if m.Phase() != PhaseInProgress {
		return Effect{}
	}
	w, ok := g.watchers[sig.Kind]
	if !ok {
		return Effect{}
	}
	eff := w.OnTrigger(GuardContext{
		Signal:      sig,
		Phase:       m.Phase(),
		TabSwitches: m.TabSwitches(),
		Refreshes:   m.Refreshes(),
		PromptOpen:  g.promptOpen,
		Grace:       g.grace,
	})
	if g.frozen {
		if eff.Suppress {
			return Effect{Kind: EffectSuppress, Suppress: true}
		}
		return Effect{}
	}
	switch {
	case eff.Kind == EffectPrompt:
		g.promptOpen = true
	case sig.Kind == SignalNavigationConfirm, sig.Kind == SignalNavigationCancel:
		g.promptOpen = false
	}
	return eff
}

type reloadAttemptWatcher struct{}

func (reloadAttemptWatcher) Signal() SignalKind { return SignalReloadAttempt }

func (reloadAttemptWatcher) OnTrigger(ctx GuardContext) Effect {
	msg := "Warning: Your exam will be automatically submitted on the next refresh!"
	if ctx.Refreshes >= RefreshLimit-1 {
		msg = "Final warning: Your exam will be submitted on the next refresh!"
	}
	return Effect{Kind: EffectWarn, Level: LevelWarning, Message: msg, TTL: 8 * time.Second}
}

// reloadWatcher sees a reload detected at mount.
type reloadWatcher struct{}

func (reloadWatcher) Signal() SignalKind { return SignalReload }

func (reloadWatcher) OnTrigger(ctx GuardContext) Effect {
	n := ctx.Refreshes + 1
	if n >= RefreshLimit {
		return Effect{
			Kind:         EffectForceSubmit,
			Level:        LevelError,
			Message:      "Exam submitted due to page refresh. Redirecting...",
			TTL:          3 * time.Second,
			Bump:         CounterRefresh,
			SubmitOnLoad: true,
			Violation:    &IntegrityViolation{Signal: SignalReload, Count: n},
		}
	}
	return Effect{
		Kind:    EffectWarn,
		Level:   LevelWarning,
		Message: "Warning: Your exam will be automatically submitted on the next refresh!",
		TTL:     8 * time.Second,
		Bump:    CounterRefresh,
	}
}

type historyWatcher struct{}

func (historyWatcher) Signal() SignalKind { return SignalHistoryNavigation }

func (historyWatcher) OnTrigger(ctx GuardContext) Effect {
	if ctx.PromptOpen {
		return Effect{Kind: EffectSuppress, Suppress: true}
	}
	return Effect{
		Kind:     EffectPrompt,
		Suppress: true,
		Level:    LevelWarning,
		Message:  "Leaving this page will submit your exam. Do you want to submit now?",
	}
}

type navigationConfirmWatcher struct{}

func (navigationConfirmWatcher) Signal() SignalKind { return SignalNavigationConfirm }

func (navigationConfirmWatcher) OnTrigger(ctx GuardContext) Effect {
	if !ctx.PromptOpen {
		return Effect{}
	}
	return Effect{
		Kind:      EffectForceSubmit,
		Level:     LevelWarning,
		Message:   "Submitting exam due to navigation...",
		TTL:       2 * time.Second,
		Delay:     ctx.Grace,
		Violation: &IntegrityViolation{Signal: SignalHistoryNavigation},
	}
}

type navigationCancelWatcher struct{}

func (navigationCancelWatcher) Signal() SignalKind { return SignalNavigationCancel }

func (navigationCancelWatcher) OnTrigger(ctx GuardContext) Effect {
	if !ctx.PromptOpen {
		return Effect{}
	}
	return Effect{
		Kind:    EffectResume,
		Level:   LevelSuccess,
		Message: "Navigation cancelled. Continue with your exam.",
		TTL:     3 * time.Second,
	}
}

type visibilityWatcher struct{}

func (visibilityWatcher) Signal() SignalKind { return SignalVisibilityHidden }

func (visibilityWatcher) OnTrigger(ctx GuardContext) Effect {
	n := ctx.TabSwitches + 1
	if n >= TabSwitchLimit {
		return Effect{
			Kind:      EffectForceSubmit,
			Level:     LevelError,
			Message:   "Exam submitted due to excessive tab switching. Redirecting...",
			TTL:       3 * time.Second,
			Bump:      CounterTabSwitch,
			Delay:     ctx.Grace,
			Violation: &IntegrityViolation{Signal: SignalVisibilityHidden, Count: n},
		}
	}
	return Effect{
		Kind:    EffectWarn,
		Level:   LevelWarning,
		Message: fmt.Sprintf("Tab switching detected! %d more switches will submit your exam.", TabSwitchLimit-n),
		TTL:     4 * time.Second,
		Bump:    CounterTabSwitch,
	}
}

type contextMenuWatcher struct{}

func (contextMenuWatcher) Signal() SignalKind { return SignalContextMenu }

func (contextMenuWatcher) OnTrigger(GuardContext) Effect {
	return Effect{
		Kind:     EffectWarn,
		Suppress: true,
		Level:    LevelWarning,
		Message:  "Right-click is disabled during the exam. Please use the exam controls.",
		TTL:      2 * time.Second,
	}
}

type silentWatcher struct {
	kind SignalKind
}

func (w silentWatcher) Signal() SignalKind { return w.kind }

func (silentWatcher) OnTrigger(GuardContext) Effect {
	return Effect{Kind: EffectSuppress, Suppress: true}
}

type keyWatcher struct{}

func (keyWatcher) Signal() SignalKind { return SignalKeyDown }

func (keyWatcher) OnTrigger(ctx GuardContext) Effect {
	if !blockedKey(ctx.Signal) {
		return Effect{}
	}
	return Effect{
		Kind:     EffectWarn,
		Suppress: true,
		Level:    LevelWarning,
		Message:  "This action is not allowed during the exam. Your exam will be submitted if you continue.",
		TTL:      3 * time.Second,
	}
}

// blockedKey matches refresh and developer tools shortcuts.
func blockedKey(sig Signal) bool {
	key := sig.Key
	switch {
	case key == "F5", key == "F12":
		return true
	case sig.Ctrl && sig.Shift && (strings.EqualFold(key, "r") || strings.EqualFold(key, "i")):
		return true
	case sig.Ctrl && (strings.EqualFold(key, "r") || strings.EqualFold(key, "u")):
		return true
	}
	return false
}

type timerWatcher struct{}

func (timerWatcher) Signal() SignalKind { return SignalTimerExpired }

func (timerWatcher) OnTrigger(ctx GuardContext) Effect {
	return Effect{
		Kind:      EffectForceSubmit,
		Level:     LevelWarning,
		Message:   "Time is up! Submitting exam automatically...",
		TTL:       2 * time.Second,
		Delay:     ctx.Grace,
		Violation: &IntegrityViolation{Signal: SignalTimerExpired},
	}
}

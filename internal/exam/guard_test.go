package exam

import (
	"testing"
	"time"
)

func TestGuard_Policies(t *testing.T) {
	grace := 2 * time.Second

	tests := []struct {
		name         string
		sig          Signal
		tabSwitches  int
		refreshes    int
		wantKind     EffectKind
		wantBump     Counter
		wantSuppress bool
		wantDelay    time.Duration
	}{
		{"first tab switch", Signal{Kind: SignalVisibilityHidden}, 0, 0, EffectWarn, CounterTabSwitch, false, 0},
		{"second tab switch", Signal{Kind: SignalVisibilityHidden}, 1, 0, EffectWarn, CounterTabSwitch, false, 0},
		{"third tab switch", Signal{Kind: SignalVisibilityHidden}, 2, 0, EffectForceSubmit, CounterTabSwitch, false, grace},
		{"first reload", Signal{Kind: SignalReload}, 0, 0, EffectWarn, CounterRefresh, false, 0},
		{"second reload", Signal{Kind: SignalReload}, 0, 1, EffectForceSubmit, CounterRefresh, false, 0},
		{"reload attempt", Signal{Kind: SignalReloadAttempt}, 0, 0, EffectWarn, CounterNone, false, 0},
		{"context menu", Signal{Kind: SignalContextMenu}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"text select", Signal{Kind: SignalTextSelect}, 0, 0, EffectSuppress, CounterNone, true, 0},
		{"drag start", Signal{Kind: SignalDragStart}, 0, 0, EffectSuppress, CounterNone, true, 0},
		{"F5", Signal{Kind: SignalKeyDown, Key: "F5"}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"F12", Signal{Kind: SignalKeyDown, Key: "F12"}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"ctrl+r", Signal{Kind: SignalKeyDown, Key: "r", Ctrl: true}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"ctrl+shift+R", Signal{Kind: SignalKeyDown, Key: "R", Ctrl: true, Shift: true}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"ctrl+u", Signal{Kind: SignalKeyDown, Key: "u", Ctrl: true}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"ctrl+shift+I", Signal{Kind: SignalKeyDown, Key: "I", Ctrl: true, Shift: true}, 0, 0, EffectWarn, CounterNone, true, 0},
		{"plain letter", Signal{Kind: SignalKeyDown, Key: "a"}, 0, 0, EffectNone, CounterNone, false, 0},
		{"ctrl+c", Signal{Kind: SignalKeyDown, Key: "c", Ctrl: true}, 0, 0, EffectNone, CounterNone, false, 0},
		{"timer expired", Signal{Kind: SignalTimerExpired}, 0, 0, EffectForceSubmit, CounterNone, false, grace},
		{"unknown", Signal{Kind: "pointer_lock"}, 0, 0, EffectNone, CounterNone, false, 0},
		{"cancel without prompt", Signal{Kind: SignalNavigationCancel}, 0, 0, EffectNone, CounterNone, false, 0},
		{"confirm without prompt", Signal{Kind: SignalNavigationConfirm}, 0, 0, EffectNone, CounterNone, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := startedMachine(1200)
			m.tabSwitches = tt.tabSwitches
			m.refreshes = tt.refreshes
			g := NewGuard(grace, DefaultWatchers()...)

			eff := g.Handle(tt.sig, m)
			if eff.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", eff.Kind, tt.wantKind)
			}
			if eff.Bump != tt.wantBump {
				t.Errorf("bump = %d, want %d", eff.Bump, tt.wantBump)
			}
			if eff.Suppress != tt.wantSuppress {
				t.Errorf("suppress = %v, want %v", eff.Suppress, tt.wantSuppress)
			}
			if eff.Delay != tt.wantDelay {
				t.Errorf("delay = %s, want %s", eff.Delay, tt.wantDelay)
			}
			if eff.Kind == EffectForceSubmit && eff.Violation == nil {
				t.Error("forced submit without violation")
			}
		})
	}
}

func TestGuard_TabSwitchWarningCountsDown(t *testing.T) {
	m := startedMachine(1200)
	g := NewGuard(0, DefaultWatchers()...)

	eff := g.Handle(Signal{Kind: SignalVisibilityHidden}, m)
	want := "Tab switching detected! 2 more switches will submit your exam."
	if eff.Message != want {
		t.Fatalf("message = %q, want %q", eff.Message, want)
	}
}

func TestGuard_SecondReloadMarksSubmitOnLoad(t *testing.T) {
	m := startedMachine(1200)
	m.refreshes = 1
	g := NewGuard(0, DefaultWatchers()...)

	eff := g.Handle(Signal{Kind: SignalReload}, m)
	if !eff.SubmitOnLoad {
		t.Fatal("second reload must persist submit-on-load")
	}
}

func TestGuard_NavigationPrompt(t *testing.T) {
	m := startedMachine(1200)
	g := NewGuard(time.Second, DefaultWatchers()...)

	if eff := g.Handle(Signal{Kind: SignalHistoryNavigation}, m); eff.Kind != EffectPrompt {
		t.Fatalf("first navigation: %s", eff.Kind)
	}
	if !g.PromptOpen() {
		t.Fatal("prompt not tracked")
	}
	if eff := g.Handle(Signal{Kind: SignalHistoryNavigation}, m); eff.Kind != EffectSuppress {
		t.Fatalf("re-prompt while open: %s", eff.Kind)
	}

	if eff := g.Handle(Signal{Kind: SignalNavigationCancel}, m); eff.Kind != EffectResume {
		t.Fatalf("cancel: %s", eff.Kind)
	}
	if g.PromptOpen() {
		t.Fatal("prompt still open after cancel")
	}
	if m.TabSwitches() != 0 || m.Refreshes() != 0 {
		t.Fatal("navigation changed counters")
	}

	_ = g.Handle(Signal{Kind: SignalHistoryNavigation}, m)
	eff := g.Handle(Signal{Kind: SignalNavigationConfirm}, m)
	if eff.Kind != EffectForceSubmit || eff.Delay != time.Second {
		t.Fatalf("confirm: %+v", eff)
	}
}

func TestGuard_FrozenOnlySuppresses(t *testing.T) {
	m := startedMachine(1200)
	g := NewGuard(time.Second, DefaultWatchers()...)
	g.Freeze()

	tests := []struct {
		name string
		sig  Signal
		want EffectKind
	}{
		{"history navigation", Signal{Kind: SignalHistoryNavigation}, EffectSuppress},
		{"navigation confirm", Signal{Kind: SignalNavigationConfirm}, EffectNone},
		{"tab switch", Signal{Kind: SignalVisibilityHidden}, EffectNone},
		{"context menu", Signal{Kind: SignalContextMenu}, EffectSuppress},
		{"reload", Signal{Kind: SignalReload}, EffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := g.Handle(tt.sig, m)
			if eff.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", eff.Kind, tt.want)
			}
			if eff.Bump != CounterNone || eff.Message != "" {
				t.Fatalf("frozen guard produced %+v", eff)
			}
			if g.PromptOpen() {
				t.Fatal("frozen guard opened a prompt")
			}
		})
	}
}

func TestGuard_IgnoresSignalsOutsideRun(t *testing.T) {
	g := NewGuard(0, DefaultWatchers()...)

	loading := NewMachine()
	if eff := g.Handle(Signal{Kind: SignalVisibilityHidden}, loading); eff.Kind != EffectNone {
		t.Fatalf("loading: %s", eff.Kind)
	}

	m := startedMachine(1200)
	_ = m.beginSubmission()
	if eff := g.Handle(Signal{Kind: SignalTimerExpired}, m); eff.Kind != EffectNone {
		t.Fatalf("submitting: %s", eff.Kind)
	}
}

type alwaysSubmit struct{}

func (alwaysSubmit) Signal() SignalKind { return SignalContextMenu }

func (alwaysSubmit) OnTrigger(GuardContext) Effect { return Effect{Kind: EffectForceSubmit} }

func TestGuard_WatcherOverride(t *testing.T) {
	m := startedMachine(1200)
	watchers := append(DefaultWatchers(), alwaysSubmit{})
	g := NewGuard(0, watchers...)

	if eff := g.Handle(Signal{Kind: SignalContextMenu}, m); eff.Kind != EffectForceSubmit {
		t.Fatalf("override ignored: %s", eff.Kind)
	}
}

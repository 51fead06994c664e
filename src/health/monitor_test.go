package health

import (
	"context"
	"testing"
	"time"

	"trigger-engine/src/hook"
)

type sourceHook struct{ src *hook.ManualSource }

func (h sourceHook) Running() bool { return h.src.Running() }

func (h sourceHook) StartHook() error {
	_, err := h.src.Start()
	return err
}

func (h sourceHook) StopHook() error { return h.src.Stop() }

func notIdle() (time.Duration, bool) { return 0, false }

func newTestMonitor(src *hook.ManualSource, idle IdleProbe) *Monitor {
	return New(sourceHook{src}, Options{
		Interval:      10 * time.Millisecond,
		IdleThreshold: 50 * time.Millisecond,
		Settle:        time.Millisecond,
		Idle:          idle,
	})
}

func TestCheckRestartsSilentHook(t *testing.T) {
	src := hook.NewManualSource()
	if _, err := src.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	m := newTestMonitor(src, notIdle)

	if m.Check(context.Background(), time.Now()) {
		t.Fatalf("fresh monitor should not restart")
	}
	if !m.Check(context.Background(), time.Now().Add(time.Second)) {
		t.Fatalf("expected a restart after the idle threshold")
	}
	if got := src.Starts(); got != 2 {
		t.Errorf("source started %d times, expected 2", got)
	}
	if !src.Running() {
		t.Errorf("hook should be running after restart")
	}
	if got := m.Restarts(); got != 1 {
		t.Errorf("Restarts() = %d, expected 1", got)
	}
	if !src.KeyDown(0x10) {
		t.Errorf("restarted hook does not accept events")
	}
}

func TestCheckSkipsStoppedHook(t *testing.T) {
	src := hook.NewManualSource()
	m := newTestMonitor(src, notIdle)
	if m.Check(context.Background(), time.Now().Add(time.Hour)) {
		t.Errorf("a stopped hook must not be restarted")
	}
	if src.Starts() != 0 {
		t.Errorf("source was started")
	}
}

func TestCheckRespectsUserIdle(t *testing.T) {
	src := hook.NewManualSource()
	_, _ = src.Start()
	m := newTestMonitor(src, func() (time.Duration, bool) { return time.Hour, true })
	if m.Check(context.Background(), time.Now().Add(time.Hour)) {
		t.Errorf("restart attempted while the user is idle")
	}
}

func TestRestartRetriesOnce(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		expectErr bool
		state     string
	}{
		{"first attempt fails", 1, false, "running"},
		{"both attempts fail", 2, true, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := hook.NewManualSource()
			_, _ = src.Start()
			m := newTestMonitor(src, notIdle)
			src.FailNextStarts(tt.failures)

			err := m.Restart(context.Background())
			if (err != nil) != tt.expectErr {
				t.Fatalf("Restart() error = %v, expected error: %v", err, tt.expectErr)
			}
			if got := m.Status().State; got != tt.state {
				t.Errorf("state = %q, expected %q", got, tt.state)
			}
			if src.Running() == tt.expectErr {
				t.Errorf("Running() = %v after restart", src.Running())
			}
		})
	}
}

func TestTouchPostponesRestart(t *testing.T) {
	src := hook.NewManualSource()
	_, _ = src.Start()
	m := newTestMonitor(src, notIdle)

	time.Sleep(60 * time.Millisecond)
	m.Touch()
	if m.Check(context.Background(), time.Now()) {
		t.Errorf("restart attempted right after an event")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	src := hook.NewManualSource()
	_, _ = src.Start()
	m := newTestMonitor(src, notIdle)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
	if m.Restarts() == 0 {
		t.Errorf("expected at least one restart of the silent hook")
	}
}

func TestCheckRetriesAfterFailedRestart(t *testing.T) {
	src := hook.NewManualSource()
	_, _ = src.Start()
	m := newTestMonitor(src, notIdle)
	src.FailNextStarts(2)

	if err := m.Restart(context.Background()); err == nil {
		t.Fatalf("Restart() succeeded, expected both attempts to fail")
	}
	if src.Running() {
		t.Fatalf("hook running after a failed restart")
	}

	if !m.Check(context.Background(), time.Now()) {
		t.Fatalf("Check() did not retry the failed restart")
	}
	if !src.Running() {
		t.Errorf("hook not running after the retry")
	}
	if got := m.Status().State; got != "running" {
		t.Errorf("state = %q, expected %q", got, "running")
	}
	if got := m.Restarts(); got != 2 {
		t.Errorf("Restarts() = %d, expected 2", got)
	}
}

func TestStatusDoesNotWaitForRestart(t *testing.T) {
	src := hook.NewManualSource()
	_, _ = src.Start()
	m := New(sourceHook{src}, Options{
		Interval:      time.Hour,
		IdleThreshold: time.Hour,
		Settle:        300 * time.Millisecond,
		Idle:          notIdle,
	})

	done := make(chan error, 1)
	go func() { done <- m.Restart(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for src.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	start := time.Now()
	st := m.Status()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Status() took %v during a restart, expected an immediate answer", elapsed)
	}
	if st.State != "restarting" {
		t.Errorf("state = %q during the settle delay, expected %q", st.State, "restarting")
	}

	if err := <-done; err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if got := m.Status().State; got != "running" {
		t.Errorf("state = %q after restart, expected %q", got, "running")
	}
}

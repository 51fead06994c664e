package singleinstance

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"trigger-engine/src/engine"
)

type fakeResident struct {
	restarts   int
	restartErr error
}

func (f *fakeResident) Status() engine.Status {
	return engine.Status{Running: true, PanelTrigger: "LongPress:Middle", Shortcuts: []string{"s1"}}
}

func (f *fakeResident) RestartHook(context.Context) error {
	f.restarts++
	return f.restartErr
}

// freeRange picks a free loopback port for the test.
func freeRange(t *testing.T) PortRange {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	lis.Close()
	return PortRange{Start: port, End: port}
}

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ports := freeRange(t)
	res := &fakeResident{}
	srv := NewServer(res, ports)
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient(ports)
	if port, ok := client.DetectResidentPort(ctx); !ok || port != ports.Start {
		t.Fatalf("DetectResidentPort() = %d, %v", port, ok)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Running || st.PanelTrigger != "LongPress:Middle" || len(st.Shortcuts) != 1 {
		t.Errorf("status = %+v", st)
	}

	if err := client.Restart(ctx); err != nil {
		t.Errorf("restart: %v", err)
	}
	res.restartErr = errors.New("hook refused")
	if err := client.Restart(ctx); err == nil || err.Error() != "hook refused" {
		t.Errorf("restart error = %v, expected %q", err, "hook refused")
	}
	if res.restarts != 2 {
		t.Errorf("resident restarted %d times, expected 2", res.restarts)
	}
}

func TestSecondResidentRefused(t *testing.T) {
	ctx := context.Background()
	ports := freeRange(t)
	first := NewServer(&fakeResident{}, ports)
	if err := first.Start(ctx); err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	defer first.Close()

	second := NewServer(&fakeResident{}, ports)
	if err := second.Start(ctx); err == nil {
		second.Close()
		t.Fatalf("second resident started on a taken port")
	}
}

func TestClientWithoutResident(t *testing.T) {
	ports := freeRange(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewClient(ports).Status(ctx); !errors.Is(err, ErrNoResident) {
		t.Errorf("got %v, expected ErrNoResident", err)
	}
}

func TestPortRangeFromEnv(t *testing.T) {
	tests := []struct {
		start, end string
		expected   PortRange
	}{
		{"", "", PortRange{defaultPortStart, defaultPortEnd}},
		{"50000", "50010", PortRange{50000, 50010}},
		{"50010", "50000", PortRange{50000, 50010}},
		{"80", "x", PortRange{1024, defaultPortEnd}},
	}
	for _, tt := range tests {
		t.Setenv("SINGLEINSTANCE_PORT_START", tt.start)
		t.Setenv("SINGLEINSTANCE_PORT_END", tt.end)
		if got := PortRangeFromEnv(); got != tt.expected {
			t.Errorf("PortRangeFromEnv(%q, %q) = %+v, expected %+v", tt.start, tt.end, got, tt.expected)
		}
	}
}

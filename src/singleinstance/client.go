package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"trigger-engine/src/engine"
)

// Client talks to the resident engine.
type Client struct {
	Ports PortRange
}

func NewClient(ports PortRange) *Client {
	return &Client{Ports: ports.normalize()}
}

// DetectResidentPort scans the port range and returns (port, true) if a resident responds to PING.
func (c *Client) DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := deadline(ctx, 300*time.Millisecond)
	for port := c.Ports.Start; port <= c.Ports.End; port++ {
		if ping(addrFor(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

// Status fetches the resident engine's status.
func (c *Client) Status(ctx context.Context) (engine.Status, error) {
	var st engine.Status
	body, err := c.request(ctx, statusRequest)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return st, fmt.Errorf("decoding status: %w", err)
	}
	return st, nil
}

// Restart asks the resident to restart its input hook.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.request(ctx, restartRequest)
	return err
}

func (c *Client) request(ctx context.Context, req string) ([]byte, error) {
	port, ok := c.DetectResidentPort(ctx)
	if !ok {
		return nil, ErrNoResident
	}
	timeout := deadline(ctx, 5*time.Second)
	conn, err := net.DialTimeout("tcp", addrFor(port), timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to resident: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := io.WriteString(conn, req); err != nil {
		return nil, fmt.Errorf("sending %s: %w", strings.TrimSpace(req), err)
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	body, _ := io.ReadAll(br)
	switch status {
	case okResponse:
		return body, nil
	case errorResponse:
		return nil, errors.New(string(body))
	default:
		return nil, fmt.Errorf("unexpected response %q", status)
	}
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}

func addrFor(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func deadline(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return def
}

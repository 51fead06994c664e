package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server answers control requests for the resident engine.
type Server struct {
	resident Resident
	ports    PortRange

	mu   sync.Mutex
	lis  net.Listener
	port int
	wg   sync.WaitGroup
}

func NewServer(resident Resident, ports PortRange) *Server {
	return &Server{resident: resident, ports: ports.normalize()}
}

// Start binds ONLY the start port of the range. If occupied, fail: another
// resident owns the session.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", residentHost, s.ports.Start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return fmt.Errorf("binding %s (is another instance running?): %w", addr, err)
	}
	s.lis = lis
	s.port = lis.Addr().(*net.TCPAddr).Port
	log.Printf("singleinstance: listening on %s", lis.Addr())
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, c)
		}()
	}
}

func (s *Server) serve(ctx context.Context, c net.Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(10 * time.Second))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	bw := bufio.NewWriter(c)
	defer bw.Flush()

	switch line {
	case pingRequest:
		log.Debugf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
	case statusRequest:
		data, err := json.Marshal(s.resident.Status())
		if err != nil {
			_, _ = bw.WriteString(errorResponse + err.Error())
			return
		}
		_, _ = bw.WriteString(okResponse)
		_, _ = bw.Write(data)
	case restartRequest:
		log.Printf("singleinstance: hook restart requested by %s", remote)
		if err := s.resident.RestartHook(ctx); err != nil {
			_, _ = bw.WriteString(errorResponse + err.Error())
			return
		}
		_, _ = bw.WriteString(okResponse)
	default:
		log.Warnf("singleinstance: unknown request %q from %s", line, remote)
		_, _ = bw.WriteString(errorResponse + "unknown request")
	}
}

// Close releases ownership and waits for in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	lis := s.lis
	s.lis = nil
	s.port = 0
	s.mu.Unlock()
	if lis == nil {
		return nil
	}
	err := lis.Close()
	s.wg.Wait()
	return err
}

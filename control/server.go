// Package control implements the line-based TCP control interface for the
// watch face.
//
// The control port stands in for the platform power-state and broadcast
// sources: an operator (or the facectl tool) connects and issues WAKE,
// SLEEP, TICK, and AMBIENT commands that drive the display controller, plus
// STATUS for inspection.
//
// Architecture:
//   - One goroutine per connected client
//   - Commands apply synchronously to the controller, so every reply carries
//     the state observed immediately after the command
//   - Connection cap with immediate refusal beyond it
package control

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"watchface/config"
	"watchface/face"
)

// Server accepts control connections and applies display commands.
type Server struct {
	port           int
	welcome        string
	maxConnections int
	clock          face.Clock
	ctrl           *face.Controller
	startedAt      time.Time

	listener net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
	active   atomic.Int64
}

// NewServer builds a control server for the given controller.
func NewServer(cfg config.ControlConfig, clock face.Clock, ctrl *face.Controller) *Server {
	if clock == nil {
		clock = face.SystemClock()
	}
	return &Server{
		port:           cfg.Port,
		welcome:        cfg.WelcomeMessage,
		maxConnections: cfg.MaxConnections,
		clock:          clock,
		ctrl:           ctrl,
		startedAt:      time.Now().UTC(),
		shutdown:       make(chan struct{}),
	}
}

// Start begins listening and accepting clients.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("control: listen on port %d: %w", s.port, err)
	}
	s.listener = listener
	log.Printf("Control: listening on %s", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address (nil before Start).
func (s *Server) Addr() net.Addr {
	if s == nil || s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for client goroutines to finish.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	close(s.shutdown)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Control: accept error: %v", err)
			continue
		}
		if s.maxConnections > 0 && s.active.Load() >= int64(s.maxConnections) {
			fmt.Fprintf(conn, "busy: connection limit reached\n")
			_ = conn.Close()
			continue
		}
		s.active.Add(1)
		s.wg.Add(1)
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer s.wg.Done()
	defer s.active.Add(-1)
	defer conn.Close()

	if s.welcome != "" {
		fmt.Fprintf(conn, "%s\n", s.welcome)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), 1024)
	for scanner.Scan() {
		select {
		case <-s.shutdown:
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, quit := s.dispatch(line)
		for _, l := range reply {
			fmt.Fprintf(conn, "%s\n", l)
		}
		if quit {
			return
		}
	}
}

// Package monitor serves read-only JSON views of a running simulation
// session over HTTP.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jins0704/OS-Simulator-VirtualMemory/stats"
	"github.com/jins0704/OS-Simulator-VirtualMemory/vm"
)

// Server exposes the state of one machine and its run statistics:
//
//	GET /state   the current vm.Snapshot
//	GET /stats   the stats.Summary so far
//	GET /healthz liveness
//
// Snapshots are taken per request under the machine mutex, so the
// monitor can observe a session while the runner mutates it.
type Server struct {
	machine  *vm.Machine
	counters *stats.Counters
	log      *slog.Logger

	http     *http.Server
	listener net.Listener
}

// New returns an unstarted server observing machine and counters.
func New(machine *vm.Machine, counters *stats.Counters, logger *slog.Logger) *Server {
	srv := &Server{
		machine:  machine,
		counters: counters,
		log:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", srv.handleState)
	mux.HandleFunc("GET /stats", srv.handleStats)
	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	srv.http = &http.Server{Handler: mux}

	return srv
}

// Start binds addr and serves in the background until Shutdown.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.log.Info("monitor listening", "addr", listener.Addr().String())

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("monitor stopped", "err", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the empty string before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting briefly for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.machine.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.counters.Summarize())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/clicktrail/internal/report"
)

// Server exposes a Controller over HTTP.
type Server struct {
	ctl     *Controller
	address string
	log     *log.Logger
	server  *http.Server
}

func NewServer(ctl *Controller, address string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		ctl:     ctl,
		address: address,
		log:     logger,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := s.ctl.Start(request.Context()); err != nil {
		s.log.Error("start failed", "err", err)
		http.Error(w, "Failed to start capture", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	s.ctl.Stop()
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleExport(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	path, err := s.ctl.Export(request.Context(), request.URL.Query().Get("format"))
	switch {
	case errors.Is(err, ErrNotExportable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, report.ErrNothingToExport):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, report.ErrUnknownFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		s.log.Error("export failed", "err", err)
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/export", s.handleExport)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        s.address,
		Handler:     s.setupRoutes(),
		ReadTimeout: 5 * time.Second,
		// Export drains pending captures and renders the report.
		WriteTimeout: DefaultDrainTimeout + 30*time.Second,
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("control server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down control server")

	shutdownContext, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownContext); err != nil {
		return err
	}
	s.log.Info("control server exited")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

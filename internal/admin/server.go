package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"lnops-sim/internal/sim"
)

//go:embed templates/index.html
var content embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server exposes a running session over HTTP and websocket.
type Server struct {
	ctrl sim.Controller
	hub  *Hub
	tpl  *template.Template
	log  *slog.Logger
	mux  *http.ServeMux
}

// NewServer wires the admin routes for ctrl.
func NewServer(ctrl sim.Controller, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{ctrl: ctrl, hub: NewHub(log), tpl: tpl, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/start", s.command("start"))
	s.mux.HandleFunc("/select", s.command("select"))
	s.mux.HandleFunc("/action", s.command("action"))
	s.mux.HandleFunc("/retry", s.command("retry"))
	s.mux.HandleFunc("/exit", s.command("exit"))
	s.mux.HandleFunc("/ws", s.handleWS)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)
	unsubscribe := s.ctrl.Subscribe(s.hub.BroadcastSnapshot)
	defer unsubscribe()

	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin listen: %w", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Snapshot sim.Snapshot
		Actions  []sim.Action
	}{
		Snapshot: s.ctrl.Snapshot(),
		Actions:  sim.Actions,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index failed", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// command adapts a query-string request into a Command.
func (s *Server) command(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		cmd := Command{Type: kind, Action: q.Get("kind"), ID: q.Get("id")}
		if err := apply(s.ctrl, cmd); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrRejected) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		s.writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	client := NewClient(s.hub, s.ctrl, conn)
	if payload, err := json.Marshal(s.ctrl.Snapshot()); err == nil {
		client.send <- payload
	}
	if !s.hub.Register(client) {
		s.log.Warn("websocket hub stopped, closing connection")
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// ErrRejected is returned when the engine ignored a well-formed command.
var ErrRejected = errors.New("command not applicable in the current phase")

func apply(ctrl sim.Controller, cmd Command) error {
	ok := true
	switch cmd.Type {
	case "start":
		ok = ctrl.Start()
	case "select":
		ok = ctrl.SelectEvent(cmd.ID)
	case "action":
		action, err := sim.ParseAction(cmd.Action)
		if err != nil {
			return err
		}
		ok = ctrl.ApplyAction(action, cmd.ID).Applied
	case "retry":
		ok = ctrl.Retry()
	case "exit":
		ctrl.Exit()
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
	if !ok {
		return ErrRejected
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", "err", err)
	}
}

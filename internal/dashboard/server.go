package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultDebounce = 500 * time.Millisecond
	writeTimeout    = 10 * time.Second
)

// CardInstance is a named card of the configured type.
type CardInstance struct {
	Type   string     `yaml:"type" json:"type"`
	Config CardConfig `yaml:"config" json:"config"`
}

// LiveStore is a StateStore that signals after every batch of writes.
type LiveStore interface {
	StateStore
	Subscribe() (<-chan struct{}, func())
}

// Server serves rendered cards over HTTP and pushes them over websockets.
type Server struct {
	registry *Registry
	store    LiveStore
	cards    map[string]CardInstance
	debounce time.Duration
	upgrader websocket.Upgrader

	server   *http.Server
	done     chan struct{}
	doneOnce sync.Once
}

func NewServer(registry *Registry, store LiveStore, cards map[string]CardInstance) (*Server, error) {
	for name, card := range cards {
		if _, ok := registry.Lookup(card.Type); !ok {
			return nil, fmt.Errorf("dashboard: card %v has unknown type %v", name, card.Type)
		}
	}
	return &Server{
		registry: registry,
		store:    store,
		cards:    cards,
		debounce: defaultDebounce,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		done:     make(chan struct{}),
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/cards", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, slices.Sorted(maps.Keys(s.cards)))
	})
	mux.HandleFunc("GET /api/cards/{name}", func(w http.ResponseWriter, r *http.Request) {
		view, ok := s.render(r.PathValue("name"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return
		}
		writeJSON(w, http.StatusOK, view)
	})
	mux.HandleFunc("GET /ws/cards/{name}", s.serveWebsocket)
	return mux
}

// Start listens in the background until Shutdown.
func (s *Server) Start(listen string) {
	s.server = &http.Server{Addr: listen, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Dashboard: serve failed", "listen", listen, "err", err)
		}
	}()
	slog.Info("Dashboard: initialized", "listen", listen, "cards", len(s.cards))
}

func (s *Server) Shutdown(ctx context.Context) {
	s.doneOnce.Do(func() { close(s.done) })
	if s.server == nil {
		return
	}
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("Dashboard: shutdown failed", "err", err)
	}
	slog.Info("Dashboard: stopped")
}

func (s *Server) render(name string) (any, bool) {
	instance, ok := s.cards[name]
	if !ok {
		return nil, false
	}
	card, ok := s.registry.Lookup(instance.Type)
	if !ok {
		return nil, false
	}
	return card.Render(&instance.Config, s.store), true
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.cards[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Dashboard: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	changes, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	// 读循环只用于检测连接关闭
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.push(conn, name); err != nil {
		slog.Debug("Dashboard: websocket write failed", "card", name, "err", err)
		return
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case <-changes:
			if fire == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			if err := s.push(conn, name); err != nil {
				slog.Debug("Dashboard: websocket write failed", "card", name, "err", err)
				return
			}
		}
	}
}

func (s *Server) push(conn *websocket.Conn, name string) error {
	view, ok := s.render(name)
	if !ok {
		return fmt.Errorf("card %v not found", name)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(view)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Dashboard: write response failed", "err", err)
	}
}

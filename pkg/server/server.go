package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fungible-token-demo/internal/graph"
	"fungible-token-demo/internal/session"
	"fungible-token-demo/pkg/graphql"
)

const writeTimeout = 10 * time.Second

// Server exposes the GraphQL API, session event streams and metrics.
type Server struct {
	sessions *session.Registry
	log      *zap.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

func New(addr string, resolver *graph.Resolver, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	s := &Server{
		sessions: resolver.Sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Handle("/graphql", graphql.NewHandler(resolver)).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/events", s.handleEvents).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.http = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() error {
	s.log.Info("server starting", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleEvents streams the session state over a websocket: once on connect
// and after every change, until either side closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Holds at most the latest state; an unsent older state is replaced.
	// The store calls subscribers one at a time, so the send never blocks.
	updates := make(chan session.State, 1)
	unsubscribe := sess.Store().Subscribe(func(st session.State) {
		select {
		case <-updates:
		default:
		}
		updates <- st
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case st := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(st); err != nil {
				s.log.Debug("session stream closed", zap.String("session", sess.ID), zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-sess.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeTimeout))
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "fungible-token-demo",
	})
}

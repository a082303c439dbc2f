package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/config"
	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/procstat"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxBodyBytes = 64 << 10

// ErrBadPayload is reported when an update body cannot be used.
var ErrBadPayload = errors.New("bad payload")

type Server struct {
	config      config.ServerConfig
	svc         *lot.Service
	broadcaster *Broadcaster
	origins     *originPolicy
	sampler     *procstat.Sampler
	metrics     http.Handler
	ingest      func() interface{}
	started     time.Time
}

func NewServer(cfg config.ServerConfig, svc *lot.Service, broadcaster *Broadcaster) *Server {
	return &Server{
		config:      cfg,
		svc:         svc,
		broadcaster: broadcaster,
		origins:     newOriginPolicy(cfg.AllowedOrigins, cfg.AllowedSuffixes, cfg.AllowedSubstrings),
		started:     time.Now(),
	}
}

// SetProcessSampler adds process stats to /health.
func (s *Server) SetProcessSampler(p *procstat.Sampler) {
	s.sampler = p
}

// SetMetricsHandler mounts h at /metrics. Must be called before SetupRoutes.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.metrics = h
}

// SetIngestStatus adds the queue consumer status to /health.
func (s *Server) SetIngestStatus(fn func() interface{}) {
	s.ingest = fn
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/ws", s.handleWS)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
}

// Handler returns the full middleware chain around a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return requestID(securityHeaders(s.origins.cors(mux)))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ev, err := decodeEvent(w, r)
	if err != nil {
		log.Printf("ws: update %s: %v", r.Header.Get("X-Request-ID"), err)
		writeJSON(w, http.StatusBadRequest, UpdateResponse{OK: false, Msg: "bad payload"})
		return
	}

	snap, out, err := s.svc.Apply(ev)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, UpdateResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{OK: true, State: &snap, Warning: out.Warning})
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (lot.Event, error) {
	var ev lot.Event
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	ev.Kind = lot.Kind(strings.TrimSpace(string(ev.Kind)))
	if ev.Kind == "" {
		return ev, fmt.Errorf("%w: missing type", ErrBadPayload)
	}
	return ev, nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap := s.svc.Snapshot()
	resp := HealthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Vehicles:    len(snap.Vehicles),
		Available:   snap.AvailableSlots,
		Subscribers: s.broadcaster.ClientCount(),
		Uptime:      time.Since(s.started).Seconds(),
	}
	if s.sampler != nil {
		resp.Process = s.sampler.Sample()
	}
	if s.ingest != nil {
		resp.Ingest = s.ingest()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	s.svc.Reset()
	writeJSON(w, http.StatusOK, UpdateResponse{OK: true, Msg: "System reset"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.origins.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		log.Printf("ws: rejecting %s: %v", r.RemoteAddr, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	log.Printf("ws: client %s connected from %s", c.id, r.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("ws: client %s disconnected", c.id)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ws: write response: %v", err)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, UpdateResponse{OK: false, Msg: "method not allowed"})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// requestID tags each request with X-Request-ID, keeping one supplied by
// the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves handler until ctx is cancelled, then shuts down
// gracefully within timeout.
func ListenAndServe(ctx context.Context, host string, port int, handler http.Handler, timeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

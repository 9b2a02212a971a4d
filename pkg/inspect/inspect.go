// Package inspect serves a live, read-only view of a state tree over HTTP:
// a JSON snapshot endpoint and a websocket stream of change events. It is
// debug tooling; everything goes through the public node surface and the
// change feed, never into node internals.
package inspect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/statree-dev/statree/pkg/statree"
)

// defaultTracerName is the tracer used unless WithTracerName overrides it.
const defaultTracerName = "statree/inspect"

// Config configures the inspector.
type Config struct {
	// Addr is the listen address for ListenAndServe (default: ":6580").
	Addr string

	// Name labels the tree in snapshot responses.
	Name string

	// TracerName is the OpenTelemetry tracer name.
	TracerName string

	// EventBuffer is the per-connection event queue length. Slow consumers
	// drop events rather than stalling the writer (default: 64).
	EventBuffer int
}

// Option configures the inspector.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithTreeName labels the tree in snapshot responses.
func WithTreeName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithEventBuffer sets the per-connection event queue length.
func WithEventBuffer(n int) Option {
	return func(c *Config) {
		c.EventBuffer = n
	}
}

func defaultInspectConfig() Config {
	return Config{
		Addr:        ":6580",
		Name:        "state",
		TracerName:  defaultTracerName,
		EventBuffer: 64,
	}
}

// Server exposes one state tree.
type Server struct {
	root     statree.Node
	config   Config
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// New builds an inspector for root.
func New(root statree.Node, opts ...Option) *Server {
	config := defaultInspectConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Server{
		root:   root,
		config: config,
		tracer: otel.Tracer(config.TracerName),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the inspector's routes:
//
//	GET /state   current snapshot as JSON
//	GET /events  websocket stream of change events
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/state", s.handleState)
	r.Get("/events", s.handleEvents)
	return r
}

// ListenAndServe serves the handler on the configured address.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

// snapshotResponse is the /state payload.
type snapshotResponse struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// eventMessage is one change event on the /events stream.
type eventMessage struct {
	Path string    `json:"path"`
	Old  any       `json:"old"`
	New  any       `json:"new"`
	At   time.Time `json:"at"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "inspect.state",
		trace.WithAttributes(attribute.String("tree.name", s.config.Name)))
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshotResponse{
		Name:  s.config.Name,
		Value: s.root.Get(),
	}); err != nil {
		span.RecordError(err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "inspect.events",
		trace.WithAttributes(attribute.String("tree.name", s.config.Name)))
	defer span.End()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		span.RecordError(err)
		return
	}
	defer conn.Close()

	events := make(chan statree.Event, s.config.EventBuffer)
	off := statree.OnChange(s.root, func(ev statree.Event) {
		select {
		case events <- ev:
		default:
			// Slow consumer: drop rather than stall the writer's call stack.
		}
	})
	defer off()

	// Reader pump: discard incoming frames, notice the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			msg := eventMessage{Path: ev.Path, Old: ev.Old, New: ev.New, At: time.Now()}
			if err := conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					span.RecordError(err)
				}
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

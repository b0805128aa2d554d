// Package server exposes runs over HTTP: health, trajectory pages, metrics
// and a websocket that starts runs and streams their snapshots.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"pwrsim/model"
	"pwrsim/plant"
	"pwrsim/recorder"
	"pwrsim/scenario"
	"pwrsim/telemetry"
)

// Factory builds a fresh plant and its boundary source for one run.
type Factory func(env model.Env) (*plant.Plant, scenario.Source, error)

type Option func(*Server)

// WithRecorder persists every run started through the server.
func WithRecorder(store *recorder.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMetrics serves reg on /metrics and feeds it from every run.
func WithMetrics(reg *prometheus.Registry, exporter *telemetry.Exporter) Option {
	return func(s *Server) {
		s.registry = reg
		s.exporter = exporter
	}
}

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	factory  Factory
	buffer   int

	store    *recorder.Store
	registry *prometheus.Registry
	exporter *telemetry.Exporter

	mu     sync.RWMutex
	latest *plant.Plant
}

// NewServer builds the routes; buffer is the per-subscriber snapshot buffer.
func NewServer(addr string, factory Factory, buffer int, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		factory: factory,
		buffer:  buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the gin engine with every route mounted.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.GET("/trajectory", s.trajectory)
	r.GET("/ws", func(c *gin.Context) {
		s.serveWs(c.Writer, c.Request)
	})
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
	if s.store != nil {
		r.GET("/runs", s.runs)
		r.GET("/runs/:id", s.run)
	}
	return r
}

func (s *Server) track(p *plant.Plant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = p
}

func (s *Server) current() *plant.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) health(c *gin.Context) {
	h := model.Health{Status: "idle"}
	if p := s.current(); p != nil {
		h.Status = "ok"
		h.RunID = p.RunID().String()
		if last, ok := p.Trajectory().Last(); ok {
			h.Mode = last.Mode.String()
			h.Step = last.Step
			if last.Degraded() {
				h.Status = string(plant.StatusDegraded)
			}
		}
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) trajectory(c *gin.Context) {
	p := s.current()
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
		return
	}
	since, err := strconv.Atoi(c.DefaultQuery("since", "0"))
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative step"})
		return
	}
	c.JSON(http.StatusOK, model.TrajectoryPage{
		RunID:     p.RunID().String(),
		Since:     since,
		Snapshots: p.Trajectory().Since(since),
	})
}

func (s *Server) runs(c *gin.Context) {
	runs, err := s.store.Runs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) run(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snaps, err := s.store.Load(id)
	switch {
	case errors.Is(err, recorder.ErrUnknownRun):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.TrajectoryPage{RunID: id.String(), Snapshots: snaps})
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithFields(log.Fields{"remote": r.RemoteAddr}).Warn(err)
		return
	}
	defer conn.Close()

	hub := NewHub(s, conn)
	go hub.handleRequest()
	go hub.handleResponse()
	defer hub.close()

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(log.Fields{"remote": r.RemoteAddr}).Warn(err)
			}
			return
		}
		hub.msg <- msg
	}
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": s.addr}).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pwrsim/model"
	"pwrsim/plant"
	"pwrsim/scenario"
)

var errRunning = errors.New("a run is already in progress")

// Hub serves one websocket connection: requests are handled in order and
// every reply, including streamed snapshots, goes through a single writer.
type Hub struct {
	s    *Server
	conn *websocket.Conn
	env  model.Env
	// request
	msg chan model.Msg
	// response
	reply chan model.Msg
	done  chan struct{}

	mu     sync.Mutex
	plant  *plant.Plant
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

func NewHub(s *Server, conn *websocket.Conn) *Hub {
	return &Hub{
		s:     s,
		conn:  conn,
		msg:   make(chan model.Msg, 10),
		reply: make(chan model.Msg, 64),
		done:  make(chan struct{}),
	}
}

// close stops accepting requests, cancels a running simulation and waits
// until every reply has been written.
func (h *Hub) close() {
	close(h.msg)
	<-h.done
}

func (h *Hub) handleResponse() {
	defer close(h.done)
	for reply := range h.reply {
		if err := h.conn.WriteJSON(&reply); err != nil {
			log.WithFields(log.Fields{"type": reply.Type}).Debug(err)
		}
	}
}

func (h *Hub) handleRequest() {
	defer func() {
		h.stop()
		h.runs.Wait()
		close(h.reply)
	}()
	for msg := range h.msg {
		switch msg.Type {
		case model.TypeEnv:
			var env model.Env
			if err := json.Unmarshal([]byte(msg.Content), &env); err != nil {
				h.fail(fmt.Errorf("env: %w", err))
				continue
			}
			h.env = env
			h.send(model.TypeEnvSet, env)
		case model.TypeStart:
			h.start()
		case model.TypeStop:
			if !h.stop() {
				h.send(model.TypeStopped, model.RunSummary{Error: "no run in progress"})
			}
		case model.TypeCommand:
			var cmd scenario.Command
			if err := json.Unmarshal([]byte(msg.Content), &cmd); err != nil {
				h.fail(fmt.Errorf("command: %w", err))
				continue
			}
			h.command(cmd)
		default:
			h.fail(fmt.Errorf("no such type %q", msg.Type))
		}
	}
}

func (h *Hub) send(typ string, content any) {
	data, err := json.Marshal(content)
	if err != nil {
		log.WithFields(log.Fields{"type": typ}).Error(err)
		return
	}
	h.reply <- model.Msg{Type: typ, Content: string(data)}
}

func (h *Hub) fail(err error) {
	log.WithFields(log.Fields{"remote": h.conn.RemoteAddr().String()}).Warn(err)
	h.reply <- model.Msg{Type: model.TypeError, Content: err.Error()}
}

func (h *Hub) start() {
	h.mu.Lock()
	running := h.cancel != nil
	h.mu.Unlock()
	if running {
		h.fail(errRunning)
		return
	}

	p, src, err := h.s.factory(h.env)
	if err != nil {
		h.fail(err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.plant = p
	h.cancel = cancel
	h.mu.Unlock()

	cfg := p.Config()
	h.send(model.TypeStarted, model.RunInfo{
		RunID:    p.RunID().String(),
		Plant:    cfg.PlantName,
		Scenario: h.env.Scenario,
		SGs:      cfg.NumSteamGenerators(),
		TimeStep: cfg.Simulation.TimeStep,
	})

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		traj, err := h.s.launch(ctx, p, src, func(s plant.Snapshot) {
			h.send(model.TypeSnapshot, s)
		})
		h.mu.Lock()
		h.cancel = nil
		h.mu.Unlock()
		cancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		h.send(model.TypeStopped, model.Summarize(traj, err))
	}()
}

// stop cancels the current run and reports whether there was one.
func (h *Hub) stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel == nil {
		return false
	}
	h.cancel()
	return true
}

func (h *Hub) command(cmd scenario.Command) {
	h.mu.Lock()
	p := h.plant
	h.mu.Unlock()
	if p == nil {
		h.fail(errors.New("command before start"))
		return
	}
	if err := p.Command(cmd); err != nil {
		h.fail(err)
	}
}

// launch runs p to completion, feeding telemetry and forward live and
// saving the trajectory afterwards.
func (s *Server) launch(ctx context.Context, p *plant.Plant, src scenario.Source, forward func(plant.Snapshot)) (*plant.Trajectory, error) {
	s.track(p)
	var wg sync.WaitGroup
	consume := func(fn func(<-chan plant.Snapshot)) {
		ch, _ := p.Subscribe(s.buffer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ch)
		}()
	}
	if s.exporter != nil {
		consume(s.exporter.Consume)
	}
	if forward != nil {
		consume(func(ch <-chan plant.Snapshot) {
			for snap := range ch {
				forward(snap)
			}
		})
	}

	traj, err := p.Run(ctx, src)
	p.Close()
	wg.Wait()

	if s.store != nil {
		if serr := s.store.Save(traj, p.Config().PlantName); serr != nil {
			log.WithFields(log.Fields{"run_id": traj.RunID}).Error(serr)
		}
	}
	return traj, err
}

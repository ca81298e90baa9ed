package service

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/racegate/racegate/src/node"
	"github.com/racegate/racegate/src/platform"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// StatsProvider is implemented by components that expose counters.
type StatsProvider interface {
	GetStats() map[string]string
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() map[string]string

// GetStats implements StatsProvider.
func (f StatsFunc) GetStats() map[string]string {
	return f()
}

// Inputs are the virtual sensors of a host platform.
type Inputs interface {
	SetGateState(platform.GateState)
	SetButtonState(platform.ButtonState)
}

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	inputs      Inputs
	logger      *logrus.Entry

	stats      map[string]StatsProvider
	state      node.SystemState
	stateValid bool

	clients  map[*client]struct{}
	upgrader websocket.Upgrader

	handler http.Handler
	server  *http.Server
}

// NewService creates the service. inputs may be nil, in which case the
// inputs endpoints are not registered.
func NewService(bindAddress string, inputs Inputs, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		inputs:      inputs,
		logger:      logger,
		stats:       make(map[string]StatsProvider),
		clients:     make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// The dashboard is served to any origin on the local network.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering racegate API handlers")

	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.GetState)
	mux.HandleFunc("/stats", s.GetStats)
	mux.HandleFunc("/ws", s.Stream)
	if s.inputs != nil {
		mux.HandleFunc("/inputs/gate", s.SetGate)
		mux.HandleFunc("/inputs/button", s.SetButton)
	}

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)
}

// Handler returns the root HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// AddStats registers a stats provider under name in the /stats response.
func (s *Service) AddStats(name string, p StatsProvider) {
	s.Lock()
	defer s.Unlock()
	s.stats[name] = p
}

// Serve listens on the bind address until ctx is done. This is a blocking
// call.
func (s *Service) Serve(ctx context.Context) error {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving racegate API")

	s.server = &http.Server{
		Addr:    s.bindAddress,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.closeClients()
		return s.server.Shutdown(shutdownCtx)
	}
}

// SetSystemState implements node.Dashboard. It records the snapshot and
// forwards it to the WebSocket clients.
func (s *Service) SetSystemState(state node.SystemState) {
	s.Lock()
	defer s.Unlock()

	s.state = state
	s.stateValid = true

	for c := range s.clients {
		c.offer(state)
	}
}

func (s *Service) latest() (node.SystemState, bool) {
	s.Lock()
	defer s.Unlock()
	return s.state, s.stateValid
}

// GetState ...
func (s *Service) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, ok := s.latest()
	if !ok {
		http.Error(w, "no state yet", http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, state)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.Lock()
	names := make([]string, 0, len(s.stats))
	for name := range s.stats {
		names = append(names, name)
	}
	providers := make(map[string]StatsProvider, len(s.stats))
	for name, p := range s.stats {
		providers[name] = p
	}
	s.Unlock()

	sort.Strings(names)

	res := make(map[string]map[string]string, len(names))
	for _, name := range names {
		res[name] = providers[name].GetStats()
	}

	s.writeJSON(w, res)
}

// SetGate ...
func (s *Service) SetGate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := platform.ParseGateState(r.URL.Query().Get("state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.WithField("gate", st).Debug("Gate input")
	s.inputs.SetGateState(st)

	w.WriteHeader(http.StatusNoContent)
}

// SetButton ...
func (s *Service) SetButton(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := platform.ParseButtonState(r.URL.Query().Get("state"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.WithField("button", st).Debug("Button input")
	s.inputs.SetButtonState(st)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) writeJSON(w http.ResponseWriter, v interface{}) {
	b, err := marshal(v)
	if err != nil {
		s.logger.WithError(err).Error("Encoding response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

func marshal(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

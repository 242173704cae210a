package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/metrics"
	"github.com/larskuhtz/zk-light-clients/proofs"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// ProverNamespace is the JSON-RPC namespace of ProverAPI.
const ProverNamespace = "prover"

// Server is the proof server.
type Server struct {
	config   *Config
	log      *log.Logger
	registry *prometheus.Registry
	provers  *Provers
	rpc      *gethrpc.Server

	mu       sync.Mutex
	running  bool
	http     *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a Server proving with backend. It does not generate keys or
// open the listener.
func New(config *Config, backend zkvm.Backend, logger *log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewProverMetrics(reg)

	s := &Server{
		config:   config,
		log:      logger.Module("node"),
		registry: reg,
		provers:  NewProvers(backend, proofs.WithLogger(logger), proofs.WithMetrics(m)),
		rpc:      gethrpc.NewServer(),
	}
	if err := s.rpc.RegisterName(ProverNamespace, NewProverAPI(s.provers, m, logger)); err != nil {
		return nil, fmt.Errorf("register %s api: %w", ProverNamespace, err)
	}
	return s, nil
}

// Provers returns the served pipelines.
func (s *Server) Provers() *Provers { return s.provers }

// RPC returns the JSON-RPC server, for in-process clients.
func (s *Server) RPC() *gethrpc.Server { return s.rpc }

// Handler returns the HTTP handler serving JSON-RPC at / and, when enabled,
// metrics at the configured path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.config.Metrics.Enabled {
		mux.Handle(s.config.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", s.rpc)
	return mux
}

// Start generates keys when configured to and starts serving.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	if s.config.Server.SetupOnStart {
		start := time.Now()
		s.log.Info("generating proving keys")
		if err := s.provers.Setup(ctx); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		s.log.Info("proving keys ready", "elapsed", time.Since(start))
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})
	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", "err", err)
		}
	}(s.http, s.done)

	s.running = true
	s.log.Info("proof server listening", "addr", ln.Addr().String(), "metrics", s.config.Metrics.Enabled)
	return nil
}

// Addr returns the bound listen address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the listener down, waiting up to the configured timeout for
// in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownWait.Duration)
	defer cancel()
	err := s.http.Shutdown(ctx)
	<-s.done
	s.running = false
	s.listener = nil
	s.log.Info("proof server stopped")
	return err
}

// Run starts the server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

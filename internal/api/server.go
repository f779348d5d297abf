package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthouse-core/internal/location"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultAcquireTimeout bounds store calls when Deps.AcquireTimeout is unset.
const defaultAcquireTimeout = 5 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Metrics config.MetricsConfig

	// AcquireTimeout bounds how long one request may wait for a pooled
	// connection and run its queries. Expiry answers 503.
	AcquireTimeout time.Duration

	Logger    *logging.Logger
	DB        *database.DB
	Locations location.Repository
	Devices   device.Repository

	MQTT     *mqtt.Client     // optional
	InfluxDB *influxdb.Client // optional

	Version string
}

// Server is the HTTP API server for SmartHouse Core.
//
// It manages the HTTP listener, routes, middleware, the WebSocket hub and
// the event sinks. The server is created with New() and started with Start().
type Server struct {
	cfg            config.APIConfig
	wsCfg          config.WebSocketConfig
	metricsCfg     config.MetricsConfig
	acquireTimeout time.Duration
	logger         *logging.Logger
	db             *database.DB
	locations      location.Repository
	devices        device.Repository
	mqtt           *mqtt.Client
	influx         *influxdb.Client
	version        string
	startTime      time.Time

	server  *http.Server
	hub     *Hub
	metrics *metrics
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called, but its router and hub
// are usable immediately.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Locations == nil {
		return nil, fmt.Errorf("location repository is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}

	acquire := deps.AcquireTimeout
	if acquire <= 0 {
		acquire = defaultAcquireTimeout
	}

	logger := deps.Logger.With("component", "api")
	s := &Server{
		cfg:            deps.Config,
		wsCfg:          withWSDefaults(deps.WS),
		metricsCfg:     deps.Metrics,
		acquireTimeout: acquire,
		logger:         logger,
		db:             deps.DB,
		locations:      deps.Locations,
		devices:        deps.Devices,
		mqtt:           deps.MQTT,
		influx:         deps.InfluxDB,
		version:        deps.Version,
		startTime:      time.Now(),
		hub:            NewHub(logger),
		metrics:        newMetrics(deps.DB),
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, seeds the device gauges, subscribes to MQTT
// toggle commands and launches the listener in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	if err := s.seedDeviceMetrics(srvCtx); err != nil {
		s.logger.Warn("failed to seed device metrics", "error", err)
	}

	if err := s.subscribeToggleCommands(); err != nil {
		s.logger.Warn("failed to subscribe to toggle commands", "error", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Handler returns the routed HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.unsubscribeToggleCommands()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// withWSDefaults fills unset WebSocket timings so the pumps never run with a
// zero ping interval.
func withWSDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 10
	}
	return cfg
}

// storeContext bounds a request's store calls by the acquire timeout.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.acquireTimeout)
}

// seedDeviceMetrics loads the current device states into the gauges.
func (s *Server) seedDeviceMetrics(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	devices, err := s.devices.List(ctx)
	if err != nil {
		return err
	}
	for i := range devices {
		s.metrics.setDevice(&devices[i])
	}
	return nil
}

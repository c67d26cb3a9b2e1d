package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Exchange endpoint paths
const (
	TimePath       = "/0/public/Time"
	TickerPath     = "/0/public/Ticker"
	OpenOrdersPath = "/0/private/OpenOrders"
)

// Config contains sandbox server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Mode         string // gin mode, release when empty
	Accounts     []Account
	Markets      map[string]Market // DefaultMarkets when nil
	Now          func() time.Time
}

// Server is an offline exchange speaking the same envelope protocol as the
// real one
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates a sandbox server
func NewServer(config Config, logger zerolog.Logger) (*Server, error) {
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port number: %d", config.Port)
	}

	setConfigDefaults(&config)

	ex, err := newExchange(config.Accounts, config.Markets)
	if err != nil {
		return nil, err
	}

	gin.SetMode(config.Mode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	s.setupRoutes(&Handlers{exchange: ex, now: config.Now})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

// Handler exposes the router, e.g. for httptest servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().
		Int("port", s.config.Port).
		Int("accounts", len(s.config.Accounts)).
		Int("markets", len(s.config.Markets)).
		Msg("Starting sandbox exchange")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down sandbox exchange")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes(h *Handlers) {
	s.router.GET(TimePath, h.ServerTime())
	s.router.GET(TickerPath, h.Ticker())
	s.router.POST(OpenOrdersPath, h.OpenOrders())
	s.router.NoRoute(h.UnknownMethod())
}

func setConfigDefaults(config *Config) {
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 60 * time.Second
	}
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	if config.Markets == nil {
		config.Markets = DefaultMarkets()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
}

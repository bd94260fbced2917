// Package api serves the register map over a RESTful HTTP API.
package api

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"path"
	"sync"

	v1 "github.com/database64128/mmio-go/api/v1"
	"github.com/database64128/mmio-go/prefixset"
	"github.com/database64128/mmio-go/regmap"
	"github.com/database64128/tfo-go/v2"
	"github.com/gofiber/contrib/fiberzap"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go4.org/netipx"
	"golang.org/x/net/netutil"
)

// Config stores the configuration for the RESTful API.
type Config struct {
	// Enabled controls whether the API server is enabled.
	Enabled bool `json:"enabled"`

	// Listen is the TCP address to listen on.
	Listen string `json:"listen"`

	// FastOpen enables TCP Fast Open on the listener.
	FastOpen bool `json:"fastOpen"`

	// MaxConns limits the number of simultaneous connections.
	// 0 means no limit.
	MaxConns int `json:"maxConns"`

	// ReadOnly disables the routes that write to registers.
	ReadOnly bool `json:"readOnly"`

	// SecretPath adds a secret path prefix to API endpoints.
	// If empty, no secret path is added.
	SecretPath string `json:"secretPath"`

	// EnableClientCheck restricts access to clients in AllowedClients.
	EnableClientCheck bool `json:"enableClientCheck"`

	// AllowedClients is the set of client addresses allowed to access the API.
	// This only takes effect if EnableClientCheck is true.
	AllowedClients prefixset.Config `json:"allowedClients"`
}

// NewServer returns a new API server from the config.
func (c *Config) NewServer(logger *zap.Logger, regs *regmap.Map) (*Server, error) {
	if c.Listen == "" {
		return nil, errors.New("no listen address specified")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger,
	}))

	if c.EnableClientCheck {
		allowed, err := c.AllowedClients.IPSet()
		if err != nil {
			return nil, err
		}
		app.Use(checkClient(allowed))
	}

	api := app.Group(path.Join("/", c.SecretPath, "api"))
	v1.Routes(api, regs, c.ReadOnly)

	return &Server{
		logger:   logger,
		app:      app,
		lc:       tfo.ListenConfig{DisableTFO: !c.FastOpen},
		address:  c.Listen,
		maxConns: c.MaxConns,
	}, nil
}

// checkClient is a middleware that rejects clients outside the allowed set.
func checkClient(allowed *netipx.IPSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		addr, err := netip.ParseAddr(c.IP())
		if err != nil || !allowed.Contains(addr.Unmap()) {
			return c.Status(fiber.StatusForbidden).JSON(&v1.StandardError{Message: "client not allowed"})
		}
		return c.Next()
	}
}

// Server is the RESTful API server.
type Server struct {
	logger   *zap.Logger
	app      *fiber.App
	lc       tfo.ListenConfig
	address  string
	maxConns int

	mu sync.Mutex
	ln net.Listener
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// String implements [fmt.Stringer].
func (s *Server) String() string {
	return "API server"
}

// ZapField returns a [zap.Field] that identifies the server.
func (s *Server) ZapField() zap.Field {
	return zap.String("service", s.String())
}

// Start starts the API server.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		if err := s.app.Listener(ln); err != nil {
			s.logger.Warn("Failed to serve API", zap.Error(err))
		}
	}()

	s.logger.Info("Started API server", zap.Stringer("listenAddress", ln.Addr()))
	return nil
}

// Addr returns the listener's address, or nil if the server is not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop stops the API server.
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

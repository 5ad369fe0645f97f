// Package web wires the JSON API onto a fiber app and runs it.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	fiberlogger "github.com/tenantdesk/tenantdesk/internal/logger/adapter/fiber"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/account"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/admin/menu"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/admin/role"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/admin/settings"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/assignment"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/login"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/logout"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/permission"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/tenant"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	log.Info().Str("addr", addr).Msg("http server started")

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers with success.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the web service and registers every handler. Metrics are served
// from gatherer when it is set.
func New(cfg *config.Config, deps handler.Deps, gatherer prometheus.Gatherer) (*Service, error) {
	if cfg == nil || !deps.Valid() {
		return nil, handler.ErrMissingDeps
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log, CheckAliveURI: CheckAlivePath}))

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	app.Get(CheckAlivePath, func(c fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	if gatherer != nil {
		app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	handlers := []handler.Service{
		&login.Handler,
		&logout.Handler,
		&account.Handler,
		&permission.Handler,
		&assignment.Handler,
		&tenant.Handler,
		&role.Handler,
		&menu.Handler,
		&settings.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}

// errorHandler answers errors that escaped a handler with the JSON error body.
func errorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(auth.ErrorBody{Kind: "http", Code: strings.ToLower(
			strings.ReplaceAll(http.StatusText(fe.Code), " ", "_")), Message: fe.Message})
	}

	return auth.Error(c, err)
}

// cleanPath collapses duplicate slashes before routing.
func cleanPath(c fiber.Ctx) error {
	p := c.Path()
	if cleaned := path.Clean(p); cleaned != p && cleaned != "." {
		c.Path(cleaned)
	}

	return c.Next()
}

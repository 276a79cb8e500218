package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/config"
	"github.com/xavierca1/retirement-leads/internal/infra/http/handlers"
	"github.com/xavierca1/retirement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/retirement-leads/internal/infra/integration/propertydata"
	"github.com/xavierca1/retirement-leads/internal/infra/queue"
	"github.com/xavierca1/retirement-leads/internal/infra/worker"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead capture API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if serveMigrate {
			if err := runMigrations(ctx, env); err != nil {
				return err
			}
		}

		var deliverer usecase.Deliverer = env.Fanout
		if cfg.Delivery.Mode == config.DeliveryQueue {
			deliverer = queue.NewQueuedDeliverer(env.Producer)
		}

		captureUC := usecase.NewCaptureLeadUseCase(
			usecase.NewContactResolver(env.Contacts, cfg.Site.PhoneRegion),
			usecase.NewLeadRecorder(env.Leads, env.Attribution),
			deliverer,
			usecase.CaptureDefaults{SiteKey: cfg.Site.DefaultKey, FunnelType: cfg.Site.DefaultFunnel},
			cfg.NextURL,
		)
		trackUC := usecase.NewTrackEventUseCase(env.Attribution, env.Fanout)
		getLeadUC := usecase.NewGetLeadUseCase(env.Leads)

		property := propertydata.NewClient(
			cfg.Property.BaseURL,
			cfg.Property.APIKey,
			time.Duration(cfg.Property.TimeoutSecs)*time.Second,
			cfg.Property.CacheSize,
			time.Duration(cfg.Property.CacheTTLMinutes)*time.Minute,
		)

		limiter := handlers.NewRateLimiter(cfg.Server.RateLimitPerMinute)
		go limiter.Sweep(ctx.Done())

		go worker.NewRetentionWorker(env.Attribution, cfg.Retention.AttributionDays).Start(ctx)

		var broker handlers.BrokerStatus
		if env.RabbitMQ != nil {
			broker = env.RabbitMQ
		}

		r := newRouter(routes{
			Leads:    handlers.NewLeadHandler(captureUC, getLeadUC, limiter),
			Events:   handlers.NewEventHandler(trackUC, limiter),
			Property: handlers.NewPropertyHandler(property),
			Health:   handlers.NewHealthHandler(env.Pool, broker, env.Fanout.Names(), version),
		}, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("delivery_mode", cfg.Delivery.Mode),
		)
		// Deliveries started by the last requests finish before the pool closes.
		return runServer(ctx, srv, ln, captureUC.Wait)
	},
}

// runServer serves on ln until ctx is cancelled. It returns only after
// Shutdown has drained open requests and drain has run.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, drain func()) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server serve")
	}

	// Serve returns as soon as Shutdown starts; wait for it to finish.
	<-shutdownDone
	if drain != nil {
		drain()
	}
	return nil
}

type routes struct {
	Leads    *handlers.LeadHandler
	Events   *handlers.EventHandler
	Property *handlers.PropertyHandler
	Health   *handlers.HealthHandler
}

func newRouter(h routes, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/leads", h.Leads.CaptureLead)
		r.Get("/leads/{id}", h.Leads.GetLead)
		r.Post("/events", h.Events.Track)
		r.Get("/property-lookup", h.Property.Lookup)
	})

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hotspotgate/internal/auth"
	"hotspotgate/internal/database"
	"hotspotgate/internal/filter"
	"hotspotgate/internal/handlers"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/middleware"
	"hotspotgate/internal/services"
	"hotspotgate/internal/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type cmdServe struct {
	global *cmdGlobal
}

func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "serve"
	cmd.Short = "Run the captive portal"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdServe) Run(cmd *cobra.Command, args []string) error {
	cfg := c.global.cfg
	log := c.global.log

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	backend, err := filter.New(cfg, log, m)
	if err != nil {
		return err
	}
	log.Infof("using %s filter backend", cfg.FilterBackend)

	filter.WarmUp(backend)
	if cfg.SetupFilter {
		if !backend.InitialSetup() {
			log.Error("initial filter setup failed, clients may not be captured")
		}
	}

	db, err := database.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	userService := auth.NewUserService(db)
	if err := userService.EnsureDefaultAdmin(cfg.DefaultAdmin, cfg.DefaultPassword); err != nil {
		log.WithError(err).Warn("failed to create default admin")
	}
	sessionManager := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionMaxAge)
	clientService := services.NewClientService(db)

	templates, err := web.Load()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	scheduler, err := pruneScheduler(cfg.PruneSchedule, cfg.PruneActiveOnly, backend, userService, log)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := newRouter(routerDeps{
		portal: handlers.NewPortalHandler(templates, backend, clientService, handlers.Branding{
			HotspotName:    cfg.HotspotName,
			FQDN:           cfg.HotspotFQDN,
			FooterNote:     cfg.FooterNote,
			TimeoutMinutes: cfg.TimeoutMinutes,
		}, cfg.InternetStatus, log),
		auth:     handlers.NewAuthHandler(templates, sessionManager, userService, log),
		passlist: handlers.NewPasslistHandler(templates, backend, clientService, userService, log),
		authMW:   middleware.NewAuthMiddleware(sessionManager, userService),
		metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting %s portal on %s", cfg.HotspotName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneScheduler runs the periodic passlist prune. An empty schedule or a
// backend without a passlist disables it.
func pruneScheduler(schedule string, activeOnly bool, backend filter.Backend, users *auth.UserService, log logrus.FieldLogger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	manager, ok := backend.(filter.PasslistManager)
	if !ok {
		return nil, nil
	}

	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid PRUNE_SCHEDULE %q: %w", schedule, err)
	}

	c := cron.New(cron.WithLogger(cron.PrintfLogger(log)))
	c.Schedule(sched, cron.FuncJob(func() {
		if !manager.Prune(activeOnly) {
			log.Warn("scheduled prune could not read the passlist")
			return
		}
		users.LogAction(nil, "passlist_prune", "scheduled", "")
	}))
	return c, nil
}

type routerDeps struct {
	portal   *handlers.PortalHandler
	auth     *handlers.AuthHandler
	passlist *handlers.PasslistHandler
	authMW   *middleware.AuthMiddleware
	metrics  http.Handler
	log      logrus.FieldLogger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{Logger: d.log, NoColor: true}))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", d.metrics)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", d.auth.LoginPage)
		r.Post("/login", d.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(d.authMW.RequireAuth)

			r.Post("/logout", d.auth.Logout)
			r.Get("/", d.passlist.Page)
			r.Get("/passlist", d.passlist.List)
			r.Get("/audit", d.passlist.AuditLogs)

			r.Group(func(r chi.Router) {
				r.Use(d.authMW.RequireAdmin)
				r.Post("/passlist", d.passlist.Grant)
				r.Delete("/passlist/{ip}", d.passlist.Revoke)
				r.Post("/passlist/prune", d.passlist.Prune)
			})
		})
	})

	r.Get("/register", d.portal.Register)
	r.Get("/fake-register", d.portal.FakeRegister)
	r.HandleFunc("/*", d.portal.Entrypoint)

	return r
}

// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL maps to which
// handler, which middleware wraps every request, and how the process
// starts and stops.
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then New assembles
//
//	sqlstore.DB → UserStore/TaskStore → UserService/TaskService → handlers
//
// This is the composition root: every dependency is constructed here, so
// no other package builds its own collaborators and tests can swap any
// layer for a fake.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/taskapi/internal/auth"
	"github.com/sakif/taskapi/internal/config"
	"github.com/sakif/taskapi/internal/handler"
	"github.com/sakif/taskapi/internal/middleware"
	"github.com/sakif/taskapi/internal/repository/sqlstore"
	"github.com/sakif/taskapi/internal/service"
)

// Server owns the router and the database pool.
//
// RESOURCE MANAGEMENT:
// The pool is closed when Start returns or when Close is called. Tests
// that never call Start must call Close themselves.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqlstore.DB
	metrics *middleware.Metrics
}

// New opens the database, creates missing tables and wires every route.
//
// WIRING ORDER:
//  1. Build the password hasher first; a bad BCRYPT_COST fails before any
//     connection is opened.
//  2. Open the database (sqlstore.New pings and migrates).
//  3. Create services and handlers in setupRoutes.
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === 1. CREDENTIALS ===
	passwords, err := auth.NewPasswordServiceWithCost(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("configuring password hashing: %w", err)
	}

	// === 2. DATABASE ===
	db, err := sqlstore.New(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// === 3. ROUTES ===
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: middleware.NewMetrics(),
	}
	s.setupRoutes(passwords)

	return s, nil
}

// setupRoutes configures middleware and handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /user/add            add a user
//	POST   /user/verify         check credentials
//	GET    /user/get            list users
//	DELETE /user/delete/{id}    delete a user
//	PUT    /user/update/{id}    change username/email
//	PUT    /user/pw/{id}        change password
//	POST   /task/add            add a task
//	GET    /task/get            list tasks
//	DELETE /task/delete/{id}    delete a task
//	PUT    /task/update/{id}    change title/description
//	GET    /healthz             database ping
//	GET    /metrics             Prometheus metrics
//	GET    /routes              this table, as JSON
//
// MIDDLEWARE ORDER MATTERS:
// Middleware runs in the order it is added.
//  1. RequestID first, so every log line and error carries the id
//  2. RealIP, so the logger sees the client address behind a proxy
//  3. CORS, so preflight requests are answered before any handler runs
//  4. Logger and Metrics around the handler
//  5. Recoverer last, so a panic is still logged and counted as a 500
func (s *Server) setupRoutes(passwords *auth.PasswordService) {
	// === Global Middleware ===
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)

	// === API Routes ===
	// DEPENDENCY CHAIN:
	//   s.db.Users() implements repository.UserRepository
	//   UserService receives the repository interface
	//   UserHandler receives the service
	// The handler never touches the database; the service never sees HTTP.
	userService := service.NewUserService(s.db.Users(), passwords, s.logger)
	taskService := service.NewTaskService(s.db.Tasks(), s.logger)

	users := handler.NewUserHandler(userService, s.logger)
	tasks := handler.NewTaskHandler(taskService, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)
	routes := handler.NewRoutesHandler(s, s.logger)

	s.router.Route("/user", func(r chi.Router) {
		r.Post("/add", users.HandleAdd)
		r.Post("/verify", users.HandleVerify)
		r.Get("/get", users.HandleList)
		r.Delete("/delete/{id}", users.HandleDelete)
		r.Put("/update/{id}", users.HandleUpdate)
		r.Put("/pw/{id}", users.HandlePassword)
	})

	s.router.Route("/task", func(r chi.Router) {
		r.Post("/add", tasks.HandleAdd)
		r.Get("/get", tasks.HandleList)
		r.Delete("/delete/{id}", tasks.HandleDelete)
		r.Put("/update/{id}", tasks.HandleUpdate)
	})

	// === Operational Routes ===
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router.Get("/routes", routes.HandleRoutes)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes lists every registered "METHOD /path" in registration order.
//
// chi.Walk visits the route tree, including routes mounted with Route,
// so the list always matches what the router actually serves.
func (s *Server) Routes() ([]string, error) {
	var routes []string
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	return routes, err
}

func (s *Server) logRoutes(routes []string) {
	for _, route := range routes {
		s.logger.Info("route registered", slog.String("route", route))
	}
}

// Close releases the database pool. Use it when the server was built with
// New but never started; Start closes the pool on its own.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections.
//  2. Wait up to config.ShutdownTimeout for in-flight requests.
//  3. Close the database pool (deferred, so it also runs on a listen error).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Buffered so signal.Notify never drops a signal while we are busy.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	if routes, err := s.Routes(); err != nil {
		s.logger.Warn("could not list routes", slog.String("error", err.Error()))
	} else {
		s.logRoutes(routes)
	}

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.db.Driver()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// WHY select?
	// Either the listener fails (port taken) or a signal arrives; whichever
	// happens first decides how Start returns.
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

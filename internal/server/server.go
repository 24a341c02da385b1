package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	siteledgermw "github.com/alexanderramin/siteledger/internal/server/middleware"
	"github.com/alexanderramin/siteledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Projects  service.ProjectService
	BOQ       service.BOQService
	Tasks     service.TaskService
	Dashboard service.DashboardService
	Logger    zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter mounts the API under /api/v1.
func ConfigureRouter(config Config) *chi.Mux {
	logger := config.Dependencies.Logger
	h := newHandler(config.Dependencies)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(siteledgermw.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/overview", h.Overview)
		r.Get("/projects", h.ListProjects)
		r.Route("/projects/{project}", func(r chi.Router) {
			r.Get("/costs", h.ProjectCosts)
			r.Get("/dashboard", h.ProjectDashboard)
			r.Post("/recompute", h.Recompute)

			r.Get("/boq", h.BOQSnapshot)
			r.Get("/boq/items", h.ListBOQ)
			r.Put("/boq/{item}/line", h.SetBOQLine)
			r.Post("/boq/{item}/parent", h.SetBOQParent)

			r.Get("/tasks", h.TaskSnapshot)
			r.Get("/tasks/items", h.ListTasks)
			r.Put("/tasks/{task}/progress", h.SetTaskProgress)
			r.Post("/tasks/{task}/parent", h.SetTaskParent)
		})
	})
	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Start serves until ctx is cancelled, then drains outstanding requests.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		return err
	}
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/imagine-api/internal/api"
	apiMiddleware "github.com/phrazzld/imagine-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
// No request timeout is applied: the generation endpoints block until the job
// finishes, which can take several minutes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)

	imagineHandler := api.NewImagineHandler(app.queue, app.config.Queue.DefaultPrompt, app.logger)
	statusHandler := api.NewStatusHandler(app.queue)
	jobsHandler := api.NewJobsHandler(app.jobs, app.logger)

	r.Post("/imagine", imagineHandler.Imagine)
	r.Get("/generate", imagineHandler.Generate)
	r.Get("/status", statusHandler.Status)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", jobsHandler.ListJobs)
		r.Get("/{id}", jobsHandler.GetJob)
	})

	r.Get("/health", api.Health)

	return r
}

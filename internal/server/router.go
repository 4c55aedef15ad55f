// Package server assembles the HTTP router.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unclebandit/newsletter-backend/internal/controller"
	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/handler"
	"github.com/unclebandit/newsletter-backend/internal/respond"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Templates      *controller.TemplateController
	Newsletters    *controller.NewsletterController
	Images         *handler.NewsletterImageHandler
	DB             Pinger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/healthz", http.StatusTemporaryRedirect)
	})
	r.Get("/healthz", health(d.DB))

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", d.Templates.CreateTemplate)
		r.Get("/", d.Templates.ListTemplates)
		r.Get("/{id}", d.Templates.GetTemplate)
		r.Delete("/{id}", d.Templates.DeleteTemplate)
		r.Get("/{id}/newsletters", d.Templates.ListTemplateNewsletters)
	})

	r.Route("/newsletters", func(r chi.Router) {
		r.Get("/", d.Newsletters.ListNewsletters)
		r.Post("/with-image", d.Images.CreateNewsletterWithImageHandler)
		r.Post("/with-image/", d.Images.CreateNewsletterWithImageHandler)
		r.Get("/status/{status}", d.Newsletters.ListNewslettersByStatus)
		r.Get("/{id}", d.Newsletters.GetNewsletter)
		r.Put("/{id}", d.Newsletters.UpdateNewsletter)
		r.Delete("/{id}", d.Newsletters.DeleteNewsletter)
		r.Put("/{id}/with-image", d.Images.UpdateNewsletterWithImageHandler)
		r.Put("/{id}/with-image/", d.Images.UpdateNewsletterWithImageHandler)
		r.Get("/{id}/image", d.Images.GetNewsletterImageHandler)
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respond.Error(w, appErrors.NewUpstream("Database unavailable", err))
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prato/docs" //this is required to generate swagger docs
	"prato/internal/auth"
	"prato/internal/domain/storage"
	"prato/internal/mailer"
	"prato/internal/moderation"
	"prato/internal/ratelimiter"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	service       *moderation.Service
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	refCodeSalt string
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret        string
	refreshSecret string
	iss           string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})
		r.Put("/users/activate/{token}", app.activateUserHandler)

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Put("/", app.updateUserHandler)
			r.Post("/logout", app.logoutHandler)
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", app.listRestaurantsHandler)
			r.Get("/{restaurantID}", app.getRestaurantHandler)
			r.Get("/{restaurantID}/reviews", app.getRestaurantReviewsHandler)
			r.Get("/{restaurantID}/suggestions", app.listRestaurantSuggestionsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/{restaurantID}/reviews", app.createReviewHandler)
				r.Post("/{restaurantID}/suggestions", app.createSuggestionHandler)
				r.Post("/{restaurantID}/photos", app.uploadRestaurantPhotoHandler)
				r.With(app.RequireRole("admin")).Delete("/{restaurantID}/photos", app.deleteRestaurantPhotoHandler)
				r.With(app.RequireRole("admin")).Delete("/{restaurantID}", app.deleteRestaurantHandler)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/{reviewID}/vote", app.voteReviewHandler)
			r.Delete("/{reviewID}", app.deleteReviewHandler)
			r.Post("/{reviewID}/report", app.createReportHandler)
		})

		r.Route("/edit-suggestions", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRole("reviewer")).Get("/", app.listSuggestionsHandler)
			r.Post("/{suggestionID}/vote", app.voteSuggestionHandler)
			r.With(app.RequireRole("reviewer")).Post("/{suggestionID}/approve", app.approveSuggestionHandler)
			r.With(app.RequireRole("reviewer")).Post("/{suggestionID}/reject", app.rejectSuggestionHandler)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", app.createSubmissionHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.With(app.RequireRole("reviewer")).Get("/", app.listSubmissionsHandler)
				r.With(app.RequireRole("reviewer")).Get("/{submissionID}", app.getSubmissionHandler)
				r.With(app.RequireRole("reviewer")).Post("/{submissionID}/resolve", app.resolveSubmissionHandler)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRole("reviewer")).Get("/", app.listReportsHandler)
			r.With(app.RequireRole("reviewer")).Post("/{reportID}/resolve", app.resolveReportHandler)
		})

		r.Route("/reviewer-applications", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.applyForReviewerHandler)
			r.With(app.RequireRole("admin")).Get("/", app.listApplicationsHandler)
			r.With(app.RequireRole("admin")).Post("/{applicationID}/resolve", app.resolveApplicationHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

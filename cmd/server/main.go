package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"google.golang.org/api/option"

	"github.com/accessway/backend/internal/config"
	"github.com/accessway/backend/internal/docstore"
	"github.com/accessway/backend/internal/handlers"
	"github.com/accessway/backend/internal/identity"
	"github.com/accessway/backend/internal/logging"
	appMiddleware "github.com/accessway/backend/internal/middleware"
	"github.com/accessway/backend/internal/session"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.FirebaseCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	}

	// Firebase Auth (server-side verification of ID tokens). The server can
	// run without it in dev mode with DEV_JWT_SECRET.
	var authClient *fbauth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{
			ProjectID:     cfg.FirebaseProjectID,
			StorageBucket: cfg.StorageBucket,
		}, opts...)
		if err != nil {
			log.Error("firebase app init failed", "err", err)
			os.Exit(1)
		}
		authClient, err = app.Auth(ctx)
		if err != nil {
			log.Error("firebase auth init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("FIREBASE_PROJECT_ID not set, running without Firebase Auth")
	}

	store, err := newStore(ctx, cfg, opts)
	if err != nil {
		log.Error("docstore init failed", "backend", cfg.DocstoreBackend, "err", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	var deleter identity.Deleter = nopDeleter{}
	var lookup handlers.Lookup
	if authClient != nil {
		svc := identity.NewFirebaseService(authClient)
		deleter = svc
		lookup = svc
	}

	var gcsClient *gcs.Client
	if cfg.StorageBucket != "" {
		gcsClient, err = gcs.NewClient(ctx, opts...)
		if err != nil {
			log.Warn("storage client init failed, photo cleanup disabled", "err", err)
		}
	}

	sessions := session.NewManager(store, deleter, log)
	defer sessions.Close()

	sessionHandler := handlers.NewSessionHandler(sessions, lookup)
	profileHandler := handlers.NewProfileHandler(sessions, log)
	accountHandler := handlers.NewAccountHandler(sessions, gcsClient, cfg.StorageBucket, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Auth(authClient, cfg.DevJWTSecret))

			r.Post("/session", sessionHandler.SignIn)
			r.Delete("/session", sessionHandler.SignOut)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/", profileHandler.SaveProfile)
				r.Put("/preferences", profileHandler.UpdatePreferences)
				r.Post("/onboarding", profileHandler.CompleteOnboarding)
				r.Post("/points", profileHandler.AddPoints)
				r.Get("/events", profileHandler.Events)
			})

			r.Delete("/account", accountHandler.DeleteAccount)
		})
	})

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}

	go func() {
		log.Info("accessway profile server starting", "addr", cfg.ServerAddress, "backend", cfg.DocstoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}

func newStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (docstore.Store, error) {
	switch cfg.DocstoreBackend {
	case "mongo":
		return docstore.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ProfileCollection)
	case "memory":
		return docstore.NewMemoryStore(), nil
	default:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			return nil, err
		}
		return docstore.NewFirestoreStore(client, cfg.ProfileCollection), nil
	}
}

// nopDeleter stands in for Firebase user deletion in dev mode.
type nopDeleter struct{}

func (nopDeleter) DeleteUser(ctx context.Context, id string) error { return nil }

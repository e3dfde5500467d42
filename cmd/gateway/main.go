package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/exam-pulse/exampulse/internal/api/http"
	"github.com/exam-pulse/exampulse/internal/audit"
	auth "github.com/exam-pulse/exampulse/internal/auth/middleware"
	"github.com/exam-pulse/exampulse/internal/config"
	"github.com/exam-pulse/exampulse/internal/db"
	"github.com/exam-pulse/exampulse/internal/exam"
	"github.com/exam-pulse/exampulse/internal/rbac"
	"github.com/exam-pulse/exampulse/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewEventRepo(dbh)

	// --- Validation presets (builtin + optional YAML overlay) ---
	presets, err := exam.LoadPresets(cfg.PresetFile)
	if err != nil {
		log.Fatalf("presets: %v", err)
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.LoginOpts{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
	}))

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Content authoring (editor)
		pr.With(rbac.Require("test:publish")).
			Post("/tests", api.PublishTestHandler(store, presets, events))
		pr.With(rbac.Require("test:validate")).
			Post("/tests/{testID}/validate", api.ValidateTestHandler(store, presets))
		pr.With(rbac.Require("item:manage")).
			Post("/items/bulk", api.BulkUpsertItemsHandler(store))
		pr.With(rbac.Require("stimulus:manage")).
			Post("/stimuli/bulk", api.BulkUpsertStimuliHandler(store))

		// Content delivery
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(store))
		pr.With(rbac.Require("test:view")).
			Get("/tests", api.ListTestsHandler(store))

		// Learner flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(store))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store, presets, events))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))

		// Stimulus media
		pr.Route("/assets", func(ar chi.Router) {
			ar.With(rbac.Require("asset:upload")).
				Post("/{stimulusID}", api.UploadAssetHandler(bs))
			ar.With(rbac.Require("test:view")).
				Get("/*", api.GetAssetHandler(bs))
		})

		// Roster (admin)
		pr.With(rbac.Require("users:manage")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:manage")).
			Get("/users", api.ListUsersHandler(dbh))
	})

	log.Printf("gateway listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}

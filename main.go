package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/handlers"
	"vsgtalent-backend/internal/hooks"
	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/media"
	"vsgtalent-backend/internal/metrics"
	"vsgtalent-backend/internal/middleware"
	"vsgtalent-backend/internal/startup"
	"vsgtalent-backend/internal/urlcanon"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := db.CleanExpiredSessions(); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
		}
	}()

	// Initialize the media pipeline
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer media.ShutdownVips()
	startup.LogMediaInit(media.IsVipsAvailable())

	// Passkey support is optional; password login still works without it
	if err := handlers.InitWebAuthn(config, db); err != nil {
		logging.Warn("WebAuthn initialization failed: %v", err)
	}

	// Wire the hook registry: REST responses go through the URL
	// canonicalizer, and saving content triggers attachment relabeling.
	registry := hooks.NewRegistry()
	h := handlers.New(db, registry, config)
	canon := urlcanon.New(config.CanonicalMediaHost, config.LegacyMediaHosts)
	registry.AddFilter(hooks.EventRestPrepare, 10, handlers.MediaURLFilter(canon))
	registry.AddAction(hooks.EventContentSave, 10, h.OnContentSave)
	registry.AddAction(hooks.EventUploadComplete, 10, h.OnUploadComplete)

	// Metrics
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(db, 30*time.Second)
	collector.Start()

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply CORS middleware
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = config.CORSOrigins
	corsHandler := middleware.CORS(corsConfig)(loggedHandler)

	// Apply compression middleware
	compressed := middleware.Compression(middleware.DefaultCompressionConfig())(corsHandler)

	// Record request metrics last so they see the final status codes
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(compressed)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")
	auth.Handle("/change-password", h.RequireAuth(http.HandlerFunc(h.ChangePassword))).Methods("POST")

	// WebAuthn routes
	auth.HandleFunc("/webauthn/available", h.WebAuthnAvailable).Methods("GET")
	auth.HandleFunc("/webauthn/register/begin", h.BeginWebAuthnRegistration).Methods("POST")
	auth.HandleFunc("/webauthn/register/finish", h.FinishWebAuthnRegistration).Methods("POST")
	auth.HandleFunc("/webauthn/login/begin", h.BeginWebAuthnLogin).Methods("POST")
	auth.HandleFunc("/webauthn/login/finish", h.FinishWebAuthnLogin).Methods("POST")

	// WordPress-compatible content and media API. The media and taxonomy
	// routes must register before the {base} collection catch-all.
	wp := r.PathPrefix("/wp-json/wp/v2").Subrouter()
	wp.HandleFunc("/media", h.ListMedia).Methods("GET")
	wp.Handle("/media", h.RequireAuth(http.HandlerFunc(h.UploadMedia))).Methods("POST")
	wp.HandleFunc("/media/{id:[0-9]+}", h.GetMedia).Methods("GET")
	wp.HandleFunc("/{taxonomy:competitie|seizoen}", h.ListTaxonomyTerms).Methods("GET")
	wp.HandleFunc("/{base}", h.ListContent).Methods("GET")
	wp.Handle("/{base}", h.RequireAuth(http.HandlerFunc(h.SaveContent))).Methods("POST")
	wp.HandleFunc("/{base}/{id:[0-9]+}", h.GetContentItem).Methods("GET")
	wp.Handle("/{base}/{id:[0-9]+}", h.RequireAuth(http.HandlerFunc(h.SaveContent))).Methods("POST")

	// Admin maintenance actions
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Handle("/", h.RequireAuth(http.HandlerFunc(h.AdminPage))).Methods("GET")
	admin.Handle("/actions/repair-media-gallery", h.RequireAuth(http.HandlerFunc(h.RepairMediaGallery))).Methods("POST")
	admin.Handle("/actions/verify-uploads", h.RequireAuth(http.HandlerFunc(h.VerifyUploads))).Methods("POST")
	admin.Handle("/actions/sideload", h.RequireAuth(http.HandlerFunc(h.SideloadMedia))).Methods("POST")
	admin.Handle("/actions/convert/{id:[0-9]+}", h.RequireAuth(http.HandlerFunc(h.ConvertAttachment))).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}

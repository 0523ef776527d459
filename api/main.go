package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"secops-console/api/internal/handlers"
	"secops-console/internal/alert"
	"secops-console/internal/detect"
	"secops-console/internal/lifecycle"
	"secops-console/internal/metrics"
	"secops-console/internal/model"
	"secops-console/internal/modelrouter"
	"secops-console/internal/pipeline"
	"secops-console/internal/report"
	"secops-console/internal/store"
	"secops-console/internal/telemetry"
	"secops-console/internal/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (YAML)")
		port       = flag.String("port", "", "API server port (overrides config)")
	)
	flag.Parse()

	config, err := utils.LoadAppConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		config.Server.Port = *port
	}

	logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

	m := metrics.New()
	s := store.NewStore(logger, m)
	detector := detect.New(detect.DefaultConfig(), logger, m)

	alertConfig := alert.DefaultConfig()
	alertConfig.Enabled = config.AlertingEnabled()
	alertConfig.Feishu.WebhookURL = config.Alerting.FeishuWebhookURL
	alertConfig.Wecom.WebhookURL = config.Alerting.WecomWebhookURL
	if config.Alerting.SMSProvider != "" {
		alertConfig.SMS.Provider = config.Alerting.SMSProvider
	}
	dispatcher := alert.NewDispatcher(alertConfig, logger, m)

	// Every created event fans out to a randomly picked webhook channel.
	s.SetEventHook(func(event model.SecurityEvent) {
		_, err := dispatcher.Send(model.AlertMessage{
			Channel:    dispatcher.PickChannel(),
			Title:      fmt.Sprintf("[%s] %s", strings.ToUpper(string(event.Severity)), event.Title),
			Content:    event.Description,
			Severity:   event.Severity,
			EventID:    event.ID,
			OccurredAt: event.Timestamp,
		})
		if err != nil {
			logger.Errorf("Auto alert dispatch failed for %s: %v", event.ID, err)
		}
	})

	registry := modelrouter.NewRegistry(logger)
	reports := report.NewService(s, registry, logger)

	engine := lifecycle.NewEngine(s, secondsToDuration(config.Runtime.EvolutionIntervalSeconds), logger, m)
	runtime := pipeline.NewRuntime(
		telemetry.NewGenerator(),
		detector,
		s,
		engine,
		secondsToDuration(config.Runtime.SampleIntervalSeconds),
		logger,
		m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.RuntimeEnabled() {
		runtime.Start(ctx)
	} else {
		logger.Warn("Security runtime disabled by config; serving API only")
	}

	h := handlers.NewHandlers(s, runtime, detector, dispatcher, reports, registry, logger, m)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	h.RegisterRoutes(router)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	addr := fmt.Sprintf(":%s", config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logger.Infof("API server starting on port %s", config.Server.Port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down API server...")

		if config.RuntimeEnabled() {
			runtime.Stop()
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigins := []string{
			"http://localhost:5000",
			"http://localhost:3000",
			"http://127.0.0.1:5000",
			"http://127.0.0.1:3000",
		}

		allowOrigin := "*"
		if origin != "" {
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					allowOrigin = origin
					break
				}
			}
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if allowOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/metrics"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		// Resolve the field binding up front so the first webhook doesn't
		// pay for provisioning. Failure is logged, not fatal: the lazy
		// path retries on first use.
		if _, err := a.engine.Binding(ctx); err != nil {
			zap.L().Warn("custom field provisioning deferred", zap.Error(err))
		}

		r := chi.NewRouter()
		r.Use(requestID)
		r.Use(middleware.Recoverer)
		r.Use(metrics.Middleware)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		}))

		r.Get("/", a.handleIndex)
		r.Get("/health", a.handleHealth)
		r.Handle("/metrics", promhttp.Handler())
		r.Post("/webhook/typeform-application", a.handleTypeformApplication)
		r.Post("/webhook/typeform-credit-report", a.handleTypeformCreditReport)
		r.Post("/webhook/gpt-credit-report", a.handleGPTCreditReport)
		r.Post("/webhook/booking", a.handleBooking)
		r.Post("/process-webinar/{id}", a.handleProcessWebinar)
		r.Post("/process-recent-webinars", a.handleProcessRecent)
		r.Post("/setup-smart-views", a.handleSetupSmartViews)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// requestID tags each request with an ID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		zap.L().Debug("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

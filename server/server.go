package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Port        int
	CORSOrigins []string
}

type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

func NewServer(cfg Config, logger *slog.Logger, webhooks *WebhookHandler, accounts *AccountHandler) *Server {
	r := chi.NewRouter()

	r.Use(recoverer(logger))
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The webhook route takes the raw body; signature verification needs the
	// exact bytes the processor signed.
	r.Post("/webhooks/stripe", webhooks.Handle)

	r.Get("/subscriptions/status/{customerID}", accounts.SubscriptionStatus)
	r.Post("/customers", accounts.CreateCustomer)
	r.Post("/subscriptions", accounts.CreateSubscription)
	r.Post("/payment-intents", accounts.CreatePaymentIntent)

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until the context is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		s.logger.Info("http server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

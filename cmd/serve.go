package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/auth"
	"github.com/Shivanand-hulikatti/tour-booking/internal/config"
	"github.com/Shivanand-hulikatti/tour-booking/internal/events"
	"github.com/Shivanand-hulikatti/tour-booking/internal/handler"
	"github.com/Shivanand-hulikatti/tour-booking/internal/payment"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Stores ─────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.close()

	// ── 2. External collaborators ─────────────────────────────────────────
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty, checkout and confirm will fail with 502")
	}
	provider := payment.NewStripe(cfg.StripeSecretKey, nil)

	var publisher service.EventPublisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				log.WithError(err).Warn("close kafka writer")
			}
		}()
		publisher = kp
		log.WithField("topic", cfg.KafkaTopic).Info("publishing payment events to kafka")
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, GET /users will reject every request")
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	bookingSvc := service.NewBookingService(st.bookings)
	userSvc := service.NewUserService(st.users)
	checkoutSvc := service.NewCheckoutService(st.bookings, provider, service.CheckoutConfig{
		Currency:  cfg.CheckoutCurrency,
		ClientURL: cfg.ClientURL,
	})
	reconciler := service.NewReconciler(st.bookings, st.payments, provider, publisher, log)
	paymentSvc := service.NewPaymentService(st.payments)
	dashboardSvc := service.NewDashboardService(st.bookings, st.payments, st.users)

	router := handler.NewRouter(handler.Handlers{
		Bookings:  handler.NewBookingHandler(bookingSvc),
		Users:     handler.NewUserHandler(userSvc),
		Payments:  handler.NewPaymentHandler(checkoutSvc, reconciler, paymentSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Verifier:  verifier,
	}, log)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

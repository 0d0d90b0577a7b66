package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/gateway"
	"github.com/civibridge/order-bridge/internal/handler"
	"github.com/civibridge/order-bridge/internal/processor"
	"github.com/civibridge/order-bridge/pkg/health"
	"github.com/civibridge/order-bridge/pkg/httpmiddleware"
	"github.com/civibridge/order-bridge/pkg/render"
)

// Run creates all dependencies, starts the bridge server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("civicrm", cfg.CiviCRM.Endpoint))

	crm := civi.New(cfg.CiviCRM.Endpoint, cfg.CiviCRM.SiteKey, cfg.CiviCRM.APIKey,
		civi.WithLogger(lg.Named("civi")),
		civi.WithTracerProvider(m.TracerProvider()),
	)

	renderer, err := render.New(cfg.ThankYouTemplate)
	if err != nil {
		return errors.Wrap(err, "load thank-you template")
	}

	opts := []processor.Option{
		processor.WithLogger(lg.Named("order")),
		processor.WithThankYou(renderer),
	}
	if cfg.Stripe.SecretKey != "" {
		opts = append(opts, processor.WithBalanceFetcher(gateway.NewStripeClient(cfg.Stripe.SecretKey)))
	}
	proc := processor.New(crm, opts...)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("civicrm", 5*time.Second, crm.Ping)
	healthSvc.SetReady(true)

	h := handler.New(proc)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("POST /hooks/submission", h.Submit)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: flip readiness, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billing-service/config"
	routes "billing-service/internal/app/http"
	"billing-service/internal/logger"
)

func runServer(ctx context.Context) error {
	cfg := config.Load()
	app, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(app.log))

	// Add CORS middleware BEFORE registering routes
	if cfg.CORSOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.CORSOrigin},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	routes.RegisterRoutes(r, routes.Deps{
		DB:            app.db,
		Service:       app.svc,
		Log:           app.log,
		JWTSecret:     cfg.JWTSecret,
		APISecret:     cfg.APISecret,
		WebhookSecret: cfg.StripeWebhookSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

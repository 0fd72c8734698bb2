package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"tomotachi/backend/docs"
	"tomotachi/backend/internal/config"
	"tomotachi/backend/internal/database"
	"tomotachi/backend/internal/events"
	"tomotachi/backend/internal/handler"
	"tomotachi/backend/internal/hub"
	"tomotachi/backend/internal/middleware"
	"tomotachi/backend/internal/social"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	backend, err := database.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Warn("Closing store failed", zap.Error(err))
		}
	}()
	if err := backend.Migrate(ctx); err != nil {
		return err
	}

	engine := social.New(backend.Store, log.Named("social"), social.Options{
		StoreTimeout:       cfg.StoreTimeout,
		MentionConcurrency: cfg.MentionLookupConcurrency,
	})

	h := hub.New(log.Named("hub"))
	publishers := events.Fanout{h}
	if cfg.NATSURL != "" {
		js, err := events.ConnectJetStream(ctx, cfg.NATSURL, log.Named("events"))
		if err != nil {
			return err
		}
		defer js.Close()
		publishers = append(publishers, js)
	}

	router := newRouter(cfg, log, handler.New(engine, h, publishers, log.Named("http")))

	srv := newServer(":"+cfg.Port, router, h)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("driver", cfg.StoreDriver),
		zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
	return nil
}

// newServer builds the HTTP server. Shutdown closes the open event streams so
// they stop holding their connections, while other in-flight requests drain
// with their contexts intact.
func newServer(addr string, router http.Handler, h *hub.Hub) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(h.CloseAll)
	return srv
}

func newRouter(cfg *config.Config, log *zap.Logger, h *handler.Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.TraceID(), middleware.Logger(log.Named("access")), middleware.Recovery(log))

	// Swagger route
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

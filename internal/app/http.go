package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck/taskdeck/internal/config"
	v1 "github.com/taskdeck/taskdeck/internal/delivery/http/v1"
	"github.com/taskdeck/taskdeck/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router *gin.Engine) {
	cfg := config.Global()

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.TokenTTL,
		cfg.Session.TTL,
	)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	handler := v1.New(globalLogger, authService, taskService)

	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/signup", handler.HandleSignup)
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/logout", handler.HandleLogout)
	authRouter.GET("/token", handler.HandleIssueToken)

	todoRouter := api.Group("/todos")
	todoRouter.Use(handler.HandleAuthMiddleware)
	todoRouter.GET("", handler.HandleListTasks)
	todoRouter.POST("", handler.HandleCreateTask)
	todoRouter.GET("/:id", handler.HandleGetTask)
	todoRouter.PUT("/:id", handler.HandleUpdateTask)
	todoRouter.DELETE("/:id", handler.HandleDeleteTask)
	todoRouter.PATCH("/:id/complete", handler.HandleToggleTask)

	// The page routes are gated by cookie presence only. Token
	// validation happens on the API calls the pages make.
	router.GET("/login", handler.HandleGuestGuard, handler.HandleLoginPage)
	router.GET("/signup", handler.HandleGuestGuard, handler.HandleSignupPage)

	dashboardRouter := router.Group("/dashboard")
	dashboardRouter.Use(handler.HandleSessionGuard)
	dashboardRouter.GET("", handler.HandleDashboardPage)
	dashboardRouter.GET("/tasks", handler.HandleTasksPage)
}

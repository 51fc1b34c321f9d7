package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trialconnect/agent/internal/config"
	"github.com/trialconnect/agent/internal/handler"
	"github.com/trialconnect/agent/internal/service"
	"github.com/trialconnect/agent/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
	poller *service.Poller
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	events := service.NewBroadcaster()

	callbackService := service.NewCallbackService(infra.Gateway(), infra.Store(), events, infra.Logger())
	profileService := service.NewProfileService(infra.Gateway(), infra.Store(), events, infra.Logger())
	favoritesService := service.NewFavoritesService(infra.Gateway(), infra.Store(), infra.Logger())
	inboxService := service.NewInboxService(infra.Gateway(), infra.Store(), infra.Logger())

	poller := service.NewPoller(
		inboxService,
		cfg.Polling.Interval.Duration,
		cfg.Polling.TickTimeout.Duration,
		infra.Logger(),
		infra.Metrics().PollTicks,
	)

	healthChecker := NewHealthChecker(infra)

	authHandler := handler.NewAuthHandler(callbackService, profileService, events, infra.Store())
	expertHandler := handler.NewExpertHandler(favoritesService)
	inboxHandler := handler.NewInboxHandler(inboxService, poller)

	router := gin.Default()
	router.Use(otelgin.Middleware("trialconnect-agent"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, infra, authHandler, expertHandler, inboxHandler, healthChecker)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
		poller: poller,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	infra Infrastructure,
	authHandler *handler.AuthHandler,
	expertHandler *handler.ExpertHandler,
	inboxHandler *handler.InboxHandler,
	healthChecker *HealthChecker,
) {
	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", healthChecker.Handler)

	requireSession := handler.SessionMiddleware(infra.Store())

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/callback", authHandler.Callback)
			auth.POST("/complete-profile", authHandler.CompleteProfile)
			auth.POST("/abandon-profile", authHandler.AbandonProfile)
			auth.GET("/session", authHandler.Session)
			auth.GET("/events", authHandler.Events)
			auth.GET("/otp-expiry", authHandler.OTPExpiry)
			auth.POST("/signout", authHandler.SignOut)
		}

		expert := api.Group("/expert", requireSession)
		{
			expert.GET("/profile", expertHandler.Profile)
			expert.GET("/invite-check", expertHandler.CheckInvite)
			expert.POST("/invite", expertHandler.Invite)
			expert.GET("/invites", expertHandler.Invites)
			expert.POST("/summary", expertHandler.Summarize)
		}

		api.GET("/favorites", requireSession, expertHandler.Favorites)
		api.POST("/favorites/toggle", requireSession, expertHandler.ToggleFavorite)

		inbox := api.Group("/inbox", requireSession)
		{
			inbox.POST("/open", inboxHandler.Open)
			inbox.GET("", inboxHandler.Snapshot)
			inbox.POST("/conversations/:id/select", inboxHandler.SelectConversation)
			inbox.POST("/messages", inboxHandler.SendMessage)
			inbox.POST("/notifications/click", inboxHandler.NotificationClick)
			inbox.POST("/notifications/read-all", inboxHandler.MarkAllRead)
			inbox.PATCH("/meetings/:id/accept", inboxHandler.AcceptMeeting)
			inbox.PATCH("/meetings/:id/decline", inboxHandler.DeclineMeeting)
			inbox.PATCH("/connection-requests/:id", inboxHandler.RespondConnection)
			inbox.DELETE("/connections/:id", inboxHandler.RemoveConnection)
			inbox.POST("/visibility", inboxHandler.Visibility)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go a.poller.Run(ctx)

	go func() {
		a.infra.Logger().Info("Agent starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("backend", a.infra.Gateway().BaseURL()),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Agent failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Agent stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Agent shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Agent exited successfully")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/VladGeana/radar/internal/auth"
	"github.com/VladGeana/radar/internal/broker"
	"github.com/VladGeana/radar/internal/handler"
	"github.com/VladGeana/radar/internal/presence"
	"github.com/VladGeana/radar/internal/server"
	"github.com/VladGeana/radar/internal/warning"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings) *App {
	originChecker := server.NewOriginChecker(settings.AllowedOrigins)
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       originChecker.Check,
		EnableCompression: true,
	}

	authenticator := auth.NewAuthenticator(settings.JWTSecret, settings.APIKeys)

	registry := presence.NewRegistry(logger)
	directory := presence.NewDirectory(registry)
	queue := warning.NewPendingQueue(logger)
	dispatcher := server.NewDispatcher(logger, registry)
	reporter := broker.NewOccupancyReporter(logger, directory, dispatcher)
	notificationBroker := broker.NewBroker(logger, registry, queue, dispatcher, reporter)

	nameValidator := handler.NewNameValidator()
	heartbeatHandler := handler.NewHeartbeatHandler()
	submitHandler := handler.NewSubmitWarningHandler(nameValidator, notificationBroker)
	occupancyHandler := handler.NewOccupancyHandler(nameValidator, reporter)
	pendingHandler := handler.NewQueryPendingHandler(nameValidator, notificationBroker)
	clearHandler := handler.NewClearPendingHandler(nameValidator, notificationBroker)
	enterHandler := handler.NewEnterRoomHandler(nameValidator, registry, reporter)
	leaveHandler := handler.NewLeaveRoomHandler(nameValidator, registry, reporter)
	roomsHandler := handler.NewListRoomsHandler(directory, queue, dispatcher)

	router := server.NewRouter(
		logger,
		heartbeatHandler,
		submitHandler,
		occupancyHandler,
		pendingHandler,
		clearHandler,
		enterHandler,
		leaveHandler,
		roomsHandler,
	)

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		registry,
		notificationBroker,
		reporter,
		router,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		submitHandler,
		occupancyHandler,
		pendingHandler,
		clearHandler,
		roomsHandler,
	)

	return &App{
		logger,
		settings,
		websocketServer,
		restServer,
	}
}

func (a *App) run(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address),
		zap.String("basePath", a.settings.BasePath))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		log.Fatalf("failed to parse settings from environment: %v", err)
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	app := NewApp(logger, settings)
	app.run(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"chatWs/internal/config"
	"chatWs/internal/modules/chat/application/handler"
	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/infrastructure"
	transport "chatWs/internal/modules/chat/interface"
	"chatWs/internal/platform/broker"
	"chatWs/internal/shared/logging"
)

var version = "dev"

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}

	var configPath string
	app := &cli.Command{
		Name:    "chatws",
		Usage:   "Topic fan-out chat relay over websockets",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config file (optional)",
				Sources:     cli.EnvVars("CHAT_CONFIG"),
				Value:       "config.yaml",
				Destination: &configPath,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			return run(ctx, cfg)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "chatws: %v\n", err)
		os.Exit(1)
	}
}

func run(parent context.Context, cfg *config.Config) error {
	logCloser, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := infrastructure.NewMonotonicClock(nil)
	topics := infrastructure.NewTopicRegistry()
	sessions := infrastructure.NewSessionStore()
	codec := infrastructure.JSONCodec{}
	router := usecase.NewEventRouter(topics, sessions, clock, usecase.RouterConfig{
		DefaultTopic:      cfg.Chat.DefaultTopic,
		TrustClientSender: cfg.Chat.TrustClientSender,
		MaxNameLength:     cfg.Chat.MaxNameLength,
	})
	hub := infrastructure.NewBroker(topics, sessions, router, codec, clock, infrastructure.BrokerOptions{
		SlowConsumerLimit: cfg.Chat.SlowConsumerLimitValue(),
		AnnounceLeave:     cfg.Chat.AnnounceLeaveValue(),
		Logger:            logger,
	})
	announceUC := usecase.NewAnnounceUseCase(hub, clock, cfg.Chat.DefaultTopic)
	presenceUC := usecase.NewPresenceUseCase(topics, sessions)

	registry := infrastructure.NewHandlerRegistry()
	for _, topic := range cfg.Kafka.AnnouncementTopics {
		registry.Register(handler.NewAnnouncementHandler(topic, cfg.Chat.DefaultTopic, announceUC))
	}
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID), slog.Any("topics", registry.Topics()))

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	transport.RegisterRoutes(ctx, e, transport.Dependencies{
		Broker:   hub,
		Codec:    codec,
		Announce: announceUC,
		Presence: presenceUC,
		Websocket: transport.WebsocketOptions{
			QueueCapacity:  cfg.Chat.QueueCapacity,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Client: infrastructure.ClientConfig{
				PingInterval:   cfg.Websocket.PingInterval,
				ReadTimeout:    cfg.Websocket.ReadTimeout,
				WriteTimeout:   cfg.Websocket.WriteTimeout,
				MaxMessageSize: cfg.Chat.MaxMessageSize,
			},
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", slog.String("port", cfg.Server.Port), slog.String("version", version))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return broker.RunKafkaConsumers(gctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, registry.Topics())
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := hub.Shutdown(shutdownCtx); err != nil {
			slog.Warn("chat connections not fully drained", slog.Any("error", err))
		}
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func setupLogging(cfg config.LoggingConfig) (io.Closer, *slog.Logger, error) {
	var (
		writer io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.Directory != "" {
		file, err := logging.OpenDailyFile(cfg.Directory, time.Now())
		if err != nil {
			return nil, nil, err
		}
		writer = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return closer, logger, nil
}

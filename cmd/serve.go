package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	contactsgrpc "github.com/vibast-solutions/ms-go-contacts/app/grpc"
	"github.com/vibast-solutions/ms-go-contacts/app/ingest"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) and gRPC servers, the change poller and the Kafka consumer of the contacts service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApplication(cfg, registry)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var poller *ingest.Poller
	if app.profiles != nil {
		synced := time.Now()
		if _, err := app.ingestion.Resync(ctx, service.SourcePoller); err != nil {
			logrus.WithError(err).Fatal("Initial index resync failed")
		}
		if cfg.Poller.Enabled {
			poller = ingest.NewPoller(ingest.PollerConfig{
				Interval:       cfg.Poller.Interval,
				ResyncInterval: cfg.Poller.ResyncInterval,
			}, app.profiles, app.ingestion, app.ingestion)
			poller.MarkSynced(synced)
		}
	} else {
		logrus.Warn("MYSQL_DSN not set; index is fed by the API and Kafka only")
	}

	var consumer *ingest.KafkaConsumer
	if cfg.Kafka.Enabled() {
		consumer, err = ingest.NewKafkaConsumer(ingest.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			Group:    cfg.Kafka.Group,
			ClientID: cfg.Kafka.ClientID,
		}, ingest.NewEventHandler(app.ingestion))
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Kafka consumer")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runHTTPServer(gctx, cfg, app, registry) })
	g.Go(func() error { return runGRPCServer(gctx, cfg, app) })
	if poller != nil {
		g.Go(func() error { return poller.Start(gctx) })
	}
	if consumer != nil {
		g.Go(func() error { return consumer.Start(gctx) })
	}

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("Contacts service stopped with error")
	}
	logrus.Info("Contacts service stopped")
}

func newHTTPServer(cfg *config.Config, app *application, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))

	authMiddleware := middleware.NewAuthMiddleware(service.NewTokenValidator(cfg.JWTSecret))
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(service.NewInternalAPIKeyAuthenticator(cfg.InternalAPIKeyHash))

	contactsController := controller.NewContactsController(app.validation, app.ingestion)
	adminController := controller.NewAdminController(app.ingestion)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	contacts := e.Group("/contacts")
	contacts.POST("/validate", contactsController.Validate, authMiddleware.RequireAuth)

	internal := contacts.Group("/profiles")
	internal.Use(apiKeyMiddleware.RequireAPIKey)
	internal.POST("", contactsController.Consume)
	internal.POST("/remove", contactsController.Remove)

	admin := e.Group("/admin/index")
	admin.Use(apiKeyMiddleware.RequireAPIKey)
	admin.POST("/reset", adminController.Reset)
	admin.POST("/resync", adminController.Resync)
	admin.GET("/stats", adminController.Stats)
	admin.GET("/conflicts", adminController.Conflicts)

	return e
}

func runHTTPServer(ctx context.Context, cfg *config.Config, app *application, gatherer prometheus.Gatherer) error {
	e := newHTTPServer(cfg, app, gatherer)

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr()).Info("Starting HTTP server")
		if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logrus.Info("Stopping HTTP server")
	return e.Shutdown(shutdownCtx)
}

func runGRPCServer(ctx context.Context, cfg *config.Config, app *application) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return err
	}

	keys := service.NewInternalAPIKeyAuthenticator(cfg.InternalAPIKeyHash)
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(contactsgrpc.APIKeyUnaryInterceptor(keys)),
		grpc.StreamInterceptor(contactsgrpc.APIKeyStreamInterceptor(keys)),
	)
	contactsgrpc.RegisterContactServiceServer(grpcServer, contactsgrpc.NewContactServer(app.validation, app.ingestion, app.ingestion))

	go func() {
		<-ctx.Done()
		logrus.Info("Stopping gRPC server")
		grpcServer.GracefulStop()
	}()

	logrus.WithField("addr", cfg.GRPCAddr()).Info("Starting gRPC server")
	return grpcServer.Serve(lis)
}

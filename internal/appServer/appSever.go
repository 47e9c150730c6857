// launching the server, kafka producer and the conversion pipeline
package appServer

import (
	"context"
	"crypto/tls"
	"log"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/cartoonizer/config"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/kafka"
	"github.com/ds124wfegd/cartoonizer/internal/service"
	"github.com/ds124wfegd/cartoonizer/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SetupLogger switches logrus to JSON output at the configured level.
func SetupLogger(level string) {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// NewProducer returns the Kafka event producer, or a logging one when
// Kafka is disabled.
func NewProducer(cfg config.KafkaConfig) kafka.Producer {
	if !cfg.Enabled {
		return kafka.NewLogProducer(cfg.Topic)
	}
	return kafka.NewProducer(cfg.Brokers, cfg.Topic)
}

// NewConverter builds the five-style converter from the app settings.
func NewConverter(cfg config.AppConfig) *cartoon.Converter {
	return cartoon.NewConverter(
		cartoon.SeededRegistry(cfg.Seed),
		cartoon.WithParallel(cfg.Parallel),
		cartoon.WithLogger(logrus.WithField("component", "converter")),
	)
}

func Limits(cfg config.AppConfig) codec.Limits {
	return codec.Limits{
		MaxBytes:  cfg.MaxUploadBytes,
		MaxPixels: cfg.MaxPixels,
	}
}

func NewServer(cfg *config.Config) {

	SetupLogger(cfg.Log.Level)

	producer := NewProducer(cfg.Kafka)
	defer producer.Close()

	convService := service.NewConversionService(NewConverter(cfg.App), producer, Limits(cfg.App))
	convHandler := transport.NewConvertHandler(convService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(convHandler, transport.RouterConfig{
		TemplatesDir:   templatesDir(cfg.App.TemplatesDir),
		RequestTimeout: cfg.App.RequestTimeout,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
	})

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("port", cfg.Server.Port).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

// templatesDir drops the upload page when its directory is missing.
func templatesDir(dir string) string {
	if dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); err != nil {
		logrus.WithField("templates_dir", dir).Warn("Templates directory not found, upload page disabled")
		return ""
	}
	return dir
}

// Package server exposes the placement engine over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/ai"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/engine"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/model"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

const (
	appName       = "Placement AI API"
	sampleSize    = 20
	adviceTimeout = 30 * time.Second
)

// Engine is the subset of engine.Service served over HTTP.
type Engine interface {
	TrainModel(ctx context.Context) (string, error)
	PredictOpportunity(req engine.PredictRequest) (*model.Prediction, error)
	RecommendFromTrends(req engine.RecommendRequest) (*trends.Result, error)
	SampleData(n int) ([]dataset.Record, error)
}

type Config struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

type Server struct {
	app     *fiber.App
	engine  Engine
	advisor ai.Advisor
	logger  *zap.Logger
	listen  string
}

// New builds the fiber application. advisor may be nil.
func New(cfg Config, eng Engine, advisor ai.Advisor, log *zap.Logger) *Server {
	log = logger.WithFields(log)

	s := &Server{
		engine:  eng,
		advisor: advisor,
		logger:  log,
		listen:  cfg.Listen,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(accessLog(log))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": appName})
	})

	api := s.app.Group("/api")
	api.Post("/train-opportunity", s.handleTrain)
	api.Post("/predict-opportunity", s.handlePredict)
	api.Post("/recommend-from-trends", s.handleRecommend)
	api.Get("/sample-data", s.handleSample)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on the configured address until Shutdown.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", zap.String("listen", s.listen))
	return s.app.Listen(s.listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var schemaErr *dataset.SchemaError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, engine.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, dataset.ErrMissingResource), errors.Is(err, model.ErrMissingModel):
		return fiber.StatusNotFound
	case errors.As(err, &schemaErr), errors.Is(err, model.ErrEmptyDataset):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}

func accessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil && status >= fiber.StatusInternalServerError {
			log.Error("http request", append(fields, zap.Error(err))...)
		} else {
			log.Info("http request", fields...)
		}

		return err
	}
}

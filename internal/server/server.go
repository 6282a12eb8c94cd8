// Package server exposes the runner over HTTP for hosts that call out
// instead of embedding the adapter.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/lomavis"
	"github.com/lomavis/n8n-lomavis-go/internal/runner"
)

const requestIDHeader = "X-Request-ID"

type RunRequest struct {
	Items          []runner.Item `json:"items"`
	ContinueOnFail *bool         `json:"continueOnFail"`
}

type RunResponse struct {
	Items []runner.Output `json:"items"`
}

type ErrorResponse struct {
	Message string          `json:"message"`
	Kind    runner.Kind     `json:"kind,omitempty"`
	Item    *int            `json:"item,omitempty"`
	Partial []runner.Output `json:"partial,omitempty"`
}

type Server struct {
	run            *runner.Runner
	continueOnFail bool
	timeout        time.Duration
	log            *logrus.Entry
}

// New builds the bridge. continueOnFail is the default for requests that do
// not set it; timeout bounds one request (zero means none).
func New(run *runner.Runner, continueOnFail bool, timeout time.Duration, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{run: run, continueOnFail: continueOnFail, timeout: timeout, log: log}
}

// App returns a fiber app with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	app.Use(s.requestID)
	RegisterRoutes(app, s)
	return app
}

func RegisterRoutes(app *fiber.App, s *Server) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1 := app.Group("/api/v1")
	v1.Post("/:resource/:operation", s.RunHandler())
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set(requestIDHeader, id)
	return c.Next()
}

// RunHandler runs one operation over the posted items. Binary entries must be
// inline; local file paths are refused.
func (s *Server) RunHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := lomavis.Key{
			Resource:  lomavis.Resource(c.Params("resource")),
			Operation: lomavis.Operation(c.Params("operation")),
		}
		var body RunRequest
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "invalid body"})
		}
		opts := runner.Options{ContinueOnFail: s.continueOnFail}
		if body.ContinueOnFail != nil {
			opts.ContinueOnFail = *body.ContinueOnFail
		}

		ctx := c.UserContext()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		log := s.log.WithFields(logrus.Fields{"request_id": c.Locals("request_id"), "key": key.String()})
		out, err := s.run.Run(ctx, key, body.Items, opts)
		if err == nil {
			return c.JSON(RunResponse{Items: out})
		}

		if errors.Is(err, lomavis.ErrUnsupportedOperation) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Message: err.Error()})
		}
		resp := ErrorResponse{Message: err.Error(), Partial: out}
		status := fiber.StatusInternalServerError
		var itemErr *runner.ItemError
		if errors.As(err, &itemErr) {
			resp.Kind, resp.Item, resp.Message = itemErr.Kind, &itemErr.Index, itemErr.Err.Error()
			status = fiber.StatusUnprocessableEntity
			if itemErr.Kind == runner.KindAPI {
				status = fiber.StatusBadGateway
			}
		}
		log.WithError(err).WithField("status", status).Warn("run failed")
		return c.Status(status).JSON(resp)
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{Message: err.Error()})
}

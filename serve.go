// serve.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/buffos/go-bitfield/bitfield"
)

const (
	bodyLimit       = "2M"
	shutdownTimeout = 10 * time.Second

	// per-request render limits
	maxRenderBits   = 1 << 14
	maxRenderLanes  = 512
	maxRenderFields = 4096
	maxCanvasWidth  = 4096
	maxCanvasHeight = 8192
)

// renderRequest is the body of POST /api/render. Config is decoded over the
// defaults, so it only needs the values that differ.
type renderRequest struct {
	Fields []bitfield.Field `json:"fields"`
	Config json.RawMessage  `json:"config,omitempty"`
	Format string           `json:"format,omitempty"`
}

// handler serves the render API.
type handler struct {
	log *zap.Logger
}

// newServer wires routes and middleware.
func newServer(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	h := &handler{log: log}
	api := e.Group("/api")
	api.GET("/health", h.HandleHealth)
	api.POST("/render", h.HandleRender)
	api.POST("/beautify", h.HandleBeautify)
	return e
}

// HandleHealth reports liveness.
func (h *handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

// HandleRender renders a diagram as SVG or PNG.
func (h *handler) HandleRender(c echo.Context) error {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := validateFields(req.Fields); err != nil {
		return NewValidationError("fields", err)
	}

	cfg := bitfield.DefaultConfig()
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return NewValidationError("config", err)
		}
	}

	if err := checkRenderLimits(req.Fields, cfg); err != nil {
		return err
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = "svg"
	}
	if format != "svg" && format != "png" {
		return NewValidationError("format", fmt.Errorf("unsupported format '%s' (want svg or png)", req.Format))
	}

	svg, err := bitfield.Render(req.Fields, cfg)
	if err != nil {
		return renderError(err)
	}
	h.log.Debug("rendered diagram",
		zap.Int("fields", len(req.Fields)),
		zap.Int("bytes", len(svg)),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))

	if format == "svg" {
		return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
	}
	img, err := rasterizeNative(svg)
	if err != nil {
		return NewInternalError("rasterizing failed", err)
	}
	var buf bytes.Buffer
	if err := encodeImage(&buf, img, format); err != nil {
		return NewInternalError("encoding failed", err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// checkRenderLimits rejects requests whose render cost is out of bounds.
func checkRenderLimits(fields []bitfield.Field, cfg bitfield.Config) *APIError {
	if len(fields) > maxRenderFields {
		return NewValidationError("fields", fmt.Errorf("at most %d fields, got %d", maxRenderFields, len(fields)))
	}
	total := 0
	for i, f := range fields {
		if f.Width > maxRenderBits-total {
			return NewValidationError("fields", fmt.Errorf("field %d: total width exceeds %d bits", i, maxRenderBits))
		}
		total += f.Width
	}
	switch {
	case cfg.Bits != nil && *cfg.Bits > maxRenderBits:
		return NewValidationError("config.bits", fmt.Errorf("must be <= %d, got %d", maxRenderBits, *cfg.Bits))
	case cfg.Lanes > maxRenderLanes:
		return NewValidationError("config.lanes", fmt.Errorf("must be <= %d, got %d", maxRenderLanes, cfg.Lanes))
	case cfg.CanvasWidth > maxCanvasWidth:
		return NewValidationError("config.canvas_width", fmt.Errorf("must be <= %d, got %v", maxCanvasWidth, cfg.CanvasWidth))
	case float64(cfg.Lanes)*cfg.RowHeight > maxCanvasHeight:
		return NewValidationError("config.row_height", fmt.Errorf("lanes x row_height must be <= %d", maxCanvasHeight))
	}
	return nil
}

// HandleBeautify re-indents the SVG sent as the request body.
func (h *handler) HandleBeautify(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return NewValidationError("body", errors.New("empty document"))
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(bitfield.Beautify(string(body))))
}

// runServe implements the serve subcommand.
func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	verbose := fs.Bool("v", false, "Verbose (debug) logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := newLogger(*verbose)
	defer log.Sync() //nolint:errcheck
	bitfield.SetLogger(log.Named("bitfield"))

	e := newServer(log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", *addr), zap.String("version", Version))
		errc <- e.Start(*addr)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
			return 1
		}
	}
	return 0
}

// Package api serves model inspection over HTTP.
package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/nnetio/internal/kio"
	"github.com/samcharles93/nnetio/internal/logger"
	"github.com/samcharles93/nnetio/internal/metrics"
	"github.com/samcharles93/nnetio/internal/nnet"
)

const defaultMaxBodyBytes = 256 << 20

// Config configures a Server. The zero value is usable.
type Config struct {
	// MaxLayers bounds the affine layers accepted per model. Zero keeps the
	// decoder default.
	MaxLayers int
	// MaxBodyBytes bounds the request body. Zero selects 256 MiB.
	MaxBodyBytes int64
	Store        *InspectionStore
	Logger       logger.Logger
}

// Server decodes uploaded model files and keeps their summaries.
type Server struct {
	store   *InspectionStore
	log     logger.Logger
	opts    []nnet.Option
	maxBody int64
	clock   func() time.Time
	newID   func() string
}

// NewServer fills unset Config fields with defaults.
func NewServer(cfg Config) *Server {
	s := &Server{
		store:   cfg.Store,
		log:     cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	if s.store == nil {
		s.store = NewInspectionStore(0)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	s.opts = append(s.opts, nnet.WithLogger(s.log))
	if cfg.MaxLayers > 0 {
		s.opts = append(s.opts, nnet.WithMaxLayers(cfg.MaxLayers))
	}
	return s
}

// Register mounts the inspect, health and metrics routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/nnet/inspect", s.handleInspect)
	e.GET("/v1/nnet/inspect/:id", s.handleGetInspection)
	e.DELETE("/v1/nnet/inspect/:id", s.handleDeleteInspection)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *Server) handleInspect(c *echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.maxBody+1))
	if err != nil {
		return writeError(c, http.StatusBadRequest, "io", fmt.Sprintf("read body: %v", err))
	}
	if int64(len(body)) > s.maxBody {
		return writeError(c, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("model exceeds %d bytes", s.maxBody))
	}
	if len(body) == 0 {
		return writeError(c, http.StatusBadRequest, "invalid_request", "empty body")
	}

	start := s.clock()
	m, err := nnet.Load(bytes.NewReader(body), s.opts...)
	if err != nil {
		metrics.ObserveLoad(metrics.Mode(kio.IsBinary(body)), 0, s.clock().Sub(start), err)
		s.log.Debug("inspect rejected", "bytes", len(body), "error", err)
		return writeLoadError(c, http.StatusBadRequest, err)
	}

	metrics.ObserveLoad(metrics.Mode(m.Binary), m.NumLayers(), s.clock().Sub(start), nil)

	rec := s.store.Put(s.newID(), len(body), m.Summarize(), s.clock())
	s.log.Info("inspected model", "id", rec.ID, "layers", m.NumLayers(), "binary", m.Binary)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetInspection(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeError(c, http.StatusNotFound, "not_found", "inspection not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteInspection(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeError(c, http.StatusNotFound, "not_found", "inspection not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Package server exposes the bridge over HTTP. Runs stream their protocol
// events back as server-sent events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/agentwire/agentwire/pkg/agui"
	"github.com/agentwire/agentwire/pkg/runstate"
	"github.com/agentwire/agentwire/pkg/runtime"
	"github.com/agentwire/agentwire/pkg/version"
)

type Server struct {
	e     *echo.Echo
	rt    *runtime.Runtime
	store *runstate.Store
	enc   agui.Encoder
}

func New(rt *runtime.Runtime, store *runstate.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())

	s := &Server{
		e:     e,
		rt:    rt,
		store: store,
	}

	// Service info
	e.GET("/", s.getInfo)
	// Health check endpoint
	e.GET("/ping", s.ping)
	// Start a run, streaming its events
	e.POST("/stream", s.runStream)
	// Continue a paused run with tool results, streaming its events
	e.POST("/continue", s.continueRun)
	// Inspect the retained state of an in-flight run
	e.GET("/runs/:thread_id/:run_id", s.getRunState)

	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := http.Server{
		Handler: s.e,
	}

	if err := srv.Serve(ln); err != nil && ctx.Err() == nil {
		slog.Error("Failed to start server", "error", err)
		return err
	}

	return nil
}

func (s *Server) getInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "agentwire",
		"version": version.Version,
		"endpoints": map[string]string{
			"stream":   "POST /stream",
			"continue": "POST /continue",
			"runs":     "GET /runs/:thread_id/:run_id",
			"ping":     "GET /ping",
		},
	})
}

func (s *Server) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runStream(c echo.Context) error {
	var input agui.RunAgentInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if input.ThreadID == "" || input.RunID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "threadId and runId are required")
	}

	slog.Debug("Starting run stream",
		"thread_id", input.ThreadID, "run_id", input.RunID,
		"message_count", len(input.Messages), "tool_count", len(input.Tools))

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	return s.streamEvents(c, cancel, s.rt.RunStream(ctx, input))
}

func (s *Server) continueRun(c echo.Context) error {
	var input agui.ContinueRunInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if input.ThreadID == "" || input.RunID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "threadId and runId are required")
	}
	if len(input.ToolResults) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "toolResults is required")
	}

	slog.Debug("Continuing run stream",
		"thread_id", input.ThreadID, "run_id", input.RunID,
		"result_count", len(input.ToolResults))

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	return s.streamEvents(c, cancel, s.rt.ResumeStream(ctx, input.ThreadID, input.RunID, input.ToolResults))
}

// streamEvents writes each event as an SSE frame as it arrives. On a write
// failure the run context is cancelled and the channel drained so the
// producing goroutine does not leak.
func (s *Server) streamEvents(c echo.Context, cancel context.CancelFunc, events <-chan agui.Event) error {
	h := c.Response().Header()
	h.Set("Content-Type", s.enc.ContentType())
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	for event := range events {
		frame, err := s.enc.Encode(event)
		if err != nil {
			slog.Error("Failed to encode event", "type", event.Type(), "error", err)
			cancel()
			drain(events)
			return err
		}
		if _, err := c.Response().Write(frame); err != nil {
			slog.Warn("Client disconnected during stream", "error", err)
			cancel()
			drain(events)
			return nil
		}
		c.Response().Flush()
	}

	return nil
}

func drain(events <-chan agui.Event) {
	for range events {
	}
}

func (s *Server) getRunState(c echo.Context) error {
	threadID := c.Param("thread_id")
	runID := c.Param("run_id")

	// Only the published snapshot is read here; the live state belongs to
	// the run's goroutine.
	status, ok := s.store.Status(threadID, runID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no active run")
	}

	pending := make([]map[string]string, 0, len(status.PendingTools))
	for _, tc := range status.PendingTools {
		pending = append(pending, map[string]string{
			"id":   tc.ID,
			"name": tc.Name,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"thread_id":          status.ThreadID,
		"run_id":             status.RunID,
		"waiting_for_tools":  status.WaitingForTools,
		"pending_tools":      pending,
		"tool_results_count": status.ToolResultCount,
	})
}

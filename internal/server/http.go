// Package server exposes the interpreter over HTTP and gRPC.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
)

// Interpreter is the pipeline entry point the servers call.
type Interpreter interface {
	Interpret(ctx context.Context, req pipeline.Request) (*entity.Order, error)
}

// InterpretRequest is the POST /interpretar body.
type InterpretRequest struct {
	Text     *string `json:"texto_libre"`
	Channel  string  `json:"canal"`
	UseModel *bool   `json:"usar_modelo"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type RouterConfig struct {
	WebDir   string
	Gatherer prometheus.Gatherer // nil serves the default registry
}

// HTTPHandler serves the JSON API.
type HTTPHandler struct {
	proc   Interpreter
	logger *slog.Logger
}

func NewHTTPHandler(proc Interpreter, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{proc: proc, logger: logger}
}

// NewRouter wires the API routes, metrics and the static web UI.
func NewRouter(h *HTTPHandler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), RequestLogger(h.logger))

	r.POST("/interpretar", h.Interpret)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metricsHandler := promhttp.Handler()
	if cfg.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	static := staticHandler(cfg.WebDir, h.logger)
	r.NoRoute(func(c *gin.Context) {
		if static == nil || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, errorResponse{Detail: "Not Found"})
			return
		}
		static.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

// Instrument wraps h so every request runs inside a server span named after
// its method and path. A nil tp means the otel global provider.
func Instrument(h http.Handler, tp trace.TracerProvider) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	return otelhttp.NewHandler(h, "pedidos.http", opts...)
}

func staticHandler(dir string, logger *slog.Logger) http.Handler {
	if dir == "" {
		return nil
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		logger.Warn("server.http.web_dir_missing", "dir", dir)
		return nil
	}
	return http.FileServer(http.Dir(dir))
}

// Interpret handles POST /interpretar.
func (h *HTTPHandler) Interpret(c *gin.Context) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: "cuerpo inválido: " + err.Error()})
		return
	}
	if req.Text == nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: "texto_libre es obligatorio"})
		return
	}

	out, err := h.proc.Interpret(c.Request.Context(), pipeline.Request{
		Text:     *req.Text,
		Channel:  req.Channel,
		UseModel: req.UseModel,
	})
	if err != nil {
		status, detail := httpError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("server.http.interpret_failed", "req_id", c.GetString(RequestIDKey), "error", err)
		}
		c.JSON(status, errorResponse{Detail: detail})
		return
	}
	c.JSON(http.StatusOK, out)
}

func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrEmptyText):
		return http.StatusBadRequest, common.ErrEmptyText.Error()
	case common.IsClientError(err):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "error interno"
	}
}

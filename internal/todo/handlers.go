package todo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"todo_api/internal/metrics"
)

const (
	notFoundMessage     = "Todo not found"
	unknownErrorMessage = "An unknown error occurred"
	maxBodyBytes        = 1 << 20
)

type Options struct {
	// MountPath 为 todo 路由的挂载前缀，"/" 表示挂载在根路径
	MountPath      string
	GatewayTimeout time.Duration
	Metrics        *metrics.Metrics
}

type Handler struct {
	gateway   Gateway
	pinger    Pinger
	logger    *log.Logger
	metrics   *metrics.Metrics
	mountPath string
	timeout   time.Duration
}

// NewHandler builds the todo handler set over gateway. Every gateway call is
// bounded by opts.GatewayTimeout and recorded in opts.Metrics.
func NewHandler(gateway Gateway, logger *log.Logger, opts Options) *Handler {
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	timeout := opts.GatewayTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	mountPath := opts.MountPath
	if mountPath == "" {
		mountPath = "/"
	}

	pinger, _ := gateway.(Pinger)
	return &Handler{
		gateway:   Instrument(gateway, m),
		pinger:    pinger,
		logger:    logger,
		metrics:   m,
		mountPath: mountPath,
		timeout:   timeout,
	}
}

func (h *Handler) Routes() http.Handler {
	// 注册路由与中间件
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  h.logger.StandardLog(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	if h.mountPath == "/" {
		h.todoRoutes(r)
	} else {
		r.Route(h.mountPath, h.todoRoutes)
	}

	return r
}

func (h *Handler) todoRoutes(r chi.Router) {
	r.Get("/", h.handleListTodos)
	r.Post("/", h.handleCreateTodo)
	r.Get("/{id}", h.handleGetTodo)
	r.Put("/{id}", h.handleUpdateTodo)
	r.Delete("/{id}", h.handleDeleteTodo)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	// 健康检查，网关支持 Ping 时一并检查后端连通性
	if h.pinger != nil {
		ctx, cancel := h.gatewayContext(r)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "err", err)
			h.writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.gatewayContext(r)
	defer cancel()

	todos, err := h.gateway.FindAll(ctx)
	if err != nil {
		h.writeFailure(w, "list", err)
		return
	}
	h.writeJSON(w, http.StatusOK, todos)
}

func (h *Handler) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := readIDParam(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, notFoundMessage)
		return
	}

	ctx, cancel := h.gatewayContext(r)
	defer cancel()

	todo, err := h.gateway.FindByID(ctx, id)
	if err != nil {
		h.writeFailure(w, "get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, todo)
}

func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	body, err := h.decodeJSON(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidate, err := ValidateTodo(body)
	if err != nil {
		h.writeFailure(w, "create", err)
		return
	}

	ctx, cancel := h.gatewayContext(r)
	defer cancel()

	created, err := h.gateway.Insert(ctx, candidate)
	if err != nil {
		h.writeFailure(w, "create", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	// 更新资源（只修改提供的字段）
	id, ok := readIDParam(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, notFoundMessage)
		return
	}

	body, err := h.decodeJSON(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := ValidatePatch(body)
	if err != nil {
		h.writeFailure(w, "update", err)
		return
	}

	ctx, cancel := h.gatewayContext(r)
	defer cancel()

	todo, err := h.gateway.FindByIDAndUpdate(ctx, id, patch)
	if err != nil {
		h.writeFailure(w, "update", err)
		return
	}
	h.writeJSON(w, http.StatusOK, todo)
}

func (h *Handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := readIDParam(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, notFoundMessage)
		return
	}

	ctx, cancel := h.gatewayContext(r)
	defer cancel()

	deleted, err := h.gateway.FindByIDAndDelete(ctx, id)
	if err != nil {
		h.writeFailure(w, "delete", err)
		return
	}
	h.writeJSON(w, http.StatusOK, deleted)
}

func (h *Handler) gatewayContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// writeFailure maps a failure to exactly one response: ErrNotFound is 404, a
// ValidationError is 400 and anything else is 500.
func (h *Handler) writeFailure(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, notFoundMessage)
	case errors.As(err, &ve):
		h.writeError(w, http.StatusBadRequest, ve.Error())
	default:
		h.logger.Error("todo operation failed", "op", op, "err", err)
		h.writeError(w, http.StatusInternalServerError, failureMessage(err))
	}
}

func failureMessage(err error) string {
	if err == nil || err.Error() == "" {
		return unknownErrorMessage
	}
	return err.Error()
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	// 限制请求体大小，要求恰好一个 JSON 对象
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body must not be empty")
		}
		return nil, err
	}
	if body == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("body must contain a single JSON object")
	}
	return body, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	// 统一 JSON 响应输出
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode error", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

// readIDParam 解析路径中的 id，非 UUID 不可能命中任何记录
func readIDParam(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

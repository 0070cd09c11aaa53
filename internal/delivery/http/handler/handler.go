package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/delivery/http/request"
	"github.com/user/url-frontier/internal/delivery/http/response"
	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/internal/usecase"
)

// Frontier is the part of the frontier exposed over HTTP.
type Frontier interface {
	Add(ctx context.Context, rawURL, priority string, meta json.RawMessage) error
	Get(ctx context.Context) (entity.Item, bool, error)
	Heap(ctx context.Context, cursor uint64, count int64) ([]entity.HeapEntry, uint64, error)
	Backend(ctx context.Context, host string, start, stop int64) ([]entity.Item, error)
	HostnameURLCount(ctx context.Context, host string) (int64, bool, error)
	IntakeLen(ctx context.Context, tier string) (int64, error)
	Ping(ctx context.Context) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WorkerPool resizes the in-process promotion workers.
type WorkerPool interface {
	Resize(n int) int
}

type Handler struct {
	frontier   Frontier
	politeness usecase.Politeness
	pool       WorkerPool
	database   Pinger
	logger     *zap.Logger
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithDatabase adds the crawl delay database to the health check.
func WithDatabase(db Pinger) Option {
	return func(h *Handler) { h.database = db }
}

func NewHandler(f Frontier, politeness usecase.Politeness, pool WorkerPool, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		frontier:   f,
		politeness: politeness,
		pool:       pool,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req request.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.frontier.Add(r.Context(), req.URL, req.Priority, req.Meta)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response.Status{Status: response.StatusOK})
	case errors.Is(err, frontier.ErrInvalidPriority),
		errors.Is(err, frontier.ErrInvalidURL),
		errors.Is(err, frontier.ErrInvalidMeta):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("failed to add url", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, ok, err := h.frontier.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get next url", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	resp := response.Get{Status: response.StatusOK}
	if ok {
		resp.Data = &item
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleSetDelay(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	var req request.DelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delay == nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	delay, err := frontier.DelayFromMillis(*req.Delay)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = h.politeness.SetDelay(r.Context(), host, delay)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response.Status{Status: response.StatusOK})
	case errors.Is(err, frontier.ErrInvalidDelay), errors.Is(err, frontier.ErrInvalidURL):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("failed to set crawl delay", zap.String("host", host), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleClearDelay(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	err := h.politeness.ClearDelay(r.Context(), host)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response.Status{Status: response.StatusOK})
	case errors.Is(err, frontier.ErrInvalidURL):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("failed to clear crawl delay", zap.String("host", host), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	priority := chi.URLParam(r, "priority")
	n, err := h.frontier.IntakeLen(r.Context(), priority)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response.Intake{Status: response.StatusOK, Priority: priority, Length: n})
	case errors.Is(err, frontier.ErrInvalidPriority):
		h.writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("failed to read intake length", zap.String("priority", priority), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleHeap(w http.ResponseWriter, r *http.Request) {
	cursor, err := queryUint(r, "cursor", 0)
	if err != nil {
		h.writeJSONError(w, "Invalid cursor", http.StatusBadRequest)
		return
	}
	count, err := queryInt(r, "count", 10)
	if err != nil || count <= 0 {
		h.writeJSONError(w, "Invalid count", http.StatusBadRequest)
		return
	}

	entries, next, err := h.frontier.Heap(r.Context(), cursor, count)
	if err != nil {
		h.logger.Error("failed to scan heap", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []entity.HeapEntry{}
	}
	h.writeJSON(w, http.StatusOK, response.Heap{Status: response.StatusOK, Data: entries, Cursor: next})
}

func (h *Handler) HandleBackend(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	start, err := queryInt(r, "start", 0)
	if err != nil {
		h.writeJSONError(w, "Invalid start", http.StatusBadRequest)
		return
	}
	stop, err := queryInt(r, "stop", -1)
	if err != nil {
		h.writeJSONError(w, "Invalid stop", http.StatusBadRequest)
		return
	}

	items, err := h.frontier.Backend(r.Context(), host, start, stop)
	if err != nil {
		h.logger.Error("failed to read backend queue", zap.String("host", host), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.Backend{Status: response.StatusOK, Data: items})
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	n, ok, err := h.frontier.HostnameURLCount(r.Context(), host)
	if err != nil {
		h.logger.Error("failed to read host count", zap.String("host", host), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	resp := response.Count{Status: response.StatusOK}
	if ok {
		resp.Count = &n
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleWorkers(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		h.writeJSONError(w, "No worker pool in this process", http.StatusServiceUnavailable)
		return
	}
	var req request.WorkersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Workers == nil || *req.Workers < 0 {
		h.writeJSONError(w, "workers must be a non-negative integer", http.StatusBadRequest)
		return
	}
	active := h.pool.Resize(*req.Workers)
	h.writeJSON(w, http.StatusOK, response.Workers{Status: response.StatusOK, ActiveWorkers: active})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"store": "healthy"}
	if err := h.frontier.Ping(ctx); err != nil {
		h.logger.Error("health check failed for store", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["store"] = "unhealthy"
	}
	if h.database != nil {
		body["database"] = "healthy"
		if err := h.database.Ping(ctx); err != nil {
			h.logger.Error("health check failed for database", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["database"] = "unhealthy"
		}
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSONError(w, "Not found", http.StatusNotFound)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.Status{Status: response.StatusError, Error: message})
}

func queryInt(r *http.Request, name string, fallback int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func queryUint(r *http.Request, name string, fallback uint64) (uint64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

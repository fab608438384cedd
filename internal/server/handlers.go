package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"/healthz"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResolveHandler serves GET /v1/resolve?reference=...&source=...&format=...
//
// The body is the rendered resolution; format defaults to json.
type ResolveHandler struct {
	resolver tasks.PlaylistResolver
	logger   *log.Logger
}

// NewResolveHandler creates a [ResolveHandler] backed by resolver.
func NewResolveHandler(resolver tasks.PlaylistResolver, logger *log.Logger) *ResolveHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ResolveHandler{resolver: resolver, logger: logger}
}

func (h *ResolveHandler) Routes() []string { return []string{"/v1/resolve"} }

func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	reference := strings.TrimSpace(q.Get("reference"))
	if reference == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reference is required"})
		return
	}

	source, err := models.ParseSource(q.Get("source"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	format := formatter.FormatJSON
	if f := q.Get("format"); f != "" {
		if format, err = formatter.ParseFormat(f); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
	}

	var res *models.PlaylistResolution
	if source == models.SourceUnknown {
		res, err = h.resolver.Resolve(r.Context(), reference)
	} else {
		res, err = h.resolver.ResolveAs(r.Context(), source, reference)
	}
	if err != nil {
		h.logger.Warn("resolve request failed", "reference", reference, "error", err,
			"request_id", r.Header.Get(RequestIDHeader))
		body := errorBody{Error: tasks.UserMessage(err)}
		if kind := services.KindOf(err); kind != services.KindUnknown {
			body.Kind = kind.String()
		}
		writeJSON(w, StatusFor(err), body)
		return
	}

	data, err := formatter.Render(res, format)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// StatusFor maps a resolution error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnsupportedReference):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var apiErr *services.APIResponseError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}

	if services.KindOf(err) != services.KindUnknown {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func contentType(format string) string {
	switch format {
	case formatter.FormatJSON:
		return "application/json"
	case formatter.FormatCSV:
		return "text/csv; charset=utf-8"
	case formatter.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

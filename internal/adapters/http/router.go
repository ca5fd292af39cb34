package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/routers"

	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/ports"
)

const serviceName = "notewise-api"

// HTTPMetrics is the slice of the Prometheus server metrics the router uses.
type HTTPMetrics interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
	StreamOpened()
	StreamClosed()
}

type Router struct {
	notes    ports.NoteService
	state    ports.RequestStateReader
	bulk     ports.BulkRecategorizer
	exporter ports.NoteExporter

	apiKey                  string
	rateLimitRPS            float64
	rateLimitBurst          int
	backpressureMaxInFlight int
	backpressureWait        time.Duration
	validator               routers.Router
	mcpEnabled              bool

	metrics       HTTPMetrics
	healthDetails func() map[string]string
}

type RouterOption func(*Router)

func WithMetrics(metrics HTTPMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = metrics
	}
}

// WithHealthDetails adds extra key/value pairs to the /healthz payload.
func WithHealthDetails(details func() map[string]string) RouterOption {
	return func(rt *Router) {
		rt.healthDetails = details
	}
}

// NewRouter wires the note API. bulk may be nil when no work queue is
// configured; bulk recategorization then answers 503.
func NewRouter(
	cfg config.Config,
	notes ports.NoteService,
	state ports.RequestStateReader,
	bulk ports.BulkRecategorizer,
	exporter ports.NoteExporter,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		notes:                   notes,
		state:                   state,
		bulk:                    bulk,
		exporter:                exporter,
		apiKey:                  cfg.APIKey,
		rateLimitRPS:            cfg.APIRateLimitRPS,
		rateLimitBurst:          cfg.APIRateLimitBurst,
		backpressureMaxInFlight: cfg.APIBackpressureMaxFlight,
		backpressureWait:        time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
		mcpEnabled:              cfg.MCPEnabled,
	}
	if cfg.APIRequestValidation {
		rt.validator = mustLoadOpenAPIRouter()
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/notes", rt.listNotes)
	mux.HandleFunc("POST /v1/notes", rt.createNote)
	mux.HandleFunc("GET /v1/notes/stream", rt.streamNotes)
	mux.HandleFunc("GET /v1/notes/export.xlsx", rt.exportNotes)
	mux.HandleFunc("POST /v1/notes/recategorize", rt.recategorizeAll)
	mux.HandleFunc("GET /v1/notes/{id}", rt.getNote)
	mux.HandleFunc("PUT /v1/notes/{id}", rt.updateNote)
	mux.HandleFunc("DELETE /v1/notes/{id}", rt.deleteNote)
	mux.HandleFunc("POST /v1/notes/{id}/bookmark", rt.toggleBookmark)
	mux.HandleFunc("POST /v1/notes/{id}/recategorize", rt.recategorizeNote)
	mux.HandleFunc("GET /v1/categorization/state", rt.categorizationState)
	mux.HandleFunc("GET /v1/categories", rt.listCategories)
	if rt.mcpEnabled {
		mux.Handle("/mcp", newMCPHandler(rt.notes))
	}
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	handler := routeRecorder(mux)
	if rt.validator != nil {
		handler = requestValidationMiddleware(rt.validator, handler)
	}
	handler = bearerAuthMiddleware(rt.apiKey, handler)

	limited := backpressureMiddleware(handler, rt.backpressureMaxInFlight, rt.backpressureWait)
	handler = skipLongLived(limited, handler)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)

	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

// skipLongLived routes streaming requests around the backpressure gate so an
// open stream does not hold a request slot.
func skipLongLived(gated, direct http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/notes/stream" || r.URL.Path == "/mcp" {
			direct.ServeHTTP(w, r)
			return
		}
		gated.ServeHTTP(w, r)
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]string{"status": "ok"}
	if rt.healthDetails != nil {
		for k, v := range rt.healthDetails() {
			payload[k] = v
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

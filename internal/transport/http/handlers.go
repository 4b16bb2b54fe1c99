// @title CRM Backend API
// @version 1.0.0
// @description Customer records for a minimal CRM

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /

package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/crmd/crmd/internal/customer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// CustomerService is the business layer the handlers delegate to
type CustomerService interface {
	Create(ctx context.Context, in customer.CreateInput) (*customer.Customer, error)
	List(ctx context.Context) ([]*customer.Customer, error)
	Get(ctx context.Context, id int64) (*customer.Customer, error)
	UpdateStatus(ctx context.Context, id int64, in customer.UpdateStatusInput) (*customer.Customer, error)
	Delete(ctx context.Context, id int64) (*customer.Customer, error)
}

// Store provides per-request database sessions and liveness
type Store interface {
	OpenSession(ctx context.Context) (context.Context, io.Closer, error)
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	customerService CustomerService
	store           Store
}

// NewHandler creates a new HTTP handler. store may be nil, in which case
// requests run without a scoped session.
func NewHandler(customerService CustomerService, store Store) *Handler {
	return &Handler{
		customerService: customerService,
		store:           store,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, cors CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(CORSMiddleware(cors))
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)

	// Mounting serves both /customers and /customers/.
	r.Route("/customers", func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Put("/status", h.UpdateCustomerStatus)
		})
	})

	return r
}

// Root reports that the service is running
// @Summary Service banner
// @Tags System
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, MessageResponse{Message: "CRM Backend is running"})
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service and its database are reachable
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "crmd",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crmd",
	})
}

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply. Detail is a string or a
// list of field errors.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, detail any) {
	respondJSON(w, status, ErrorResponse{Detail: detail})
}

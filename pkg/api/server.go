package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/httputil"
	"github.com/platinummonkey/selfservice/pkg/observability"
)

// BasePath is the prefix of every dashboard API route
const BasePath = "/dashboard/api"

// IdpEntityIDHeader names the identity provider a request acts for
const IdpEntityIDHeader = "X-IDP-ENTITY-ID"

const maxRequestBody = 64 << 10

// Aggregator is the catalog and workflow core behind the API
type Aggregator interface {
	GetServicesForIdp(ctx context.Context, idpEntityID, locale string) ([]domain.Service, error)
	GetServiceForIdp(ctx context.Context, idpEntityID string, serviceID int64, locale string) (*domain.Service, error)
	ServiceUsedBy(spEntityID string) []domain.InstitutionIdentityProvider
	GetTaxonomy(ctx context.Context) (*domain.Taxonomy, error)
	CreateAction(ctx context.Context, action *domain.Action) (*domain.Action, error)
}

// ActionFinder lists the workflow requests of an identity provider
type ActionFinder interface {
	FindByIdp(ctx context.Context, idpEntityID string) ([]*domain.Action, error)
}

// Options configures a Server. Institutions, Metrics and RequestTimeout are optional.
type Options struct {
	Aggregator     Aggregator
	Actions        ActionFinder
	Users          UserResolver
	Institutions   InstitutionDirectory
	Logger         *observability.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// Server represents the dashboard API server
type Server struct {
	router       *mux.Router
	aggregator   Aggregator
	actions      ActionFinder
	users        UserResolver
	institutions InstitutionDirectory
}

// NewServer creates the API server and registers its routes
func NewServer(opts Options) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		aggregator:   opts.Aggregator,
		actions:      opts.Actions,
		users:        opts.Users,
		institutions: opts.Institutions,
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.TracingMiddleware,
		httputil.MaxBytesMiddleware(maxRequestBody),
	)
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	if opts.RequestTimeout > 0 {
		s.router.Use(httputil.TimeoutMiddleware(opts.RequestTimeout))
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix(BasePath).Subrouter()

	// Services
	api.HandleFunc("/services", s.listServices).Methods("GET")
	api.HandleFunc("/services/idps", s.connectedIdps).Methods("GET")
	api.HandleFunc("/services/download", s.downloadServices).Methods("GET")
	api.HandleFunc("/services/id/{id:[0-9]+}", s.getService).Methods("GET")
	api.HandleFunc("/services/id/{id:[0-9]+}/connect", s.connect).Methods("POST")
	api.HandleFunc("/services/id/{id:[0-9]+}/disconnect", s.disconnect).Methods("POST")

	// Taxonomy and workflow history
	api.HandleFunc("/facets", s.listFacets).Methods("GET")
	api.HandleFunc("/actions", s.listActions).Methods("GET")

	// Current user
	api.HandleFunc("/users/me/idps", s.listInstitutionIdps).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requireIdp reads the identity provider header and writes 400 when it is missing
func requireIdp(w http.ResponseWriter, r *http.Request) (string, bool) {
	idp := r.Header.Get(IdpEntityIDHeader)
	if !httputil.RequireNonEmpty(w, idp, IdpEntityIDHeader) {
		return "", false
	}
	return idp, true
}

// logFor returns the request logger carrying the identity provider and the trace of the request
func logFor(r *http.Request, idp string) *observability.Logger {
	ctx := r.Context()
	if idp != "" {
		ctx = observability.WithIdentityProvider(ctx, idp)
	}
	return observability.UpdateLoggerWithTraceContext(ctx, observability.FromContext(ctx))
}

package csa

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/observability"
)

// Aggregation operation names, used as metric and span labels
const (
	OpServicesForIdp = "services_for_idp"
	OpServiceForIdp  = "service_for_idp"
	OpTaxonomy       = "taxonomy"
)

// Aggregator builds the per identity provider service view and creates workflow requests
type Aggregator struct {
	deps     Dependencies
	cfg      Config
	logger   *logrus.Logger
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates an Aggregator
func New(deps Dependencies, cfg Config) *Aggregator {
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = DefaultLocale
	}
	if cfg.Hostname == "" {
		cfg.Hostname = hostname()
	}
	a := &Aggregator{
		deps:     deps,
		cfg:      cfg,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		tracer:   observability.Tracer(),
		now:      cfg.Now,
	}
	if a.logger == nil {
		a.logger = logrus.StandardLogger()
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "UNKNOWN"
	}
	return host
}

// GetServicesForIdp returns every service visible to the identity provider, annotated for it,
// in catalog order
func (a *Aggregator) GetServicesForIdp(ctx context.Context, idpEntityID, locale string) ([]domain.Service, error) {
	ctx, span := a.startSpan(ctx, OpServicesForIdp, attribute.String("idp", idpEntityID))
	defer span.End()

	start := time.Now()
	services, err := a.servicesForIdp(ctx, idpEntityID, locale, true)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	a.observer.ObserveAggregation(OpServicesForIdp, time.Since(start), len(services))
	span.SetAttributes(attribute.Int("services", len(services)))
	return services, nil
}

// GetServiceForIdp returns a single visible service by id
func (a *Aggregator) GetServiceForIdp(ctx context.Context, idpEntityID string, serviceID int64, locale string) (*domain.Service, error) {
	ctx, span := a.startSpan(ctx, OpServiceForIdp,
		attribute.String("idp", idpEntityID), attribute.Int64("service_id", serviceID))
	defer span.End()

	start := time.Now()
	services, err := a.servicesForIdp(ctx, idpEntityID, locale, true)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	for i := range services {
		if services[i].ID == serviceID {
			a.observer.ObserveAggregation(OpServiceForIdp, time.Since(start), 1)
			return &services[i], nil
		}
	}

	err = domain.UnknownService(serviceID)
	recordError(span, err)
	return nil, err
}

// servicesForIdp is the aggregation pipeline. With includeNotLinked false only services
// available to end users and connected to the identity provider are returned.
func (a *Aggregator) servicesForIdp(ctx context.Context, idpEntityID, locale string, includeNotLinked bool) ([]domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idp, ok := a.deps.Directory.GetIdentityProvider(idpEntityID)
	if !ok {
		return nil, domain.UnknownIdentityProvider(idpEntityID)
	}

	connected := a.deps.Connectivity.GetServiceProviderIdentifiers(idpEntityID)
	catalog := a.deps.Catalog.GetAllServices(a.locale(locale))

	result := make([]domain.Service, 0, len(catalog))
	for _, svc := range catalog {
		_, isConnected := connected[svc.SpEntityID]
		if !(includeNotLinked && showForInstitution(svc, idp)) && !(svc.AvailableForEndUser && isConnected) {
			continue
		}
		a.annotate(&svc, idp, isConnected)
		result = append(result, svc)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// showForInstitution hides services marked idp-visible-only from other institutions
func showForInstitution(svc domain.Service, idp domain.IdentityProvider) bool {
	if !svc.IdpVisibleOnly {
		return true
	}
	return svc.InstitutionID != "" && strings.EqualFold(svc.InstitutionID, idp.InstitutionID)
}

// annotate sets the per call fields on svc, which must be the caller's own copy
func (a *Aggregator) annotate(svc *domain.Service, idp domain.IdentityProvider, isConnected bool) {
	svc.Connected = isConnected
	svc.License = a.deps.Crm.GetLicense(svc.ID, idp.InstitutionID)

	svc.CrmArticle = nil
	svc.HasCrmLink = false
	if article, ok := a.deps.Crm.GetArticle(svc.ID); ok {
		svc.CrmArticle = article.CrmArticle()
		svc.HasCrmLink = true
	}

	// only the SURFmarket status depends on a resolved license; declared statuses otherwise win
	if svc.LicenseStatus == domain.LicenseStatusHasLicenseSurfmarket && svc.License == nil {
		svc.LicenseStatus = domain.LicenseStatusNoLicense
	}
}

func (a *Aggregator) locale(raw string) string {
	return resolveLocale(raw, a.cfg.DefaultLocale)
}

// ServiceUsedBy lists the identity providers connected to a service provider, in registry order
func (a *Aggregator) ServiceUsedBy(spEntityID string) []domain.InstitutionIdentityProvider {
	return a.deps.Directory.GetLinkedIdentityProviders(spEntityID)
}

// GetTaxonomy assembles the category tree from the facet store
func (a *Aggregator) GetTaxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	ctx, span := a.startSpan(ctx, OpTaxonomy)
	defer span.End()

	start := time.Now()
	facets, err := a.deps.Facets.FindAll(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load facets: %w", err)
		recordError(span, err)
		return nil, err
	}

	categories := make([]*domain.Category, 0, len(facets))
	for _, facet := range facets {
		category := &domain.Category{
			Name:   facet.Name,
			Values: make([]*domain.CategoryValue, 0, len(facet.Values)),
		}
		for _, fv := range facet.Values {
			category.Values = append(category.Values, &domain.CategoryValue{Value: fv.Value, Category: category})
		}
		categories = append(categories, category)
	}

	a.observer.ObserveAggregation(OpTaxonomy, time.Since(start), len(categories))
	return &domain.Taxonomy{Categories: categories}, nil
}

func (a *Aggregator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "csa."+name, trace.WithAttributes(attrs...))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package cache

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/registry"
)

// ServicesCacheName is the name the services cache reports in logs and metrics
const ServicesCacheName = "services"

type servicesSnapshot struct {
	records []registry.ServiceRecord
}

// rendering is a memoised GetAllServices result, valid only for the snapshot it was built from
type rendering struct {
	snap     *servicesSnapshot
	services []domain.Service
}

// ServicesCache holds the service catalog
type ServicesCache struct {
	refresher[*servicesSnapshot]
	registry      registry.Registry
	defaultLocale string
	rendered      *lru.LRU[string, rendering]
}

// NewServicesCache creates an empty services cache backed by reg
func NewServicesCache(reg registry.Registry, cfg *Config) *ServicesCache {
	cfg = cfg.withDefaults()
	c := &ServicesCache{
		registry:      reg,
		defaultLocale: strings.ToLower(cfg.DefaultLocale),
		rendered:      lru.NewLRU[string, rendering](cfg.LocaleCacheSize, nil, cfg.LocaleCacheTTL),
	}
	c.init(ServicesCacheName, cfg, c.fetch)
	return c
}

func (c *ServicesCache) fetch(ctx context.Context) (*servicesSnapshot, error) {
	records, err := c.registry.Services(ctx)
	if err != nil {
		return nil, err
	}
	return &servicesSnapshot{records: records}, nil
}

// GetAllServices returns every service rendered in locale, in catalog order. Missing
// translations fall back to the default locale. The returned slice is the caller's own
// copy; before the first successful refresh it is empty.
func (c *ServicesCache) GetAllServices(locale string) []domain.Service {
	snap, ok := c.loaded()
	if !ok {
		return []domain.Service{}
	}

	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = c.defaultLocale
	}

	r, ok := c.rendered.Get(locale)
	if !ok || r.snap != snap {
		r = rendering{snap: snap, services: renderServices(snap.records, locale, c.defaultLocale)}
		c.rendered.Add(locale, r)
	}
	return cloneServices(r.services)
}

// DefaultLocale returns the locale used for fallbacks
func (c *ServicesCache) DefaultLocale() string {
	return c.defaultLocale
}

func renderServices(records []registry.ServiceRecord, locale, defaultLocale string) []domain.Service {
	services := make([]domain.Service, 0, len(records))
	for _, rec := range records {
		services = append(services, renderService(rec, locale, defaultLocale))
	}
	return services
}

func renderService(rec registry.ServiceRecord, locale, defaultLocale string) domain.Service {
	svc := domain.Service{
		ID:                  rec.ID,
		Name:                localized(rec.Names, locale, defaultLocale),
		Description:         localized(rec.Descriptions, locale, defaultLocale),
		AppURL:              rec.AppURL,
		WikiURL:             rec.WikiURL,
		SupportMail:         rec.SupportMail,
		SpEntityID:          rec.SpEntityID,
		SpName:              rec.SpName,
		Categories:          renderCategories(rec.Categories),
		IdpVisibleOnly:      rec.IdpVisibleOnly,
		AvailableForEndUser: rec.AvailableForEndUser,
		PublishedInEdugain:  rec.PublishedInEdugain,
		NormenkaderPresent:  rec.NormenkaderPresent,
		NormenkaderURL:      rec.NormenkaderURL,
		ExampleSingleTenant: rec.ExampleSingleTenant,
		InstitutionID:       rec.InstitutionID,
		LicenseStatus:       rec.LicenseStatus,
	}
	if svc.LicenseStatus == "" {
		svc.LicenseStatus = domain.LicenseStatusUnknown
	}
	if rec.Arp != nil {
		svc.Arp = &domain.ARP{NoArp: rec.Arp.NoArp, Attributes: rec.Arp.Attributes}
	}
	return svc
}

func renderCategories(records []registry.CategoryRecord) []domain.Category {
	if len(records) == 0 {
		return nil
	}
	categories := make([]domain.Category, len(records))
	for i, rec := range records {
		categories[i].Name = rec.Name
		categories[i].Values = make([]*domain.CategoryValue, 0, len(rec.Values))
		for _, v := range rec.Values {
			categories[i].Values = append(categories[i].Values, &domain.CategoryValue{Value: v, Category: &categories[i]})
		}
	}
	return categories
}

func localized(texts map[string]string, locale, defaultLocale string) string {
	if text, ok := texts[locale]; ok && text != "" {
		return text
	}
	return texts[defaultLocale]
}

// cloneServices copies the slice so callers can annotate elements. Nested slices and
// pointers are shared with the snapshot and must be treated as read-only.
func cloneServices(services []domain.Service) []domain.Service {
	out := make([]domain.Service, len(services))
	copy(out, services)
	return out
}

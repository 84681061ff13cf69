package cache

import (
	"context"

	"github.com/platinummonkey/selfservice/pkg/crm"
	"github.com/platinummonkey/selfservice/pkg/domain"
)

// CrmCacheName is the name the CRM cache reports in logs and metrics
const CrmCacheName = "crm"

type crmSnapshot struct {
	licenses map[crm.LicenseKey]domain.License
	articles map[int64]crm.Article
}

// CrmCache holds licenses and articles from the CRM
type CrmCache struct {
	refresher[*crmSnapshot]
	source crm.Source
}

// NewCrmCache creates an empty CRM cache backed by source
func NewCrmCache(source crm.Source, cfg *Config) *CrmCache {
	cfg = cfg.withDefaults()
	c := &CrmCache{source: source}
	c.init(CrmCacheName, cfg, c.fetch)
	return c
}

func (c *CrmCache) fetch(ctx context.Context) (*crmSnapshot, error) {
	licenses, err := c.source.Licenses(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := c.source.Articles(ctx)
	if err != nil {
		return nil, err
	}

	snap := &crmSnapshot{
		licenses: make(map[crm.LicenseKey]domain.License, len(licenses)),
		articles: make(map[int64]crm.Article, len(articles)),
	}
	for _, rec := range licenses {
		snap.licenses[crm.NewLicenseKey(rec.ServiceID, rec.InstitutionID)] = rec.License
	}
	for _, article := range articles {
		snap.articles[article.ServiceID] = article
	}
	return snap, nil
}

// GetLicense returns the license of the institution for the service, or nil
func (c *CrmCache) GetLicense(serviceID int64, institutionID string) *domain.License {
	if institutionID == "" {
		return nil
	}
	snap, ok := c.loaded()
	if !ok {
		return nil
	}
	license, found := snap.licenses[crm.NewLicenseKey(serviceID, institutionID)]
	if !found {
		return nil
	}
	return &license
}

// GetArticle returns the article of the service. Services without an article and
// services the CRM does not know about both report false.
func (c *CrmCache) GetArticle(serviceID int64) (crm.Article, bool) {
	snap, ok := c.loaded()
	if !ok {
		return normalizeArticle(crm.Article{}, false)
	}
	article, found := snap.articles[serviceID]
	return normalizeArticle(article, found)
}

// normalizeArticle folds the CRM's "no article" marker into a miss
func normalizeArticle(article crm.Article, found bool) (crm.Article, bool) {
	if !found || article.IsNone() {
		return crm.Article{}, false
	}
	return article, true
}

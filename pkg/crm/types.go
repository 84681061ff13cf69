package crm

import (
	"context"
	"strings"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

// Medium is a published location of an article, such as an app store page
type Medium struct {
	URL string `json:"url"`
}

// Article is the CRM marketing record of a service
type Article struct {
	ServiceID        int64   `json:"serviceId"`
	LmngIdentifier   string  `json:"lmngIdentifier"`
	AndroidPlayStore *Medium `json:"androidPlayStore,omitempty"`
	AppleAppStore    *Medium `json:"appleAppStore,omitempty"`
}

// ArticleNone is the article the CRM reports for a service without one
var ArticleNone = Article{}

// IsNone reports whether the article is the "no article" marker
func (a Article) IsNone() bool {
	return a.LmngIdentifier == ""
}

// CrmArticle converts the article to the form attached to services. The LMNG
// identifier doubles as the article guid.
func (a Article) CrmArticle() *domain.CrmArticle {
	out := &domain.CrmArticle{GUID: a.LmngIdentifier}
	if a.AndroidPlayStore != nil {
		out.AndroidPlayStoreURL = a.AndroidPlayStore.URL
	}
	if a.AppleAppStore != nil {
		out.AppleAppStoreURL = a.AppleAppStore.URL
	}
	return out
}

// LicenseRecord is a license together with the pair it belongs to
type LicenseRecord struct {
	ServiceID     int64
	InstitutionID string
	License       domain.License
}

// LicenseKey identifies a license. Institution ids are compared case-insensitively.
type LicenseKey struct {
	ServiceID     int64
	InstitutionID string
}

// NewLicenseKey builds the lookup key for a (service, institution) pair
func NewLicenseKey(serviceID int64, institutionID string) LicenseKey {
	return LicenseKey{ServiceID: serviceID, InstitutionID: strings.ToLower(institutionID)}
}

// Source supplies the full set of CRM records for one refresh cycle
type Source interface {
	Licenses(ctx context.Context) ([]LicenseRecord, error)
	Articles(ctx context.Context) ([]Article, error)
}

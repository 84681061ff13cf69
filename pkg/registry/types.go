package registry

import (
	"context"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

// Registry supplies raw records for one refresh cycle
type Registry interface {
	Services(ctx context.Context) ([]ServiceRecord, error)
	Providers(ctx context.Context) (*ProviderData, error)
}

// ServiceRecord is a catalog entry with its text in every available locale
type ServiceRecord struct {
	ID                  int64                `json:"id" yaml:"id"`
	Names               map[string]string    `json:"names" yaml:"names"`
	Descriptions        map[string]string    `json:"descriptions" yaml:"descriptions"`
	AppURL              string               `json:"appUrl,omitempty" yaml:"appUrl,omitempty"`
	WikiURL             string               `json:"wikiUrl,omitempty" yaml:"wikiUrl,omitempty"`
	SupportMail         string               `json:"supportMail,omitempty" yaml:"supportMail,omitempty"`
	SpEntityID          string               `json:"spEntityId" yaml:"spEntityId"`
	SpName              string               `json:"spName" yaml:"spName"`
	Categories          []CategoryRecord     `json:"categories,omitempty" yaml:"categories,omitempty"`
	IdpVisibleOnly      bool                 `json:"idpVisibleOnly" yaml:"idpVisibleOnly"`
	AvailableForEndUser bool                 `json:"availableForEndUser" yaml:"availableForEndUser"`
	PublishedInEdugain  bool                 `json:"publishedInEdugain" yaml:"publishedInEdugain"`
	NormenkaderPresent  bool                 `json:"normenkaderPresent" yaml:"normenkaderPresent"`
	NormenkaderURL      string               `json:"normenkaderUrl,omitempty" yaml:"normenkaderUrl,omitempty"`
	ExampleSingleTenant bool                 `json:"exampleSingleTenant" yaml:"exampleSingleTenant"`
	InstitutionID       string               `json:"institutionId,omitempty" yaml:"institutionId,omitempty"`
	LicenseStatus       domain.LicenseStatus `json:"licenseStatus" yaml:"licenseStatus"`
	Arp                 *ArpRecord           `json:"arp,omitempty" yaml:"arp,omitempty"`
}

// CategoryRecord tags a service with a category and some of its values
type CategoryRecord struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// ArpRecord is the attribute release policy as the registry publishes it
type ArpRecord struct {
	NoArp      bool                `json:"noArp" yaml:"noArp"`
	Attributes map[string][]string `json:"attributes" yaml:"attributes"`
}

// IdentityProviderRecord is an identity provider as the registry publishes it
type IdentityProviderRecord struct {
	EntityID      string `json:"entityId" yaml:"entityId"`
	Name          string `json:"name" yaml:"name"`
	InstitutionID string `json:"institutionId" yaml:"institutionId"`
}

// ServiceProviderRecord is a service provider as the registry publishes it
type ServiceProviderRecord struct {
	EntityID string `json:"entityId" yaml:"entityId"`
	Name     string `json:"name" yaml:"name"`
}

// ProviderData holds the providers and the identity provider to service provider links
type ProviderData struct {
	IdentityProviders []IdentityProviderRecord `json:"identityProviders" yaml:"identityProviders"`
	ServiceProviders  []ServiceProviderRecord  `json:"serviceProviders" yaml:"serviceProviders"`
	// Connections maps an identity provider entity id to the service provider entity ids it is linked to
	Connections map[string][]string `json:"connections" yaml:"connections"`
}

// IdentityProvider converts the record to the domain type
func (r IdentityProviderRecord) IdentityProvider() domain.IdentityProvider {
	return domain.IdentityProvider{ID: r.EntityID, Name: r.Name, InstitutionID: r.InstitutionID}
}

// ServiceProvider converts the record to the domain type
func (r ServiceProviderRecord) ServiceProvider() domain.ServiceProvider {
	return domain.ServiceProvider{ID: r.EntityID, Name: r.Name}
}

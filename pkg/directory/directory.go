package directory

import (
	"github.com/platinummonkey/selfservice/pkg/domain"
)

// ProviderSource is the provider data the directory reads from
type ProviderSource interface {
	GetIdentityProvider(entityID string) (domain.IdentityProvider, bool)
	GetServiceProvider(entityID string) (domain.ServiceProvider, bool)
	GetLinkedIdentityProviders(spEntityID string) []domain.IdentityProvider
	GetIdentityProvidersByInstitution(institutionID string) []domain.IdentityProvider
}

// Directory is a read-only lookup over the current provider snapshot
type Directory struct {
	source ProviderSource
}

// New creates a directory over source
func New(source ProviderSource) *Directory {
	return &Directory{source: source}
}

// GetIdentityProvider resolves an identity provider
func (d *Directory) GetIdentityProvider(entityID string) (domain.IdentityProvider, bool) {
	if entityID == "" {
		return domain.IdentityProvider{}, false
	}
	return d.source.GetIdentityProvider(entityID)
}

// GetServiceProvider resolves a service provider
func (d *Directory) GetServiceProvider(entityID string) (domain.ServiceProvider, bool) {
	if entityID == "" {
		return domain.ServiceProvider{}, false
	}
	return d.source.GetServiceProvider(entityID)
}

// GetLinkedIdentityProviders lists the institutions using a service provider
func (d *Directory) GetLinkedIdentityProviders(spEntityID string) []domain.InstitutionIdentityProvider {
	return project(d.source.GetLinkedIdentityProviders(spEntityID))
}

// GetInstitutionIdentityProviders lists the identity providers of an institution
func (d *Directory) GetInstitutionIdentityProviders(institutionID string) []domain.InstitutionIdentityProvider {
	if institutionID == "" {
		return []domain.InstitutionIdentityProvider{}
	}
	return project(d.source.GetIdentityProvidersByInstitution(institutionID))
}

func project(idps []domain.IdentityProvider) []domain.InstitutionIdentityProvider {
	out := make([]domain.InstitutionIdentityProvider, 0, len(idps))
	for _, idp := range idps {
		out = append(out, idp.Institution())
	}
	return out
}

package domain

import (
	"strings"
	"time"
)

// LicenseStatus is the license state a catalog entry declares for a service
type LicenseStatus string

const (
	LicenseStatusHasLicenseSurfmarket LicenseStatus = "HAS_LICENSE_SURFMARKET"
	LicenseStatusHasLicenseSP         LicenseStatus = "HAS_LICENSE_SP"
	LicenseStatusNotNeeded            LicenseStatus = "NOT_NEEDED"
	LicenseStatusUnknown              LicenseStatus = "UNKNOWN"
	LicenseStatusNoLicense            LicenseStatus = "NO_LICENSE"
)

// Valid reports whether s is one of the known statuses
func (s LicenseStatus) Valid() bool {
	switch s {
	case LicenseStatusHasLicenseSurfmarket, LicenseStatusHasLicenseSP,
		LicenseStatusNotNeeded, LicenseStatusUnknown, LicenseStatusNoLicense:
		return true
	}
	return false
}

// License is a CRM license record for a (service, institution) pair
type License struct {
	ContractID      string    `json:"contractId,omitempty"`
	InstitutionName string    `json:"institutionName,omitempty"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	GroupLicense    bool      `json:"groupLicense"`
}

// String renders the license for exports
func (l *License) String() string {
	if l == nil {
		return ""
	}
	return "License[contractId=" + l.ContractID +
		", institution=" + l.InstitutionName +
		", start=" + l.StartDate.Format("2006-01-02") +
		", end=" + l.EndDate.Format("2006-01-02") + "]"
}

// CrmArticle is the marketing metadata attached to a service that has a CRM article
type CrmArticle struct {
	GUID                string `json:"guid"`
	AndroidPlayStoreURL string `json:"androidPlayStoreUrl,omitempty"`
	AppleAppStoreURL    string `json:"appleAppStoreUrl,omitempty"`
}

// ARP is the attribute release policy of a service
type ARP struct {
	NoArp      bool                `json:"noArp"`
	Attributes map[string][]string `json:"attributes"`
}

// Without returns a copy of the policy with the given attribute labels removed
func (a *ARP) Without(labels ...string) *ARP {
	if a == nil {
		return nil
	}
	attrs := make(map[string][]string, len(a.Attributes))
	for k, v := range a.Attributes {
		attrs[k] = v
	}
	for _, label := range labels {
		delete(attrs, label)
	}
	return &ARP{NoArp: a.NoArp, Attributes: attrs}
}

// Service is a catalog entry rendered in a single locale
type Service struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	AppURL              string        `json:"appUrl,omitempty"`
	WikiURL             string        `json:"wikiUrl,omitempty"`
	SupportMail         string        `json:"supportMail,omitempty"`
	SpEntityID          string        `json:"spEntityId"`
	SpName              string        `json:"spName"`
	Categories          []Category    `json:"categories"`
	IdpVisibleOnly      bool          `json:"idpVisibleOnly"`
	AvailableForEndUser bool          `json:"availableForEndUser"`
	PublishedInEdugain  bool          `json:"publishedInEdugain"`
	NormenkaderPresent  bool          `json:"normenkaderPresent"`
	NormenkaderURL      string        `json:"normenkaderUrl,omitempty"`
	ExampleSingleTenant bool          `json:"exampleSingleTenant"`
	InstitutionID       string        `json:"institutionId,omitempty"`
	Arp                 *ARP          `json:"arp,omitempty"`
	LicenseStatus       LicenseStatus `json:"licenseStatus"`

	// Set per aggregation call, never on cached values
	Connected  bool        `json:"connected"`
	License    *License    `json:"license,omitempty"`
	CrmArticle *CrmArticle `json:"crmArticle,omitempty"`
	HasCrmLink bool        `json:"hasCrmLink"`
}

// CategoryNames returns the names of the categories the service is tagged with
func (s Service) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		names = append(names, c.Name)
	}
	return names
}

// IdentityProvider is an institution-side federation endpoint
type IdentityProvider struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	InstitutionID string `json:"institutionId"`
}

// Institution projects the identity provider onto its institution view
func (i IdentityProvider) Institution() InstitutionIdentityProvider {
	return InstitutionIdentityProvider{ID: i.ID, Name: i.Name, InstitutionID: i.InstitutionID}
}

// SameInstitution compares institution ids case-insensitively; an empty id never matches
func (i IdentityProvider) SameInstitution(institutionID string) bool {
	return institutionID != "" && strings.EqualFold(institutionID, i.InstitutionID)
}

// InstitutionIdentityProvider is the read-only projection used when listing identity providers
type InstitutionIdentityProvider struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	InstitutionID string `json:"institutionId"`
}

// ServiceProvider is a federation-registered application
type ServiceProvider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActionType is the kind of workflow request
type ActionType string

const (
	ActionTypeLinkRequest   ActionType = "LINKREQUEST"
	ActionTypeUnlinkRequest ActionType = "UNLINKREQUEST"
)

// ActionStatus is the processing state of a workflow request
type ActionStatus string

const (
	ActionStatusOpen   ActionStatus = "OPEN"
	ActionStatusClosed ActionStatus = "CLOSED"
)

// Action is a connect or disconnect request made by an institution administrator
type Action struct {
	ID            int64        `json:"id"`
	TicketKey     string       `json:"ticketKey,omitempty"`
	UserID        string       `json:"userId"`
	UserName      string       `json:"userName"`
	UserEmail     string       `json:"userEmail,omitempty"`
	Type          ActionType   `json:"type"`
	Status        ActionStatus `json:"status"`
	Body          string       `json:"body,omitempty"`
	IdpID         string       `json:"idpId"`
	SpID          string       `json:"spId"`
	IdpName       string       `json:"idpName,omitempty"`
	SpName        string       `json:"spName,omitempty"`
	InstitutionID string       `json:"institutionId"`
	RequestDate   time.Time    `json:"requestDate"`
}

// Facet is a raw category record from the facet store
type Facet struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Values []FacetValue `json:"values"`
}

// FacetValue is a single value of a facet
type FacetValue struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// Taxonomy is the tree of categories used for catalog filtering
type Taxonomy struct {
	Categories []*Category `json:"categories"`
}

// Category groups category values
type Category struct {
	Name   string           `json:"name"`
	Values []*CategoryValue `json:"values"`
}

// CategoryValue is a value of a category; Category points back to its owner
type CategoryValue struct {
	Value    string    `json:"value"`
	Category *Category `json:"-"`
}

// Authority is a dashboard role granted to a user
type Authority string

const (
	AuthoritySuperUser       Authority = "ROLE_DASHBOARD_SUPER_USER"
	AuthorityDashboardAdmin  Authority = "ROLE_DASHBOARD_ADMIN"
	AuthorityDashboardViewer Authority = "ROLE_DASHBOARD_VIEWER"
)

// CoinUser is the authenticated dashboard user supplied by the authentication layer
type CoinUser struct {
	UID           string      `json:"uid"`
	DisplayName   string      `json:"displayName"`
	Email         string      `json:"email"`
	IdpEntityID   string      `json:"idpEntityId"`
	InstitutionID string      `json:"institutionId"`
	Authorities   []Authority `json:"authorities"`
}

// HasAuthority reports whether the user was granted the authority
func (u *CoinUser) HasAuthority(a Authority) bool {
	for _, granted := range u.Authorities {
		if granted == a {
			return true
		}
	}
	return false
}

func (u *CoinUser) IsSuperUser() bool       { return u.HasAuthority(AuthoritySuperUser) }
func (u *CoinUser) IsDashboardAdmin() bool  { return u.HasAuthority(AuthorityDashboardAdmin) }
func (u *CoinUser) IsDashboardViewer() bool { return u.HasAuthority(AuthorityDashboardViewer) }

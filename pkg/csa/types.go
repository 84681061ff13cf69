package csa

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/selfservice/pkg/crm"
	"github.com/platinummonkey/selfservice/pkg/domain"
)

// Catalog supplies the service catalog rendered in a locale
type Catalog interface {
	GetAllServices(locale string) []domain.Service
}

// Connectivity supplies the service providers an identity provider is connected to
type Connectivity interface {
	GetServiceProviderIdentifiers(idpEntityID string) map[string]struct{}
}

// CrmData supplies licenses and articles
type CrmData interface {
	GetLicense(serviceID int64, institutionID string) *domain.License
	GetArticle(serviceID int64) (crm.Article, bool)
}

// Directory resolves identity and service providers
type Directory interface {
	GetIdentityProvider(entityID string) (domain.IdentityProvider, bool)
	GetServiceProvider(entityID string) (domain.ServiceProvider, bool)
	GetLinkedIdentityProviders(spEntityID string) []domain.InstitutionIdentityProvider
}

// FacetStore supplies the raw taxonomy records
type FacetStore interface {
	FindAll(ctx context.Context) ([]domain.Facet, error)
}

// ActionStore persists workflow requests
type ActionStore interface {
	Save(ctx context.Context, action *domain.Action) (int64, error)
}

// TicketClient opens an issue for a workflow request
type TicketClient interface {
	CreateIssue(ctx context.Context, action *domain.Action) (string, error)
}

// Mailer sends a message to the administration mailbox
type Mailer interface {
	SendMail(from, subject, body string) error
}

// Observer receives aggregation and workflow measurements
type Observer interface {
	ObserveAggregation(operation string, d time.Duration, services int)
	ObserveAction(actionType string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveAggregation(string, time.Duration, int) {}
func (nopObserver) ObserveAction(string, error)                   {}

// Dependencies are the collaborators of the Aggregator. Tickets and Mailer may be nil
// when the matching feature is disabled.
type Dependencies struct {
	Catalog      Catalog
	Connectivity Connectivity
	Crm          CrmData
	Directory    Directory
	Facets       FacetStore
	Actions      ActionStore
	Tickets      TicketClient
	Mailer       Mailer
}

// Config holds the Aggregator settings
type Config struct {
	DefaultLocale string
	TicketEnabled bool
	EmailEnabled  bool

	// Hostname is shown in the administration mail subject; os.Hostname when empty
	Hostname string
	// MailCC is copied on the reply link in the administration mail
	MailCC string

	Logger   *logrus.Logger
	Observer Observer
	Now      func() time.Time
}

package csa

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/selfservice/pkg/crm"
	"github.com/platinummonkey/selfservice/pkg/domain"
)

type fakeCatalog struct {
	services []domain.Service
	locales  []string
}

func (f *fakeCatalog) GetAllServices(locale string) []domain.Service {
	f.locales = append(f.locales, locale)
	out := make([]domain.Service, len(f.services))
	copy(out, f.services)
	return out
}

type fakeConnectivity map[string][]string

func (f fakeConnectivity) GetServiceProviderIdentifiers(idp string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, sp := range f[idp] {
		set[sp] = struct{}{}
	}
	return set
}

type fakeCrm struct {
	licenses map[crm.LicenseKey]*domain.License
	articles map[int64]crm.Article
}

func (f *fakeCrm) GetLicense(serviceID int64, institutionID string) *domain.License {
	if institutionID == "" {
		return nil
	}
	return f.licenses[crm.NewLicenseKey(serviceID, institutionID)]
}

func (f *fakeCrm) GetArticle(serviceID int64) (crm.Article, bool) {
	article, ok := f.articles[serviceID]
	return article, ok
}

type fakeDirectory struct {
	idps   map[string]domain.IdentityProvider
	sps    map[string]domain.ServiceProvider
	linked map[string][]domain.InstitutionIdentityProvider
}

func (f *fakeDirectory) GetIdentityProvider(id string) (domain.IdentityProvider, bool) {
	idp, ok := f.idps[id]
	return idp, ok
}

func (f *fakeDirectory) GetServiceProvider(id string) (domain.ServiceProvider, bool) {
	sp, ok := f.sps[id]
	return sp, ok
}

func (f *fakeDirectory) GetLinkedIdentityProviders(sp string) []domain.InstitutionIdentityProvider {
	return f.linked[sp]
}

type mockFacetStore struct {
	FindAllFunc func(ctx context.Context) ([]domain.Facet, error)
}

func (m *mockFacetStore) FindAll(ctx context.Context) ([]domain.Facet, error) {
	return m.FindAllFunc(ctx)
}

type mockActionStore struct {
	SaveFunc func(ctx context.Context, action *domain.Action) (int64, error)
}

func (m *mockActionStore) Save(ctx context.Context, action *domain.Action) (int64, error) {
	return m.SaveFunc(ctx, action)
}

type mockTicketClient struct {
	CreateIssueFunc func(ctx context.Context, action *domain.Action) (string, error)
}

func (m *mockTicketClient) CreateIssue(ctx context.Context, action *domain.Action) (string, error) {
	return m.CreateIssueFunc(ctx, action)
}

type mockMailer struct {
	SendMailFunc func(from, subject, body string) error
}

func (m *mockMailer) SendMail(from, subject, body string) error {
	return m.SendMailFunc(from, subject, body)
}

type recordingObserver struct {
	mu           sync.Mutex
	aggregations []string
	actions      []string
}

func (r *recordingObserver) ObserveAggregation(op string, _ time.Duration, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregations = append(r.aggregations, op)
}

func (r *recordingObserver) ObserveAction(actionType string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.actions = append(r.actions, strings.Join([]string{actionType, outcome}, ":"))
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var (
	groningen = domain.IdentityProvider{ID: "https://idp.rug.nl", Name: "Groningen", InstitutionID: "RUG"}
	utrecht   = domain.IdentityProvider{ID: "https://idp.uu.nl", Name: "Utrecht", InstitutionID: "UU"}
	noInst    = domain.IdentityProvider{ID: "https://idp.guest.nl", Name: "Guest"}
)

type fixture struct {
	catalog      *fakeCatalog
	connectivity fakeConnectivity
	crm          *fakeCrm
	directory    *fakeDirectory
	observer     *recordingObserver
}

func newFixture(services ...domain.Service) *fixture {
	return &fixture{
		catalog:      &fakeCatalog{services: services},
		connectivity: fakeConnectivity{},
		crm:          &fakeCrm{licenses: map[crm.LicenseKey]*domain.License{}, articles: map[int64]crm.Article{}},
		directory: &fakeDirectory{
			idps: map[string]domain.IdentityProvider{groningen.ID: groningen, utrecht.ID: utrecht, noInst.ID: noInst},
			sps: map[string]domain.ServiceProvider{
				"https://sp.example.org": {ID: "https://sp.example.org", Name: "Example SP"},
			},
			linked: map[string][]domain.InstitutionIdentityProvider{},
		},
		observer: &recordingObserver{},
	}
}

func (f *fixture) aggregator(deps Dependencies, cfg Config) *Aggregator {
	deps.Catalog = f.catalog
	deps.Connectivity = f.connectivity
	deps.Crm = f.crm
	deps.Directory = f.directory
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = f.observer
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "dashboard-1"
	}
	return New(deps, cfg)
}

func service(id int64, sp string) domain.Service {
	return domain.Service{ID: id, Name: sp, SpEntityID: sp, LicenseStatus: domain.LicenseStatusUnknown}
}

func ids(services []domain.Service) []int64 {
	out := make([]int64, 0, len(services))
	for _, s := range services {
		out = append(out, s.ID)
	}
	return out
}

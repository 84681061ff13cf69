package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/httputil"
)

// Headers set by the authenticating proxy in front of the dashboard
const (
	RemoteUserHeader  = "X-Remote-User"
	RemoteNameHeader  = "X-Remote-Name"
	RemoteEmailHeader = "X-Remote-Email"
	RemoteIdpHeader   = "X-Remote-Idp"
	RemoteRolesHeader = "X-Remote-Roles"
)

// ErrUnauthenticated is returned when a request carries no authenticated user
var ErrUnauthenticated = errors.New("no authenticated user")

// UserResolver returns the authenticated user of a request
type UserResolver interface {
	CurrentUser(r *http.Request) (*domain.CoinUser, error)
}

// UserResolverFunc adapts a function to UserResolver
type UserResolverFunc func(r *http.Request) (*domain.CoinUser, error)

// CurrentUser calls f(r)
func (f UserResolverFunc) CurrentUser(r *http.Request) (*domain.CoinUser, error) {
	return f(r)
}

// IdentityProviders looks up the home identity provider of a user
type IdentityProviders interface {
	GetIdentityProvider(entityID string) (domain.IdentityProvider, bool)
}

// InstitutionDirectory lists the identity providers of an institution
type InstitutionDirectory interface {
	GetInstitutionIdentityProviders(institutionID string) []domain.InstitutionIdentityProvider
}

// currentUser resolves the request user, writing 401 when there is none
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*domain.CoinUser, bool) {
	if s.users == nil {
		httputil.WriteUnauthorized(w, ErrUnauthenticated.Error())
		return nil, false
	}
	user, err := s.users.CurrentUser(r)
	if err != nil {
		httputil.WriteUnauthorized(w, err.Error())
		return nil, false
	}
	return user, true
}

// HeaderUserResolver builds users from proxy headers. The institution is taken from the
// user's home identity provider, so an unknown provider yields a user without institution.
type HeaderUserResolver struct {
	idps IdentityProviders
}

// NewHeaderUserResolver creates a resolver backed by the provider directory
func NewHeaderUserResolver(idps IdentityProviders) *HeaderUserResolver {
	return &HeaderUserResolver{idps: idps}
}

// CurrentUser implements UserResolver
func (h *HeaderUserResolver) CurrentUser(r *http.Request) (*domain.CoinUser, error) {
	uid := strings.TrimSpace(r.Header.Get(RemoteUserHeader))
	if uid == "" {
		return nil, ErrUnauthenticated
	}

	user := &domain.CoinUser{
		UID:         uid,
		DisplayName: strings.TrimSpace(r.Header.Get(RemoteNameHeader)),
		Email:       strings.TrimSpace(r.Header.Get(RemoteEmailHeader)),
		IdpEntityID: strings.TrimSpace(r.Header.Get(RemoteIdpHeader)),
	}
	for _, role := range strings.Split(r.Header.Get(RemoteRolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			user.Authorities = append(user.Authorities, domain.Authority(role))
		}
	}
	if user.IdpEntityID != "" && h.idps != nil {
		if idp, ok := h.idps.GetIdentityProvider(user.IdpEntityID); ok {
			user.InstitutionID = idp.InstitutionID
		}
	}
	return user, nil
}

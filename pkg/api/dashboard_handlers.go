package api

import (
	"net/http"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/httputil"
)

// listFacets handles GET /facets
func (s *Server) listFacets(w http.ResponseWriter, r *http.Request) {
	taxonomy, err := s.aggregator.GetTaxonomy(r.Context())
	if err != nil {
		logFor(r, "").WithError(err).Error("failed to load taxonomy")
		httputil.WriteInternalError(w, err)
		return
	}
	categories := taxonomy.Categories
	if categories == nil {
		categories = []*domain.Category{}
	}
	httputil.WritePayload(w, categories)
}

// listActions handles GET /actions
func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	idp, ok := requireIdp(w, r)
	if !ok {
		return
	}

	actions, err := s.actions.FindByIdp(r.Context(), idp)
	if err != nil {
		logFor(r, idp).WithError(err).Error("failed to list actions")
		httputil.WriteInternalError(w, err)
		return
	}
	if actions == nil {
		actions = []*domain.Action{}
	}
	httputil.WritePayload(w, actions)
}

// listInstitutionIdps handles GET /users/me/idps: the identity providers of the institution the
// current user belongs to. Users without an institution get an empty list.
func (s *Server) listInstitutionIdps(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	idps := []domain.InstitutionIdentityProvider{}
	if s.institutions != nil && user.InstitutionID != "" {
		idps = s.institutions.GetInstitutionIdentityProviders(user.InstitutionID)
	}
	httputil.WritePayload(w, idps)
}

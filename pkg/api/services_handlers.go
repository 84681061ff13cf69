package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/httputil"
)

// eduPersonTargetedID is never shown in the attribute release policy of a single service
const eduPersonTargetedID = "urn:mace:dir:attribute-def:eduPersonTargetedID"

const exportFilename = "service-overview.csv"

var exportHeader = []string{
	"id", "name", "description", "app-url", "wiki-url", "support-mail", "connected", "license",
	"licenseStatus", "categories", "spEntityId", "spName", "publishedInEdugain",
	"normenkaderPresent", "normenkaderUrl", "singleTenant",
}

// listServices handles GET /services
func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	idp, ok := requireIdp(w, r)
	if !ok {
		return
	}

	services, err := s.aggregator.GetServicesForIdp(r.Context(), idp, requestLocale(r))
	if err != nil {
		logFor(r, idp).WithError(err).Error("failed to list services")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WritePayload(w, services)
}

// connectedIdps handles GET /services/idps
func (s *Server) connectedIdps(w http.ResponseWriter, r *http.Request) {
	spEntityID := httputil.ParseQueryString(r, "spEntityId", "")
	if !httputil.RequireNonEmpty(w, spEntityID, "spEntityId") {
		return
	}
	httputil.WritePayload(w, s.aggregator.ServiceUsedBy(spEntityID))
}

// getService handles GET /services/id/{id}
func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	idp, ok := requireIdp(w, r)
	if !ok {
		return
	}

	service, err := s.aggregator.GetServiceForIdp(r.Context(), idp, id, requestLocale(r))
	if err != nil {
		if !domain.IsNotFound(err) {
			logFor(r, idp).WithError(err).Error("failed to load service")
		}
		httputil.WriteDomainError(w, err)
		return
	}
	out := *service
	out.Arp = service.Arp.Without(eduPersonTargetedID)
	httputil.WritePayload(w, &out)
}

// downloadServices handles GET /services/download, exporting the requested services as CSV.
// The catalog is aggregated once; ids the identity provider cannot see are skipped and
// repeated ids are exported once, in order of first appearance.
func (s *Server) downloadServices(w http.ResponseWriter, r *http.Request) {
	idp := httputil.ParseQueryString(r, "idpEntityId", r.Header.Get(IdpEntityIDHeader))
	if !httputil.RequireNonEmpty(w, idp, "idpEntityId") {
		return
	}
	ids, err := httputil.ParseQueryInt64s(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	services, err := s.aggregator.GetServicesForIdp(r.Context(), idp, requestLocale(r))
	if err != nil {
		logFor(r, idp).WithError(err).Error("failed to export services")
		httputil.WriteDomainError(w, err)
		return
	}
	visible := make(map[int64]*domain.Service, len(services))
	for i := range services {
		visible[services[i].ID] = &services[i]
	}

	records := make([][]string, 0, len(ids)+1)
	records = append(records, exportHeader)
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		service, ok := visible[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		records = append(records, exportRow(service))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	w.WriteHeader(http.StatusOK)

	// the status is already sent, so a write failure can only be logged
	if err := csv.NewWriter(w).WriteAll(records); err != nil {
		logFor(r, idp).WithError(err).Error("failed to write service export")
	}
}

func exportRow(s *domain.Service) []string {
	return []string{
		strconv.FormatInt(s.ID, 10),
		s.Name,
		s.Description,
		s.AppURL,
		s.WikiURL,
		s.SupportMail,
		strconv.FormatBool(s.Connected),
		s.License.String(),
		string(s.LicenseStatus),
		strings.Join(s.CategoryNames(), ","),
		s.SpEntityID,
		s.SpName,
		strconv.FormatBool(s.PublishedInEdugain),
		strconv.FormatBool(s.NormenkaderPresent),
		s.NormenkaderURL,
		strconv.FormatBool(s.ExampleSingleTenant),
	}
}

// connect handles POST /services/id/{id}/connect
func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	s.requestAction(w, r, domain.ActionTypeLinkRequest)
}

// disconnect handles POST /services/id/{id}/disconnect
func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	s.requestAction(w, r, domain.ActionTypeUnlinkRequest)
}

// requestAction files a workflow request on behalf of an institution administrator. Super users
// and viewers act for institutions they do not belong to, so they may not file requests.
func (s *Server) requestAction(w http.ResponseWriter, r *http.Request, actionType domain.ActionType) {
	if _, ok := httputil.ParsePathInt64OrError(w, r, "id"); !ok {
		return
	}
	idp, ok := requireIdp(w, r)
	if !ok {
		return
	}

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if user.IsSuperUser() || user.IsDashboardViewer() || user.InstitutionID == "" {
		httputil.WriteForbidden(w, "user may not request changes for an institution")
		return
	}

	if err := r.ParseForm(); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	spEntityID := strings.TrimSpace(r.Form.Get("spEntityId"))
	if !httputil.RequireNonEmpty(w, spEntityID, "spEntityId") {
		return
	}

	action := &domain.Action{
		UserID:        user.UID,
		UserName:      user.DisplayName,
		UserEmail:     user.Email,
		Type:          actionType,
		Body:          r.Form.Get("comments"),
		IdpID:         idp,
		SpID:          spEntityID,
		InstitutionID: user.InstitutionID,
	}

	created, err := s.aggregator.CreateAction(r.Context(), action)
	if err != nil {
		logFor(r, idp).WithError(err).WithField("sp", spEntityID).Error("failed to create action")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WritePayload(w, created)
}

package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRegistry_Services(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/services", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"names":{"en":"Mail","nl":"Post"},"spEntityId":"sp1","licenseStatus":"HAS_LICENSE_SURFMARKET","idpVisibleOnly":true,"institutionId":"RUG"}]`))
	}))
	defer server.Close()

	reg := NewHTTPRegistry(server.URL+"/api/", 5*time.Second)
	services, err := reg.Services(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)

	assert.Equal(t, int64(1), services[0].ID)
	assert.Equal(t, "Post", services[0].Names["nl"])
	assert.Equal(t, "sp1", services[0].SpEntityID)
	assert.Equal(t, domain.LicenseStatusHasLicenseSurfmarket, services[0].LicenseStatus)
	assert.True(t, services[0].IdpVisibleOnly)
	assert.Equal(t, "RUG", services[0].InstitutionID)
}

func TestHTTPRegistry_Providers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/providers", r.URL.Path)
		w.Write([]byte(`{
			"identityProviders":[{"entityId":"idp1","name":"IdP One","institutionId":"RUG"}],
			"serviceProviders":[{"entityId":"sp1","name":"SP One"}],
			"connections":{"idp1":["sp1"]}
		}`))
	}))
	defer server.Close()

	reg := NewHTTPRegistry(server.URL, 5*time.Second)
	data, err := reg.Providers(context.Background())
	require.NoError(t, err)

	require.Len(t, data.IdentityProviders, 1)
	assert.Equal(t, domain.IdentityProvider{ID: "idp1", Name: "IdP One", InstitutionID: "RUG"}, data.IdentityProviders[0].IdentityProvider())
	assert.Equal(t, domain.ServiceProvider{ID: "sp1", Name: "SP One"}, data.ServiceProviders[0].ServiceProvider())
	assert.Equal(t, []string{"sp1"}, data.Connections["idp1"])
}

func TestHTTPRegistry_ProvidersWithoutConnections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"identityProviders":[],"serviceProviders":[]}`))
	}))
	defer server.Close()

	data, err := NewHTTPRegistry(server.URL, time.Second).Providers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, data.Connections)
}

func TestHTTPRegistry_Errors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewHTTPRegistry(server.URL, time.Second).Services(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpectedStatus))
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewHTTPRegistry(server.URL, time.Second).Services(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewHTTPRegistry(url, time.Second).Providers(context.Background())
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTTPRegistry(server.URL, time.Second).Services(ctx)
		require.Error(t, err)
	})
}

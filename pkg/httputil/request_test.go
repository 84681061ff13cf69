package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathInt64(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		want    int64
		wantErr string
	}{
		{"valid", map[string]string{"id": "42"}, 42, ""},
		{"missing", map[string]string{}, 0, "missing path parameter: id"},
		{"invalid", map[string]string{"id": "abc"}, 0, "invalid integer for id: abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), tt.vars)
			got, err := ParsePathInt64(r, "id")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathInt64OrError(t *testing.T) {
	w := httptest.NewRecorder()
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "x"})

	_, ok := ParsePathInt64OrError(w, r, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?spEntityId=+https://sp.example.org+&empty=", nil)

	assert.Equal(t, "https://sp.example.org", ParseQueryString(r, "spEntityId", ""))
	assert.Equal(t, "fallback", ParseQueryString(r, "empty", "fallback"))
	assert.Equal(t, "fallback", ParseQueryString(r, "absent", "fallback"))
}

func TestParseQueryInt64s(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?id[]=1&id[]=2&id=3", nil)

	ids, err := ParseQueryInt64s(r, "id")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)

	r = httptest.NewRequest(http.MethodGet, "/?id=1&id=two", nil)
	_, err = ParseQueryInt64s(r, "id")
	assert.EqualError(t, err, "invalid integer for query param id: two")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	ids, err = ParseQueryInt64s(r, "id")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRequireNonEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(w, "  ", "spEntityId"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "spEntityId is required")

	assert.True(t, RequireNonEmpty(httptest.NewRecorder(), "x", "spEntityId"))
}

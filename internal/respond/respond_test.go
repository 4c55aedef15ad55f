package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

func TestError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{appErrors.NewNotFound("Newsletter", 1), http.StatusNotFound, `{"detail":"Newsletter not found"}`},
		{appErrors.NewValidation("bad"), http.StatusBadRequest, `{"detail":"bad"}`},
		{errors.New("boom"), http.StatusInternalServerError, `{"detail":"boom"}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		Error(w, tt.err)
		assert.Equal(t, tt.status, w.Code)
		assert.JSONEq(t, tt.body, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Message(w, "Template deleted successfully")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Template deleted successfully"}`, w.Body.String())
}

func TestPaging(t *testing.T) {
	tests := []struct {
		query       string
		skip, limit int
		wantErr     bool
	}{
		{"", 0, 100, false},
		{"skip=5&limit=10", 5, 10, false},
		{"limit=1000", 0, 1000, false},
		{"skip=-1", 0, 0, true},
		{"limit=0", 0, 0, true},
		{"limit=1001", 0, 0, true},
		{"skip=abc", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			skip, limit, err := Paging(r)
			if tt.wantErr {
				assert.Equal(t, http.StatusBadRequest, appErrors.StatusCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestPathID(t *testing.T) {
	r := chi.NewRouter()
	var got int
	var gotErr error
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = PathID(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, 42, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	assert.EqualError(t, gotErr, "invalid id")
}

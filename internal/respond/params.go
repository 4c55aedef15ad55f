package respond

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// PathID parses the integer URL parameter name.
func PathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, appErrors.NewValidation("invalid %s", name)
	}
	return id, nil
}

// Paging reads skip and limit from the query string, defaulting to 0 and
// DefaultLimit.
func Paging(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()
	skip, limit = 0, DefaultLimit

	if s := q.Get("skip"); s != "" {
		skip, err = strconv.Atoi(s)
		if err != nil || skip < 0 {
			return 0, 0, appErrors.NewValidation("skip must be a non-negative integer")
		}
	}
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 || limit > MaxLimit {
			return 0, 0, appErrors.NewValidation("limit must be an integer between 1 and %d", MaxLimit)
		}
	}
	return skip, limit, nil
}

package service

import (
	"errors"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

// wrapDB passes typed errors through and marks anything else as a
// database failure.
func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	var (
		nf *appErrors.NotFoundError
		ve *appErrors.ValidationError
		ue *appErrors.UpstreamError
	)
	if errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &ue) {
		return err
	}
	return appErrors.NewUpstream("Database error", err)
}

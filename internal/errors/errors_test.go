package appErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFound("Newsletter", 3), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", NewNotFound("Template", 1)), http.StatusNotFound},
		{"validation", NewValidation("bad %s", "image"), http.StatusBadRequest},
		{"upstream", NewUpstream("upload image", errors.New("denied")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Newsletter not found", NewNotFound("Newsletter", 9).Error())
	assert.Equal(t, "bad image", NewValidation("bad %s", "image").Error())
	assert.Equal(t, "database error: conn reset", NewUpstream("database error", errors.New("conn reset")).Error())

	cause := errors.New("timeout")
	assert.ErrorIs(t, NewUpstream("op", cause), cause)
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewNotFound("Template", 2))))
	assert.False(t, IsNotFound(cause))
}

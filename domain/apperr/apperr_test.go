package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/artpar/zacre/domain/apperr"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("layout not found"), http.StatusNotFound},
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("in use"), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("no"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("no"), http.StatusForbidden},
		{"wrapped", fmt.Errorf("delete: %w", apperr.NotFound("x")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageOf(t *testing.T) {
	if got := apperr.MessageOf(apperr.Conflict("Layout has pages, cannot delete"), "x"); got != "Layout has pages, cannot delete" {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := apperr.MessageOf(errors.New("sql: connection refused"), "internal error"); got != "internal error" {
		t.Errorf("MessageOf() = %q, want fallback", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk")
	err := apperr.Wrap(apperr.KindUnexpected, "save failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !apperr.Is(err, apperr.KindUnexpected) {
		t.Error("Is() should match kind")
	}
	if apperr.Is(err, apperr.KindNotFound) {
		t.Error("Is() should not match other kinds")
	}
}

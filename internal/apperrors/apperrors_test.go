package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Invalid("email", "is required"), http.StatusBadRequest},
		{fmt.Errorf("driver 4: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("plate: %w", ErrConflict), http.StatusConflict},
		{ErrInvalidCode, http.StatusUnprocessableEntity},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInactiveAccount, http.StatusForbidden},
		{fmt.Errorf("smtp: %w", ErrDeliveryFailure), http.StatusServiceUnavailable},
		{ErrRenderFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestValidationErrorOrNil(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Fatal("empty validation error should collapse to nil")
	}
	err := v.Add("password2", "passwords do not match").OrNil()
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := err.Error(); got != "invalid input: password2: passwords do not match" {
		t.Errorf("unexpected message %q", got)
	}
}

package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("asset", "abc"), ErrNotFound, true},
		{"Forbidden wraps ErrForbidden", Forbidden("not yours"), ErrForbidden, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("page", "page must be >= 1"), ErrValidation, true},
		{"BadRequest wraps ErrBadRequest", BadRequest("nothing deleted"), ErrBadRequest, true},
		{"Forbidden is not NotFound", Forbidden("not yours"), ErrNotFound, false},
		{"wrapped twice still matches", fmt.Errorf("load: %w", NotFound("user", "sub")), ErrNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	if got := NotFound("asset", "abc").Error(); got != "asset not found with id abc" {
		t.Errorf("Error() = %q", got)
	}
	err := ValidationFailed("take", "take must be between 1 and 50")
	if err.Field != "take" {
		t.Errorf("Field = %q, want %q", err.Field, "take")
	}
}

package pkg

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError(t *testing.T) {
	cause := errors.New("provider said no")
	appErr := NewDomainError("PAYMENT_FAILED", "Payment failed", cause, 0)

	if appErr.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected default 500, got %d", appErr.HTTPStatus)
	}
	if !errors.Is(appErr, cause) {
		t.Fatalf("expected wrapped cause")
	}
	body := appErr.ToHTTPError()
	if body.Code != "PAYMENT_FAILED" || body.Message != "Payment failed" {
		t.Fatalf("unexpected body: %+v", body)
	}

	simple := NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	if simple.Error() != "INVALID_REQUEST: Invalid request" {
		t.Fatalf("unexpected error string: %s", simple.Error())
	}
}

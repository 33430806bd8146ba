package handlers

import (
	"errors"
	"net/http"
	"strings"

	"marketplace_payments/internal/usecase"
	"marketplace_payments/internal/usecase/interfaces"
	"marketplace_payments/pkg"
)

// mapPaymentError never exposes provider messages; they stay in the logs.
func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrGatewayMismatch):
		return pkg.NewDomainErrorSimple("GATEWAY_MISMATCH", "Payment request belongs to another gateway", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrValidation):
		return pkg.NewDomainError("INVALID_REQUEST", validationMessage(err), err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentRequestNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_REQUEST_NOT_FOUND", "Payment request not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrUnknownGateway):
		return pkg.NewDomainErrorSimple("GATEWAY_NOT_FOUND", "Payment gateway not available", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentInProgress):
		return pkg.NewDomainErrorSimple("PAYMENT_IN_PROGRESS", "Payment is already in progress", http.StatusConflict)
	case errors.Is(err, interfaces.ErrPaymentRequestExists):
		return pkg.NewDomainErrorSimple("PAYMENT_REQUEST_EXISTS", "Payment request already exists", http.StatusConflict)
	case errors.Is(err, interfaces.ErrGatewayRejected):
		return pkg.NewDomainError("PAYMENT_GATEWAY_REJECTED", "Payment could not be processed", err, http.StatusBadGateway)
	case errors.Is(err, interfaces.ErrGatewayUnreachable):
		return pkg.NewDomainError("PAYMENT_GATEWAY_UNAVAILABLE", "Payment gateway temporarily unavailable", err, http.StatusServiceUnavailable)
	case errors.Is(err, interfaces.ErrInvalidSignature):
		return pkg.NewDomainError("INVALID_SIGNATURE", "Invalid webhook signature", err, http.StatusUnauthorized)
	case errors.Is(err, interfaces.ErrInvalidPayload):
		return pkg.NewDomainError("INVALID_PAYLOAD", "Invalid webhook payload", err, http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func validationMessage(err error) string {
	for _, known := range []error{
		usecase.ErrInvalidPaymentAmount,
		usecase.ErrInvalidCurrencyCode,
		usecase.ErrUnknownPaymentPlatform,
		usecase.ErrInvalidPaymentRequestID,
		usecase.ErrUnsupportedAction,
	} {
		if errors.Is(err, known) {
			return strings.TrimPrefix(known.Error(), usecase.ErrValidation.Error()+": ")
		}
	}
	return "Invalid request"
}

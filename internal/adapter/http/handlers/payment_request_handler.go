package handlers

import (
	"net/http"
	"strconv"

	request "marketplace_payments/internal/adapter/http/dto/request"
	response "marketplace_payments/internal/adapter/http/dto/response"
	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase"
	"marketplace_payments/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errInvalidPaymentRequestPayload = pkg.NewDomainErrorSimple("INVALID_PAYMENT_REQUEST_INPUT", "Invalid payment request payload", http.StatusBadRequest)
	errInvalidRedirectLink          = pkg.NewDomainErrorSimple("INVALID_REDIRECT_LINK", "external_redirect_link must be an absolute http(s) url", http.StatusBadRequest)
)

// PaymentRequestHandler exposes the ledger: creation, lookup and the polling
// reconciliation channel.
type PaymentRequestHandler struct {
	ledger         usecase.IPaymentLedgerUseCase
	reconciliation usecase.IReconciliationUseCase
	log            *zap.Logger
}

func NewPaymentRequestHandler(ledger usecase.IPaymentLedgerUseCase, reconciliation usecase.IReconciliationUseCase, log *zap.Logger) *PaymentRequestHandler {
	return &PaymentRequestHandler{ledger: ledger, reconciliation: reconciliation, log: log.Named("http.payment_requests")}
}

// CreatePaymentRequest godoc
// @Summary      Create a payment request
// @Description  Opens a pending ledger entry for one payment attempt.
// @Tags         payment-requests
// @Accept       json
// @Produce      json
// @Param        request  body      request.PaymentRequestCreateRequest  true  "Payment request"
// @Success      201      {object}  response.PaymentRequestResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      500      {object}  pkg.HTTPError
// @Router       /v1/payment-requests [post]
func (h *PaymentRequestHandler) CreatePaymentRequest(c *gin.Context) {
	var payload request.PaymentRequestCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Info("invalid create payload", zap.Error(err))
		c.JSON(errInvalidPaymentRequestPayload.HTTPStatus, errInvalidPaymentRequestPayload.ToHTTPError())
		return
	}
	link, err := payload.ResolveRedirectLink()
	if err != nil {
		c.JSON(errInvalidRedirectLink.HTTPStatus, errInvalidRedirectLink.ToHTTPError())
		return
	}

	created, err := h.ledger.Create(c.Request.Context(), usecase.CreatePaymentRequestInput{
		Amount:               payload.PaymentAmount,
		CurrencyCode:         payload.CurrencyCode,
		PayerID:              payload.PayerID,
		ReceiverID:           payload.ReceiverID,
		PayerInformation:     payerInformation(payload.PayerInformation),
		ReceiverInformation:  payerInformation(payload.ReceiverInformation),
		AdditionalData:       payload.AdditionalData,
		Attribute:            payload.Attribute,
		AttributeID:          string(payload.AttributeID),
		PaymentPlatform:      payload.PaymentPlatform,
		SuccessHook:          payload.SuccessHook,
		FailureHook:          payload.FailureHook,
		ExternalRedirectLink: link,
	})
	if err != nil {
		appErr := mapPaymentError(err)
		h.log.Info("create failed", zap.String("code", appErr.Code), zap.Error(err))
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusCreated, response.FromPaymentRequest(created))
}

// GetPaymentRequest godoc
// @Summary      Get a payment request
// @Tags         payment-requests
// @Produce      json
// @Param        id   path      string  true  "Payment request id"
// @Success      200  {object}  response.PaymentRequestResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /v1/payment-requests/{id} [get]
func (h *PaymentRequestHandler) GetPaymentRequest(c *gin.Context) {
	p, err := h.ledger.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPaymentRequest(p))
}

// GetPaymentStatus godoc
// @Summary      Poll the payment status
// @Description  With refresh=true the gateway is asked once and a terminal answer is committed.
// @Tags         payment-requests
// @Produce      json
// @Param        id       path      string  true   "Payment request id"
// @Param        refresh  query     bool    false  "Verify with the gateway"
// @Success      200      {object}  response.PaymentStatusResponse
// @Failure      404      {object}  pkg.HTTPError
// @Failure      503      {object}  pkg.HTTPError
// @Router       /v1/payment-requests/{id}/status [get]
func (h *PaymentRequestHandler) GetPaymentStatus(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	res, err := h.reconciliation.Poll(c.Request.Context(), c.Param("id"), refresh)
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.NewPaymentStatusResponse(res.PaymentRequest, string(res.Outcome)))
}

func payerInformation(r request.PayerInformationRequest) entities.PayerInformation {
	return entities.PayerInformation{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

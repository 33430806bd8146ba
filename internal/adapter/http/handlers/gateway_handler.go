package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	request "marketplace_payments/internal/adapter/http/dto/request"
	response "marketplace_payments/internal/adapter/http/dto/response"
	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase"
	"marketplace_payments/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

var errMissingPaymentID = pkg.NewDomainErrorSimple("INVALID_REQUEST", "payment_id is required", http.StatusOK)

// GatewayHandler serves the per-gateway payer and provider routes. Every
// route resolves the adapter from the :gateway path segment.
type GatewayHandler struct {
	usecase usecase.IReconciliationUseCase
	log     *zap.Logger
}

func NewGatewayHandler(uc usecase.IReconciliationUseCase, log *zap.Logger) *GatewayHandler {
	return &GatewayHandler{usecase: uc, log: log.Named("http.gateway")}
}

// Index godoc
// @Summary      Start a payment
// @Description  Creates the gateway transaction and returns the embedded widget artifact, or redirects to the hosted checkout.
// @Tags         gateways
// @Produce      json
// @Param        gateway     path   string  true  "Gateway name"
// @Param        payment_id  query  string  true  "Payment request id"
// @Success      200  {object}  response.CheckoutResponse
// @Success      302
// @Failure      404  {object}  pkg.HTTPError
// @Failure      502  {object}  pkg.HTTPError
// @Router       /v1/{gateway}/index [get]
func (h *GatewayHandler) Index(c *gin.Context) {
	h.start(c, entities.CreateActionIndex)
}

// Payment godoc
// @Summary      Submit a payment
// @Description  Creates the gateway transaction for the redirect flow, or charges the card token posted by a checkout widget.
// @Tags         gateways
// @Accept       json
// @Produce      json
// @Param        gateway     path   string  true   "Gateway name"
// @Param        payment_id  query  string  true   "Payment request id"
// @Param        payload     body   object  false  "Gateway specific payload"
// @Success      200  {object}  response.CheckoutResponse
// @Success      302
// @Failure      409  {object}  pkg.HTTPError
// @Failure      502  {object}  pkg.HTTPError
// @Router       /v1/{gateway}/payment [post]
func (h *GatewayHandler) Payment(c *gin.Context) {
	h.start(c, entities.CreateActionPayment)
}

func (h *GatewayHandler) start(c *gin.Context, action entities.CreateAction) {
	gateway := c.Param("gateway")
	id := paymentID(c)
	if id == "" {
		c.JSON(errMissingPaymentID.HTTPStatus, errMissingPaymentID.ToHTTPError())
		return
	}

	var payload []byte
	if c.Request.Method == http.MethodPost {
		raw, err := c.GetRawData()
		if err == nil {
			payload, err = request.ReadPayload(raw)
		}
		if err != nil {
			appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusOK)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
	}

	res, err := h.usecase.Start(c.Request.Context(), gateway, id, action, payload)
	switch {
	case errors.Is(err, usecase.ErrAlreadyProcessed):
		if res.Outcome != "" && res.Outcome != usecase.OutcomePending && res.PaymentRequest.ExternalRedirectLink != "" {
			h.renderOutcome(c, res.PaymentRequest, res.Outcome)
			return
		}
		c.JSON(http.StatusOK, response.PaymentOutcomeResponse{Status: "already_processed", PaymentID: id})
		return
	case errors.Is(err, usecase.ErrValidation):
		appErr := mapPaymentError(err)
		appErr.HTTPStatus = http.StatusOK
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	case err != nil:
		appErr := mapPaymentError(err)
		h.log.Warn("start failed", zap.String("gateway", gateway), zap.String("payment_id", id), zap.String("code", appErr.Code), zap.Error(err))
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if res.Outcome != "" {
		h.renderOutcome(c, res.PaymentRequest, res.Outcome)
		return
	}
	if res.Artifact.Kind == entities.ArtifactRedirect && res.Artifact.RedirectURL != "" && c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusFound, res.Artifact.RedirectURL)
		return
	}
	c.JSON(http.StatusOK, response.NewCheckoutResponse(id, gateway, res.Artifact))
}

// Return godoc
// @Summary      Payer return from the gateway
// @Description  Verifies the transaction and renders success or fail. Also served as /callback and /success.
// @Tags         gateways
// @Produce      json
// @Param        gateway     path   string  true  "Gateway name"
// @Param        payment_id  query  string  true  "Payment request id"
// @Success      200  {object}  response.PaymentOutcomeResponse
// @Success      302
// @Failure      404  {object}  pkg.HTTPError
// @Router       /v1/{gateway}/return [get]
func (h *GatewayHandler) Return(c *gin.Context) {
	res, err := h.usecase.Return(c.Request.Context(), c.Param("gateway"), paymentID(c))
	if err != nil {
		appErr := mapPaymentError(err)
		h.log.Warn("return failed", zap.String("gateway", c.Param("gateway")), zap.String("code", appErr.Code), zap.Error(err))
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	h.renderOutcome(c, res.PaymentRequest, res.Outcome)
}

// Cancel godoc
// @Summary      Payer canceled at the gateway
// @Tags         gateways
// @Produce      json
// @Param        gateway     path   string  true  "Gateway name"
// @Param        payment_id  query  string  true  "Payment request id"
// @Success      200  {object}  response.PaymentOutcomeResponse
// @Success      302
// @Router       /v1/{gateway}/cancel [get]
func (h *GatewayHandler) Cancel(c *gin.Context) {
	res, err := h.usecase.Cancel(c.Request.Context(), c.Param("gateway"), paymentID(c))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	h.renderOutcome(c, res.PaymentRequest, res.Outcome)
}

// Webhook godoc
// @Summary      Gateway notification
// @Description  Acknowledged with 200 unless the signature (401) or the envelope (400) is invalid, or the gateway could not be reached to confirm it (503).
// @Tags         gateways
// @Accept       json
// @Produce      json
// @Param        gateway  path  string  true  "Gateway name"
// @Success      200  {object}  response.WebhookAckResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Failure      503  {object}  pkg.HTTPError
// @Router       /v1/{gateway}/webhook [post]
func (h *GatewayHandler) Webhook(c *gin.Context) {
	gateway := c.Param("gateway")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_PAYLOAD", "Invalid webhook payload", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	res, err := h.usecase.HandleWebhook(c.Request.Context(), gateway, c.Request.Header, c.ClientIP(), body)
	if err != nil {
		appErr := mapPaymentError(err)
		h.log.Warn("webhook not acknowledged", zap.String("gateway", gateway), zap.String("code", appErr.Code), zap.Error(err))
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	h.log.Debug("webhook acknowledged", zap.String("gateway", gateway), zap.String("result", res.Status), zap.String("payment_id", res.PaymentRequestID))
	c.JSON(http.StatusOK, response.WebhookAckResponse{Status: "ok"})
}

// renderOutcome redirects to the entry's external link with flag and token,
// or answers with JSON when there is none.
func (h *GatewayHandler) renderOutcome(c *gin.Context, p entities.PaymentRequest, outcome usecase.Outcome) {
	if p.ExternalRedirectLink != "" {
		if target, err := outcomeURL(p.ExternalRedirectLink, outcome, p.ID); err == nil {
			c.Redirect(http.StatusFound, target)
			return
		}
		h.log.Warn("invalid external redirect link", zap.String("payment_id", p.ID))
	}
	c.JSON(http.StatusOK, response.PaymentOutcomeResponse{Status: string(outcome), PaymentID: p.ID})
}

func outcomeURL(link string, outcome usecase.Outcome, id string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("flag", string(outcome))
	q.Set("token", id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func paymentID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("payment_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.PostForm("payment_id"))
}

package routes

import (
	"marketplace_payments/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

func addPaymentRequestRoutes(rg *gin.RouterGroup, h *handlers.PaymentRequestHandler) {
	requests := rg.Group(PathPaymentRequests)
	{
		requests.POST("", h.CreatePaymentRequest)
		requests.GET("/:id", h.GetPaymentRequest)
		requests.GET("/:id/status", h.GetPaymentStatus)
	}
}

// addGatewayRoutes mounts the payer and provider endpoints of every gateway.
// /callback and /success are aliases of /return used by some providers.
func addGatewayRoutes(rg *gin.RouterGroup, h *handlers.GatewayHandler) {
	gateway := rg.Group(PathGateway)
	{
		gateway.GET("/index", h.Index)
		gateway.GET("/payment", h.Payment)
		gateway.POST("/payment", h.Payment)
		for _, path := range []string{"/return", "/callback", "/success"} {
			gateway.GET(path, h.Return)
			gateway.POST(path, h.Return)
		}
		gateway.GET("/cancel", h.Cancel)
		gateway.POST("/webhook", h.Webhook)
	}
}

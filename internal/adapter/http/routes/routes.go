package routes

import (
	"net/http"

	_ "marketplace_payments/docs" // swagger spec
	"marketplace_payments/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const (
	PathPaymentRequests = "/payment-requests"
	PathGateway         = "/:gateway"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	PaymentRequests *handlers.PaymentRequestHandler
	Gateways        *handlers.GatewayHandler
	Registry        *prometheus.Registry
}

// NewRouter builds the gin engine. trustedProxies decides which peers may set
// X-Forwarded-For; the webhook source checks depend on it.
func NewRouter(h Handlers, trustedProxies []string, log *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	setMiddlewares(router, log)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{Registry: h.Registry})))
	}

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRequestRoutes(v1, h.PaymentRequests)
	addGatewayRoutes(v1, h.Gateways)
	return router, nil
}

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func setMiddlewares(router *gin.Engine, log *zap.Logger) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("recovered from panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}

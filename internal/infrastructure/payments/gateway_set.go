package payments

import (
	"errors"
	"sort"

	"marketplace_payments/internal/infrastructure/config"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// GatewaySet holds the gateways configured at startup, keyed by name.
type GatewaySet struct {
	gateways map[string]interfaces.IPaymentGateway
}

// NewGatewaySet builds every gateway with credentials for the selected mode.
// Unconfigured gateways are skipped with a warning so one missing provider
// does not keep the others down. In mock mode every known gateway name is
// served by a MockGateway.
func NewGatewaySet(cfg config.Gateways, publicBaseURL string, receipts *ReceiptBuilder, log *zap.Logger, m *metrics.PaymentMetrics) (*GatewaySet, error) {
	set := &GatewaySet{gateways: map[string]interfaces.IPaymentGateway{}}
	if cfg.MockEnabled() {
		log.Warn("mock mode enabled, every gateway is simulated")
		for _, name := range KnownGateways {
			set.Add(NewMockGateway(name, publicBaseURL, log))
		}
		return set, nil
	}

	httpCfg := HTTPClientConfig{
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		MaxAttempts:    cfg.MaxAttempts,
		MinDelay:       cfg.RetryMinDelay,
		MaxDelay:       cfg.RetryMaxDelay,
	}

	shopID, yooSecret := cfg.YooKassaCredentials()
	yookassa, err := NewYooKassaGateway(YooKassaOptions{
		BaseURL:       cfg.YooKassa.BaseURL,
		ShopID:        shopID,
		SecretKey:     yooSecret,
		PublicBaseURL: publicBaseURL,
		AllowedIPs:    cfg.YooKassa.WebhookAllowedIPs,
		HTTP:          httpCfg,
		Receipts:      receipts,
		Logger:        log,
		Metrics:       m,
	})
	if err := set.addOrSkip(yookassa, err, GatewayYooKassa, ErrMissingYooKassaCredentials, log); err != nil {
		return nil, err
	}

	paystackPublic, paystackSecret := cfg.PaystackCredentials()
	paystack, err := NewPaystackGateway(PaystackOptions{
		BaseURL:       cfg.Paystack.BaseURL,
		PublicKey:     paystackPublic,
		SecretKey:     paystackSecret,
		PublicBaseURL: publicBaseURL,
		HTTP:          httpCfg,
		Logger:        log,
		Metrics:       m,
	})
	if err := set.addOrSkip(paystack, err, GatewayPaystack, ErrMissingPaystackCredentials, log); err != nil {
		return nil, err
	}

	keyID, keySecret := cfg.RazorpayCredentials()
	razorpay, err := NewRazorpayGateway(RazorpayOptions{
		BaseURL:       cfg.Razorpay.BaseURL,
		KeyID:         keyID,
		KeySecret:     keySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		PublicBaseURL: publicBaseURL,
		HTTP:          httpCfg,
		Logger:        log,
		Metrics:       m,
	})
	if err := set.addOrSkip(razorpay, err, GatewayRazorpay, ErrMissingRazorpayCredentials, log); err != nil {
		return nil, err
	}

	accessToken, mpPublic := cfg.MercadoPagoCredentials()
	mercadopago, err := NewMercadoPagoGateway(MercadoPagoOptions{
		AccessToken:   accessToken,
		PublicKey:     mpPublic,
		WebhookSecret: cfg.MercadoPago.WebhookSecret,
		PublicBaseURL: publicBaseURL,
		HTTP:          httpCfg,
		Logger:        log,
		Metrics:       m,
	})
	if err := set.addOrSkip(mercadopago, err, GatewayMercadoPago, ErrMissingMercadoPagoAccessToken, log); err != nil {
		return nil, err
	}

	if len(set.gateways) == 0 {
		log.Warn("no payment gateway configured")
	}
	return set, nil
}

func NewGatewaySetOf(gateways ...interfaces.IPaymentGateway) *GatewaySet {
	set := &GatewaySet{gateways: map[string]interfaces.IPaymentGateway{}}
	for _, g := range gateways {
		set.Add(g)
	}
	return set
}

func (s *GatewaySet) Add(g interfaces.IPaymentGateway) {
	s.gateways[g.Name()] = g
}

// addOrSkip registers g, or skips it when its constructor reported missing
// credentials. Any other constructor error is fatal.
func (s *GatewaySet) addOrSkip(g interfaces.IPaymentGateway, err error, name string, missing error, log *zap.Logger) error {
	switch {
	case err == nil:
		s.Add(g)
		log.Info("gateway registered", zap.String("gateway", name))
		return nil
	case errors.Is(err, missing):
		log.Warn("gateway not configured, skipping", zap.String("gateway", name))
		return nil
	default:
		return err
	}
}

func (s *GatewaySet) Get(name string) (interfaces.IPaymentGateway, bool) {
	g, ok := s.gateways[name]
	return g, ok
}

// All returns the gateways sorted by name.
func (s *GatewaySet) All() []interfaces.IPaymentGateway {
	out := make([]interfaces.IPaymentGateway, 0, len(s.gateways))
	for _, name := range s.Names() {
		out = append(out, s.gateways[name])
	}
	return out
}

func (s *GatewaySet) Names() []string {
	names := make([]string, 0, len(s.gateways))
	for name := range s.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

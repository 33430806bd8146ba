package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeLive = "live"
	ModeTest = "test"

	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"payment-service"`

	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Storage  Storage  `yaml:"storage"`
	AWS      AWS      `yaml:"aws"`
	Kafka    Kafka    `yaml:"kafka"`
	Gateways Gateways `yaml:"gateways"`
}

type HTTP struct {
	Port int `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	// PublicBaseURL is used to build return/callback URLs handed to gateways.
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	// TrustedProxies are the reverse proxies allowed to set X-Forwarded-For.
	// Webhook source checks rely on the resolved client address.
	TrustedProxies  []string      `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type Storage struct {
	Driver          string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"dynamodb"`
	PaymentsTable   string `yaml:"payments_table" env:"PAYMENT_REQUESTS_TABLE" env-default:"payment_requests"`
	OrderLinesTable string `yaml:"order_lines_table" env:"ORDER_LINES_TABLE" env-default:"order_details"`
	PostgresDSN     string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
}

type AWS struct {
	Region           string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID      string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID" env-default:"local"`
	SecretAccessKey  string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY" env-default:"local"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint" env:"DYNAMODB_ENDPOINT"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_PAYMENT_EVENTS_TOPIC" env-default:"payment-events"`
}

type Gateways struct {
	// Mock accepts 1/true/yes/on/mock.
	Mock string `yaml:"mock" env:"PAYMENT_GATEWAY_MOCK"`
	Mode string `yaml:"mode" env:"PAYMENT_MODE" env-default:"test"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"GATEWAY_CONNECT_TIMEOUT" env-default:"15s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"GATEWAY_REQUEST_TIMEOUT" env-default:"60s"`
	MaxAttempts    int           `yaml:"max_attempts" env:"GATEWAY_MAX_ATTEMPTS" env-default:"3"`
	RetryMinDelay  time.Duration `yaml:"retry_min_delay" env:"GATEWAY_RETRY_MIN_DELAY" env-default:"1s"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay" env:"GATEWAY_RETRY_MAX_DELAY" env-default:"4s"`

	ReturnVerifyTimeout     time.Duration `yaml:"return_verify_timeout" env:"RETURN_VERIFY_TIMEOUT" env-default:"8s"`
	ReturnVerifyMinInterval time.Duration `yaml:"return_verify_min_interval" env:"RETURN_VERIFY_MIN_INTERVAL" env-default:"500ms"`
	ReturnVerifyMaxInterval time.Duration `yaml:"return_verify_max_interval" env:"RETURN_VERIFY_MAX_INTERVAL" env-default:"2s"`

	YooKassa    YooKassa    `yaml:"yookassa"`
	Paystack    Paystack    `yaml:"paystack"`
	Razorpay    Razorpay    `yaml:"razorpay"`
	MercadoPago MercadoPago `yaml:"mercadopago"`
}

type YooKassa struct {
	BaseURL       string `yaml:"base_url" env:"YOOKASSA_BASE_URL" env-default:"https://api.yookassa.ru/v3"`
	ShopIDLive    string `yaml:"shop_id_live" env:"YOOKASSA_SHOP_ID_LIVE"`
	SecretKeyLive string `yaml:"secret_key_live" env:"YOOKASSA_SECRET_KEY_LIVE"`
	ShopIDTest    string `yaml:"shop_id_test" env:"YOOKASSA_SHOP_ID_TEST"`
	SecretKeyTest string `yaml:"secret_key_test" env:"YOOKASSA_SECRET_KEY_TEST"`
	// WebhookAllowedIPs are the notification source ranges YooKassa publishes.
	WebhookAllowedIPs []string `yaml:"webhook_allowed_ips" env:"YOOKASSA_WEBHOOK_ALLOWED_IPS" env-separator:"," env-default:"185.71.76.0/27,185.71.77.0/27,77.75.153.0/25,77.75.156.11/32,77.75.156.35/32,77.75.154.128/25,2a02:5180::/32"`
}

type Paystack struct {
	BaseURL       string `yaml:"base_url" env:"PAYSTACK_BASE_URL" env-default:"https://api.paystack.co"`
	PublicKeyLive string `yaml:"public_key_live" env:"PAYSTACK_PUBLIC_KEY_LIVE"`
	SecretKeyLive string `yaml:"secret_key_live" env:"PAYSTACK_SECRET_KEY_LIVE"`
	PublicKeyTest string `yaml:"public_key_test" env:"PAYSTACK_PUBLIC_KEY_TEST"`
	SecretKeyTest string `yaml:"secret_key_test" env:"PAYSTACK_SECRET_KEY_TEST"`
}

type Razorpay struct {
	BaseURL       string `yaml:"base_url" env:"RAZORPAY_BASE_URL" env-default:"https://api.razorpay.com"`
	KeyIDLive     string `yaml:"key_id_live" env:"RAZORPAY_KEY_ID_LIVE"`
	KeySecretLive string `yaml:"key_secret_live" env:"RAZORPAY_KEY_SECRET_LIVE"`
	KeyIDTest     string `yaml:"key_id_test" env:"RAZORPAY_KEY_ID_TEST"`
	KeySecretTest string `yaml:"key_secret_test" env:"RAZORPAY_KEY_SECRET_TEST"`
	WebhookSecret string `yaml:"webhook_secret" env:"RAZORPAY_WEBHOOK_SECRET"`
}

type MercadoPago struct {
	AccessTokenLive string `yaml:"access_token_live" env:"MERCADOPAGO_ACCESS_TOKEN_LIVE"`
	PublicKeyLive   string `yaml:"public_key_live" env:"MERCADOPAGO_PUBLIC_KEY_LIVE"`
	AccessTokenTest string `yaml:"access_token_test" env:"MERCADOPAGO_ACCESS_TOKEN_TEST"`
	PublicKeyTest   string `yaml:"public_key_test" env:"MERCADOPAGO_PUBLIC_KEY_TEST"`
	WebhookSecret   string `yaml:"webhook_secret" env:"MERCADOPAGO_WEBHOOK_SECRET"`
}

// Load reads CONFIG_PATH (yaml) when set, otherwise the environment only.
// Environment variables always win over the file.
func Load() (*Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDynamoDB, StorageMemory:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for storage driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Gateways.Mode != ModeLive && c.Gateways.Mode != ModeTest {
		return fmt.Errorf("PAYMENT_MODE must be %q or %q, got %q", ModeLive, ModeTest, c.Gateways.Mode)
	}
	if c.Gateways.MaxAttempts < 1 {
		return fmt.Errorf("GATEWAY_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

// MockEnabled reports whether every gateway is replaced by the in-process mock.
func (g Gateways) MockEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(g.Mock)) {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

// IsLive reports whether live credentials are selected.
func (g Gateways) IsLive() bool { return g.Mode == ModeLive }

func (g Gateways) pick(live, test string) string {
	if g.IsLive() {
		return live
	}
	return test
}

func (g Gateways) YooKassaCredentials() (shopID, secretKey string) {
	return g.pick(g.YooKassa.ShopIDLive, g.YooKassa.ShopIDTest), g.pick(g.YooKassa.SecretKeyLive, g.YooKassa.SecretKeyTest)
}

func (g Gateways) PaystackCredentials() (publicKey, secretKey string) {
	return g.pick(g.Paystack.PublicKeyLive, g.Paystack.PublicKeyTest), g.pick(g.Paystack.SecretKeyLive, g.Paystack.SecretKeyTest)
}

func (g Gateways) RazorpayCredentials() (keyID, keySecret string) {
	return g.pick(g.Razorpay.KeyIDLive, g.Razorpay.KeyIDTest), g.pick(g.Razorpay.KeySecretLive, g.Razorpay.KeySecretTest)
}

func (g Gateways) MercadoPagoCredentials() (accessToken, publicKey string) {
	return g.pick(g.MercadoPago.AccessTokenLive, g.MercadoPago.AccessTokenTest), g.pick(g.MercadoPago.PublicKeyLive, g.MercadoPago.PublicKeyTest)
}

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPlanCatalogHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// PublicBaseURL is the externally reachable origin used for provider
	// return and notify URLs. Payment flows refuse to run unless it is https.
	PublicBaseURL string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis    RedisConfig
	Payments PaymentsConfig
	Push     PushConfig
	Admin    AdminConfig

	PlansFile string
}

// TelemetryConfig feeds logging, tracing and metrics. Exporting is off
// unless an OTLP endpoint is set or OTEL_ENABLED forces it.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
	ExportEnabled bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PaymentsConfig struct {
	Currency string
	TestMode bool

	CheckoutRate  float64
	CheckoutBurst int

	Cashfree CashfreeConfig
	Razorpay RazorpayConfig
}

type CashfreeConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	APIVersion   string
	// WebhookSecret defaults to ClientSecret, which is what Cashfree signs with.
	WebhookSecret string
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	BaseURL       string
	WebhookSecret string
}

type PushConfig struct {
	CredentialsFile string
	ProjectID       string
}

type AdminConfig struct {
	TokenHash          string
	ModeratorTokenHash string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cashfreeSecret := strings.TrimSpace(getenv("CASHFREE_CLIENT_SECRET", ""))

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "cloudstage"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_BASE_URL", "")), "/"),
		Telemetry:     loadTelemetry(),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "cloudstage"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Payments: PaymentsConfig{
			Currency:      strings.ToUpper(getenv("PAYMENTS_CURRENCY", "INR")),
			TestMode:      getenvBool("PAYMENTS_TEST_MODE", false),
			CheckoutRate:  getenvFloat("CHECKOUT_RATE", 0.2),
			CheckoutBurst: getenvInt("CHECKOUT_BURST", 5),
			Cashfree: CashfreeConfig{
				ClientID:      strings.TrimSpace(getenv("CASHFREE_CLIENT_ID", "")),
				ClientSecret:  cashfreeSecret,
				BaseURL:       strings.TrimRight(getenv("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg"), "/"),
				APIVersion:    getenv("CASHFREE_API_VERSION", "2023-08-01"),
				WebhookSecret: strings.TrimSpace(getenv("CASHFREE_WEBHOOK_SECRET", cashfreeSecret)),
			},
			Razorpay: RazorpayConfig{
				KeyID:         strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
				KeySecret:     strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
				BaseURL:       strings.TrimRight(getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"), "/"),
				WebhookSecret: strings.TrimSpace(getenv("RAZORPAY_WEBHOOK_SECRET", "")),
			},
		},
		Push: PushConfig{
			CredentialsFile: strings.TrimSpace(getenv("FCM_CREDENTIALS_FILE", "")),
			ProjectID:       strings.TrimSpace(getenv("FCM_PROJECT_ID", "")),
		},
		Admin: AdminConfig{
			TokenHash:          strings.TrimSpace(getenv("ADMIN_TOKEN_HASH", "")),
			ModeratorTokenHash: strings.TrimSpace(getenv("MODERATOR_TOKEN_HASH", "")),
		},
		PlansFile: strings.TrimSpace(getenv("PLANS_FILE", "")),
	}

	return cfg
}

func loadTelemetry() TelemetryConfig {
	endpoint := strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "")))
	protocol := getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))
	return TelemetryConfig{
		LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OTLPEndpoint:  endpoint,
		OTLPProtocol:  strings.ToLower(strings.TrimSpace(protocol)),
		SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		ExportEnabled: getenvBool("OTEL_ENABLED", endpoint != ""),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

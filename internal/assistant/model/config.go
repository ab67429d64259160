package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"24h"`
}

type DialogueConfig struct {
	MaxHistory   int           `envconfig:"DIALOGUE_MAX_HISTORY" default:"100"`
	TurnTimeout  time.Duration `envconfig:"DIALOGUE_TURN_TIMEOUT" default:"30s"`
	MaxAutoSteps int           `envconfig:"DIALOGUE_MAX_AUTO_STEPS" default:"4"`
}

type CatalogConfig struct {
	File    string `envconfig:"CATALOG_FILE"`
	PerPage int    `envconfig:"CATALOG_PER_PAGE" default:"5"`
}

type PaymentConfig struct {
	KeyID      string        `envconfig:"PAYMENT_KEY_ID" default:"rzp_test_vaanisewa"`
	KeySecret  string        `envconfig:"PAYMENT_KEY_SECRET" default:"vaanisewa-test-secret"`
	Currency   string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	MaxRetries int           `envconfig:"PAYMENT_MAX_RETRIES" default:"3"`
	OrderTTL   time.Duration `envconfig:"PAYMENT_ORDER_TTL" default:"30m"`
}

type StorefrontConfig struct {
	URL string `envconfig:"STOREFRONT_URL" default:"/"`
}

type HTTPConfig struct {
	Addr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	CORSOrigins []string      `envconfig:"HTTP_CORS_ORIGINS" default:"*"`
	SessionIdle time.Duration `envconfig:"HTTP_SESSION_IDLE" default:"30m"`
}

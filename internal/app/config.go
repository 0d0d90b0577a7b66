package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete bridge configuration, loadable from environment
// variables (BRIDGE_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"Bridge server listen address"`
	// ThankYouTemplate points at a custom thank-you template; the
	// embedded default is used when empty.
	ThankYouTemplate string `default:"" usage:"Path to the thank-you template" flag:"thank-you-template"`
	CiviCRM          CiviCRMConfig
	Stripe           StripeConfig
	Graceful         GracefulConfig
}

// CiviCRMConfig locates the CRM and authenticates against it.
type CiviCRMConfig struct {
	Endpoint string `usage:"CiviCRM REST endpoint URL (BRIDGE_CIVICRM_ENDPOINT)"`
	SiteKey  string `usage:"CiviCRM site key" flag:"site-key"`
	APIKey   string `usage:"API key of the acting CiviCRM contact" flag:"api-key"`
}

// StripeConfig enables balance-transaction lookups for charge metadata.
// Leaving the secret empty disables gateway metadata capture.
type StripeConfig struct {
	SecretKey string `usage:"Stripe secret key" flag:"stripe-secret"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BRIDGE",
		Files:     []string{"config.yaml", "/etc/order-bridge/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.CiviCRM.Endpoint == "" {
		return nil, errors.New("CiviCRM endpoint is required: set BRIDGE_CIVICRM_ENDPOINT")
	}
	if cfg.CiviCRM.SiteKey == "" || cfg.CiviCRM.APIKey == "" {
		return nil, errors.New("CiviCRM keys are required: set BRIDGE_CIVICRM_SITEKEY and BRIDGE_CIVICRM_APIKEY")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like PORT to the BRIDGE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

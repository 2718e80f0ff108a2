package channels

import "errors"

// ErrWooConfigMissingBaseURL indicates the WooCommerce base URL is unset
var ErrWooConfigMissingBaseURL = errors.New("woocommerce: base URL is required")

// WooCommerceConfig holds configuration for the WooCommerce store API.
// Credentials are injected configuration, never embedded literals.
type WooCommerceConfig struct {
	// BaseURL is the API base URL (endpoints live under /api/woocommerce)
	BaseURL string
	// ConsumerKey is the optional WooCommerce REST consumer key
	ConsumerKey string
	// ConsumerSecret is the optional WooCommerce REST consumer secret
	ConsumerSecret string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the WooCommerce channel configuration
func (c *WooCommerceConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrWooConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

package channels

import "errors"

// Errors for Firebase channel configuration
var (
	ErrFirebaseConfigMissingBaseURL = errors.New("firebase: base URL is required")
	ErrFirebaseConfigMissingAPIKey  = errors.New("firebase: api key is required")
	ErrFirebaseConfigMissingBasic   = errors.New("firebase: basic auth credentials are required")
)

// FirebaseConfig holds configuration for the Firebase-backed order store.
// Credentials are injected configuration, never embedded literals.
type FirebaseConfig struct {
	// BaseURL is the API base URL (endpoints live under /firebase)
	BaseURL string
	// APIKey is sent as the x-api-key header
	APIKey string
	// BasicUser is the HTTP basic auth username
	BasicUser string
	// BasicPassword is the HTTP basic auth password
	BasicPassword string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the Firebase channel configuration
func (c *FirebaseConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrFirebaseConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrFirebaseConfigMissingAPIKey
	}
	if c.BasicUser == "" || c.BasicPassword == "" {
		return ErrFirebaseConfigMissingBasic
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

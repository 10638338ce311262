package config

const (
	defaultAPIBaseURL  = "http://localhost:8000"
	defaultKeycloakURL = "http://localhost:8080"
	defaultRealm       = "aws-cost-realm"
	defaultClientID    = "aws-cost-app"

	defaultTopic = "costwise.turns"

	defaultMockListen     = ":8000"
	defaultMockFrameDelay = "40ms"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			BaseURL: defaultAPIBaseURL,
		},
		Auth: AuthConfig{
			KeycloakURL: defaultKeycloakURL,
			Realm:       defaultRealm,
			ClientID:    defaultClientID,
		},
		EventStream: EventStreamConfig{
			Topic: defaultTopic,
		},
		Mock: MockConfig{
			Listen:     defaultMockListen,
			FrameDelay: defaultMockFrameDelay,
		},
	}
}

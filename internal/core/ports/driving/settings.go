package driving

import "github.com/custodia-labs/sercha-server/internal/core/domain"

// SettingsService manages service configuration.
type SettingsService interface {
	// Get returns the effective settings: defaults overlaid with stored values.
	Get() (*domain.Settings, error)

	// Set parses and stores a single key, then persists the configuration.
	// The resulting settings must validate.
	Set(key, value string) error

	// Keys returns every recognised configuration key.
	Keys() []string

	// GetDefaults returns the built-in settings.
	GetDefaults() domain.Settings
}

package adapter

import "github.com/redbco/hana-backend/pkg/dbcapabilities"

// ConnectionConfig contains the configuration for a database connection.
type ConnectionConfig struct {
	// Core identifiers
	DatabaseID string `json:"databaseId,omitempty"`

	// Connection metadata
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// Connection details
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	SchemaName string `json:"schemaName"`

	// Debug enables the debug cursor and query logging.
	Debug bool `json:"debug,omitempty"`

	// QueryLogSize bounds the per-connection query log. Zero means the
	// package default.
	QueryLogSize int `json:"queryLogSize,omitempty"`

	// Database-specific options (use sparingly)
	Options map[string]interface{} `json:"options,omitempty"`
}

// Validate checks that all required connection parameters are present.
// It returns a ConfigurationError naming the first missing field, before any
// network activity takes place.
func (c ConnectionConfig) Validate() error {
	if c.Host == "" {
		return NewConfigurationError(dbcapabilities.HANA, "host", "value is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return NewConfigurationError(dbcapabilities.HANA, "port", "value must be between 1 and 65535")
	}
	if c.Username == "" {
		return NewConfigurationError(dbcapabilities.HANA, "username", "value is required")
	}
	if c.Password == "" {
		return NewConfigurationError(dbcapabilities.HANA, "password", "value is required")
	}
	if c.SchemaName == "" {
		return NewConfigurationError(dbcapabilities.HANA, "schemaName", "value is required")
	}
	return nil
}

// GetStringPtr returns a pointer to a string value, or nil if the string is empty.
// Helper function for optional string fields.
func GetStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetString returns the string value from a pointer, or empty string if nil.
// Helper function for optional string fields.
func GetString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

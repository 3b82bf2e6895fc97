package core

import "fmt"

// ConfigError represents a configuration-related error with an actionable
// instruction for resolving it.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing = "ENV_FILE_MISSING"
	ErrCodeMissingConfig  = "MISSING_CONFIG"
	ErrCodeInvalidLimit   = "INVALID_LIMIT"
	ErrCodeInvalidBaseURL = "INVALID_BASE_URL"
)

// ErrEnvFileMissing returns an error for a missing .env file.
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and configure the required values",
	}
}

// ErrMissingConfig returns an error for missing required configuration.
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrInvalidLimit returns an error for a nonsensical numeric limit.
func ErrInvalidLimit(varName string, value int) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidLimit,
		Message: fmt.Sprintf("Invalid value %d for %s", value, varName),
		Action:  fmt.Sprintf("Set %s to a positive value or remove it to use the default", varName),
	}
}

// ErrInvalidBaseURL returns an error for a malformed provider base URL.
func ErrInvalidBaseURL(url string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidBaseURL,
		Message: fmt.Sprintf("Invalid LLM_BASE_URL '%s': %s", url, reason),
		Action:  "Set LLM_BASE_URL to a valid URL (e.g., https://api.groq.com/openai/v1)",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so.
func IsConfigError(err error) (*ConfigError, bool) {
	if configErr, ok := err.(*ConfigError); ok {
		return configErr, true
	}
	return nil, false
}

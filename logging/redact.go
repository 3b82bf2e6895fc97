package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive data in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns match credential shapes that might leak into log values.
// Compiled once at package init. The first two cover the providers this
// service actually forwards keys to; the rest are generic assignments.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(gsk_[a-zA-Z0-9]{20,})`),          // Groq API keys
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),         // OpenAI-style keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),  // Bearer tokens
	regexp.MustCompile(`(?i)(api_?key\s*[:=]\s*[^\s,;]{8,})`), // api_key= / apikey:
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
}

// sensitiveFieldMarkers flag log field names whose values must never be
// emitted at all, regardless of shape.
var sensitiveFieldMarkers = []string{
	"API_KEY",
	"APIKEY",
	"TOKEN",
	"SECRET",
	"PASSWORD",
	"CREDENTIAL",
}

// RedactSensitiveData scrubs any detected credential patterns from a value.
// Pure function.
//
// Example:
//
//	logging.RedactSensitiveData("key is gsk_abc123...")  // "key is [REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactField redacts a value when the field name marks it sensitive, and
// otherwise scans the value itself for credential patterns.
//
// Example:
//
//	logging.RedactField("api_key", "gsk_secret")  // "[REDACTED]"
//	logging.RedactField("model", "llama-3.3-70b-versatile")  // unchanged
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}

// IsSensitiveField reports whether a field name indicates credential data.
func IsSensitiveField(fieldName string) bool {
	upper := strings.ToUpper(fieldName)
	for _, marker := range sensitiveFieldMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

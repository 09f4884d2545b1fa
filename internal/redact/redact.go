// Package redact removes sensitive information from strings before they are
// logged. Error messages in this service can carry database URLs, presigned
// image URLs, session cookies and local file paths.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedSignaturePlaceholder  = "[REDACTED_SIGNATURE]"
	RedactedCookiePlaceholder     = "[REDACTED_COOKIE]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules are applied in order; earlier rules see the original text.
var rules = []rule{
	// Stack trace fragments
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), RedactedStackPlaceholder},

	// Database connection strings
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@`), RedactedCredentialPlaceholder},

	// Presigned URL query parameters (S3 / R2 style)
	{regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token))=[^&\s"']+`), "${1}=" + RedactedSignaturePlaceholder},

	// Cookie headers and cookie name/value pairs
	{regexp.MustCompile(`(?i)(set-cookie|cookie)(\s*[:=]\s*)[^\n]+`), "${1}${2}" + RedactedCookiePlaceholder},

	// Credentials and tokens
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},

	// SQL statements
	{regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\S]*?\b(FROM|INTO|SET)\b\s+\w+`), RedactedSQLPlaceholder},

	// Local file paths, but not URL paths
	{regexp.MustCompile(`(^|[\s"'(=])(/[\w.-]+){2,}`), "${1}" + RedactedPathPlaceholder},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
